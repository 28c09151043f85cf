package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/codecollab-io/codecollab/realtime"
)

var (
	codeBlockRe  = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseReply robustly extracts a structured reply from model output.
// Handles raw JSON, fenced code blocks and JSON embedded in surrounding
// prose, since models do not reliably honor JSON mode across providers.
func ParseReply(content string) (*realtime.Reply, error) {
	content = strings.TrimSpace(content)

	// Try direct parse first
	var r realtime.Reply
	if err := json.Unmarshal([]byte(content), &r); err == nil && r.Text != "" {
		return &r, nil
	}

	// Try a fenced code block (```json or ```)
	if matches := codeBlockRe.FindStringSubmatch(content); len(matches) > 1 {
		r = realtime.Reply{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[1])), &r); err == nil && r.Text != "" {
			return &r, nil
		}
	}

	// Try the outermost { ... } span
	if match := jsonObjectRe.FindString(content); match != "" {
		r = realtime.Reply{}
		if err := json.Unmarshal([]byte(match), &r); err == nil && r.Text != "" {
			return &r, nil
		}
	}

	return nil, errors.New("unable to parse structured reply from completion")
}
