// Package agent is the AI message producer: it turns a prompt into a
// structured reply {text, fileTree} via an OpenAI-compatible completion API.
package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/codecollab-io/codecollab/config"
	"github.com/codecollab-io/codecollab/log"
	"github.com/codecollab-io/codecollab/realtime"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("agent: OPENAI_API_KEY not configured")

const systemPrompt = `You are a senior software engineer collaborating inside a shared project workspace.
Respond with a single JSON object of the shape:
{"text": "<markdown explanation>", "fileTree": {"<name>": {"file": {"contents": "<file contents>"}}, "<dir>": { ... }}}
Include "fileTree" only when the user asks for code or project scaffolding; it must contain complete file contents, never fragments.
For purely conversational prompts, return {"text": "..."} with no fileTree.`

// Agent produces structured replies through the OpenAI chat completion API
type Agent struct {
	client *openai.Client
	model  string
}

var (
	defaultAgent *Agent
	agentOnce    sync.Once
)

// Get returns the singleton agent, or nil when no API key is configured
func Get() *Agent {
	agentOnce.Do(func() {
		cfg := config.Get()
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not configured, AI agent disabled")
			return
		}

		clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" && cfg.OpenAIBaseURL != "https://api.openai.com/v1" {
			clientConfig.BaseURL = cfg.OpenAIBaseURL
		}

		defaultAgent = &Agent{
			client: openai.NewClientWithConfig(clientConfig),
			model:  cfg.OpenAIModel,
		}
		log.Info().Str("model", cfg.OpenAIModel).Msg("AI agent initialized")
	})
	return defaultAgent
}

// Complete generates a structured reply for the prompt. Implements
// realtime.Completer.
func (a *Agent) Complete(ctx context.Context, projectID, prompt string) (*realtime.Reply, error) {
	if a == nil {
		return nil, ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("agent: completion returned no choices")
	}

	content := resp.Choices[0].Message.Content

	log.Debug().
		Str("projectId", projectID).
		Str("finishReason", string(resp.Choices[0].FinishReason)).
		Int("totalTokens", resp.Usage.TotalTokens).
		Msg("completion finished")

	reply, err := ParseReply(content)
	if err != nil {
		// A reply we cannot parse as structured data is still a reply;
		// deliver it as plain text rather than failing the request.
		log.Warn().Err(err).Str("projectId", projectID).Msg("unstructured completion content")
		return &realtime.Reply{Text: content}, nil
	}
	return reply, nil
}
