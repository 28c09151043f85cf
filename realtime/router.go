package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/codecollab-io/codecollab/log"
)

// agentMention prefixes a human message addressed to the AI agent
const agentMention = "@ai"

// agentTimeout bounds a single completion request
const agentTimeout = 2 * time.Minute

// Completer produces a structured AI reply for a prompt. The completion
// engine itself is an external collaborator.
type Completer interface {
	Complete(ctx context.Context, projectID, prompt string) (*Reply, error)
}

// Router classifies and relays room messages. Inbound payloads are forwarded
// verbatim to room peers; classification by sender id only decides what else
// happens (tree synchronization, agent invocation). The sender identity is
// trusted as supplied by the client, matching the original transport.
type Router struct {
	rooms *Manager
	sync  *Synchronizer
	agent Completer // nil disables agent mentions
}

// NewRouter creates a message router
func NewRouter(rooms *Manager, sync *Synchronizer, agent Completer) *Router {
	return &Router{rooms: rooms, sync: sync, agent: agent}
}

// HandleInbound processes one raw message event from a joined connection.
// The payload is relayed to room peers excluding the sender before any
// classification; a body that fails to parse is logged and stays inert
// rather than tearing down the session.
func (r *Router) HandleInbound(c *Client, raw []byte) {
	r.rooms.Broadcast(c.ProjectID, c, raw)

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("roomId", c.ProjectID).Msg("unparseable message payload")
		return
	}

	if env.IsAI() {
		reply, err := env.DecodeReply()
		if err != nil {
			log.Warn().Err(err).Str("roomId", c.ProjectID).Msg("malformed structured reply")
			return
		}
		r.sync.ApplyReply(c.ProjectID, reply)
		return
	}

	// Human message mentioning the agent kicks off a completion
	if prompt, ok := strings.CutPrefix(strings.TrimSpace(env.Text()), agentMention); ok && r.agent != nil {
		go r.generate(c.ProjectID, strings.TrimSpace(prompt))
	}
}

// generate runs one agent completion and feeds the reply back into the room.
// The reply goes to every member, requester included, and then through the
// same synchronization path as any other AI message.
func (r *Router) generate(projectID, prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), agentTimeout)
	defer cancel()

	reply, err := r.agent.Complete(ctx, projectID, prompt)
	if err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("agent completion failed")
		reply = &Reply{Text: "Sorry, something went wrong while generating a reply."}
	}

	data, err := EncodeAIEnvelope(reply)
	if err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("reply encode failed")
		return
	}

	r.rooms.BroadcastAll(projectID, data)
	r.sync.ApplyReply(projectID, reply)
}
