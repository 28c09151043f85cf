package realtime

import (
	"github.com/coder/websocket"
	"github.com/codecollab-io/codecollab/auth"
	"github.com/google/uuid"
)

// sendBufferSize bounds the per-client outbound queue; a client that cannot
// drain it simply misses broadcasts (no queuing for slow consumers).
const sendBufferSize = 256

// Client is one authenticated, room-joined connection. The identity and
// project are attached during the handshake and never change afterwards.
type Client struct {
	ID        string
	Identity  auth.Claims
	ProjectID string

	Conn *websocket.Conn
	Send chan []byte

	joined bool // guarded by the Manager's lock
}

// NewClient creates a client for an authenticated connection
func NewClient(identity auth.Claims, projectID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:        uuid.New().String(),
		Identity:  identity,
		ProjectID: projectID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
	}
}
