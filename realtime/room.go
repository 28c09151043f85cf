package realtime

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/codecollab-io/codecollab/log"
)

// Manager owns the mapping from room id (= project id) to the set of live
// connections. Constructed once at process start; Shutdown closes every
// connection and clears the membership storage.
type Manager struct {
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex
}

// NewManager creates an empty room manager
func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]map[*Client]bool),
	}
}

// Join adds the client to its project's room. Idempotent per client; a
// client belongs to exactly one room for its lifetime.
func (m *Manager) Join(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := m.rooms[c.ProjectID]
	if room == nil {
		room = make(map[*Client]bool)
		m.rooms[c.ProjectID] = room
	}
	room[c] = true
	c.joined = true

	log.Debug().
		Str("roomId", c.ProjectID).
		Str("userId", c.Identity.UserID).
		Int("members", len(room)).
		Msg("client joined room")
}

// Leave removes the client from its room. Safe to call for a client that
// never joined; closing the send channel drops pending outbound sends.
func (m *Manager) Leave(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !c.joined {
		return
	}
	c.joined = false

	room := m.rooms[c.ProjectID]
	if room == nil {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.Send)
	if len(room) == 0 {
		delete(m.rooms, c.ProjectID)
	}

	log.Debug().
		Str("roomId", c.ProjectID).
		Str("userId", c.Identity.UserID).
		Int("members", len(room)).
		Msg("client left room")
}

// Broadcast delivers data to every member of the room except exclude.
// Delivery is best-effort to currently-connected members: a member whose
// send buffer is full is skipped rather than blocking the caller.
func (m *Manager) Broadcast(roomID string, exclude *Client, data []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for client := range m.rooms[roomID] {
		if client == exclude {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Warn().
				Str("roomId", roomID).
				Str("userId", client.Identity.UserID).
				Msg("send buffer full, dropping message")
		}
	}
}

// BroadcastAll delivers data to every member of the room, sender included
func (m *Manager) BroadcastAll(roomID string, data []byte) {
	m.Broadcast(roomID, nil, data)
}

// RoomSize returns the current member count of a room
func (m *Manager) RoomSize(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

// Shutdown closes all connections and clears membership storage
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := m.rooms
	m.rooms = make(map[string]map[*Client]bool)

	for roomID, room := range rooms {
		for client := range room {
			client.joined = false
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
		}
		log.Info().Str("roomId", roomID).Int("members", len(room)).Msg("room closed")
	}
}
