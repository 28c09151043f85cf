package realtime

import (
	"testing"

	"github.com/codecollab-io/codecollab/auth"
)

func testClient(userID, projectID string) *Client {
	return NewClient(auth.Claims{UserID: userID, Name: userID}, projectID, nil)
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestJoin_Idempotent(t *testing.T) {
	m := NewManager()
	c := testClient("u1", "p1")

	m.Join(c)
	m.Join(c)

	if got := m.RoomSize("p1"); got != 1 {
		t.Errorf("RoomSize = %d, want 1", got)
	}
}

func TestLeave_WithoutJoin(t *testing.T) {
	m := NewManager()
	c := testClient("u1", "p1")

	// Must not panic or close the send channel
	m.Leave(c)

	select {
	case <-c.Send:
		t.Error("send channel was closed for a client that never joined")
	default:
	}
}

func TestLeave_RemovesAndClosesOnce(t *testing.T) {
	m := NewManager()
	c := testClient("u1", "p1")

	m.Join(c)
	m.Leave(c)
	m.Leave(c) // second leave is a no-op

	if got := m.RoomSize("p1"); got != 0 {
		t.Errorf("RoomSize = %d, want 0", got)
	}
	if _, open := <-c.Send; open {
		t.Error("send channel should be closed after leave")
	}
}

func TestBroadcast_ExcludesSender(t *testing.T) {
	m := NewManager()
	a := testClient("a", "p1")
	b := testClient("b", "p1")
	c := testClient("c", "p1")
	for _, client := range []*Client{a, b, c} {
		m.Join(client)
	}

	payload := []byte(`{"sender":{"id":"a","name":"a"},"message":"\"hello\""}`)
	m.Broadcast("p1", a, payload)

	if got := drain(a); len(got) != 0 {
		t.Errorf("sender received its own broadcast: %d messages", len(got))
	}
	for _, client := range []*Client{b, c} {
		got := drain(client)
		if len(got) != 1 {
			t.Fatalf("client %s received %d messages, want 1", client.Identity.UserID, len(got))
		}
		if string(got[0]) != string(payload) {
			t.Errorf("payload altered in transit: %s", got[0])
		}
	}
}

func TestBroadcast_ScopedToRoom(t *testing.T) {
	m := NewManager()
	a := testClient("a", "p1")
	b := testClient("b", "p2")
	m.Join(a)
	m.Join(b)

	m.Broadcast("p1", nil, []byte("x"))

	if got := drain(b); len(got) != 0 {
		t.Errorf("message leaked across rooms: %d", len(got))
	}
	if got := drain(a); len(got) != 1 {
		t.Errorf("room member missed broadcast: %d", len(got))
	}
}

func TestBroadcastAll_IncludesEveryone(t *testing.T) {
	m := NewManager()
	a := testClient("a", "p1")
	b := testClient("b", "p1")
	m.Join(a)
	m.Join(b)

	m.BroadcastAll("p1", []byte("x"))

	for _, client := range []*Client{a, b} {
		if got := drain(client); len(got) != 1 {
			t.Errorf("client %s received %d, want 1", client.Identity.UserID, len(got))
		}
	}
}

func TestBroadcast_FullBufferDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := testClient("slow", "p1")
	m.Join(slow)

	// Fill the buffer past capacity; the overflowing sends are dropped
	for i := 0; i < sendBufferSize+10; i++ {
		m.Broadcast("p1", nil, []byte("x"))
	}

	if got := drain(slow); len(got) != sendBufferSize {
		t.Errorf("buffered %d messages, want %d", len(got), sendBufferSize)
	}
}

func TestShutdown_ClearsRooms(t *testing.T) {
	m := NewManager()
	a := testClient("a", "p1")
	b := testClient("b", "p2")
	m.Join(a)
	m.Join(b)

	m.Shutdown()

	if m.RoomSize("p1") != 0 || m.RoomSize("p2") != 0 {
		t.Error("rooms should be empty after shutdown")
	}
	for _, client := range []*Client{a, b} {
		if _, open := <-client.Send; open {
			t.Errorf("client %s send channel still open", client.Identity.UserID)
		}
	}

	// Leave after shutdown must stay safe
	m.Leave(a)
}
