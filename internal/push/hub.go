// Package push holds the realtime delivery layer: one long-lived WebSocket
// per client session, grouped into a per-user channel, fed by the broadcast
// bus. Delivery is at most once; a client that was offline reconciles by
// re-fetching its notification list.
package push

import (
	"sync"

	"github.com/google/uuid"
)

// sessionBuffer is the per-session outbound queue. A session that cannot
// drain this many messages is considered dead and dropped.
const sessionBuffer = 16

// Session is one connected client. The same user may hold several sessions
// concurrently (multiple tabs or devices); all of them share the user's
// channel.
type Session struct {
	UserID uuid.UUID
	send   chan []byte
}

func NewSession(userID uuid.UUID) *Session {
	return &Session{
		UserID: userID,
		send:   make(chan []byte, sessionBuffer),
	}
}

// Hub routes payloads to the sessions subscribed to a user's channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{channels: map[uuid.UUID]map[*Session]struct{}{}}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.channels[s.UserID]
	if !ok {
		sessions = map[*Session]struct{}{}
		h.channels[s.UserID] = sessions
	}
	sessions[s] = struct{}{}
}

func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.channels[s.UserID]
	if !ok {
		return
	}
	if _, ok := sessions[s]; !ok {
		return
	}
	delete(sessions, s)
	close(s.send)
	if len(sessions) == 0 {
		delete(h.channels, s.UserID)
	}
}

// Deliver fans a payload out to every session on the user's channel without
// blocking: a session whose buffer is full is skipped and dropped so one slow
// consumer never stalls the others. Returns the number of sessions reached.
//
// The sends happen under the read lock. Unregister closes the send channel
// under the write lock, so a session disconnecting mid-broadcast can never
// race a send against the close. The sends are non-blocking, so the lock is
// never held across a stalled consumer.
func (h *Hub) Deliver(userID uuid.UUID, payload []byte) int {
	h.mu.RLock()
	delivered := 0
	var stalled []*Session
	for s := range h.channels[userID] {
		select {
		case s.send <- payload:
			delivered++
		default:
			stalled = append(stalled, s)
		}
	}
	h.mu.RUnlock()

	// Unregister needs the write lock, so evict after releasing.
	for _, s := range stalled {
		h.Unregister(s)
	}

	return delivered
}

// Connections reports the live session count for a user.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[userID])
}
