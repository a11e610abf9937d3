package push

import (
	"testing"

	"github.com/google/uuid"
)

func TestHubDeliverTargetsOnlyRecipient(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()
	bob := uuid.New()

	a1 := NewSession(alice)
	a2 := NewSession(alice)
	b1 := NewSession(bob)
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)

	n := hub.Deliver(alice, []byte(`{"type":"notification"}`))
	if n != 2 {
		t.Fatalf("delivered to %d sessions, want 2", n)
	}

	for _, sess := range []*Session{a1, a2} {
		select {
		case <-sess.send:
		default:
			t.Fatalf("session for %s did not receive the payload", alice)
		}
	}
	select {
	case <-b1.send:
		t.Fatal("payload leaked to another user's session")
	default:
	}
}

func TestHubDeliverNoSessions(t *testing.T) {
	hub := NewHub()
	if n := hub.Deliver(uuid.New(), []byte("x")); n != 0 {
		t.Fatalf("delivered %d, want 0", n)
	}
}

func TestHubUnregisterClosesSession(t *testing.T) {
	hub := NewHub()
	user := uuid.New()
	sess := NewSession(user)
	hub.Register(sess)
	hub.Unregister(sess)

	if _, open := <-sess.send; open {
		t.Fatal("send channel still open after unregister")
	}
	if got := hub.Connections(user); got != 0 {
		t.Fatalf("connections = %d after unregister, want 0", got)
	}

	// A second unregister of the same session must be a no-op.
	hub.Unregister(sess)
}

func TestHubDeliverDropsStalledSession(t *testing.T) {
	hub := NewHub()
	user := uuid.New()
	sess := NewSession(user)
	hub.Register(sess)

	payload := []byte("p")
	for i := 0; i < sessionBuffer; i++ {
		if n := hub.Deliver(user, payload); n != 1 {
			t.Fatalf("delivery %d returned %d, want 1", i, n)
		}
	}

	// Buffer is full and nobody is reading; the session is evicted rather
	// than blocking the broadcast path.
	if n := hub.Deliver(user, payload); n != 0 {
		t.Fatalf("delivered %d to stalled session, want 0", n)
	}
	if got := hub.Connections(user); got != 0 {
		t.Fatalf("stalled session still registered, connections = %d", got)
	}
}

func TestHubDeliverDuringDisconnectChurn(t *testing.T) {
	hub := NewHub()
	user := uuid.New()

	const sessions = 2000
	all := make([]*Session, sessions)
	for i := range all {
		all[i] = NewSession(user)
		hub.Register(all[i])
	}

	// One goroutine disconnects every session while the test goroutine keeps
	// broadcasting. A send racing a close would panic the process.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, s := range all {
			hub.Unregister(s)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Deliver panicked while sessions disconnected: %v", r)
		}
	}()

	payload := []byte(`{"type":"notification"}`)
	for {
		hub.Deliver(user, payload)
		select {
		case <-done:
			hub.Deliver(user, payload)
			if got := hub.Connections(user); got != 0 {
				t.Fatalf("connections = %d after churn, want 0", got)
			}
			return
		default:
		}
	}
}

func TestHubConnectionsCounts(t *testing.T) {
	hub := NewHub()
	user := uuid.New()
	if got := hub.Connections(user); got != 0 {
		t.Fatalf("connections = %d for unknown user, want 0", got)
	}

	s1 := NewSession(user)
	s2 := NewSession(user)
	hub.Register(s1)
	hub.Register(s2)
	if got := hub.Connections(user); got != 2 {
		t.Fatalf("connections = %d, want 2", got)
	}

	hub.Unregister(s1)
	if got := hub.Connections(user); got != 1 {
		t.Fatalf("connections = %d, want 1", got)
	}
}
