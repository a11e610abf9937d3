package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingHandler struct {
	fail    error
	handled []Envelope
}

func (h *recordingHandler) HandleEvent(ctx context.Context, ev Envelope) error {
	if h.fail != nil {
		return h.fail
	}
	h.handled = append(h.handled, ev)
	return nil
}

func message(t *testing.T, ev Envelope) kafka.Message {
	t.Helper()
	value, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return kafka.Message{Key: []byte(ev.AppointmentID.String()), Value: value}
}

func TestProcessHandsValidEventToHandler(t *testing.T) {
	handler := &recordingHandler{}
	c := &Consumer{handler: handler}

	ev := validEnvelope(TypeApproved)
	if err := c.process(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(handler.handled) != 1 || handler.handled[0].AppointmentID != ev.AppointmentID {
		t.Fatalf("handled = %+v, want the decoded event", handler.handled)
	}
}

func TestProcessSkipsUndecodableMessages(t *testing.T) {
	handler := &recordingHandler{}
	c := &Consumer{handler: handler}

	// Poison messages count as handled: redelivering them can never succeed.
	if err := c.process(context.Background(), kafka.Message{Value: []byte("{not json")}); err != nil {
		t.Fatalf("malformed message: %v, want nil", err)
	}

	invalid := validEnvelope(TypeCancelled)
	invalid.CancelledBy = ""
	if err := c.process(context.Background(), message(t, invalid)); err != nil {
		t.Fatalf("invalid event: %v, want nil", err)
	}

	if len(handler.handled) != 0 {
		t.Fatalf("handler saw %d events, want 0", len(handler.handled))
	}
}

func TestProcessSurfacesHandlerFailure(t *testing.T) {
	cause := errors.New("store unavailable")
	c := &Consumer{handler: &recordingHandler{fail: cause}}

	err := c.process(context.Background(), message(t, validEnvelope(TypeCreated)))
	if !errors.Is(err, cause) {
		t.Fatalf("process error = %v, want wrapped %v", err, cause)
	}
}
