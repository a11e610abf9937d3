package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/segmentio/kafka-go"
)

// Handler processes one event. Delivery is at least once: a consumer-group
// rebalance can redeliver uncommitted messages, so handlers must be
// idempotent per (appointmentId, type).
type Handler interface {
	HandleEvent(ctx context.Context, ev Envelope) error
}

// Consumer is one member of the fanout consumer group. Partitions are
// distributed across members, so per-appointment ordering holds but there is
// no global order across appointments.
type Consumer struct {
	reader  *kafka.Reader
	handler Handler
}

func NewConsumer(brokers []string, groupID string, handler Handler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    Topic,
			MinBytes: 1,
			MaxBytes: 1 << 20,
		}),
		handler: handler,
	}
}

// Run consumes until ctx is cancelled. Malformed and schema-invalid messages
// are logged and committed; they can never become notifications. A handler
// failure (say a transient store outage) leaves the offset uncommitted so the
// group redelivers the event, and the idempotent fanout makes the retry free.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := c.process(ctx, msg); err != nil {
			log.Printf("event consumer: partition=%d offset=%d left uncommitted for redelivery: %v", msg.Partition, msg.Offset, err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Printf("event consumer: commit partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
		}
	}
}

// process returns an error only when the handler fails; a message that cannot
// decode or validate is logged and reported as handled, since redelivering it
// can never succeed.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	var ev Envelope
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		log.Printf("event consumer: skipping malformed message partition=%d offset=%d err=%v", msg.Partition, msg.Offset, err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		log.Printf("event consumer: skipping invalid event partition=%d offset=%d err=%v", msg.Partition, msg.Offset, err)
		return nil
	}
	if err := c.handler.HandleEvent(ctx, ev); err != nil {
		return fmt.Errorf("handle %s for appointment %s: %w", ev.Type, ev.AppointmentID, err)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
