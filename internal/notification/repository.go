package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Repository contains all DB interactions needed by the fanout and query
// services. All reads and mutations are scoped to the owning user.
type Repository interface {
	// Insert persists a notification. Ids are deterministic per
	// (appointment, event, recipient), so a redelivered event maps to the
	// same row; Insert reports false instead of erroring on the duplicate.
	Insert(ctx context.Context, n *Notification) (bool, error)

	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (total, unread int, err error)

	MarkRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
