package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const notificationColumns = `id, user_id, type, title, message, status, read, metadata, sent_at, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	var metadata []byte

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Status,
		&n.Read,
		&metadata,
		&n.SentAt,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	if len(metadata) > 0 {
		var m Metadata
		if err := json.Unmarshal(metadata, &m); err == nil {
			n.Metadata = &m
		}
	}

	return &n, nil
}

func (r *PgRepository) Insert(ctx context.Context, n *Notification) (bool, error) {
	var metadata []byte
	if n.Metadata != nil {
		var err error
		metadata, err = json.Marshal(n.Metadata)
		if err != nil {
			return false, fmt.Errorf("marshal notification metadata: %w", err)
		}
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, status, read, metadata, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, now())
		ON CONFLICT (id) DO NOTHING
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Status, metadata, n.SentAt)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, int, error) {
	var total, unread int

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE read = FALSE)
		FROM notifications
		WHERE user_id = $1
	`, userID).Scan(&total, &unread)
	if err != nil {
		return 0, 0, fmt.Errorf("count notifications: %w", err)
	}

	return total, unread, nil
}

func (r *PgRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns+`
	`, id, userID)
	return scanNotification(row)
}

func (r *PgRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
