package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/medisync/medisync/internal/redis"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Service is the recipient-facing query surface. Only the owning user can
// read or mutate their notifications; creation belongs to the fanout alone.
type Service struct {
	repo  Repository
	cache redisclient.Cache
	ttl   time.Duration
}

func NewService(repo Repository, cache redisclient.Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl}
}

func listKey(userID uuid.UUID, limit, offset int) string {
	return fmt.Sprintf("notifications:%s:%d:%d", userID, limit, offset)
}

func userPrefix(userID uuid.UUID) string {
	return "notifications:" + userID.String() + ":"
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	key := listKey(userID, limit, offset)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var page Page
		if err := json.Unmarshal(raw, &page); err == nil {
			return &page, nil
		}
	}

	items, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	total, unread, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}

	if items == nil {
		items = []Notification{}
	}
	page := &Page{Notifications: items, Total: total, Unread: unread}

	if raw, err := json.Marshal(page); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			log.Printf("cache set %s: %v", key, err)
		}
	}

	return page, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error) {
	n, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.DeletePrefix(ctx, userPrefix(userID)); err != nil {
		log.Printf("notification cache invalidation for %s: %v", userID, err)
	}
}
