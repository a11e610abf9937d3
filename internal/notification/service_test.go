package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/event"
)

func seedNotifications(t *testing.T, repo *memRepo, userID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		sentAt := time.Now()
		_, err := repo.Insert(context.Background(), &Notification{
			ID:      uuid.New(),
			UserID:  userID,
			Type:    TypeInApp,
			Title:   "Appointment Approved",
			Message: "Your appointment has been approved!",
			Status:  StatusSent,
			SentAt:  &sentAt,
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestListCountsAndCaches(t *testing.T) {
	repo := newMemRepo()
	cache := newMemCache()
	svc := NewService(repo, cache, 30*time.Second)

	userID := uuid.New()
	seedNotifications(t, repo, userID, 3)
	ctx := context.Background()

	page, err := svc.List(ctx, userID, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || page.Unread != 3 || len(page.Notifications) != 3 {
		t.Errorf("page = total %d unread %d len %d, want 3/3/3", page.Total, page.Unread, len(page.Notifications))
	}

	// Second read must come from cache: grow the store and expect the
	// cached snapshot.
	seedNotifications(t, repo, userID, 1)

	cached, err := svc.List(ctx, userID, 50, 0)
	if err != nil {
		t.Fatalf("cached list: %v", err)
	}
	if cached.Total != 3 {
		t.Errorf("cached total = %d, want snapshot 3", cached.Total)
	}
}

func TestListClampsPaging(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, newMemCache(), time.Second)

	userID := uuid.New()
	seedNotifications(t, repo, userID, 2)

	page, err := svc.List(context.Background(), userID, -5, -10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Notifications) != 2 {
		t.Errorf("len = %d, want 2 with defaulted paging", len(page.Notifications))
	}
}

func TestMarkReadInvalidatesCache(t *testing.T) {
	repo := newMemRepo()
	cache := newMemCache()
	svc := NewService(repo, cache, 30*time.Second)

	userID := uuid.New()
	seedNotifications(t, repo, userID, 1)
	ctx := context.Background()

	if _, err := svc.List(ctx, userID, 50, 0); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	var target uuid.UUID
	for id := range repo.byID {
		target = id
	}

	n, err := svc.MarkRead(ctx, userID, target)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !n.Read {
		t.Error("notification not marked read")
	}

	page, err := svc.List(ctx, userID, 50, 0)
	if err != nil {
		t.Fatalf("list after mark: %v", err)
	}
	if page.Unread != 0 {
		t.Errorf("unread = %d after mark read, want 0 (stale cache served)", page.Unread)
	}
}

func TestMarkReadWrongOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, newMemCache(), time.Second)

	owner := uuid.New()
	seedNotifications(t, repo, owner, 1)

	var target uuid.UUID
	for id := range repo.byID {
		target = id
	}

	if _, err := svc.MarkRead(context.Background(), uuid.New(), target); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("err = %v, want ErrNotificationNotFound for foreign owner", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, newMemCache(), time.Second)

	userID := uuid.New()
	seedNotifications(t, repo, userID, 4)
	ctx := context.Background()

	if err := svc.MarkAllRead(ctx, userID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}

	page, err := svc.List(ctx, userID, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Unread != 0 || page.Total != 4 {
		t.Errorf("total %d unread %d, want 4/0", page.Total, page.Unread)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, newMemCache(), time.Second)

	userID := uuid.New()
	seedNotifications(t, repo, userID, 1)
	ctx := context.Background()

	var target uuid.UUID
	for id := range repo.byID {
		target = id
	}

	if err := svc.Delete(ctx, uuid.New(), target); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("foreign delete err = %v, want ErrNotificationNotFound", err)
	}
	if err := svc.Delete(ctx, userID, target); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if repo.size() != 0 {
		t.Error("notification still present after delete")
	}
}

func TestFanoutThenQueryRoundTrip(t *testing.T) {
	repo := newMemRepo()
	cache := newMemCache()
	fanout := NewFanout(repo, cache, &memBroadcaster{})
	svc := NewService(repo, cache, 30*time.Second)
	ctx := context.Background()

	ev := baseEvent(event.TypeCancelled)
	ev.CancelledBy = auth.RolePatient

	if err := fanout.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("fanout: %v", err)
	}

	page, err := svc.List(ctx, ev.DoctorID, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Unread != 1 {
		t.Errorf("doctor page = %+v, want one unread", page)
	}
}
