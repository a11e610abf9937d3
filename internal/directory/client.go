// Package directory looks up users in the external auth service. The rest of
// the system only needs id -> (role, name, email, specialization) to guard
// commands and enrich records for display.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/medisync/medisync/internal/redis"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           string    `json:"role"`
	Phone          string    `json:"phone"`
	Specialization string    `json:"specialization"`
}

// DisplayName renders a user for notification text and list enrichment.
// A nil user (lookup failed or timed out) degrades to "Unknown" instead of
// failing the caller.
func (u *User) DisplayName() string {
	if u == nil || (u.FirstName == "" && u.LastName == "") {
		return "Unknown"
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Lookup is the directory dependency as seen by the services.
type Lookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// Client fetches users over HTTP with a bounded per-call timeout, caching
// results in Redis for a short TTL.
type Client struct {
	http     *http.Client
	baseURL  string
	cache    redisclient.Cache
	cacheTTL time.Duration
}

func NewClient(baseURL string, timeout time.Duration, cache redisclient.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

type userEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		User *User `json:"user"`
	} `json:"data"`
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	cacheKey := "user:" + id.String()

	if c.cache != nil {
		if raw, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
			var u User
			if err := json.Unmarshal(raw, &u); err == nil {
				return &u, nil
			}
		}
	}

	url := fmt.Sprintf("%s/api/auth/users/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory lookup %s: status %d", id, resp.StatusCode)
	}

	var env userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}
	if !env.Success || env.Data.User == nil {
		return nil, ErrUserNotFound
	}

	if c.cache != nil {
		if raw, err := json.Marshal(env.Data.User); err == nil {
			_ = c.cache.Set(ctx, cacheKey, raw, c.cacheTTL)
		}
	}

	return env.Data.User, nil
}
