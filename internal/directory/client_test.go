package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGetUser(t *testing.T) {
	id := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/api/auth/users/" + id.String()
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		fmt.Fprintf(w, `{"success":true,"data":{"user":{"id":%q,"email":"doc@example.com","first_name":"Grace","last_name":"Okafor","role":"DOCTOR","specialization":"Cardiology"}}}`, id)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, 0)

	u, err := c.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Role != "DOCTOR" {
		t.Errorf("role = %q, want DOCTOR", u.Role)
	}
	if got := u.DisplayName(); got != "Grace Okafor" {
		t.Errorf("display name = %q, want Grace Okafor", got)
	}
}

func TestGetUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil, 0)

	_, err := c.GetUser(context.Background(), uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGetUserTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 10*time.Millisecond, nil, 0)

	if _, err := c.GetUser(context.Background(), uuid.New()); err == nil {
		t.Error("expected timeout error")
	}
}

func TestDisplayNameDegrades(t *testing.T) {
	var u *User
	if got := u.DisplayName(); got != "Unknown" {
		t.Errorf("nil user display name = %q, want Unknown", got)
	}

	if got := (&User{LastName: "Okafor"}).DisplayName(); got != "Okafor" {
		t.Errorf("last-name-only display name = %q, want Okafor", got)
	}
}
