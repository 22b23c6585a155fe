package mojang

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weathercraft/weathercraft/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(2*time.Second, slog.New(slog.DiscardHandler))
	c.baseURL = server.URL
	return c
}

func TestResolve_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/profiles/minecraft/notch" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`))
	})

	id, name, err := c.Resolve(context.Background(), "notch")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != "069a79f444e94726a5befca90e38aaf5" {
		t.Errorf("id = %q", id)
	}
	if name != "Notch" {
		t.Errorf("name = %q, want canonical casing from the API", name)
	}
}

func TestResolve_UnknownName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, _, err := c.Resolve(context.Background(), "no_such_player")
	if !errors.Is(err, domain.ErrLookupFailed) {
		t.Errorf("Resolve() error = %v, want ErrLookupFailed", err)
	}
}

func TestResolve_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"069a79f444e94726a5befca90e38aaf5","name":"Notch"}`))
	})

	_, _, err := c.Resolve(context.Background(), "notch")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls.Load())
	}
}

func TestResolve_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := c.Resolve(context.Background(), "notch")
	if err == nil {
		t.Fatal("Resolve() expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls.Load())
	}
}
