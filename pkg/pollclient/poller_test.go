package pollclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weathercraft/weathercraft/internal/httputil"
)

const testUUID = "069a79f444e94726a5befca90e38aaf5"

func newTestPoller(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []Option{
		WithInterval(time.Millisecond),
		WithMaxBackoff(5 * time.Millisecond),
		WithMaxWait(time.Second),
	}
	return New(server.URL, slog.New(slog.DiscardHandler), append(base, opts...)...)
}

func verifiedResponse(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: httputil.SessionCookieName, Value: "session-token"})
	w.Write([]byte(`{"verified":true,"account":{"id":"a1","uuid":"` + testUUID + `","username":"Notch","verified":true}}`))
}

func TestWaitVerified_PollsUntilVerified(t *testing.T) {
	var polls atomic.Int32
	c := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/status/"+testUUID {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if polls.Add(1) < 3 {
			w.Write([]byte(`{"verified":false}`))
			return
		}
		verifiedResponse(w)
	})

	result, err := c.WaitVerified(context.Background(), testUUID)
	if err != nil {
		t.Fatalf("WaitVerified() error = %v", err)
	}
	if result.SessionToken != "session-token" {
		t.Errorf("SessionToken = %q, want cookie value", result.SessionToken)
	}
	if result.Account.Username != "Notch" {
		t.Errorf("Account.Username = %q", result.Account.Username)
	}
	if polls.Load() != 3 {
		t.Errorf("polls = %d, want 3", polls.Load())
	}
}

func TestWaitVerified_UnknownAccountIsFatal(t *testing.T) {
	c := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.WaitVerified(context.Background(), testUUID)
	if !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("error = %v, want ErrUnknownAccount", err)
	}
}

func TestWaitVerified_RecoversFromTransportErrors(t *testing.T) {
	var polls atomic.Int32
	c := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			verifiedResponse(w)
		}
	})

	result, err := c.WaitVerified(context.Background(), testUUID)
	if err != nil {
		t.Fatalf("WaitVerified() error = %v, want recovery after transient failure", err)
	}
	if result.SessionToken == "" {
		t.Error("SessionToken missing after recovery")
	}
}

func TestWaitVerified_Cancellation(t *testing.T) {
	c := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"verified":false}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.WaitVerified(ctx, testUUID)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestWaitVerified_Timeout(t *testing.T) {
	c := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"verified":false}`))
	}, WithMaxWait(20*time.Millisecond))

	_, err := c.WaitVerified(context.Background(), testUUID)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestWaitVerified_RejectsConcurrentLoops(t *testing.T) {
	release := make(chan struct{})
	c := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"verified":false}`))
	}, WithMaxWait(200*time.Millisecond))

	go c.WaitVerified(context.Background(), testUUID)
	time.Sleep(5 * time.Millisecond)

	_, err := c.WaitVerified(context.Background(), testUUID)
	close(release)
	if !errors.Is(err, ErrAlreadyPolling) {
		t.Errorf("error = %v, want ErrAlreadyPolling", err)
	}
}
