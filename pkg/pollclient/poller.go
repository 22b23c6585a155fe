// Package pollclient drives the client side of the verification flow: after
// a code has been issued, it polls the status endpoint until the game server
// plugin redeems the code and a session is established, or the wait is
// abandoned.
package pollclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/weathercraft/weathercraft/internal/httputil"
)

// Defaults for the polling loop.
const (
	DefaultInterval   = 3 * time.Second
	DefaultMaxBackoff = 30 * time.Second
	DefaultMaxWait    = 10 * time.Minute
)

var (
	// ErrTimeout is returned when verification does not complete within the
	// maximum wait.
	ErrTimeout = errors.New("verification polling timed out")

	// ErrUnknownAccount is returned when the server has never issued a code
	// for the polled player UUID.
	ErrUnknownAccount = errors.New("no verification attempt for this account")

	// ErrAlreadyPolling is returned when WaitVerified is invoked while a
	// previous loop on the same client is still running.
	ErrAlreadyPolling = errors.New("a polling loop is already running")
)

// Account is the account payload returned once verification completes.
type Account struct {
	ID        string `json:"id"`
	UUID      string `json:"uuid"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
	Verified  bool   `json:"verified"`
}

// Result carries the verified account and the session credential extracted
// from the status response cookie.
type Result struct {
	Account      Account
	SessionToken string
}

// Option customizes a Client.
type Option func(*Client)

// WithInterval sets the poll interval while verification is pending.
func WithInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

// WithMaxBackoff caps the delay the loop backs off to on transport errors.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) { c.maxBackoff = d }
}

// WithMaxWait bounds the total time spent polling before ErrTimeout.
func WithMaxWait(d time.Duration) Option {
	return func(c *Client) { c.maxWait = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the time source, for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// Client polls the verification status endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	clock      clockwork.Clock

	interval   time.Duration
	maxBackoff time.Duration
	maxWait    time.Duration

	running atomic.Bool
}

// New creates a poll client for the server at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		interval:   DefaultInterval,
		maxBackoff: DefaultMaxBackoff,
		maxWait:    DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WaitVerified polls until the account is verified, the context is canceled,
// or the maximum wait elapses. While verification is pending it polls on a
// fixed interval; on transport errors it backs off exponentially up to the
// cap, resuming the fixed interval after the next successful response. Only
// one loop may run per client at a time, so restarting the flow cannot
// accumulate duplicate timers.
func (c *Client) WaitVerified(ctx context.Context, mcUUID string) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPolling
	}
	defer c.running.Store(false)

	deadline := c.clock.Now().Add(c.maxWait)
	errDelay := c.interval

	for {
		result, err := c.check(ctx, mcUUID)
		switch {
		case errors.Is(err, ErrUnknownAccount), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case err != nil:
			c.logger.Warn("status poll failed, will retry", "error", err, "next_delay", errDelay)
			if err := c.sleep(ctx, errDelay); err != nil {
				return nil, err
			}
			errDelay = min(errDelay*2, c.maxBackoff)
		case result != nil:
			return result, nil
		default:
			errDelay = c.interval
			if err := c.sleep(ctx, c.interval); err != nil {
				return nil, err
			}
		}

		if c.clock.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}
}

// check performs one status request. It returns (nil, nil) while pending.
func (c *Client) check(ctx context.Context, mcUUID string) (*Result, error) {
	u := fmt.Sprintf("%s/api/auth/status/%s", c.baseURL, mcUUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUnknownAccount
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status poll: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Verified bool    `json:"verified"`
		Account  Account `json:"account"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("status poll: decode response: %w", err)
	}
	if !body.Verified {
		return nil, nil
	}

	result := &Result{Account: body.Account}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == httputil.SessionCookieName {
			result.SessionToken = cookie.Value
		}
	}
	return result, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}
