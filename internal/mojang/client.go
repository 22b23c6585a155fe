// Package mojang resolves Minecraft player names to canonical profiles via
// the Mojang profile API.
package mojang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/weathercraft/weathercraft/internal/domain"
)

const defaultBaseURL = "https://api.mojang.com"

// Client implements auth.Directory using the Mojang profile API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Mojang profile client with a bounded request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

type profileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolve looks up a player name and returns the undashed profile UUID and
// the canonically cased name. Unknown names fail with domain.ErrLookupFailed;
// transient upstream failures are retried a bounded number of times before
// surfacing the same error.
func (c *Client) Resolve(ctx context.Context, name string) (string, string, error) {
	u := fmt.Sprintf("%s/users/profiles/minecraft/%s", c.baseURL, url.PathEscape(name))

	var profile profileResponse
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("mojang lookup failed", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return json.NewDecoder(resp.Body).Decode(&profile)
		case resp.StatusCode >= 500:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			c.logger.Warn("mojang API error", "name", name, "status", resp.StatusCode, "body", string(body))
			return retry.RetryableError(fmt.Errorf("mojang API status %d", resp.StatusCode))
		default:
			// 404 and 204 both mean the name does not resolve to a profile.
			return fmt.Errorf("%w: name %q not recognized (status %d)", domain.ErrLookupFailed, name, resp.StatusCode)
		}
	})
	if err != nil {
		return "", "", err
	}

	if profile.ID == "" || profile.Name == "" {
		return "", "", fmt.Errorf("%w: empty profile for %q", domain.ErrLookupFailed, name)
	}
	return profile.ID, profile.Name, nil
}
