// Package karma provides the external blacklist lookup client.
package karma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const lookupTimeout = 5 * time.Second

// Client queries the karma blacklist API.
//
// Lookups fail open: a lookup error never blocks a legitimate user.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a karma Client for the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: lookupTimeout,
		},
	}
}

type lookupResponse struct {
	Blacklisted bool   `json:"blacklisted"`
	Reason      string `json:"reason,omitempty"`
}

// IsBlacklisted reports whether the given identity is on the blacklist.
func (c *Client) IsBlacklisted(ctx context.Context, email, bvn string) bool {
	l := zerolog.Ctx(ctx)

	if c.apiKey == "" {
		l.Warn().Msg("karma api key not configured, skipping blacklist check")
		return false
	}

	if blacklisted, reason := c.lookup(ctx, email); blacklisted {
		l.Info().Str("reason", reason).Msg("identity blacklisted by email")
		return true
	}

	if blacklisted, reason := c.lookup(ctx, bvn); blacklisted {
		l.Info().Str("reason", reason).Msg("identity blacklisted by bvn")
		return true
	}

	return false
}

func (c *Client) lookup(ctx context.Context, identity string) (bool, string) {
	l := zerolog.Ctx(ctx)

	lookupURL := fmt.Sprintf("%s/blacklist/%s", c.baseURL, url.PathEscape(identity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		l.Error().Err(err).Msg("karma lookup request failed")
		return false, ""
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		l.Error().Err(err).Msg("karma lookup failed")
		return false, ""
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		l.Error().Int("status_code", res.StatusCode).Msg("karma lookup failed")
		return false, ""
	}

	var payload lookupResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		l.Error().Err(err).Msg("karma lookup decode failed")
		return false, ""
	}

	return payload.Blacklisted, payload.Reason
}
