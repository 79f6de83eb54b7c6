// Package credentials supplies bearer tokens for the storage provider,
// either from a static configured token or via OAuth refresh-token
// exchange with cached expiry.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"cinevault/services/upload-api/internal/config"
)

// expirySkew keeps us from handing out a token that dies mid-request.
const expirySkew = 30 * time.Second

// Static returns the same token on every call.
type Static struct {
	token string
}

func NewStatic(token string) *Static {
	return &Static{token: token}
}

func (s *Static) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

// Refresher exchanges a long-lived refresh token for short-lived access
// tokens and caches them until shortly before expiry. Token exchange is
// idempotent, so transient failures are retried at the HTTP layer.
type Refresher struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *retryablehttp.Client
	log          zerolog.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewRefresher(tokenURL, clientID, clientSecret, refreshToken string, log zerolog.Logger) *Refresher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil
	return &Refresher{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		httpClient:   client,
		log:          log,
	}
}

func (r *Refresher) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.expires.Add(-expirySkew)) {
		return r.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", r.refreshToken)
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}

	r.token = body.AccessToken
	r.expires = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	r.log.Debug().Time("expires", r.expires).Msg("refreshed provider access token")
	return r.token, nil
}

// disabled is installed when no credential is configured so the failure
// surfaces as a clear error at call time instead of a nil deref.
type disabled struct{}

func (disabled) Token(ctx context.Context) (string, error) {
	return "", fmt.Errorf("provider credentials are not configured")
}

// Source is the interface both token sources satisfy.
type Source interface {
	Token(ctx context.Context) (string, error)
}

func NewFromConfig(cfg *config.Config, log zerolog.Logger) Source {
	switch {
	case cfg.DriveAccessToken != "":
		log.Info().Msg("using static provider credential")
		return NewStatic(cfg.DriveAccessToken)
	case cfg.DriveTokenURL != "" && cfg.DriveRefreshToken != "":
		log.Info().Str("token_url", cfg.DriveTokenURL).Msg("using refresh-token provider credential")
		return NewRefresher(cfg.DriveTokenURL, cfg.DriveClientID, cfg.DriveClientSecret, cfg.DriveRefreshToken, log)
	default:
		log.Warn().Msg("no provider credential configured, drive uploads will fail")
		return disabled{}
	}
}
