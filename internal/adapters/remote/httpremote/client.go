// Package httpremote pushes sync batches to a remote HTTP endpoint.
package httpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/utils"
	"golang.org/x/oauth2/clientcredentials"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

// DeviceToken signs a short-lived bearer token for every request.
type DeviceToken struct {
	DeviceID string
	Secret   string
	Issuer   string
	TTL      time.Duration
}

// Client is a RemoteEndpoint speaking JSON over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
	device   *DeviceToken
	logger   *slog.Logger
}

var _ portsrepo.RemoteEndpoint = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, e.g. one carrying OAuth credentials.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithDeviceToken authenticates requests with an HS256 device token.
func WithDeviceToken(t DeviceToken) Option {
	return func(c *Client) {
		if t.TTL <= 0 {
			t.TTL = 5 * time.Minute
		}
		c.device = &t
	}
}

// WithLogger sets the logger. Nil keeps slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client posting to endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: sync endpoint URL is empty", apperrors.ErrValidation)
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientCredentialsHTTPClient returns an HTTP client that fetches and refreshes an
// OAuth2 access token with the client-credentials grant.
func ClientCredentialsHTTPClient(ctx context.Context, clientID, clientSecret, tokenURL string, scopes []string) *http.Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	hc := cfg.Client(ctx)
	hc.Timeout = defaultTimeout
	return hc
}

// GoogleIDTokenHTTPClient returns an HTTP client that attaches Google-signed ID tokens
// for audience, for endpoints hosted behind Google identity-aware ingress.
func GoogleIDTokenHTTPClient(ctx context.Context, audience, credentialsFile string) (*http.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	hc, err := idtoken.NewClient(ctx, audience, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create id token client: %w", err)
	}
	return hc, nil
}

// Push posts the batch and decodes the remote's verdict.
func (c *Client) Push(ctx context.Context, batch portsrepo.SyncBatch) (*portsrepo.SyncResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.device != nil {
		token, err := utils.GenerateJWT(c.device.DeviceID, c.device.Secret, c.device.TTL, c.device.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to sign device token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusServiceUnavailable, "sync endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		c.logger.Warn("Sync endpoint rejected batch",
			slog.Int("status", resp.StatusCode),
			slog.Int("changes", len(batch.Changes)))
		return nil, apperrors.NewAppError(resp.StatusCode, "sync endpoint rejected batch", fmt.Errorf("%s", bytes.TrimSpace(snippet)))
	}

	var result portsrepo.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewAppError(http.StatusBadGateway, "invalid sync endpoint response", err)
	}
	return &result, nil
}
