// Package remote is the client for the Teleplay backend: catalog search,
// video and channel details, subscriptions, auth, and magnet-link stream
// resolution. The backend is treated as a black box returning either JSON or
// an error.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"teleplay/internal/metrics"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *slog.Logger

	// The UI issues search-as-you-type; identical in-flight queries collapse
	// into one backend call and recent responses come from the cache.
	searchGroup singleflight.Group
	cache       *searchCache
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithTimeout replaces the default HTTP client with one using the given
// overall request timeout. Ignored when WithHTTPClient is also set later.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			}
		}
	}
}

func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

func WithSearchCache(ttl time.Duration, maxEntries int) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = newSearchCache(ttl, maxEntries)
		}
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		retry:   DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if c.cache != nil {
		if results, ok := c.cache.get(query); ok {
			return results, nil
		}
	}

	value, err, _ := c.searchGroup.Do(query, func() (any, error) {
		var results []SearchResult
		err := c.getJSON(ctx, "/search?q="+url.QueryEscape(query), &results)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.set(query, results)
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]SearchResult), nil
}

func (c *Client) Video(ctx context.Context, id int64) (VideoDetails, error) {
	var details VideoDetails
	err := c.getJSON(ctx, fmt.Sprintf("/video/%d", id), &details)
	return details, err
}

func (c *Client) Channel(ctx context.Context, id int64) (Channel, error) {
	var channel Channel
	err := c.getJSON(ctx, fmt.Sprintf("/channel/%d", id), &channel)
	return channel, err
}

func (c *Client) ChannelContent(ctx context.Context, id int64) ([]ContentItem, error) {
	var resp channelContentResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/content/%d", id), &resp); err != nil {
		return nil, err
	}
	return resp.Content, nil
}

func (c *Client) Subscriptions(ctx context.Context, userID string) ([]Channel, error) {
	var resp subscriptionsResponse
	if err := c.getJSON(ctx, "/channel/subscriptions/"+url.PathEscape(userID), &resp); err != nil {
		return nil, err
	}
	return resp.Subscriptions, nil
}

// Subscribe adds the channel to the user's subscriptions. The backend wants
// both ids as JSON numbers; it answers 409 when already subscribed.
func (c *Client) Subscribe(ctx context.Context, userID string, channelID int64) error {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed user id %q: %w", userID, err)
	}
	body := map[string]any{"userId": uid, "channelId": channelID}
	return c.postJSON(ctx, "/channel/subscribe", body, nil)
}

// ResolveStream asks the backend to turn a magnet-style link into a playable
// URL. The first stream link wins; the streaming protocol itself stays on the
// backend side.
func (c *Client) ResolveStream(ctx context.Context, link string) (string, error) {
	var resp streamResponse
	if err := c.postJSON(ctx, "/stream", map[string]string{"link": link}, &resp); err != nil {
		return "", err
	}
	if len(resp.StreamLinks) == 0 || strings.TrimSpace(resp.StreamLinks[0].StreamURL) == "" {
		return "", ErrNoStream
	}
	return resp.StreamLinks[0].StreamURL, nil
}

// Login exchanges email and password for a token. The backend replies with
// the user's channel object; its numeric id doubles as the user id for the
// subscription endpoints.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	var resp loginResponse
	err := c.postJSON(ctx, "/user/login", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return Credentials{}, err
	}
	if resp.Token == "" {
		return Credentials{}, fmt.Errorf("%w: login response without token", ErrUnavailable)
	}
	return Credentials{
		Token:  resp.Token,
		UserID: strconv.FormatInt(resp.Channel.ID, 10),
		Name:   resp.Name,
		Email:  resp.Channel.Email,
	}, nil
}

// SendOTP starts the signup flow: the backend mails a one-time code to the
// address.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/sendOTP", map[string]string{"email": email}, nil)
}

// VerifyOTP checks the mailed code. A non-2xx response means the code was
// wrong or expired.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	return c.postJSON(ctx, "/verifyOTP", map[string]string{"email": email, "otp": otp}, nil)
}

// Register creates the account once the OTP has been verified. The backend
// returns only a token here; the user id becomes known on the next login.
func (c *Client) Register(ctx context.Context, name, email, phone, password string) (Credentials, error) {
	body := map[string]string{"name": name, "email": email, "phone": phone, "password": password}
	var resp registerResponse
	if err := c.postJSON(ctx, "/user/register", body, &resp); err != nil {
		return Credentials{}, err
	}
	if resp.Token == "" {
		return Credentials{}, fmt.Errorf("%w: register response without token", ErrUnavailable)
	}
	return Credentials{Token: resp.Token, Name: name, Email: email}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, raw, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return retryWithBackoff(ctx, c.retry, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.BackendRequestsTotal.WithLabelValues("unreachable").Inc()
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			metrics.BackendRequestsTotal.WithLabelValues("error").Inc()
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
			return &StatusError{Code: resp.StatusCode}
		}
		metrics.BackendRequestsTotal.WithLabelValues("ok").Inc()
		if out == nil {
			return nil
		}
		return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out)
	})
}
