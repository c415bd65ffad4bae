package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard-go/internal/tokenstore"
)

const userAgent = "opsboard-go/0.1"

// Client is the HTTP client for the Opsboard API. It is the single entry
// point for outbound calls: it attaches bearer credentials, refreshes an
// expired session at most once per request, retries transient failures
// with exponential backoff, and publishes session-lifecycle events.
// Callers never see tokens or the recovery machinery.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      tokenstore.Store
	bus        *Bus
	logger     *slog.Logger
	refresher  *coordinator

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates an Opsboard API client. The bus receives
// session-expired, server-error, and network-error notifications; pass a
// fresh NewBus() if nothing subscribes.
func NewClient(baseURL string, httpClient *http.Client, store tokenstore.Store, bus *Bus, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if bus == nil {
		bus = NewBus()
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
		bus:        bus,
		logger:     logger,
		sleepFunc:  timeSleep,
	}
	c.refresher = &coordinator{client: c}

	return c
}

// Bus returns the event bus this client publishes to.
func (c *Client) Bus() *Bus {
	return c.bus
}

// Response is a fully-read API response. Bodies are buffered so a request
// can be replayed after a token refresh or backoff without rewinding.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// requestOptions control per-request dispatch behavior. Auth endpoints set
// noRefresh: a 401 from them is terminal, never a reason to refresh. Only
// the login call sets emitAuthFailure — the refresh grant's failure
// signaling belongs to the coordinator, and logout failures are
// best-effort noise.
type requestOptions struct {
	noRefresh       bool
	noBearer        bool
	emitAuthFailure bool
}

// Do executes a request against the API, transparently recovering from a
// stale session (one refresh-and-replay) and from transient failures (up
// to 3 retries with backoff). body may be nil; non-nil bodies are sent as
// application/json.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	return c.do(ctx, method, path, body, requestOptions{})
}

// do is the dispatch loop shared by application and auth requests.
func (c *Client) do(ctx context.Context, method, path string, body []byte, opts requestOptions) (*Response, error) {
	var attempt int

	// One-shot guard: a single logical request refreshes at most once,
	// breaking any 401→refresh→401 cycle.
	authRetryUsed := false

	for {
		var bearer string

		if !opts.noBearer {
			tok, err := c.store.Get(tokenstore.KeyAccessToken)
			if err != nil {
				return nil, fmt.Errorf("api: reading access token: %w", err)
			}

			bearer = tok
		}

		resp, err := c.send(ctx, method, path, body, bearer)
		if err != nil {
			// Context cancellation is never retried.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("api: request canceled: %w", ctx.Err())
			}

			// No response at all — network unreachable or timed out.
			if attempt < maxRetries {
				backoff := calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("api: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			c.bus.Publish(Event{Type: EventNetworkError})

			return nil, fmt.Errorf("api: %s %s failed after %d retries: %w", method, path, maxRetries, err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized && !opts.noRefresh && !authRetryUsed:
			authRetryUsed = true

			if _, refreshErr := c.refresher.refresh(ctx, bearer); refreshErr != nil {
				return nil, refreshErr
			}

			c.logger.Debug("replaying request with refreshed token",
				slog.String("method", method),
				slog.String("path", path),
			)

			// Replay does not consume a transient-retry slot.
			continue

		case resp.StatusCode == http.StatusUnauthorized:
			// Terminal 401: the refreshed token was rejected too, or this
			// was an auth endpoint.
			switch {
			case authRetryUsed:
				c.clearSession(ReasonRefreshFailed)
			case opts.emitAuthFailure:
				c.clearSession(ReasonLoginFailed)
			}

			return nil, c.apiError(resp, ErrUnauthorized)

		case resp.StatusCode == http.StatusForbidden && !opts.noRefresh && isDeactivation(string(resp.Body)):
			// The server invalidated the account or session server-side.
			c.clearSession(ReasonAccountDeactivated)

			return nil, c.apiError(resp, ErrSessionExpired)

		case isRetryableStatus(resp.StatusCode) && attempt < maxRetries:
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("api: request canceled: %w", err)
			}

			attempt++

			continue

		default:
			if resp.StatusCode >= http.StatusInternalServerError {
				c.bus.Publish(Event{
					Type:   EventServerError,
					Status: resp.StatusCode,
					URL:    c.baseURL + path,
				})
			}

			if attempt > 0 {
				c.logger.Error("request failed after retries",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("status", resp.StatusCode),
					slog.Int("attempts", attempt+1),
				)
			}

			return nil, c.apiError(resp, classifyStatus(resp.StatusCode))
		}
	}
}

// send executes a single HTTP request and buffers the response body.
func (c *Client) send(ctx context.Context, method, path string, body []byte, bearer string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		// A truncated body is a network failure, not a server decision.
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return calcBackoff(attempt)
}

// apiError builds an APIError from a failed response.
func (c *Client) apiError(resp *Response, sentinel error) error {
	return &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
		Message:    string(resp.Body),
		Err:        sentinel,
	}
}

// clearSession wipes stored credentials and announces the session's end.
// The event fires at most once per triggering failure; a failed store
// clear is logged but does not mask the session error.
func (c *Client) clearSession(reason string) {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear token store", slog.String("error", err.Error()))
	}

	c.bus.Publish(Event{Type: EventSessionExpired, Reason: reason})
}
