package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/opsboard/opsboard-go/internal/tokenstore"
)

// EventsStreamPath is the server-push websocket endpoint. The server uses
// it to announce session revocations and operational incidents without
// waiting for the client's next request to fail.
const EventsStreamPath = "/events/stream"

// streamEvent is the wire shape of a pushed event.
type streamEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
	Status int    `json:"status,omitempty"`
	URL    string `json:"url,omitempty"`
}

// StreamEvents connects to the event stream and republishes every pushed
// event on the client's bus, so subscribers see server-pushed signals and
// locally-detected ones on the same channel. Blocks until ctx is canceled,
// the server closes the stream, or the connection drops.
func (c *Client) StreamEvents(ctx context.Context) error {
	bearer, err := c.store.Get(tokenstore.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("api: reading access token: %w", err)
	}

	if bearer == "" {
		return ErrNotLoggedIn
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+bearer)
	header.Set("User-Agent", userAgent)

	// The websocket library rejects clients with a Timeout set (a stream
	// has no overall deadline); reuse the transport without it.
	conn, _, err := websocket.Dial(ctx, c.baseURL+EventsStreamPath, &websocket.DialOptions{
		HTTPClient: &http.Client{Transport: c.httpClient.Transport},
		HTTPHeader: header,
	})
	if err != nil {
		return fmt.Errorf("api: connecting to event stream: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck // close-on-return, normal close below

	c.logger.Info("connected to event stream")

	for {
		var ev streamEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}

			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusNormalClosure {
				return nil
			}

			return fmt.Errorf("api: event stream read: %w", err)
		}

		c.publishStreamEvent(ev)
	}
}

// publishStreamEvent maps a wire event onto the bus, dropping types this
// client version does not know.
func (c *Client) publishStreamEvent(ev streamEvent) {
	switch EventType(ev.Type) {
	case EventSessionExpired, EventServerError, EventNetworkError:
		c.bus.Publish(Event{
			Type:   EventType(ev.Type),
			Reason: ev.Reason,
			Status: ev.Status,
			URL:    ev.URL,
		})
	default:
		c.logger.Debug("ignoring unknown stream event", slog.String("type", ev.Type))
	}
}
