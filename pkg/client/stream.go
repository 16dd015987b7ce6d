package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// streamURL turns the API base URL into the WebSocket stream URL. Browsers
// cannot set headers on a WebSocket, so the server also reads the token
// from the query string.
func (c *Client) streamURL(token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.baseURL, "/") + "/api/notifications/stream")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe implements inbox.Subscriber. The returned channel is closed
// when the connection ends or ctx is done.
func (c *Client) Subscribe(ctx context.Context) (<-chan models.Notification, error) {
	if c.tokens == nil || c.tokens.AccessToken() == "" {
		return nil, errors.New("subscribe requires an access token")
	}
	streamURL, err := c.streamURL(c.tokens.AccessToken())
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, streamURL, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan models.Notification, 16)
	go func() {
		defer close(out)
		defer conn.CloseNow()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Log.Debug("notification stream closed", zap.Error(err))
				}
				return
			}

			var msg realtime.Message
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != realtime.TypeNotificationInsert {
				continue
			}
			row, err := msg.NotificationPayload()
			if err != nil {
				continue
			}
			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
