package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is one stream connection.
type Client struct {
	UserID uint
	send   chan []byte
	conn   *websocket.Conn
}

// NewClient creates a client that is not yet bound to a connection.
func NewClient(userID uint) *Client {
	return &Client{UserID: userID, send: make(chan []byte, sendBufferSize)}
}

// Messages exposes the outbound queue. It is closed when the hub drops the
// client.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// ServeStream upgrades the request and pumps the user's notifications to it
// until either side closes. originPatterns follows websocket.AcceptOptions;
// a single "*" disables origin checks.
func (h *Hub) ServeStream(w http.ResponseWriter, r *http.Request, userID uint, originPatterns []string) error {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns}
	if len(originPatterns) == 1 && originPatterns[0] == "*" {
		opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		return err
	}

	c := NewClient(userID)
	c.conn = conn
	h.Register(c)
	defer h.Unregister(c)

	// Inbound frames are ignored; CloseRead keeps control frames flowing and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	c.writePump(ctx)
	return nil
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.conn.Close(websocket.StatusNormalClosure, "")
			return

		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusPolicyViolation, "dropped")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				logger.Log.Debug("stream write failed", zap.Uint("user_id", c.UserID), zap.Error(err))
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
