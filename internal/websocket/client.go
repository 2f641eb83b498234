package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"presence-notify/internal/domain"
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Config holds connection timing and buffering limits.
type Config struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func DefaultConfig() Config {
	return Config{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 8192,
	}
}

func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// Frame is the wire form of every server push.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is a live WebSocket connection bound to one user.
// Send never blocks and never panics; once Close has been called every Send fails.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	cfg    Config
	logger *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID string, cfg Config, logger *zap.Logger) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		return domain.NewDeliveryFailure(c.id, err)
	}

	select {
	case <-c.done:
		return domain.NewDeliveryFailure(c.id, ErrClientClosed)
	default:
	}

	select {
	case c.send <- data:
	case <-c.done:
		return domain.NewDeliveryFailure(c.id, ErrClientClosed)
	default:
		return domain.NewDeliveryFailure(c.id, ErrSendBufferFull)
	}

	// A Close that raced the enqueue means the write pump may never flush it.
	select {
	case <-c.done:
		return domain.NewDeliveryFailure(c.id, ErrClientClosed)
	default:
		return nil
	}
}

// Close stops both pumps. It is safe to call more than once and from any goroutine.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteWait),
		)
		err = c.conn.Close()
	})
	return err
}

// Run pumps the connection until the peer goes away or Close is called,
// then invokes onClose exactly once.
func (c *Client) Run(onClose func()) {
	go c.writePump()
	c.readPump()
	_ = c.Close()
	if onClose != nil {
		onClose()
	}
}

// readPump only services control frames; the gateway is push-only.
func (c *Client) readPump() {
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.String("connectionId", c.id),
					zap.String("userId", c.userID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("WebSocket write failed",
					zap.String("connectionId", c.id),
					zap.Error(err),
				)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.done:
			return
		}
	}
}
