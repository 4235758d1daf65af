package realtime

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendQueueSize  = 256
)

// Client is one websocket connection. A user may hold several at once.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   models.Role
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

// FrameHandler processes inbound frames after the transport-level ones
// (pong) are filtered out.
type FrameHandler interface {
	HandleFrame(client *Client, f *Frame) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, role models.Role) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, sendQueueSize),
		Hub:    hub,
	}
}

// ReadPump reads frames from the connection until it closes.
func (c *Client) ReadPump(handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.Hub.Presence().Touch(c.UserID)
		return nil
	})

	for {
		var f Frame
		if err := c.Conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read failed",
					zap.String("conn_id", c.ID.String()),
					zap.Error(err))
			}
			return
		}

		if f.Event == EventPong {
			continue
		}

		c.Hub.Presence().Touch(c.UserID)

		if handler != nil {
			if err := handler.HandleFrame(c, &f); err != nil {
				c.SendError(err)
			}
		}
	}
}

// WritePump writes queued frames and keepalive pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues an event frame; never blocks on a slow connection.
func (c *Client) SendEvent(event, room string, payload interface{}) error {
	data, err := EncodeFrame(event, room, payload)
	if err != nil {
		return err
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// SendError reports a failed inbound frame, carrying the error kind so the
// client can branch on it the same way HTTP callers branch on status codes.
func (c *Client) SendError(err error) {
	var kind apperr.Kind
	switch {
	case errors.Is(err, ErrInvalidFrame), errors.Is(err, ErrBadRoomKey):
		kind = apperr.KindValidation
	case errors.Is(err, ErrNotInRoom):
		kind = apperr.KindPermission
	default:
		kind = apperr.KindOf(err)
	}
	c.SendEvent(EventError, "", map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

func (c *Client) InRoom(room Room) bool {
	return c.Hub.registry.InRoom(c.ID, room)
}
