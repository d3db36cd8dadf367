// Package websocket relays one assistant chat session over a websocket
// connection.
package websocket

import (
	"context"
	"sync"
	"time"

	"droidfolio/apperrors"
	"droidfolio/pkg/logger"
	"droidfolio/services/assistant"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// FrameType names client and server frames
type FrameType string

const (
	// client -> server
	FrameSend  FrameType = "send"
	FrameStory FrameType = "story"

	// both; the server echoes reset with the new welcome message
	FrameReset FrameType = "reset"

	// server -> client
	FrameWelcome FrameType = "welcome"
	FrameDelta   FrameType = "delta"
	FrameDone    FrameType = "done"
	FrameError   FrameType = "error"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Frame is the JSON envelope in both directions. A delta carries the full
// reply text so far, not the fragment.
type Frame struct {
	Type    FrameType           `json:"type"`
	Text    string              `json:"text,omitempty"`
	Image   string              `json:"image,omitempty"`
	Message *assistant.Message  `json:"message,omitempty"`
	Code    apperrors.ErrorCode `json:"code,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Client represents one chat connection
type Client struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn

	chat      *assistant.Session
	send      chan Frame
	ctx       context.Context
	turns     sync.WaitGroup
	readLimit int64
	log       *logger.Logger
}

// NewClient wraps conn. Frames larger than readLimit bytes close the
// connection; zero leaves reads unbounded.
func NewClient(ctx context.Context, conn *websocket.Conn, chat *assistant.Session, sessionID string, readLimit int64) *Client {
	id := uuid.NewString()
	return &Client{
		ID:        id,
		SessionID: sessionID,
		Conn:      conn,
		chat:      chat,
		send:      make(chan Frame, sendBuffer),
		ctx:       ctx,
		readLimit: readLimit,
		log: logger.WithFields(map[string]any{
			"client_id": id,
			"session":   sessionID,
		}),
	}
}

// Run sends the welcome frame and serves the connection until it closes.
// cancel is called once reading stops so an in-flight turn is abandoned.
func (c *Client) Run(cancel context.CancelFunc) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.WritePump()
	}()

	transcript := c.chat.Transcript()
	c.push(Frame{Type: FrameWelcome, Message: &transcript[0]})

	c.ReadPump()

	cancel()
	c.turns.Wait()
	close(c.send)
	<-writerDone

	c.log.Info("Chat connection closed")
}

// ReadPump reads client frames until the connection fails
func (c *Client) ReadPump() {
	if c.readLimit > 0 {
		c.Conn.SetReadLimit(c.readLimit)
	}
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var f Frame
		if err := c.Conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Error("WebSocket read error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		c.handleFrame(f)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(f); err != nil {
				c.log.WithError(err).Error("WebSocket write error")
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

func (c *Client) handleFrame(f Frame) {
	switch f.Type {
	case FrameSend:
		c.startTurn(f.Text, f.Image)

	case FrameStory:
		c.startTurn(assistant.StoryPrompt, "")

	case FrameReset:
		if err := c.chat.Reset(c.ctx); err != nil {
			c.pushError(err, nil)
			return
		}
		transcript := c.chat.Transcript()
		c.push(Frame{Type: FrameReset, Message: &transcript[0]})

	default:
		c.pushError(apperrors.NewBadRequest("Unknown frame type").WithDetails("type", f.Type), nil)
	}
}

// startTurn runs a turn off the read loop so reset and further frames are
// still read while a reply streams
func (c *Client) startTurn(text, image string) {
	c.turns.Add(1)
	go func() {
		defer c.turns.Done()

		msg, err := c.chat.Send(c.ctx, text, image, func(full string) {
			c.push(Frame{Type: FrameDelta, Text: full})
		})
		if c.ctx.Err() != nil {
			return
		}
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeExternalService) {
				c.pushError(err, &msg)
				return
			}
			c.pushError(err, nil)
			return
		}
		c.push(Frame{Type: FrameDone, Message: &msg})
	}()
}

// pushError sends an error frame. reply is the fallback message, if any.
func (c *Client) pushError(err error, reply *assistant.Message) {
	appErr := apperrors.FromError(err)

	level := logger.WARN
	if appErr.StatusCode >= 500 {
		level = logger.ERROR
	}
	logger.LogAppError(appErr, level, map[string]any{"client_id": c.ID, "session": c.SessionID})

	c.push(Frame{Type: FrameError, Code: appErr.Code, Error: appErr.Message, Message: reply})
}

// push queues f, giving up once the connection is done
func (c *Client) push(f Frame) {
	select {
	case c.send <- f:
	case <-c.ctx.Done():
	}
}
