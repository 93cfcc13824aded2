// Package signal maintains the persistent signaling connection to the
// coordination server. Outbound sends are fire-and-forget; inbound
// messages are dispatched to a Handler. The connection reconnects with
// exponential backoff for the lifetime of the process.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/metrics"
)

var ErrBackpressure = errors.New("backpressure")

const (
	writeWait   = 5 * time.Second
	sendBacklog = 32
)

// wsConn wraps one live websocket with a buffered outbound queue.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Client dials the coordination server and keeps the connection alive.
type Client struct {
	url        string
	minBackoff time.Duration
	maxBackoff time.Duration
	dialer     *websocket.Dialer

	mu      sync.RWMutex
	handler Handler
	current *wsConn
	started bool
	cancel  context.CancelFunc
}

func NewClient(url string, minBackoff, maxBackoff time.Duration) *Client {
	if minBackoff <= 0 {
		minBackoff = time.Second
	}
	if maxBackoff < minBackoff {
		maxBackoff = 30 * time.Second
	}
	return &Client{
		url:        url,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
		dialer:     websocket.DefaultDialer,
	}
}

// SetHandler must be called before Connect.
func (c *Client) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Connect starts the connection loop. Calling it while already
// connected (or connecting) is a no-op.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.run(ctx)
}

// Close stops the connection loop and drops the current connection.
func (c *Client) Close() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.current
	c.current = nil
	c.started = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Send marshals v and queues it on the current connection. Loss is
// tolerated: no connection, backpressure, and marshal problems are
// logged and dropped, never surfaced to the caller.
func (c *Client) Send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("send marshal")
		return
	}

	c.mu.RLock()
	conn := c.current
	c.mu.RUnlock()
	if conn == nil {
		log.Debug().Str("module", "signal").Msg("send while disconnected, dropped")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("send dropped")
	}
}

func (c *Client) run(ctx context.Context) {
	backoff := c.minBackoff
	for {
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.Warn().Err(err).Str("module", "signal").Dur("retry_in", backoff).Msg("dial failed")
			metrics.SignalingReconnects.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		conn := &wsConn{conn: ws, send: make(chan []byte, sendBacklog)}
		c.mu.Lock()
		c.current = conn
		h := c.handler
		c.mu.Unlock()

		log.Info().Str("module", "signal").Str("url", c.url).Msg("signaling connected")
		if h != nil {
			h.HandleChannelUp()
		}

		pumpCtx, pumpCancel := context.WithCancel(ctx)
		go c.writePump(pumpCtx, conn)
		c.readPump(pumpCtx, conn, h)
		pumpCancel()
		conn.Close()

		c.mu.Lock()
		if c.current == conn {
			c.current = nil
		}
		c.mu.Unlock()

		if h != nil {
			h.HandleChannelDown()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

func (c *Client) writePump(ctx context.Context, conn *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-conn.send:
			if !ok {
				return
			}
			if err := conn.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context, conn *wsConn, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.conn.ReadMessage()
			if err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("readPump read error")
				return
			}
			dispatch(data, h)
		}
	}
}

// dispatch routes one inbound message. Malformed payloads and unknown
// types are dropped; a bad message must never take the loop down.
func dispatch(data []byte, h Handler) {
	if h == nil {
		return
	}
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case TypeCameraOffer:
		var m OfferMessage
		if err := json.Unmarshal(data, &m); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
			return
		}
		h.HandleCameraOffer(m.CameraID, m.Offer)
	case TypeCameraAnswer:
		var m AnswerMessage
		if err := json.Unmarshal(data, &m); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
			return
		}
		h.HandleCameraAnswer(m.CameraID, m.Answer)
	case TypeICECandidate:
		var m CandidateMessage
		if err := json.Unmarshal(data, &m); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
			return
		}
		h.HandleICECandidate(m.CameraID, m.Candidate)
	case TypeCameraDisconnected:
		var m struct {
			CameraID domain.CameraID `json:"cameraId"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			log.Error().Err(err).Str("module", "signal").Msg("bad disconnect payload")
			return
		}
		h.HandleCameraDisconnected(m.CameraID)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}
