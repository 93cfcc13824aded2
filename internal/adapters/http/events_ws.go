package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// observerConn is one dashboard connection watching the event feed.
type observerConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *observerConn) TrySend(data []byte) error {
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

func (c *observerConn) Close() {
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

type eventFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// HandleEventsSocket streams every bus event to the connected observer
// as {event, data} frames. A slow observer loses frames, never blocks
// dispatch. Subscriptions are dropped the moment the socket closes.
func HandleEventsSocket(ctx context.Context, c *gin.Context, bus *events.Bus) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}

	oid := uuid.NewString()
	conn := &observerConn{conn: ws, send: make(chan []byte, 64)}

	subs := make([]events.Subscription, 0, len(events.All()))
	for _, name := range events.All() {
		subs = append(subs, bus.On(name, func(payload any) {
			frame, err := json.Marshal(eventFrame{Event: name, Data: payload})
			if err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Str("event", name).Msg("event marshal")
				return
			}
			if err := conn.TrySend(frame); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Str("observer", oid).Msg("event frame dropped")
			}
		}))
	}

	log.Info().Str("module", "adapters.http").Str("observer", oid).Msg("observer attached")

	ctx, cancel := context.WithCancel(ctx)
	go writePump(ctx, conn)
	go func() {
		defer func() {
			for _, sub := range subs {
				sub.Off()
			}
			cancel()
			conn.Close()
			log.Info().Str("module", "adapters.http").Str("observer", oid).Msg("observer detached")
		}()
		// Observers only listen; the read loop exists to notice the close.
		for {
			if _, _, err := conn.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writePump(ctx context.Context, c *observerConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("observer write error")
				return
			}
		}
	}
}
