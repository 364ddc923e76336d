package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"naturelog-go/internal/domain/notify"
)

const (
	writeTimeout  = 10 * time.Second
	sendQueueSize = 16
)

// Frame is one event pushed to connected clients.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func (c *client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Feed broadcasts observation lifecycle events to websocket subscribers.
type Feed struct {
	logger   *slog.Logger
	bus      *notify.Bus
	upgrader websocket.Upgrader
	clients  sync.Map // map[int64]*client
	nextID   atomic.Int64
}

// NewFeed builds the live feed and subscribes it to the event bus.
func NewFeed(bus *notify.Bus, logger *slog.Logger) (*Feed, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Feed{
		logger: logger,
		bus:    bus,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}

	if bus != nil {
		onObservation := func(event string) func(notify.ObservationEventData) {
			return func(data notify.ObservationEventData) {
				f.Broadcast(event, data)
			}
		}
		if err := bus.SubscribeAsync(notify.EventObservationCreated, onObservation(notify.EventObservationCreated)); err != nil {
			return nil, err
		}
		if err := bus.SubscribeAsync(notify.EventObservationDeleted, onObservation(notify.EventObservationDeleted)); err != nil {
			return nil, err
		}
		if err := bus.SubscribeAsync(notify.EventQueueFlushed, func(data notify.FlushEventData) {
			f.Broadcast(notify.EventQueueFlushed, data)
		}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Register mounts the websocket upgrade endpoint.
func (f *Feed) Register(api *gin.RouterGroup) {
	api.GET("/feed", f.handleUpgrade)
}

func (f *Feed) handleUpgrade(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := f.nextID.Add(1)
	cl := &client{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	f.clients.Store(id, cl)
	f.logger.Info("feed client connected", "client_id", id)

	go f.writeLoop(id, cl)
	go f.readLoop(id, cl)
}

func (f *Feed) writeLoop(id int64, cl *client) {
	defer func() {
		f.clients.Delete(id)
		cl.conn.Close()
	}()

	for msg := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// readLoop drains incoming frames so pings are answered and closes are seen.
func (f *Feed) readLoop(id int64, cl *client) {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			f.clients.Delete(id)
			cl.close()
			f.logger.Info("feed client disconnected", "client_id", id)
			return
		}
	}
}

// Broadcast pushes one event frame to every connected client. Clients
// that cannot keep up are dropped.
func (f *Feed) Broadcast(event string, data any) {
	raw, err := sonic.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		f.logger.Error("feed frame marshal failed", "event", event, "error", err)
		return
	}

	f.clients.Range(func(key, value any) bool {
		cl := value.(*client)
		if !cl.trySend(raw) {
			f.clients.Delete(key)
			cl.close()
			f.logger.Warn("feed client dropped, send queue full", "client_id", key)
		}
		return true
	})
}

// Count reports the number of connected clients.
func (f *Feed) Count() int {
	n := 0
	f.clients.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Close terminates all client connections.
func (f *Feed) Close() {
	f.clients.Range(func(key, value any) bool {
		cl := value.(*client)
		f.clients.Delete(key)
		cl.close()
		return true
	})
}
