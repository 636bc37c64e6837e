// Package transport implements the server's two I/O planes: a
// WebSocket-hosted reliable channel (Reliable) and a raw UDP datagram
// channel (Datagram). Both push inbound work into a mutex-guarded queue and
// run no application logic on their own goroutines; that's left to the
// dispatcher and simulation threads that poll them.
package transport

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/wire"
)

// EventKind distinguishes the two things Poll can return.
type EventKind int

const (
	EventMessage EventKind = iota
	EventDisconnect
)

// Event is one queued unit of inbound reliable-channel activity.
type Event struct {
	Kind     EventKind
	ClientID uint64
	Endpoint string
	Data     []byte // the single decoded frame's raw bytes (header + payload), for EventMessage
}

// Reliable is the reliable-channel transport: it accepts WebSocket
// connections, assigns each a stable client id, and delivers framed
// inbound messages to a queue drained by Poll.
type Reliable struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	clients  map[uint64]*reliableConn
	nextID   uint64
	queue    []Event
}

type reliableConn struct {
	id       uint64
	endpoint string
	ws       *websocket.Conn
	sendChan chan []byte
	done     chan struct{}
	closeOne sync.Once
}

// NewReliable builds a reliable transport. enableCORS controls whether the
// WebSocket upgrade accepts cross-origin requests.
func NewReliable(enableCORS bool) *Reliable {
	return &Reliable{
		clients: make(map[uint64]*reliableConn),
		nextID:  1,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return enableCORS
			},
		},
	}
}

// HandleUpgrade is the http.HandlerFunc to register on the listening port's
// mux; it upgrades the request and starts the connection's read/write pumps.
func (t *Reliable) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("reliable: upgrade failed: %v", err)
		return
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	conn := &reliableConn{
		id:       id,
		endpoint: ws.RemoteAddr().String(),
		ws:       ws,
		sendChan: make(chan []byte, config.OutboundQueueSize),
		done:     make(chan struct{}),
	}
	t.clients[id] = conn
	t.mu.Unlock()

	log.Printf("reliable: client %d connected from %s", id, conn.endpoint)

	go t.writePump(conn)
	go t.readPump(conn)
}

// Poll drains and returns all events queued since the last call. Safe to
// call from a single session thread; never blocks.
func (t *Reliable) Poll() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return nil
	}
	out := t.queue
	t.queue = nil
	return out
}

// SendToClient writes data to the given client's outbound queue. Returns
// false if the client is unknown or its send buffer is full (a dead or
// slow client is treated the same as an unknown one: best effort, no block).
func (t *Reliable) SendToClient(id uint64, data []byte) bool {
	t.mu.Lock()
	conn, ok := t.clients[id]
	t.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case conn.sendChan <- data:
		return true
	case <-conn.done:
		return false
	default:
		return false
	}
}

// CloseClient forcibly closes a connection (used by the dispatcher once a
// client crosses the protocol-violation threshold). readPump's blocking
// read will then error out and drive the normal disconnect path, so this
// does not itself queue a disconnect event.
func (t *Reliable) CloseClient(id uint64) {
	t.mu.Lock()
	conn, ok := t.clients[id]
	t.mu.Unlock()
	if !ok {
		return
	}
	conn.closeOne.Do(func() { close(conn.done) })
	conn.ws.Close()
}

func (t *Reliable) push(e Event) {
	t.mu.Lock()
	t.queue = append(t.queue, e)
	t.mu.Unlock()
}

func (t *Reliable) remove(conn *reliableConn) {
	t.mu.Lock()
	delete(t.clients, conn.id)
	t.mu.Unlock()
}

func (t *Reliable) writePump(conn *reliableConn) {
	ticker := time.NewTicker(config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return

		case message := <-conn.sendChan:
			conn.ws.SetWriteDeadline(time.Now().Add(config.WriteDeadline))
			if err := conn.ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(config.WriteDeadline))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (t *Reliable) readPump(conn *reliableConn) {
	defer t.disconnect(conn)

	conn.ws.SetReadLimit(65536)
	conn.ws.SetReadDeadline(time.Now().Add(config.PongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	var leftover []byte
	for {
		select {
		case <-conn.done:
			return
		default:
		}

		_, message, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("reliable: read error from client %d: %v", conn.id, err)
			}
			return
		}

		leftover = append(leftover, message...)
		var frames []wire.Frame
		frames, leftover = wire.SplitFrames(leftover)
		for _, f := range frames {
			t.push(Event{Kind: EventMessage, ClientID: conn.id, Endpoint: conn.endpoint, Data: wire.EncodeFrame(f.Type, f.Payload)})
		}
	}
}

// disconnect marks conn as closed, removes it from the registry, and queues
// a disconnect event for the session thread.
func (t *Reliable) disconnect(conn *reliableConn) {
	conn.closeOne.Do(func() { close(conn.done) })
	conn.ws.Close()
	t.remove(conn)
	t.push(Event{Kind: EventDisconnect, ClientID: conn.id, Endpoint: conn.endpoint})
	log.Printf("reliable: client %d disconnected", conn.id)
}

// Addr formats a host/port pair as a listen address.
func Addr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
