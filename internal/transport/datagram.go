package transport

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const maxDatagramPayload = 1472 // safe UDP payload under typical Ethernet MTU

// DatagramEvent is one inbound datagram tagged with its source endpoint.
type DatagramEvent struct {
	Endpoint string
	Data     []byte
}

// Datagram is the datagram-channel transport: a bound UDP socket with a
// cooperative-shutdown read loop.
type Datagram struct {
	conn    *net.UDPConn
	running int32
	done    chan struct{}

	mu    sync.Mutex
	queue []DatagramEvent
}

// ListenDatagram binds a UDP socket on the given port. Pass 0 to let the OS
// assign an ephemeral port (used for the per-room simulation sockets the
// session bridge stands up on game start); the bound port is available via
// Port().
func ListenDatagram(port int) (*Datagram, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("transport: resolve udp address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp: %w", err)
	}

	d := &Datagram{conn: conn, done: make(chan struct{})}
	atomic.StoreInt32(&d.running, 1)
	go d.readLoop()
	return d, nil
}

// Port returns the locally bound UDP port.
func (d *Datagram) Port() int {
	return d.conn.LocalAddr().(*net.UDPAddr).Port
}

func (d *Datagram) readLoop() {
	buf := make([]byte, maxDatagramPayload)
	for atomic.LoadInt32(&d.running) == 1 {
		d.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if atomic.LoadInt32(&d.running) == 0 {
				return
			}
			log.Printf("datagram: read error: %v", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		d.mu.Lock()
		d.queue = append(d.queue, DatagramEvent{Endpoint: addr.String(), Data: data})
		d.mu.Unlock()
	}
}

// Poll drains and returns all packets queued since the last call. Never
// blocks; safe to call from a single simulation thread.
func (d *Datagram) Poll() []DatagramEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	out := d.queue
	d.queue = nil
	return out
}

// SendTo transmits a single datagram to the given "<ip>:<port>" endpoint.
func (d *Datagram) SendTo(endpoint string, data []byte) error {
	addr, err := net.ResolveUDPAddr("udp", endpoint)
	if err != nil {
		return fmt.Errorf("transport: resolve endpoint %q: %w", endpoint, err)
	}
	_, err = d.conn.WriteToUDP(data, addr)
	return err
}

// Close stops the read loop and releases the socket.
func (d *Datagram) Close() error {
	atomic.StoreInt32(&d.running, 0)
	close(d.done)
	return d.conn.Close()
}
