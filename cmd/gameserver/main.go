// Command gameserver is the authoritative server for a cooperative
// side-scrolling shoot-'em-up. It hosts the reliable-channel lobby/
// matchmaking control plane over a WebSocket listener and, per room, stands
// up a UDP datagram simulation once every seat is ready.
//
// Connection flow:
// 1. Client opens a WebSocket connection and sends HELLO with a display name.
// 2. Client lists, creates, or joins a room over the same connection.
// 3. Once every member of a room sends READY, the server starts a
// simulation on a freshly bound UDP port and announces it with GAME_START.
// 4. The client switches to the datagram channel, sending CLIENT_PING to
// bind its endpoint and PLAYER_INPUT to drive its ship.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/bridge"
	"github.com/rtype/server/internal/dispatcher"
	"github.com/rtype/server/internal/lobby"
	"github.com/rtype/server/internal/transport"
)

// sessionTickInterval is how often the session thread drains the
// reliable transport's queue. Lobby control traffic is low-rate and
// latency-insensitive compared to the simulation tick, so this runs much
// faster than strictly necessary rather than introduce a second tunable.
const sessionTickInterval = 10 * time.Millisecond

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <reliable-channel-port>\n", os.Args[0])
		os.Exit(1)
	}
	port, err := strconv.Atoi(os.Args[1])
	if err != nil {
		log.Printf("invalid port %q: %v", os.Args[1], err)
		os.Exit(1)
	}

	cfg := config.DefaultServerConfig()
	config.EnvOverride(cfg)
	cfg.ReliablePort = port

	log.Printf("=================================")
	log.Printf("  R-Type Game Server")
	log.Printf("=================================")
	log.Printf("  Host:          %s", cfg.Host)
	log.Printf("  Reliable port: %d", cfg.ReliablePort)
	log.Printf("  Tick rate:     %d Hz", cfg.TickRate)
	log.Printf("  Room capacity: %d-%d players", config.MinRoomCapacity, config.MaxRoomCapacity)
	log.Printf("  Server id:     %d", cfg.ServerID)
	log.Printf("=================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

// run wires the lobby session manager, the protocol dispatcher, the
// reliable transport, and the session bridge together, then
// blocks serving the reliable channel's HTTP listener until ctx is
// cancelled or the listener fails to bind.
func run(ctx context.Context, cfg *config.ServerConfig) error {
	lm := lobby.NewManager()
	reliable := transport.NewReliable(cfg.EnableCORS)
	d := dispatcher.New(reliable, lm)
	br := bridge.New(ctx, reliable, cfg)
	d.SetGameStarter(br.Start)

	mux := http.NewServeMux()
	mux.HandleFunc("/", reliable.HandleUpgrade)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/stats", handleStats(lm))

	addr := transport.Addr(cfg.Host, cfg.ReliablePort)
	srv := &http.Server{Addr: addr, Handler: mux}

	go sessionLoop(ctx, d)
	go reapLoop(ctx, lm, cfg.RoomIdleReap)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received, closing listener")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	}
}

// sessionLoop is the single session thread: it drains the reliable
// transport's queue and drives lobby/dispatcher state at a fixed interval
// until shutdown. No lock is held across the sleep.
func sessionLoop(ctx context.Context, d *dispatcher.Dispatcher) {
	ticker := time.NewTicker(sessionTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

// reapLoop periodically sweeps any room left empty by a path that doesn't
// synchronously delete it.
func reapLoop(ctx context.Context, lm *lobby.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := lm.ReapEmpty(); n > 0 {
				log.Printf("reaped %d empty rooms", n)
			}
		}
	}
}

// handleHealth responds to health check requests, used by load balancers
// and container orchestrators.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleStats returns current lobby statistics as JSON.
func handleStats(lm *lobby.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := lm.Stats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"rooms":%d,"clients":%d}`, stats.TotalRooms, stats.TotalClients)
	}
}
