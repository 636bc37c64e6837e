// Package bridge implements the session bridge: the hand-off from a ready
// lobby room to a running simulation. It binds a fresh per-room datagram
// socket, seats one player entity per member, announces the assignment over
// the reliable channel with GAME_START, and then owns that room's
// simulation tick loop for the rest of its life.
package bridge

import (
	"context"
	"log"
	"time"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/lobby"
	"github.com/rtype/server/internal/sim"
	"github.com/rtype/server/internal/transport"
	"github.com/rtype/server/internal/wire"
)

// Bridge is wired as the dispatcher's GameStarter callback. It never
// touches lobby state directly; by the time Start is called, the lobby
// session manager has already flipped the room to in-game, and the bridge's
// only job is standing up the simulation side of the hand-off.
type Bridge struct {
	ctx      context.Context
	reliable *transport.Reliable
	cfg      *config.ServerConfig
	codec    *wire.Codec
}

// New builds a session bridge. ctx is the process-wide shutdown context:
// every simulation goroutine the bridge starts exits when ctx is cancelled
// rather than running forever.
func New(ctx context.Context, reliable *transport.Reliable, cfg *config.ServerConfig) *Bridge {
	return &Bridge{ctx: ctx, reliable: reliable, cfg: cfg, codec: wire.NewCodec()}
}

// Start binds a new datagram socket on an ephemeral port, instantiates a
// simulation, seats one player per room member at that seat's fixed spawn
// position, and announces GAME_START to every member over the reliable
// channel before handing the simulation to its own tick goroutine.
//
// If the socket bind fails, the members are told with SESSION_CANCELLED
// instead of being left waiting for a GAME_START that will never arrive.
// The room stays in-game with no simulation; lobby.Manager has no rollback
// transition, and the clients are expected to drop the session on their end.
func (b *Bridge) Start(room lobby.Room) {
	dg, err := transport.ListenDatagram(0)
	if err != nil {
		log.Printf("bridge: room %d: bind datagram socket: %v", room.ID, err)
		cancelled := b.codec.EncodeSessionCancelled()
		for _, slot := range room.Slots {
			b.reliable.SendToClient(slot.ClientID, cancelled)
		}
		return
	}

	s := sim.NewSimulation(room.ID, dg)
	for _, slot := range room.Slots {
		spawn := config.PlayerSpawnPositions[(int(slot.Seat)-1)%len(config.PlayerSpawnPositions)]
		s.AddPlayer(slot.Seat, spawn[0], spawn[1])
	}

	port := uint16(dg.Port())
	payload := b.codec.EncodeGameStart(port, b.cfg.ServerID, b.cfg.ServerIP)
	for _, slot := range room.Slots {
		if !b.reliable.SendToClient(slot.ClientID, payload) {
			log.Printf("bridge: room %d: GAME_START delivery failed for client %d", room.ID, slot.ClientID)
		}
	}

	log.Printf("bridge: room %d (%s) started on udp port %d with %d players", room.ID, room.Name, port, len(room.Slots))

	go b.runSimulation(room.ID, s, dg)
}

// runSimulation drives one room's fixed-step tick loop until the
// process-wide shutdown context is cancelled. The simulation has no other
// end condition today (no win/lose transition exists); a finished or
// abandoned game simply keeps ticking an empty or player-less entity table,
// whose cost depends only on the entities still alive.
func (b *Bridge) runSimulation(roomID uint16, s *sim.Simulation, dg *transport.Datagram) {
	defer dg.Close()

	interval := time.Second / time.Duration(b.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := interval.Seconds()
	for {
		select {
		case <-b.ctx.Done():
			log.Printf("bridge: room %d: simulation stopped (shutdown)", roomID)
			return
		case <-ticker.C:
			s.Tick(dt)
		}
	}
}
