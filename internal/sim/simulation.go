package sim

import (
	"math/rand"
	"sync"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/transport"
	"github.com/rtype/server/internal/wire"
)

// Simulation is one room's running game: an entity table, a net-id
// generator, and the per-tick pipeline. The entity table is owned outright
// by the single goroutine that calls Tick; see Entity for why entities
// carry no locks of their own.
type Simulation struct {
	RoomID uint16

	datagram *transport.Datagram
	codec    *wire.Codec
	rng      *rand.Rand

	mu        sync.Mutex
	entities  map[uint32]*Entity
	nextNetID uint32

	clock         float64
	score         uint32
	spawnTimer    float64
	spawnInterval float64
	bossAlive     bool
	destroyed     []uint32

	seatNetID    map[uint8]uint32
	seatEndpoint map[uint8]string
	endpointSeat map[string]uint8
}

// NewSimulation builds an empty simulation bound to dg, the per-room
// datagram socket the session bridge stood up on an ephemeral port.
func NewSimulation(roomID uint16, dg *transport.Datagram) *Simulation {
	return &Simulation{
		RoomID:        roomID,
		datagram:      dg,
		codec:         wire.NewCodec(),
		rng:           rand.New(rand.NewSource(int64(roomID)*2654435761 + 1)),
		entities:      make(map[uint32]*Entity),
		nextNetID:     1,
		spawnTimer:    config.SpawnIntervalInitial,
		spawnInterval: config.SpawnIntervalInitial,
		seatNetID:     make(map[uint8]uint32),
		seatEndpoint:  make(map[uint8]string),
		endpointSeat:  make(map[string]uint8),
	}
}

func (s *Simulation) allocNetID() uint32 {
	id := s.nextNetID
	s.nextNetID++
	return id
}

// AddPlayer seats a player entity at the given normalized spawn position.
// Called by the session bridge once per room member before the tick loop
// starts; returns the assigned net id.
func (s *Simulation) AddPlayer(seat uint8, posX, posY float64) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocNetID()
	s.entities[id] = &Entity{
		NetID:  id,
		Kind:   KindPlayer,
		PosX:   posX,
		PosY:   posY,
		Health: config.PlayerDefaultHealth,
		Seat:   seat,
		Width:  config.PlayerHitW,
		Height: config.PlayerHitH,
	}
	s.seatNetID[seat] = id
	return id
}

// Score reports the current score. The GAME_STATE broadcast reads the
// field directly under the lock it already holds.
func (s *Simulation) Score() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// EntityCount reports how many entities are currently alive (used by
// tests).
func (s *Simulation) EntityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

// Tick runs one fixed-step iteration: ingest input,
// spawn, enemy AI, boss AI, projectile motion, collision resolution,
// destroy flush, broadcast. dt is in seconds.
func (s *Simulation) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock += dt

	s.ingestInputLocked()
	s.spawnLocked(dt)
	s.enemyAILocked(dt)
	s.bossAILocked(dt)
	s.projectileMotionLocked()
	s.collideLocked()
	s.flushDestroyedLocked()
	s.broadcastLocked()
}
