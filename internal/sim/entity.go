// Package sim is the authoritative simulation core: one instance runs the
// fixed-step tick loop for a single room's game, owning the entity table
// and driving enemy/boss AI, projectile motion, and collision resolution.
package sim

import "github.com/rtype/server/internal/wire"

// EntityKind distinguishes what an entity is for AI, collision, and
// ENTITY_CREATE's kind byte.
type EntityKind uint8

const (
	KindPlayer EntityKind = iota
	KindBasicEnemy
	KindSpreadEnemy
	KindBoss
	KindHostileProjectile
	KindFriendlyProjectile
)

// PatternKind is an enemy's movement pattern, computed in reference-pixel
// space and normalized.
type PatternKind uint8

const (
	PatternStraight PatternKind = iota
	PatternWave
	PatternZigzag
)

// Entity is one simulated object. Entity has no mutex of its own: the
// simulation's Tick method is the only goroutine that ever touches the
// entity table (see Simulation), so per-entity locking would protect
// nothing.
type Entity struct {
	NetID  uint32
	Kind   EntityKind
	PosX   float64
	PosY   float64
	VelX   float64
	VelY   float64
	Health int
	Seat   uint8 // owning seat for players and their projectiles; 0 otherwise
	Width  float64
	Height float64

	LastFire float64 // simulation clock value at last fire

	Pattern     PatternKind
	Amplitude   float64 // reference pixels
	Frequency   float64
	BaseSpeed   float64 // reference pixels/sec
	PatternTime float64 // accumulated pattern time (seconds)

	ProjectileCount int
	AngleSpread     float64 // degrees
	FireCooldown    float64 // seconds

	BossDir float64 // +1 or -1, boss vertical bounce direction
}

// wireKind maps an EntityKind to the byte sent on ENTITY_CREATE/PLAYER
// records. Kept as a free function rather than a method so zero-value
// Entity{} still resolves to KindPlayer's byte, matching the const order.
func wireKind(k EntityKind) uint8 { return uint8(k) }

func (e *Entity) toEntityCreate() wire.EntityCreate {
	return wire.EntityCreate{
		NetID:  e.NetID,
		Kind:   wireKind(e.Kind),
		Health: uint32(e.Health),
		PosX:   float32(e.PosX),
		PosY:   float32(e.PosY),
	}
}

func (e *Entity) toEntityUpdate() wire.EntityUpdate {
	return wire.EntityUpdate{
		NetID:  e.NetID,
		Health: uint32(e.Health),
		PosX:   float32(e.PosX),
		PosY:   float32(e.PosY),
	}
}
