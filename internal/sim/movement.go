package sim

import (
	"math"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/wire"
)

// ingestInputLocked drains the datagram socket and applies CLIENT_PING
// (endpoint binding) and PLAYER_INPUT (movement/fire).
// Called with s.mu held.
func (s *Simulation) ingestInputLocked() {
	for _, ev := range s.datagram.Poll() {
		frame, err := wire.DecodeDatagramFrame(ev.Data)
		if err != nil {
			continue
		}
		switch frame.Type {
		case wire.MsgClientPing:
			msg, err := s.codec.DecodeClientPing(frame.Payload)
			if err != nil {
				continue
			}
			s.handleClientPingLocked(ev.Endpoint, msg.Seat)
		case wire.MsgPlayerInput:
			msg, err := s.codec.DecodePlayerInput(frame.Payload)
			if err != nil {
				continue
			}
			s.handlePlayerInputLocked(ev.Endpoint, msg.Direction)
		}
	}
}

// handleClientPingLocked binds a datagram endpoint to a seat the first time
// that seat is heard from, replying with PLAYER_ASSIGNMENT and an
// ENTITY_CREATE burst for everything already alive. Repeated pings from an
// already-bound endpoint are ignored: ordering/duplication in the datagram
// channel is expected, and re-running the burst on every heartbeat
// would just be wasted traffic.
func (s *Simulation) handleClientPingLocked(endpoint string, seat uint8) {
	if _, bound := s.seatEndpoint[seat]; bound {
		return
	}
	netID, ok := s.seatNetID[seat]
	if !ok {
		// a seat this room never had; stale datagrams are expected
		return
	}
	s.seatEndpoint[seat] = endpoint
	s.endpointSeat[endpoint] = seat

	s.sendTo(endpoint, s.codec.EncodePlayerAssignment(netID))
	for _, e := range s.entities {
		s.sendTo(endpoint, s.codec.EncodeEntityCreate(e.toEntityCreate()))
	}
}

// handlePlayerInputLocked resolves endpoint -> seat -> player entity and
// applies the direction bitmask (bits 0-3 movement, bit 4 fire).
func (s *Simulation) handlePlayerInputLocked(endpoint string, direction uint8) {
	seat, ok := s.endpointSeat[endpoint]
	if !ok {
		return
	}
	netID, ok := s.seatNetID[seat]
	if !ok {
		return
	}
	e, ok := s.entities[netID]
	if !ok {
		return
	}

	const step = config.PlayerMoveStep
	if direction&0x01 != 0 {
		e.PosY -= step
	}
	if direction&0x02 != 0 {
		e.PosY += step
	}
	if direction&0x04 != 0 {
		e.PosX -= step
	}
	if direction&0x08 != 0 {
		e.PosX += step
	}
	if direction&0x10 != 0 && s.clock-e.LastFire >= config.PlayerFireCooldown {
		s.spawnFriendlyProjectileLocked(e)
		e.LastFire = s.clock
	}

	e.PosX = clamp01(e.PosX)
	e.PosY = clamp01(e.PosY)
}

func (s *Simulation) spawnFriendlyProjectileLocked(owner *Entity) {
	id := s.allocNetID()
	e := &Entity{
		NetID:  id,
		Kind:   KindFriendlyProjectile,
		PosX:   owner.PosX + config.ProjectileSpawnAhead,
		PosY:   owner.PosY,
		VelX:   config.ProjectileBaseSpeed,
		VelY:   0,
		Health: 1,
		Seat:   owner.Seat,
		Width:  config.ProjHitW,
		Height: config.ProjHitH,
	}
	s.entities[id] = e
	s.broadcastEntityCreateLocked(e)
}

// enemyAILocked advances every basic/spread enemy's movement pattern and
// fires when its cooldown has elapsed.
func (s *Simulation) enemyAILocked(dt float64) {
	for _, e := range s.entities {
		if e.Kind != KindBasicEnemy && e.Kind != KindSpreadEnemy {
			continue
		}
		e.PatternTime += dt

		var vxPx, vyPx float64
		switch e.Pattern {
		case PatternWave:
			vxPx = -e.BaseSpeed
			vyPx = e.Amplitude * math.Sin(e.Frequency*(e.PosX*config.ReferenceWidth))
		case PatternZigzag:
			vxPx = -e.BaseSpeed
			f := math.Mod(e.Frequency*e.PatternTime, 2)
			vyPx = e.Amplitude * (2*math.Abs(f-1) - 1)
		case PatternStraight:
			vxPx = -e.BaseSpeed
			vyPx = 0
		}

		vx := vxPx / config.ReferenceWidth
		vy := vyPx / config.ReferenceHeight
		e.PosX += vx * dt
		e.PosY += vy * dt
		e.PosY = clamp01(e.PosY)

		if e.PosX < config.DestroyMarginLeft {
			s.destroyed = append(s.destroyed, e.NetID)
			continue
		}

		if s.clock-e.LastFire >= e.FireCooldown {
			s.fireHostileLocked(e)
			e.LastFire = s.clock
		}
	}
}

// bossAILocked bounces the boss vertically and fires its spread.
func (s *Simulation) bossAILocked(dt float64) {
	minY := config.BossMarginTopPx / config.ReferenceHeight
	maxY := config.BossMarginBotPx / config.ReferenceHeight
	speed := config.BossVerticalSpeedPx / config.ReferenceHeight

	for _, e := range s.entities {
		if e.Kind != KindBoss {
			continue
		}
		if e.BossDir == 0 {
			e.BossDir = 1
		}
		e.PosY += speed * e.BossDir * dt
		if e.PosY <= minY {
			e.PosY = minY
			e.BossDir = 1
		} else if e.PosY >= maxY {
			e.PosY = maxY
			e.BossDir = -1
		}

		if s.clock-e.LastFire >= e.FireCooldown {
			s.fireHostileLocked(e)
			e.LastFire = s.clock
		}
	}
}

// fireHostileLocked spawns owner.ProjectileCount hostile projectiles spaced
// owner.AngleSpread degrees apart and centred on angle 0, so the whole fan
// spans AngleSpread*(count-1) degrees. Angle 0 points straight left
// (matching the enemy's direction of travel), so vx is always <= 0 while
// the whole fan stays within 180 degrees.
func (s *Simulation) fireHostileLocked(owner *Entity) {
	count := owner.ProjectileCount
	if count <= 0 {
		count = 1
	}
	spread := owner.AngleSpread
	base := -spread * float64(count-1) / 2

	for i := 0; i < count; i++ {
		angleDeg := base + spread*float64(i)
		angleRad := angleDeg * math.Pi / 180
		vx := -config.ProjectileBaseSpeed * math.Cos(angleRad)
		vy := config.ProjectileBaseSpeed * math.Sin(angleRad)

		id := s.allocNetID()
		e := &Entity{
			NetID:  id,
			Kind:   KindHostileProjectile,
			PosX:   owner.PosX,
			PosY:   owner.PosY,
			VelX:   vx,
			VelY:   vy,
			Health: 1,
			Width:  config.ProjHitW,
			Height: config.ProjHitH,
		}
		s.entities[id] = e
		s.broadcastEntityCreateLocked(e)
	}
}

// projectileMotionLocked translates every projectile by its velocity
// unscaled by dt: projectile velocities are per-tick increments, unlike
// every other moving entity.
func (s *Simulation) projectileMotionLocked() {
	for _, e := range s.entities {
		if e.Kind != KindHostileProjectile && e.Kind != KindFriendlyProjectile {
			continue
		}
		e.PosX += e.VelX
		e.PosY += e.VelY
		if e.PosX < config.DestroyMarginLeft || e.PosX > config.DestroyMarginRight {
			s.destroyed = append(s.destroyed, e.NetID)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
