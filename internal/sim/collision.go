package sim

import "github.com/rtype/server/config"

func isEnemyKind(k EntityKind) bool {
	return k == KindBasicEnemy || k == KindSpreadEnemy || k == KindBoss
}

func aabbOverlap(a, b *Entity) bool {
	return a.PosX < b.PosX+b.Width &&
		a.PosX+a.Width > b.PosX &&
		a.PosY < b.PosY+b.Height &&
		a.PosY+a.Height > b.PosY
}

// collideLocked tests all unordered entity pairs for AABB overlap and
// resolves the three collision rules. A direct sweep is enough at this
// entity count; a broad-phase index would cost more than it saves.
func (s *Simulation) collideLocked() {
	ids := make([]uint32, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}

	for i := 0; i < len(ids); i++ {
		a, ok := s.entities[ids[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b, ok := s.entities[ids[j]]
			if !ok {
				continue
			}
			if !aabbOverlap(a, b) {
				continue
			}
			s.resolvePairLocked(a, b)
		}
	}
}

func (s *Simulation) resolvePairLocked(a, b *Entity) {
	switch {
	case a.Kind == KindFriendlyProjectile && isEnemyKind(b.Kind):
		s.damageLocked(b, config.DamageFriendlyVsEnemy)
		s.destroyed = append(s.destroyed, a.NetID)

	case b.Kind == KindFriendlyProjectile && isEnemyKind(a.Kind):
		s.damageLocked(a, config.DamageFriendlyVsEnemy)
		s.destroyed = append(s.destroyed, b.NetID)

	case a.Kind == KindHostileProjectile && b.Kind == KindPlayer:
		s.damageLocked(b, config.DamageHostileVsPlayer)
		s.destroyed = append(s.destroyed, a.NetID)

	case b.Kind == KindHostileProjectile && a.Kind == KindPlayer:
		s.damageLocked(a, config.DamageHostileVsPlayer)
		s.destroyed = append(s.destroyed, b.NetID)

	case isEnemyKind(a.Kind) && b.Kind == KindPlayer:
		s.damageLocked(a, config.DamageBodyCollision)
		s.damageLocked(b, config.DamageBodyCollision)

	case isEnemyKind(b.Kind) && a.Kind == KindPlayer:
		s.damageLocked(b, config.DamageBodyCollision)
		s.damageLocked(a, config.DamageBodyCollision)
	}
}

// damageLocked is the single damage-application path:
// subtract and clamp at zero, and if that drops an entity to zero, queue it
// for destruction and award score.
func (s *Simulation) damageLocked(e *Entity, amount int) {
	if e.Health <= 0 {
		// already queued for destruction this tick; a second collision
		// against the same corpse must not double-award score.
		return
	}
	e.Health -= amount
	if e.Health > 0 {
		return
	}
	e.Health = 0
	s.destroyed = append(s.destroyed, e.NetID)

	switch e.Kind {
	case KindBasicEnemy, KindSpreadEnemy:
		s.score += config.ScoreBasicOrSpreadEnemy
	case KindBoss:
		s.score += config.ScoreBoss
		s.bossAlive = false
	}
}

// flushDestroyedLocked removes every queued id and broadcasts ENTITY_DESTROY
// for each.
func (s *Simulation) flushDestroyedLocked() {
	for _, id := range s.destroyed {
		if _, ok := s.entities[id]; !ok {
			continue
		}
		delete(s.entities, id)
		s.broadcastToAllBoundLocked(s.codec.EncodeEntityDestroy(id))
	}
	s.destroyed = s.destroyed[:0]
}
