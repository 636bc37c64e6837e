package sim

import "github.com/rtype/server/config"

// spawnLocked maintains the shrinking spawn timer and spawns a basic enemy,
// a spread enemy, or the boss. Regular spawns are
// suppressed for as long as the boss is alive.
func (s *Simulation) spawnLocked(dt float64) {
	if s.bossAlive {
		return
	}

	s.spawnTimer -= dt
	if s.spawnTimer > 0 {
		return
	}
	s.spawnTimer += s.spawnInterval
	s.spawnInterval -= config.SpawnIntervalShrink
	if s.spawnInterval < config.SpawnIntervalFloor {
		s.spawnInterval = config.SpawnIntervalFloor
	}

	if s.score >= uint32(config.BossScoreThreshold) {
		s.spawnBossLocked()
		return
	}
	s.spawnEnemyLocked()
}

// spawnEnemyLocked flips a coin between a basic and a spread enemy and
// builds it. The movement pattern and fire profile are fixed per kind:
// basic enemies ride a wave, spread enemies zigzag.
func (s *Simulation) spawnEnemyLocked() {
	kind := KindBasicEnemy
	if s.rng.Intn(2) == 1 {
		kind = KindSpreadEnemy
	}

	id := s.allocNetID()
	e := &Entity{
		NetID:  id,
		Kind:   kind,
		PosX:   config.SpawnXEdge,
		PosY:   config.SpawnMinY + s.rng.Float64()*(config.SpawnMaxY-config.SpawnMinY),
		Health: config.EnemyHealth,
		Width:  config.EnemyHitW,
		Height: config.EnemyHitH,
	}

	switch kind {
	case KindBasicEnemy:
		e.Pattern = PatternWave
		e.Amplitude = config.WaveAmplitude
		e.Frequency = config.WaveFrequency
		e.BaseSpeed = config.WaveBaseSpeed
		e.ProjectileCount = config.BasicEnemyProjectileCount
		e.AngleSpread = config.BasicEnemyAngleSpread
		e.FireCooldown = config.BasicEnemyFireCooldownMin +
			s.rng.Float64()*(config.BasicEnemyFireCooldownMax-config.BasicEnemyFireCooldownMin)
	case KindSpreadEnemy:
		e.Pattern = PatternZigzag
		e.Amplitude = config.ZigzagAmplitude
		e.Frequency = config.ZigzagFrequency
		e.BaseSpeed = config.ZigzagBaseSpeed
		e.ProjectileCount = config.SpreadEnemyProjectileCount
		e.AngleSpread = config.SpreadEnemyAngleSpread
		e.FireCooldown = config.SpreadEnemyFireCooldown
	}
	e.LastFire = s.clock

	s.entities[id] = e
	s.broadcastEntityCreateLocked(e)
}

func (s *Simulation) spawnBossLocked() {
	s.bossAlive = true

	id := s.allocNetID()
	e := &Entity{
		NetID:           id,
		Kind:            KindBoss,
		PosX:            config.BossSpawnX,
		PosY:            config.BossSpawnY,
		Health:          config.BossHealth,
		Width:           config.BossHitW,
		Height:          config.BossHitH,
		ProjectileCount: config.BossProjectileCount,
		AngleSpread:     config.BossAngleSpread,
		FireCooldown:    config.BossFireCooldown,
		BossDir:         1,
		LastFire:        s.clock,
	}
	s.entities[id] = e
	s.broadcastEntityCreateLocked(e)
}
