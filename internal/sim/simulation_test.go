package sim

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/transport"
	"github.com/rtype/server/internal/wire"
)

func newTestDatagram(t *testing.T) *transport.Datagram {
	t.Helper()
	dg, err := transport.ListenDatagram(0)
	if err != nil {
		t.Fatalf("ListenDatagram: %v", err)
	}
	t.Cleanup(func() { dg.Close() })
	return dg
}

func TestPlayerInputMovesRight(t *testing.T) {
	s := NewSimulation(1, newTestDatagram(t))
	netID := s.AddPlayer(1, 0.5, 0.5)

	s.mu.Lock()
	s.endpointSeat["127.0.0.1:9999"] = 1
	s.handlePlayerInputLocked("127.0.0.1:9999", 0x08) // bit 3: right
	e := s.entities[netID]
	posX, posY := e.PosX, e.PosY
	s.mu.Unlock()

	if math.Abs(posX-0.505) > 1e-6 {
		t.Fatalf("posX = %v, want 0.505", posX)
	}
	if posY != 0.5 {
		t.Fatalf("posY = %v, want unchanged 0.5", posY)
	}
}

// TestSpawnedEnemyPatternsAreFixedPerKind checks the kind-to-pattern
// binding spawnEnemyLocked applies: basic enemies always ride a wave,
// spread enemies always zigzag, with the matching tuning constants.
func TestSpawnedEnemyPatternsAreFixedPerKind(t *testing.T) {
	s := NewSimulation(7, newTestDatagram(t))

	s.mu.Lock()
	for i := 0; i < 40; i++ {
		s.spawnEnemyLocked()
	}
	var basics, spreads int
	for _, e := range s.entities {
		switch e.Kind {
		case KindBasicEnemy:
			basics++
			if e.Pattern != PatternWave {
				t.Fatalf("basic enemy %d pattern = %v, want wave", e.NetID, e.Pattern)
			}
			if e.Amplitude != config.WaveAmplitude || e.Frequency != config.WaveFrequency || e.BaseSpeed != config.WaveBaseSpeed {
				t.Fatalf("basic enemy %d tuning = (%v, %v, %v), want wave constants", e.NetID, e.Amplitude, e.Frequency, e.BaseSpeed)
			}
		case KindSpreadEnemy:
			spreads++
			if e.Pattern != PatternZigzag {
				t.Fatalf("spread enemy %d pattern = %v, want zigzag", e.NetID, e.Pattern)
			}
			if e.Amplitude != config.ZigzagAmplitude || e.Frequency != config.ZigzagFrequency || e.BaseSpeed != config.ZigzagBaseSpeed {
				t.Fatalf("spread enemy %d tuning = (%v, %v, %v), want zigzag constants", e.NetID, e.Amplitude, e.Frequency, e.BaseSpeed)
			}
		default:
			t.Fatalf("unexpected kind %v from spawnEnemyLocked", e.Kind)
		}
	}
	s.mu.Unlock()

	if basics == 0 || spreads == 0 {
		t.Fatalf("spawned %d basic and %d spread enemies, want both kinds represented", basics, spreads)
	}
}

func TestNetIDsAreUnique(t *testing.T) {
	s := NewSimulation(2, newTestDatagram(t))

	s.mu.Lock()
	for i := 0; i < 20; i++ {
		s.spawnEnemyLocked()
	}
	seen := make(map[uint32]bool, len(s.entities))
	for id := range s.entities {
		if seen[id] {
			t.Fatalf("duplicate net id %d", id)
		}
		seen[id] = true
	}
	count := len(seen)
	s.mu.Unlock()

	if count != 20 {
		t.Fatalf("got %d entities, want 20", count)
	}
}

// TestEnemyDestroyedOffscreenBroadcastsOnce covers an enemy that has crossed
// the left destroy margin: it must be removed from the entity table and
// every bound endpoint must receive exactly one ENTITY_DESTROY for it.
func TestEnemyDestroyedOffscreenBroadcastsOnce(t *testing.T) {
	simDG := newTestDatagram(t)
	clientDG := newTestDatagram(t)

	s := NewSimulation(3, simDG)
	codec := wire.NewCodec()
	clientAddr := fmt.Sprintf("127.0.0.1:%d", clientDG.Port())
	s.AddPlayer(1, 0.125, 0.25)

	s.mu.Lock()
	enemyID := s.allocNetID()
	s.entities[enemyID] = &Entity{
		NetID:        enemyID,
		Kind:         KindBasicEnemy,
		PosX:         -0.2, // already past config.DestroyMarginLeft
		PosY:         0.5,
		Pattern:      PatternStraight,
		BaseSpeed:    0,
		FireCooldown: 1e9,
		Width:        config.EnemyHitW,
		Height:       config.EnemyHitH,
		Health:       config.EnemyHealth,
	}
	s.handleClientPingLocked(clientAddr, 1)
	s.mu.Unlock()

	s.Tick(1.0 / 30.0)

	var destroyCount int
	var sawStaleUpdate bool
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, ev := range clientDG.Poll() {
			frame, err := wire.DecodeDatagramFrame(ev.Data)
			if err != nil {
				continue
			}
			switch frame.Type {
			case wire.MsgEntityDestroy:
				msg, err := codec.DecodeEntityDestroy(frame.Payload)
				if err == nil && msg.NetID == enemyID {
					destroyCount++
				}
			case wire.MsgEntityUpdate:
				updates, err := codec.DecodeEntityUpdate(frame.Payload)
				if err != nil {
					continue
				}
				for _, u := range updates {
					if u.NetID == enemyID {
						sawStaleUpdate = true
					}
				}
			}
		}
		if destroyCount > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if destroyCount != 1 {
		t.Fatalf("got %d ENTITY_DESTROY for net id %d, want 1", destroyCount, enemyID)
	}
	if sawStaleUpdate {
		t.Fatalf("destroyed entity %d still appeared in an ENTITY_UPDATE batch", enemyID)
	}
	if s.EntityCount() != 1 {
		t.Fatalf("entity count = %d, want 1 (the player) after destroy", s.EntityCount())
	}
}

// TestBossSpawnsAtScoreThresholdAndSuppressesRegularSpawns: once score
// reaches the boss threshold, the next spawn tick produces exactly one boss
// and regular spawns stay suppressed while it's alive.
func TestBossSpawnsAtScoreThresholdAndSuppressesRegularSpawns(t *testing.T) {
	s := NewSimulation(4, newTestDatagram(t))

	s.mu.Lock()
	s.score = uint32(config.BossScoreThreshold)
	s.spawnTimer = 0
	s.mu.Unlock()

	s.Tick(1.0 / 30.0)

	s.mu.Lock()
	bossCount := 0
	for _, e := range s.entities {
		if e.Kind == KindBoss {
			bossCount++
		}
	}
	bossAlive := s.bossAlive
	s.mu.Unlock()

	if bossCount != 1 {
		t.Fatalf("boss count = %d, want 1", bossCount)
	}
	if !bossAlive {
		t.Fatalf("bossAlive = false, want true")
	}

	s.mu.Lock()
	s.spawnTimer = 0
	s.mu.Unlock()
	s.Tick(1.0 / 30.0)

	if got := s.EntityCount(); got != 1 {
		t.Fatalf("entity count = %d after suppressed spawn tick, want 1 (boss only)", got)
	}
}

// TestFriendlyProjectileDealsExactDamage checks the damage amount against
// an entity with enough health to survive the hit, so the
// damage amount itself (not just lethality) is observable.
func TestFriendlyProjectileDealsExactDamage(t *testing.T) {
	s := NewSimulation(5, newTestDatagram(t))

	s.mu.Lock()
	bossID := s.allocNetID()
	s.entities[bossID] = &Entity{
		NetID: bossID, Kind: KindBoss, PosX: 0.5, PosY: 0.5,
		Health: config.BossHealth, Width: config.BossHitW, Height: config.BossHitH,
	}
	projID := s.allocNetID()
	s.entities[projID] = &Entity{
		NetID: projID, Kind: KindFriendlyProjectile, PosX: 0.5, PosY: 0.5,
		Health: 1, Width: config.ProjHitW, Height: config.ProjHitH,
	}

	s.collideLocked()
	s.flushDestroyedLocked()

	bossHealth := s.entities[bossID].Health
	_, projStillThere := s.entities[projID]
	s.mu.Unlock()

	if want := config.BossHealth - config.DamageFriendlyVsEnemy; bossHealth != want {
		t.Fatalf("boss health = %d, want %d", bossHealth, want)
	}
	if projStillThere {
		t.Fatalf("friendly projectile should be destroyed after hitting its target")
	}
}

// TestSimultaneousKillsDoNotDoubleScore is a regression test: two friendly
// projectiles overlapping the same low-health enemy in one tick must credit
// exactly one kill, not two.
func TestSimultaneousKillsDoNotDoubleScore(t *testing.T) {
	s := NewSimulation(6, newTestDatagram(t))

	s.mu.Lock()
	enemyID := s.allocNetID()
	s.entities[enemyID] = &Entity{
		NetID: enemyID, Kind: KindBasicEnemy, PosX: 0.5, PosY: 0.5,
		Health: config.EnemyHealth, Width: config.EnemyHitW, Height: config.EnemyHitH,
	}
	p1 := s.allocNetID()
	s.entities[p1] = &Entity{
		NetID: p1, Kind: KindFriendlyProjectile, PosX: 0.5, PosY: 0.5,
		Health: 1, Width: config.ProjHitW, Height: config.ProjHitH,
	}
	p2 := s.allocNetID()
	s.entities[p2] = &Entity{
		NetID: p2, Kind: KindFriendlyProjectile, PosX: 0.5, PosY: 0.5,
		Health: 1, Width: config.ProjHitW, Height: config.ProjHitH,
	}

	s.collideLocked()
	s.flushDestroyedLocked()
	score := s.score
	s.mu.Unlock()

	if score != config.ScoreBasicOrSpreadEnemy {
		t.Fatalf("score = %d, want %d (exactly one kill credited)", score, config.ScoreBasicOrSpreadEnemy)
	}
}
