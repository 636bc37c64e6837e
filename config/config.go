// Package config holds server-wide tunables and the environment-derived
// configuration the gameserver binary boots with.
package config

import (
	"net"
	"os"
	"time"
)

// Protocol / room limits.
const (
	MinClientNameLen = 1
	MaxClientNameLen = 59

	MinRoomNameLen = 1
	MaxRoomNameLen = 31

	MinRoomCapacity = 2
	MaxRoomCapacity = 4
)

// Reliable-channel hardening.
const (
	// MaxProtocolViolations is the number of PROTOCOL_ERROR replies a single
	// connection may receive while staying open; the reply that takes it past
	// this count is followed by dropping the connection.
	MaxProtocolViolations = 8

	WriteDeadline = 10 * time.Second
	PongWait      = 60 * time.Second
	PingInterval  = 30 * time.Second

	InboundQueueSize  = 1024
	OutboundQueueSize = 256
)

// Simulation tick / movement / combat tuning.
const (
	DefaultTickRate = 30 // Hz; caller-supplied dt is expected in the 20-60Hz band

	PlayerMoveStep     = 0.005
	PlayerFireCooldown = 0.3 // seconds

	SpawnIntervalInitial = 2.0
	SpawnIntervalFloor   = 0.8
	SpawnIntervalShrink  = 0.01

	SpawnMinY  = 0.2
	SpawnMaxY  = 0.8
	SpawnXEdge = 0.95

	BossScoreThreshold = 100

	ReferenceWidth  = 1920.0
	ReferenceHeight = 1080.0

	PlayerDefaultHealth = 100
	EnemyHealth         = 10
	BossHealth          = 1000

	PlayerHitW = 0.05
	PlayerHitH = 0.05
	EnemyHitW  = 0.05
	EnemyHitH  = 0.05
	BossHitW   = 0.08
	BossHitH   = 0.14
	ProjHitW   = 0.02
	ProjHitH   = 0.01

	WaveAmplitude   = 50.0
	WaveFrequency   = 0.01
	WaveBaseSpeed   = 120.0
	ZigzagAmplitude = 60.0
	ZigzagFrequency = 0.015
	ZigzagBaseSpeed = 130.0

	BasicEnemyProjectileCount = 1
	BasicEnemyAngleSpread     = 0.0
	BasicEnemyFireCooldownMin = 1.0
	BasicEnemyFireCooldownMax = 2.0

	SpreadEnemyProjectileCount = 3
	SpreadEnemyAngleSpread     = 20.0
	SpreadEnemyFireCooldown    = 1.25 // fire_rate 0.8 -> interval 1/0.8

	BossSpawnX          = 0.85
	BossSpawnY          = 0.5
	BossVerticalSpeedPx = 100.0 // px/s
	BossMarginTopPx     = 50.0
	BossMarginBotPx     = ReferenceHeight - 100.0
	BossProjectileCount = 5
	BossAngleSpread     = 15.0
	BossFireCooldown    = 0.5

	ProjectileBaseSpeed  = 0.008
	ProjectileSpawnAhead = 0.05

	DamageFriendlyVsEnemy = 10
	DamageHostileVsPlayer = 20
	DamageBodyCollision   = 30

	ScoreBasicOrSpreadEnemy = 10
	ScoreBoss               = 1000

	DestroyMarginLeft  = -0.1
	DestroyMarginRight = 1.1
)

// PlayerSpawnPositions are the fixed spawn points by seat (1-indexed).
var PlayerSpawnPositions = [4][2]float64{
	{0.125, 0.25},
	{0.125, 0.50},
	{0.125, 0.75},
	{0.175, 0.50},
}

// ServerConfig is the runtime-overridable configuration for one gameserver
// process. The typed constants above cover protocol-fixed values; this
// struct covers values a deployment may want to override.
type ServerConfig struct {
	Host         string
	ReliablePort int
	EnableCORS   bool
	TickRate     int
	ServerID     uint16
	ServerIP     uint32
	RoomIdleReap time.Duration
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:         "0.0.0.0",
		ReliablePort: 4242,
		EnableCORS:   true,
		TickRate:     DefaultTickRate,
		ServerID:     1,
		ServerIP:     discoverServerIP(),
		RoomIdleReap: 30 * time.Second,
	}
}

// discoverServerIP resolves a LAN-routable address for this host by dialing
// out on a UDP socket without sending anything (the usual trick for finding
// the local interface an OS would pick for outbound traffic). Falls back to
// loopback if the host has no route at all (e.g. no network at startup).
func discoverServerIP() uint32 {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return ipToUint32(net.IPv4(127, 0, 0, 1))
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ipToUint32(net.IPv4(127, 0, 0, 1))
	}
	return ipToUint32(localAddr.IP)
}

func ipToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}

// EnvOverride applies RTYPE_*-style environment overrides on top of
// DefaultServerConfig(). The
// CLI positional port argument (see cmd/gameserver) always wins over the
// environment.
func EnvOverride(cfg *ServerConfig) {
	if host := os.Getenv("RTYPE_HOST"); host != "" {
		cfg.Host = host
	}
	if cors := os.Getenv("RTYPE_ENABLE_CORS"); cors == "false" {
		cfg.EnableCORS = false
	}
}
