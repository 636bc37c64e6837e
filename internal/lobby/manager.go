// Package lobby is the control-plane state machine: clients, rooms, room
// membership, readiness, and the transition to in-game. All operations are
// local and non-blocking; callers are expected to serialize access from a
// single session thread, but Manager also guards its own state with a mutex
// so that assumption is never load-bearing for correctness.
package lobby

import (
	"errors"
	"sync"

	"github.com/rtype/server/config"
)

var (
	ErrInvalidName     = errors.New("lobby: invalid name")
	ErrInvalidCapacity = errors.New("lobby: invalid capacity")
	ErrAlreadyInRoom   = errors.New("lobby: client already in a room")
	ErrRoomNotFound    = errors.New("lobby: room not found")
	ErrRoomFull        = errors.New("lobby: room full")
	ErrAlreadyStarted  = errors.New("lobby: room already started")
	ErrNotInRoom       = errors.New("lobby: client not in a room")
	ErrUnknownClient   = errors.New("lobby: unknown client")
)

// Room status values.
type Status byte

const (
	StatusWaiting Status = iota
	StatusReady
	StatusInGame
	StatusClosing
)

// Slot is one member of a room: a client id, its seat (1..capacity), the
// name copied at join time, and a readiness flag.
type Slot struct {
	ClientID uint64
	Seat     uint8
	Name     string
	Ready    bool
}

// Client is the lobby-visible half of a client record. The transport
// handle the dispatcher uses to reply is the client id itself: the lobby
// and the reliable transport share one id space (the transport assigns it
// at accept time; AddClient binds a name to that same id rather than
// minting a second one).
type Client struct {
	ID     uint64
	Name   string
	RoomID uint16 // 0 = not in a room
}

// Room is the matchmaking aggregate.
type Room struct {
	ID       uint16
	Name     string
	Capacity uint8
	Status   Status
	Slots    []Slot
}

// Manager owns the client and room tables.
type Manager struct {
	mu         sync.Mutex
	clients    map[uint64]*Client
	rooms      map[uint16]*Room
	nextRoomID uint16
}

// NewManager creates an empty lobby session manager.
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[uint64]*Client),
		rooms:      make(map[uint16]*Room),
		nextRoomID: 1,
	}
}

// AddClient registers a client record under the transport-assigned id once
// a valid HELLO has been decoded. Returns ErrInvalidName if name isn't
// 1..59 printable bytes.
func (m *Manager) AddClient(id uint64, name string) error {
	if !validName(name, config.MinClientNameLen, config.MaxClientNameLen) {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[id] = &Client{ID: id, Name: name}
	return nil
}

// RemoveClient deletes a client record, removing it from any room first
// (deleting the room if that empties it). Safe to call for an unknown id
// (a no-op) since a client may disconnect before ever sending HELLO.
func (m *Manager) RemoveClient(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[id]
	if !ok {
		return
	}
	if client.RoomID != 0 {
		m.leaveRoomLocked(client)
	}
	delete(m.clients, id)
}

// CreateRoom creates a room with the creator seated at seat 1. capacity
// must be in config.MinRoomCapacity..config.MaxRoomCapacity; name must be
// config.MinRoomNameLen..config.MaxRoomNameLen printable bytes.
func (m *Manager) CreateRoom(creator uint64, name string, capacity uint8) (uint16, error) {
	if capacity < config.MinRoomCapacity || capacity > config.MaxRoomCapacity {
		return 0, ErrInvalidCapacity
	}
	if !validName(name, config.MinRoomNameLen, config.MaxRoomNameLen) {
		return 0, ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[creator]
	if !ok {
		return 0, ErrUnknownClient
	}
	if client.RoomID != 0 {
		return 0, ErrAlreadyInRoom
	}

	id := m.nextRoomID
	m.nextRoomID++

	room := &Room{
		ID:       id,
		Name:     name,
		Capacity: capacity,
		Status:   StatusWaiting,
		Slots:    []Slot{{ClientID: creator, Seat: 1, Name: client.Name}},
	}
	m.rooms[id] = room
	client.RoomID = id

	return id, nil
}

// JoinRoom seats client in roomID at the smallest unused seat.
func (m *Manager) JoinRoom(clientID uint64, roomID uint16) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return 0, ErrUnknownClient
	}
	if client.RoomID != 0 {
		return 0, ErrAlreadyInRoom
	}

	room, ok := m.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}
	if room.Status == StatusInGame || room.Status == StatusClosing {
		return 0, ErrAlreadyStarted
	}
	if len(room.Slots) >= int(room.Capacity) {
		return 0, ErrRoomFull
	}

	seat := smallestFreeSeat(room)
	room.Slots = append(room.Slots, Slot{ClientID: clientID, Seat: seat, Name: client.Name})
	client.RoomID = roomID
	recomputeStatus(room)

	return seat, nil
}

// LeaveRoom removes client from its current room, deleting the room if it
// empties. Returns false if the client wasn't in a room.
func (m *Manager) LeaveRoom(clientID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok || client.RoomID == 0 {
		return false
	}
	m.leaveRoomLocked(client)
	return true
}

// leaveRoomLocked assumes m.mu is held and client.RoomID != 0 is already
// established by the caller when relevant (RemoveClient checks it itself).
func (m *Manager) leaveRoomLocked(client *Client) {
	room, ok := m.rooms[client.RoomID]
	if !ok {
		client.RoomID = 0
		return
	}

	for i, s := range room.Slots {
		if s.ClientID == client.ID {
			room.Slots = append(room.Slots[:i], room.Slots[i+1:]...)
			break
		}
	}
	client.RoomID = 0

	if len(room.Slots) == 0 {
		delete(m.rooms, room.ID)
		return
	}
	recomputeStatus(room)
}

// SetReady updates a client's readiness flag and recomputes its room's
// status. Returns false if the client isn't in a room.
func (m *Manager) SetReady(clientID uint64, ready bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok || client.RoomID == 0 {
		return false
	}
	room := m.rooms[client.RoomID]
	for i := range room.Slots {
		if room.Slots[i].ClientID == clientID {
			room.Slots[i].Ready = ready
			break
		}
	}
	recomputeStatus(room)
	return true
}

// CanStart reports whether roomID has >=2 members, all ready, and hasn't
// already started.
func (m *Manager) CanStart(roomID uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	if room.Status != StatusWaiting && room.Status != StatusReady {
		return false
	}
	return len(room.Slots) >= 2 && allReady(room)
}

// StartGame transitions roomID to in-game. Returns false if the room is
// unknown.
func (m *Manager) StartGame(roomID uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	room.Status = StatusInGame
	return true
}

// ListRooms returns a snapshot of every room with status waiting or ready;
// in-game and closing rooms are not listed.
func (m *Manager) ListRooms() []Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if r.Status == StatusWaiting || r.Status == StatusReady {
			out = append(out, cloneRoom(r))
		}
	}
	return out
}

// Room returns a snapshot of a room by id, or ok=false if it doesn't exist.
func (m *Manager) Room(roomID uint16) (Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// ClientRoom returns the room id a client currently belongs to, or 0.
func (m *Manager) ClientRoom(clientID uint64) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return 0
	}
	return client.RoomID
}

// ClientName returns a client's display name, or "" if unknown.
func (m *Manager) ClientName(clientID uint64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[clientID]; ok {
		return c.Name
	}
	return ""
}

// ClientSeat returns the seat a client holds in its current room, or 0 if
// it isn't in a room (a client with no room always reports seat 0).
func (m *Manager) ClientSeat(clientID uint64) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[clientID]
	if !ok || client.RoomID == 0 {
		return 0
	}
	room, ok := m.rooms[client.RoomID]
	if !ok {
		return 0
	}
	for _, s := range room.Slots {
		if s.ClientID == clientID {
			return s.Seat
		}
	}
	return 0
}

// ReapEmpty removes any room that has no members. Rooms are deleted
// synchronously whenever their last member leaves or is removed, so this
// exists only to catch anything that slips through a future code path.
func (m *Manager) ReapEmpty() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, room := range m.rooms {
		if len(room.Slots) == 0 {
			delete(m.rooms, id)
			removed++
		}
	}
	return removed
}

// Stats is a point-in-time summary, used by the /stats HTTP endpoint.
type Stats struct {
	TotalRooms   int
	TotalClients int
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{TotalRooms: len(m.rooms), TotalClients: len(m.clients)}
}

func cloneRoom(r *Room) Room {
	slots := make([]Slot, len(r.Slots))
	copy(slots, r.Slots)
	return Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity, Status: r.Status, Slots: slots}
}

func smallestFreeSeat(room *Room) uint8 {
	used := make(map[uint8]bool, len(room.Slots))
	for _, s := range room.Slots {
		used[s.Seat] = true
	}
	for seat := uint8(1); seat <= room.Capacity; seat++ {
		if !used[seat] {
			return seat
		}
	}
	return 0 // unreachable: caller already checked len(Slots) < Capacity
}

func allReady(room *Room) bool {
	for _, s := range room.Slots {
		if !s.Ready {
			return false
		}
	}
	return true
}

func recomputeStatus(room *Room) {
	if room.Status == StatusInGame || room.Status == StatusClosing {
		return
	}
	if len(room.Slots) >= 2 && allReady(room) {
		room.Status = StatusReady
	} else {
		room.Status = StatusWaiting
	}
}
