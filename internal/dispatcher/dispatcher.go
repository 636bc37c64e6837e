// Package dispatcher is the protocol dispatcher: it parses inbound
// reliable-channel frames via the wire codec, validates them against each
// client's session state, invokes the lobby session manager, emits response
// frames, and broadcasts room events.
package dispatcher

import (
	"log"
	"sync"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/lobby"
	"github.com/rtype/server/internal/transport"
	"github.com/rtype/server/internal/wire"
)

// GameStarter is invoked once a room's last READY flips CanStart to true.
// Implemented by the session bridge; kept as a callback so the
// dispatcher never needs to know about simulations or datagram sockets.
type GameStarter func(room lobby.Room)

// Dispatcher drives the reliable-channel session thread: a
// single goroutine drains transport.Reliable.Poll() and mutates lobby
// state. It holds its own mutex only for the per-client bookkeeping
// (state, violation counts) that lobby.Manager doesn't own.
type Dispatcher struct {
	reliable *transport.Reliable
	lobby    *lobby.Manager
	codec    *wire.Codec
	onStart  GameStarter

	mu         sync.Mutex
	state      map[uint64]ConnState
	violations map[uint64]int
}

// New builds a dispatcher over the given transport and lobby manager.
func New(reliable *transport.Reliable, lm *lobby.Manager) *Dispatcher {
	return &Dispatcher{
		reliable:   reliable,
		lobby:      lm,
		codec:      wire.NewCodec(),
		state:      make(map[uint64]ConnState),
		violations: make(map[uint64]int),
	}
}

// SetGameStarter wires the session bridge callback. Must be called before
// Tick is first invoked with a room that can start.
func (d *Dispatcher) SetGameStarter(fn GameStarter) { d.onStart = fn }

// Tick drains everything currently queued on the reliable transport and
// processes it. Intended to be called repeatedly from the session thread's
// loop (see cmd/gameserver).
func (d *Dispatcher) Tick() {
	for _, ev := range d.reliable.Poll() {
		switch ev.Kind {
		case transport.EventMessage:
			d.handleMessage(ev.ClientID, ev.Data)
		case transport.EventDisconnect:
			d.handleDisconnect(ev.ClientID)
		}
	}
}

func (d *Dispatcher) clientState(id uint64) ConnState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state[id]
}

func (d *Dispatcher) setState(id uint64, s ConnState) {
	d.mu.Lock()
	d.state[id] = s
	d.mu.Unlock()
}

func (d *Dispatcher) handleDisconnect(id uint64) {
	roomID := d.lobby.ClientRoom(id)
	seat := d.lobby.ClientSeat(id)
	d.lobby.RemoveClient(id)

	d.mu.Lock()
	delete(d.state, id)
	delete(d.violations, id)
	d.mu.Unlock()

	if roomID != 0 {
		d.broadcastMemberLeft(roomID, seat)
	}
}

func (d *Dispatcher) handleMessage(id uint64, raw []byte) {
	frame, _, err := wire.DecodeFrame(raw)
	if err != nil {
		d.protocolError(id, wire.ErrProtocolViolation)
		return
	}
	if err := wire.ValidateReliableType(frame.Type); err != nil {
		d.protocolError(id, wire.ErrProtocolViolation)
		return
	}

	state := d.clientState(id)
	hasRoom := d.lobby.ClientRoom(id) != 0
	if legalityOf(state, hasRoom, frame.Type) == VerdictIllegal {
		d.protocolError(id, wire.ErrUnexpectedMessage)
		return
	}

	switch frame.Type {
	case wire.MsgHello:
		d.handleHello(id, frame.Payload)
	case wire.MsgListRooms:
		d.handleListRooms(id)
	case wire.MsgRoomInfo:
		d.handleRoomInfo(id, frame.Payload)
	case wire.MsgCreateRoom:
		d.handleCreateRoom(id, frame.Payload)
	case wire.MsgJoinRoom:
		d.handleJoinRoom(id, frame.Payload)
	case wire.MsgLeaveRoom:
		d.handleLeaveRoom(id)
	case wire.MsgReady:
		d.handleReady(id)
	default:
		// legalityOf only admits types this switch handles; reaching here
		// would mean the legality table and this switch have drifted apart.
		d.protocolError(id, wire.ErrInternal)
	}
}

func (d *Dispatcher) handleHello(id uint64, payload []byte) {
	msg, err := d.codec.DecodeHello(payload)
	if err != nil {
		d.protocolError(id, wire.ErrProtocolViolation)
		return
	}

	if addErr := d.lobby.AddClient(id, msg.Name); addErr != nil {
		d.reliable.SendToClient(id, d.codec.EncodeHelloNak(wire.ErrInvalidName))
		return
	}

	d.setState(id, StateConnected)
	d.reliable.SendToClient(id, d.codec.EncodeHelloAck(0))
}

func (d *Dispatcher) handleListRooms(id uint64) {
	rooms := d.lobby.ListRooms()
	infos := make([]wire.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, toWireRoomInfo(r))
	}
	d.reliable.SendToClient(id, d.codec.EncodeListRoomsResp(infos))
}

func (d *Dispatcher) handleRoomInfo(id uint64, payload []byte) {
	req, err := d.codec.DecodeRoomInfoReq(payload)
	if err != nil {
		d.protocolError(id, wire.ErrProtocolViolation)
		return
	}
	room, ok := d.lobby.Room(req.RoomID)
	if !ok {
		d.protocolError(id, wire.ErrRoomNotFound)
		return
	}
	d.reliable.SendToClient(id, d.codec.EncodeRoomInfoResp(toWireRoomInfo(room)))
}

func (d *Dispatcher) handleCreateRoom(id uint64, payload []byte) {
	msg, err := d.codec.DecodeCreateRoom(payload)
	if err != nil {
		d.protocolError(id, wire.ErrProtocolViolation)
		return
	}

	roomID, createErr := d.lobby.CreateRoom(id, msg.Name, msg.Capacity)
	if createErr != nil {
		d.protocolError(id, lobbyErrToWireCode(createErr))
		return
	}

	d.reliable.SendToClient(id, d.codec.EncodeCreateAck(roomID))
}

func (d *Dispatcher) handleJoinRoom(id uint64, payload []byte) {
	msg, err := d.codec.DecodeJoinRoom(payload)
	if err != nil {
		d.protocolError(id, wire.ErrProtocolViolation)
		return
	}

	before, _ := d.lobby.Room(msg.RoomID)

	seat, joinErr := d.lobby.JoinRoom(id, msg.RoomID)
	if joinErr != nil {
		d.reliable.SendToClient(id, d.codec.EncodeJoinNak(lobbyErrToWireCode(joinErr)))
		return
	}

	members := make([]wire.NameInfo, 0, len(before.Slots))
	for _, s := range before.Slots {
		members = append(members, wire.NameInfo{Seat: s.Seat, Ready: s.Ready, Name: s.Name})
	}
	d.reliable.SendToClient(id, d.codec.EncodeJoinAck(msg.RoomID, seat, members))

	joinerName := d.lobby.ClientName(id)
	joinedInfo := wire.NameInfo{Seat: seat, Ready: false, Name: joinerName}
	joinedPayload := d.codec.EncodeMemberJoined(joinedInfo)
	for _, s := range before.Slots {
		d.reliable.SendToClient(s.ClientID, joinedPayload)
	}
}

func (d *Dispatcher) handleLeaveRoom(id uint64) {
	roomID := d.lobby.ClientRoom(id)
	seat := d.lobby.ClientSeat(id)
	if !d.lobby.LeaveRoom(id) {
		d.protocolError(id, wire.ErrNotInRoom)
		return
	}
	d.setState(id, StateConnected)
	d.reliable.SendToClient(id, d.codec.EncodeLeaveAck())
	d.broadcastMemberLeft(roomID, seat)
}

func (d *Dispatcher) broadcastMemberLeft(roomID uint16, seat uint8) {
	room, ok := d.lobby.Room(roomID)
	if !ok {
		return
	}
	payload := d.codec.EncodeMemberLeft(seat)
	for _, s := range room.Slots {
		d.reliable.SendToClient(s.ClientID, payload)
	}
}

func (d *Dispatcher) handleReady(id uint64) {
	roomID := d.lobby.ClientRoom(id)
	if roomID == 0 {
		d.protocolError(id, wire.ErrNotInRoom)
		return
	}
	room, ok := d.lobby.Room(roomID)
	if !ok {
		d.protocolError(id, wire.ErrNotInRoom)
		return
	}

	current := false
	for _, s := range room.Slots {
		if s.ClientID == id {
			current = s.Ready
			break
		}
	}
	next := !current
	d.lobby.SetReady(id, next)
	if next {
		d.setState(id, StateReady)
	} else {
		d.setState(id, StateConnected)
	}

	if next && d.lobby.CanStart(roomID) {
		d.startGame(roomID)
	}
}

func (d *Dispatcher) startGame(roomID uint16) {
	if !d.lobby.StartGame(roomID) {
		return
	}
	room, ok := d.lobby.Room(roomID)
	if !ok {
		return
	}
	for _, s := range room.Slots {
		d.setState(s.ClientID, StateInGame)
	}
	if d.onStart != nil {
		d.onStart(room)
	} else {
		log.Printf("dispatcher: room %d ready to start but no game starter is wired", roomID)
	}
}

// protocolError emits PROTOCOL_ERROR and tears down the connection once a
// client crosses config.MaxProtocolViolations.
func (d *Dispatcher) protocolError(id uint64, code byte) {
	d.reliable.SendToClient(id, d.codec.EncodeProtocolError(code))

	d.mu.Lock()
	d.violations[id]++
	count := d.violations[id]
	d.mu.Unlock()

	if count > config.MaxProtocolViolations {
		log.Printf("dispatcher: client %d exceeded %d protocol violations, dropping", id, config.MaxProtocolViolations)
		d.handleDisconnect(id)
		d.reliable.CloseClient(id)
	}
}

func toWireRoomInfo(r lobby.Room) wire.RoomInfo {
	return wire.RoomInfo{
		RoomID:   r.ID,
		Count:    uint8(len(r.Slots)),
		Capacity: r.Capacity,
		Name:     r.Name,
		Status:   toWireStatus(r.Status),
	}
}

func toWireStatus(s lobby.Status) byte {
	switch s {
	case lobby.StatusWaiting:
		return wire.RoomWaiting
	case lobby.StatusReady:
		return wire.RoomReady
	case lobby.StatusInGame:
		return wire.RoomInGame
	case lobby.StatusClosing:
		return wire.RoomClosing
	default:
		return wire.RoomWaiting
	}
}

func lobbyErrToWireCode(err error) byte {
	switch err {
	case lobby.ErrRoomFull:
		return wire.ErrRoomFull
	case lobby.ErrRoomNotFound:
		return wire.ErrRoomNotFound
	case lobby.ErrAlreadyStarted:
		return wire.ErrAlreadyStarted
	case lobby.ErrAlreadyInRoom:
		return wire.ErrAlreadyInRoom
	case lobby.ErrInvalidName:
		return wire.ErrInvalidName
	case lobby.ErrInvalidCapacity:
		// No dedicated error code exists for a bad capacity; treated as a
		// malformed request rather than a semantic room-state failure.
		return wire.ErrProtocolViolation
	default:
		return wire.ErrInternal
	}
}
