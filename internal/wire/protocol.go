package wire

import (
	"encoding/binary"
	"math"
)

// Codec encodes and decodes reliable- and datagram-channel payloads. It
// holds no state; the receiver exists to mirror the rest of this codebase's
// method-call style rather than out of any actual need.
type Codec struct{}

// NewCodec creates a new protocol codec.
func NewCodec() *Codec { return &Codec{} }

// ---- Reliable channel: connection lifecycle ----

func (c *Codec) EncodeHello(name string) []byte {
	nb := []byte(name)
	if len(nb) > nameInfoPad {
		nb = nb[:nameInfoPad]
	}
	buf := make([]byte, 2+nameInfoPad)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(nb)))
	copy(buf[2:], nb)
	return EncodeFrame(MsgHello, buf)
}

type HelloMsg struct{ Name string }

func (c *Codec) DecodeHello(p []byte) (HelloMsg, error) {
	if len(p) < 2+nameInfoPad {
		return HelloMsg{}, ErrBufferTooSmall
	}
	nameLen := int(binary.BigEndian.Uint16(p[0:2]))
	if nameLen > nameInfoPad {
		return HelloMsg{}, ErrInvalidMessage
	}
	return HelloMsg{Name: string(p[2 : 2+nameLen])}, nil
}

func (c *Codec) EncodeHelloAck(seat uint8) []byte {
	return EncodeFrame(MsgHelloAck, []byte{seat})
}

type HelloAckMsg struct{ Seat uint8 }

func (c *Codec) DecodeHelloAck(p []byte) (HelloAckMsg, error) {
	if len(p) < 1 {
		return HelloAckMsg{}, ErrBufferTooSmall
	}
	return HelloAckMsg{Seat: p[0]}, nil
}

func (c *Codec) EncodeHelloNak(errCode byte) []byte {
	return EncodeFrame(MsgHelloNak, []byte{errCode})
}

type HelloNakMsg struct{ Error byte }

func (c *Codec) DecodeHelloNak(p []byte) (HelloNakMsg, error) {
	if len(p) < 1 {
		return HelloNakMsg{}, ErrBufferTooSmall
	}
	return HelloNakMsg{Error: p[0]}, nil
}

func (c *Codec) EncodeReady() []byte { return EncodeFrame(MsgReady, nil) }

func (c *Codec) EncodeGameStart(udpPort, serverID uint16, serverIP uint32) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint16(buf[0:2], udpPort)
	binary.BigEndian.PutUint16(buf[2:4], serverID)
	binary.BigEndian.PutUint32(buf[4:8], serverIP)
	return EncodeFrame(MsgGameStart, buf)
}

type GameStartMsg struct {
	UDPPort  uint16
	ServerID uint16
	ServerIP uint32
}

func (c *Codec) DecodeGameStart(p []byte) (GameStartMsg, error) {
	if len(p) < 8 {
		return GameStartMsg{}, ErrBufferTooSmall
	}
	return GameStartMsg{
		UDPPort:  binary.BigEndian.Uint16(p[0:2]),
		ServerID: binary.BigEndian.Uint16(p[2:4]),
		ServerIP: binary.BigEndian.Uint32(p[4:8]),
	}, nil
}

// ---- Reliable channel: room listing/info ----

func (c *Codec) EncodeListRooms() []byte { return EncodeFrame(MsgListRooms, nil) }

func (c *Codec) EncodeListRoomsResp(rooms []RoomInfo) []byte {
	buf := make([]byte, 2+len(rooms)*RoomInfoSize)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(rooms)))
	off := 2
	for _, r := range rooms {
		copy(buf[off:], EncodeRoomInfo(r))
		off += RoomInfoSize
	}
	return EncodeFrame(MsgListRoomsResp, buf)
}

func (c *Codec) DecodeListRoomsResp(p []byte) ([]RoomInfo, error) {
	if len(p) < 2 {
		return nil, ErrBufferTooSmall
	}
	count := int(binary.BigEndian.Uint16(p[0:2]))
	p = p[2:]
	if len(p) < count*RoomInfoSize {
		return nil, ErrBufferTooSmall
	}
	rooms := make([]RoomInfo, 0, count)
	for i := 0; i < count; i++ {
		r, err := DecodeRoomInfo(p[i*RoomInfoSize : (i+1)*RoomInfoSize])
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}

func (c *Codec) EncodeRoomInfoReq(roomID uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, roomID)
	return EncodeFrame(MsgRoomInfo, buf)
}

type RoomInfoReqMsg struct{ RoomID uint16 }

func (c *Codec) DecodeRoomInfoReq(p []byte) (RoomInfoReqMsg, error) {
	if len(p) < 2 {
		return RoomInfoReqMsg{}, ErrBufferTooSmall
	}
	return RoomInfoReqMsg{RoomID: binary.BigEndian.Uint16(p[0:2])}, nil
}

func (c *Codec) EncodeRoomInfoResp(r RoomInfo) []byte {
	return EncodeFrame(MsgRoomInfoResp, EncodeRoomInfo(r))
}

func (c *Codec) DecodeRoomInfoResp(p []byte) (RoomInfo, error) { return DecodeRoomInfo(p) }

// ---- Reliable channel: room membership ----

func (c *Codec) EncodeCreateRoom(capacity uint8, name string) []byte {
	nb := []byte(name)
	if len(nb) > roomNamePad {
		nb = nb[:roomNamePad]
	}
	buf := make([]byte, 3+roomNamePad)
	buf[0] = capacity
	binary.BigEndian.PutUint16(buf[1:3], uint16(len(nb)))
	copy(buf[3:], nb)
	return EncodeFrame(MsgCreateRoom, buf)
}

type CreateRoomMsg struct {
	Capacity uint8
	Name     string
}

func (c *Codec) DecodeCreateRoom(p []byte) (CreateRoomMsg, error) {
	if len(p) < 3+roomNamePad {
		return CreateRoomMsg{}, ErrBufferTooSmall
	}
	nameLen := int(binary.BigEndian.Uint16(p[1:3]))
	if nameLen > roomNamePad {
		return CreateRoomMsg{}, ErrInvalidMessage
	}
	return CreateRoomMsg{Capacity: p[0], Name: string(p[3 : 3+nameLen])}, nil
}

func (c *Codec) EncodeCreateAck(roomID uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, roomID)
	return EncodeFrame(MsgCreateAck, buf)
}

type CreateAckMsg struct{ RoomID uint16 }

func (c *Codec) DecodeCreateAck(p []byte) (CreateAckMsg, error) {
	if len(p) < 2 {
		return CreateAckMsg{}, ErrBufferTooSmall
	}
	return CreateAckMsg{RoomID: binary.BigEndian.Uint16(p[0:2])}, nil
}

func (c *Codec) EncodeJoinRoom(roomID uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, roomID)
	return EncodeFrame(MsgJoinRoom, buf)
}

type JoinRoomMsg struct{ RoomID uint16 }

func (c *Codec) DecodeJoinRoom(p []byte) (JoinRoomMsg, error) {
	if len(p) < 2 {
		return JoinRoomMsg{}, ErrBufferTooSmall
	}
	return JoinRoomMsg{RoomID: binary.BigEndian.Uint16(p[0:2])}, nil
}

func (c *Codec) EncodeJoinAck(roomID uint16, yourSeat uint8, members []NameInfo) []byte {
	buf := make([]byte, 5+len(members)*NameInfoSize)
	binary.BigEndian.PutUint16(buf[0:2], roomID)
	buf[2] = yourSeat
	binary.BigEndian.PutUint16(buf[3:5], uint16(len(members)))
	off := 5
	for _, m := range members {
		copy(buf[off:], EncodeNameInfo(m))
		off += NameInfoSize
	}
	return EncodeFrame(MsgJoinAck, buf)
}

type JoinAckMsg struct {
	RoomID   uint16
	YourSeat uint8
	Members  []NameInfo
}

func (c *Codec) DecodeJoinAck(p []byte) (JoinAckMsg, error) {
	if len(p) < 5 {
		return JoinAckMsg{}, ErrBufferTooSmall
	}
	count := int(binary.BigEndian.Uint16(p[3:5]))
	rest := p[5:]
	if len(rest) < count*NameInfoSize {
		return JoinAckMsg{}, ErrBufferTooSmall
	}
	members := make([]NameInfo, 0, count)
	for i := 0; i < count; i++ {
		n, err := DecodeNameInfo(rest[i*NameInfoSize : (i+1)*NameInfoSize])
		if err != nil {
			return JoinAckMsg{}, err
		}
		members = append(members, n)
	}
	return JoinAckMsg{
		RoomID:   binary.BigEndian.Uint16(p[0:2]),
		YourSeat: p[2],
		Members:  members,
	}, nil
}

func (c *Codec) EncodeJoinNak(errCode byte) []byte {
	return EncodeFrame(MsgJoinNak, []byte{errCode})
}

type JoinNakMsg struct{ Error byte }

func (c *Codec) DecodeJoinNak(p []byte) (JoinNakMsg, error) {
	if len(p) < 1 {
		return JoinNakMsg{}, ErrBufferTooSmall
	}
	return JoinNakMsg{Error: p[0]}, nil
}

func (c *Codec) EncodeLeaveRoom() []byte { return EncodeFrame(MsgLeaveRoom, nil) }
func (c *Codec) EncodeLeaveAck() []byte  { return EncodeFrame(MsgLeaveAck, nil) }

func (c *Codec) EncodeMemberJoined(n NameInfo) []byte {
	return EncodeFrame(MsgMemberJoined, EncodeNameInfo(n))
}

func (c *Codec) DecodeMemberJoined(p []byte) (NameInfo, error) { return DecodeNameInfo(p) }

func (c *Codec) EncodeMemberLeft(seat uint8) []byte {
	return EncodeFrame(MsgMemberLeft, []byte{seat})
}

type MemberLeftMsg struct{ Seat uint8 }

func (c *Codec) DecodeMemberLeft(p []byte) (MemberLeftMsg, error) {
	if len(p) < 1 {
		return MemberLeftMsg{}, ErrBufferTooSmall
	}
	return MemberLeftMsg{Seat: p[0]}, nil
}

func (c *Codec) EncodeSessionCancelled() []byte { return EncodeFrame(MsgSessionCancelled, nil) }

func (c *Codec) EncodeProtocolError(errCode byte) []byte {
	return EncodeFrame(MsgProtocolError, []byte{errCode})
}

type ProtocolErrorMsg struct{ Error byte }

func (c *Codec) DecodeProtocolError(p []byte) (ProtocolErrorMsg, error) {
	if len(p) < 1 {
		return ProtocolErrorMsg{}, ErrBufferTooSmall
	}
	return ProtocolErrorMsg{Error: p[0]}, nil
}

// ---- Datagram channel ----

func (c *Codec) EncodeClientPing(timestamp uint32, seat uint8) []byte {
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf[0:4], timestamp)
	buf[4] = seat
	return EncodeDatagramFrame(MsgClientPing, 0, buf)
}

type ClientPingMsg struct {
	Timestamp uint32
	Seat      uint8
}

func (c *Codec) DecodeClientPing(p []byte) (ClientPingMsg, error) {
	if len(p) < 5 {
		return ClientPingMsg{}, ErrBufferTooSmall
	}
	return ClientPingMsg{Timestamp: binary.BigEndian.Uint32(p[0:4]), Seat: p[4]}, nil
}

func (c *Codec) EncodePlayerAssignment(netID uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, netID)
	return EncodeDatagramFrame(MsgPlayerAssignment, 0, buf)
}

type PlayerAssignmentMsg struct{ NetID uint32 }

func (c *Codec) DecodePlayerAssignment(p []byte) (PlayerAssignmentMsg, error) {
	if len(p) < 4 {
		return PlayerAssignmentMsg{}, ErrBufferTooSmall
	}
	return PlayerAssignmentMsg{NetID: binary.BigEndian.Uint32(p[0:4])}, nil
}

// EntityCreate mirrors the 17-byte ENTITY_CREATE payload.
type EntityCreate struct {
	NetID  uint32
	Kind   uint8
	Health uint32
	PosX   float32
	PosY   float32
}

func (c *Codec) EncodeEntityCreate(e EntityCreate) []byte {
	buf := make([]byte, 17)
	binary.BigEndian.PutUint32(buf[0:4], e.NetID)
	buf[4] = e.Kind
	binary.BigEndian.PutUint32(buf[5:9], e.Health)
	binary.BigEndian.PutUint32(buf[9:13], math.Float32bits(e.PosX))
	binary.BigEndian.PutUint32(buf[13:17], math.Float32bits(e.PosY))
	return EncodeDatagramFrame(MsgEntityCreate, 0, buf)
}

func (c *Codec) DecodeEntityCreate(p []byte) (EntityCreate, error) {
	if len(p) < 17 {
		return EntityCreate{}, ErrBufferTooSmall
	}
	return EntityCreate{
		NetID:  binary.BigEndian.Uint32(p[0:4]),
		Kind:   p[4],
		Health: binary.BigEndian.Uint32(p[5:9]),
		PosX:   math.Float32frombits(binary.BigEndian.Uint32(p[9:13])),
		PosY:   math.Float32frombits(binary.BigEndian.Uint32(p[13:17])),
	}, nil
}

// EntityUpdate mirrors one 16-byte record inside an ENTITY_UPDATE batch.
type EntityUpdate struct {
	NetID  uint32
	Health uint32
	PosX   float32
	PosY   float32
}

const entityUpdateRecordSize = 16

func (c *Codec) EncodeEntityUpdate(entities []EntityUpdate) []byte {
	buf := make([]byte, len(entities)*entityUpdateRecordSize)
	for i, e := range entities {
		off := i * entityUpdateRecordSize
		binary.BigEndian.PutUint32(buf[off:off+4], e.NetID)
		binary.BigEndian.PutUint32(buf[off+4:off+8], e.Health)
		binary.BigEndian.PutUint32(buf[off+8:off+12], math.Float32bits(e.PosX))
		binary.BigEndian.PutUint32(buf[off+12:off+16], math.Float32bits(e.PosY))
	}
	return EncodeDatagramFrame(MsgEntityUpdate, 0, buf)
}

func (c *Codec) DecodeEntityUpdate(p []byte) ([]EntityUpdate, error) {
	if len(p)%entityUpdateRecordSize != 0 {
		return nil, ErrInvalidMessage
	}
	n := len(p) / entityUpdateRecordSize
	out := make([]EntityUpdate, n)
	for i := 0; i < n; i++ {
		off := i * entityUpdateRecordSize
		out[i] = EntityUpdate{
			NetID:  binary.BigEndian.Uint32(p[off : off+4]),
			Health: binary.BigEndian.Uint32(p[off+4 : off+8]),
			PosX:   math.Float32frombits(binary.BigEndian.Uint32(p[off+8 : off+12])),
			PosY:   math.Float32frombits(binary.BigEndian.Uint32(p[off+12 : off+16])),
		}
	}
	return out, nil
}

func (c *Codec) EncodeEntityDestroy(netID uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, netID)
	return EncodeDatagramFrame(MsgEntityDestroy, 0, buf)
}

type EntityDestroyMsg struct{ NetID uint32 }

func (c *Codec) DecodeEntityDestroy(p []byte) (EntityDestroyMsg, error) {
	if len(p) < 4 {
		return EntityDestroyMsg{}, ErrBufferTooSmall
	}
	return EntityDestroyMsg{NetID: binary.BigEndian.Uint32(p[0:4])}, nil
}

func (c *Codec) EncodeGameState(score uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, score)
	return EncodeDatagramFrame(MsgGameState, 0, buf)
}

type GameStateMsg struct{ Score uint32 }

func (c *Codec) DecodeGameState(p []byte) (GameStateMsg, error) {
	if len(p) < 4 {
		return GameStateMsg{}, ErrBufferTooSmall
	}
	return GameStateMsg{Score: binary.BigEndian.Uint32(p[0:4])}, nil
}

func (c *Codec) EncodePlayerInput(direction uint8) []byte {
	buf := []byte{0, direction}
	return EncodeDatagramFrame(MsgPlayerInput, 0, buf)
}

type PlayerInputMsg struct{ Direction uint8 }

func (c *Codec) DecodePlayerInput(p []byte) (PlayerInputMsg, error) {
	if len(p) < 2 {
		return PlayerInputMsg{}, ErrBufferTooSmall
	}
	return PlayerInputMsg{Direction: p[1]}, nil
}
