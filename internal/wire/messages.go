package wire

// Reliable-channel message types.
const (
	MsgHello              byte = 0x01
	MsgHelloAck           byte = 0x02
	MsgHelloNak           byte = 0x03
	MsgReady              byte = 0x04
	MsgGameStart          byte = 0x05
	MsgListRooms          byte = 0x10
	MsgListRoomsResp      byte = 0x11
	MsgRoomInfo           byte = 0x12
	MsgRoomInfoResp       byte = 0x13
	MsgCreateRoom         byte = 0x14
	MsgCreateAck          byte = 0x15
	MsgJoinRoom           byte = 0x16
	MsgJoinAck            byte = 0x17
	MsgJoinNak            byte = 0x18
	MsgLeaveRoom          byte = 0x19
	MsgLeaveAck           byte = 0x1A
	MsgMemberJoined       byte = 0x1B
	MsgMemberLeft         byte = 0x1C
	MsgSessionCancelled   byte = 0x1D
	MsgProtocolError      byte = 0xFF
)

// ReliableTypeNames maps a reliable-channel type byte to its wire name, used
// for logging and for rejecting unknown types.
var ReliableTypeNames = map[byte]string{
	MsgHello:            "HELLO",
	MsgHelloAck:         "HELLO_ACK",
	MsgHelloNak:         "HELLO_NAK",
	MsgReady:            "READY",
	MsgGameStart:        "GAME_START",
	MsgListRooms:        "LIST_ROOMS",
	MsgListRoomsResp:    "LIST_ROOMS_RESP",
	MsgRoomInfo:         "ROOM_INFO",
	MsgRoomInfoResp:     "ROOM_INFO_RESP",
	MsgCreateRoom:       "CREATE_ROOM",
	MsgCreateAck:        "CREATE_ACK",
	MsgJoinRoom:         "JOIN_ROOM",
	MsgJoinAck:          "JOIN_ACK",
	MsgJoinNak:          "JOIN_NAK",
	MsgLeaveRoom:        "LEAVE_ROOM",
	MsgLeaveAck:         "LEAVE_ACK",
	MsgMemberJoined:     "MEMBER_JOINED",
	MsgMemberLeft:       "MEMBER_LEFT",
	MsgSessionCancelled: "SESSION_CANCELLED",
	MsgProtocolError:    "PROTOCOL_ERROR",
}

// Datagram-channel message types.
const (
	MsgClientPing       byte = 0x00
	MsgPlayerAssignment byte = 0x01
	MsgEntityCreate     byte = 0x10
	MsgEntityUpdate     byte = 0x11
	MsgEntityDestroy    byte = 0x12
	MsgGameState        byte = 0x13
	MsgPlayerInput      byte = 0x20
)

// ValidateReliableType reports ErrUnknownType if t is not an enumerated
// reliable-channel message type.
func ValidateReliableType(t byte) error {
	if _, ok := ReliableTypeNames[t]; !ok {
		return ErrUnknownType
	}
	return nil
}

// DatagramTypeNames maps a datagram-channel type byte to its wire name.
var DatagramTypeNames = map[byte]string{
	MsgClientPing:       "CLIENT_PING",
	MsgPlayerAssignment: "PLAYER_ASSIGNMENT",
	MsgEntityCreate:     "ENTITY_CREATE",
	MsgEntityUpdate:     "ENTITY_UPDATE",
	MsgEntityDestroy:    "ENTITY_DESTROY",
	MsgGameState:        "GAME_STATE",
	MsgPlayerInput:      "PLAYER_INPUT",
}

// Error codes carried in HELLO_NAK, JOIN_NAK, and PROTOCOL_ERROR payloads.
const (
	ErrRoomFull          byte = 0x01
	ErrRoomNotFound      byte = 0x02
	ErrAlreadyStarted    byte = 0x03
	ErrInvalidName       byte = 0x04
	ErrProtocolViolation byte = 0x05
	ErrUnexpectedMessage byte = 0x06
	ErrTimeout           byte = 0x07
	ErrInternal          byte = 0x08
	ErrNotInRoom         byte = 0x09
	ErrAlreadyInRoom     byte = 0x0A
)

// Fixed record sizes.
const (
	NameInfoSize = 64
	nameInfoPad  = 60

	// RoomInfoSize is the field-list sum: room_id u16 + count u8 +
	// capacity u8 + name_len u16 + name 32 bytes + status u8 + reserved
	// 3 bytes.
	RoomInfoSize = 42
	roomNamePad  = 32
)

// NameInfo is the fixed 64-byte record describing one room member,
// used in JOIN_ACK and MEMBER_JOINED payloads.
type NameInfo struct {
	Seat  uint8
	Ready bool
	Name  string
}

// RoomInfo is the fixed record describing one room, used in
// LIST_ROOMS_RESP and ROOM_INFO_RESP payloads.
type RoomInfo struct {
	RoomID   uint16
	Count    uint8
	Capacity uint8
	Name     string
	Status   byte
}

// Room status bytes carried in RoomInfo.Status.
const (
	RoomWaiting byte = 0x00
	RoomReady   byte = 0x01
	RoomInGame  byte = 0x02
	RoomClosing byte = 0x03
)
