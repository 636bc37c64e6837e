package dispatcher

import "github.com/rtype/server/internal/wire"

// Verdict is the outcome of a legality check: a stateless judgment of
// whether a message type may be processed in a client's current session
// state.
type Verdict int

const (
	VerdictLegal Verdict = iota
	VerdictIllegal
)

// legalNoRoom is what a connected client with no room may send.
var legalNoRoom = map[byte]bool{
	wire.MsgListRooms:  true,
	wire.MsgCreateRoom: true,
	wire.MsgJoinRoom:   true,
}

// legalInRoom is shared by connected-in-room and ready clients: both
// accept the same message types, the only difference being what READY means
// once applied (set vs. unset), which handleReady decides.
var legalInRoom = map[byte]bool{
	wire.MsgListRooms: true,
	wire.MsgRoomInfo:  true,
	wire.MsgLeaveRoom: true,
	wire.MsgReady:     true,
}

// legalityOf reports whether msgType may be processed while a client is in
// state. hasRoom splits StateConnected into its no-room and in-room rows;
// collapsing them onto ConnState alone would accept READY from a client
// with no room and let it fall through to a NotInRoom PROTOCOL_ERROR instead
// of the UnexpectedMessage PROTOCOL_ERROR it must produce.
func legalityOf(state ConnState, hasRoom bool, msgType byte) Verdict {
	var legal bool
	switch state {
	case StateConnecting:
		legal = msgType == wire.MsgHello
	case StateConnected:
		if hasRoom {
			legal = legalInRoom[msgType]
		} else {
			legal = legalNoRoom[msgType]
		}
	case StateReady:
		legal = legalInRoom[msgType]
	case StateInGame:
		legal = false
	}
	if legal {
		return VerdictLegal
	}
	return VerdictIllegal
}
