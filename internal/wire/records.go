package wire

import "encoding/binary"

// EncodeNameInfo writes the fixed 64-byte name-info record.
func EncodeNameInfo(n NameInfo) []byte {
	buf := make([]byte, NameInfoSize)
	buf[0] = n.Seat
	if n.Ready {
		buf[1] = 1
	}
	name := []byte(n.Name)
	if len(name) > nameInfoPad {
		name = name[:nameInfoPad]
	}
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(name)))
	copy(buf[4:4+nameInfoPad], name)
	return buf
}

// DecodeNameInfo parses a fixed 64-byte name-info record.
func DecodeNameInfo(buf []byte) (NameInfo, error) {
	if len(buf) < NameInfoSize {
		return NameInfo{}, ErrBufferTooSmall
	}
	nameLen := int(binary.BigEndian.Uint16(buf[2:4]))
	if nameLen > nameInfoPad {
		return NameInfo{}, ErrInvalidMessage
	}
	return NameInfo{
		Seat:  buf[0],
		Ready: buf[1] != 0,
		Name:  string(buf[4 : 4+nameLen]),
	}, nil
}

// EncodeRoomInfo writes the fixed room-info record of RoomInfoSize bytes.
func EncodeRoomInfo(r RoomInfo) []byte {
	buf := make([]byte, RoomInfoSize)
	binary.BigEndian.PutUint16(buf[0:2], r.RoomID)
	buf[2] = r.Count
	buf[3] = r.Capacity
	name := []byte(r.Name)
	if len(name) > roomNamePad {
		name = name[:roomNamePad]
	}
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(name)))
	copy(buf[6:6+roomNamePad], name)
	buf[6+roomNamePad] = r.Status
	// buf[39:42] is reserved, left zero.
	return buf
}

// DecodeRoomInfo parses a fixed room-info record.
func DecodeRoomInfo(buf []byte) (RoomInfo, error) {
	if len(buf) < RoomInfoSize {
		return RoomInfo{}, ErrBufferTooSmall
	}
	nameLen := int(binary.BigEndian.Uint16(buf[4:6]))
	if nameLen > roomNamePad {
		return RoomInfo{}, ErrInvalidMessage
	}
	return RoomInfo{
		RoomID:   binary.BigEndian.Uint16(buf[0:2]),
		Count:    buf[2],
		Capacity: buf[3],
		Name:     string(buf[6 : 6+nameLen]),
		Status:   buf[6+roomNamePad],
	}, nil
}
