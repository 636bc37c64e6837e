package wire

import "testing"
import "bytes"

func TestFrameRoundTrip(t *testing.T) {
	encoded := EncodeFrame(MsgHello, []byte("payload"))
	frame, n, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	if frame.Type != MsgHello || !bytes.Equal(frame.Payload, []byte("payload")) {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestDecodeFrameMalformedHeader(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0x01, 0x00})
	if err != ErrMalformedHeader {
		t.Fatalf("err = %v, want ErrMalformedHeader", err)
	}
}

func TestDecodeFrameLengthMismatch(t *testing.T) {
	buf := EncodeFrame(MsgHello, []byte("payload"))
	truncated := buf[:len(buf)-2]
	_, _, err := DecodeFrame(truncated)
	if err != ErrLengthMismatch {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestSplitFramesMultipleAndPartial(t *testing.T) {
	a := EncodeFrame(MsgHello, []byte("a"))
	b := EncodeFrame(MsgReady, nil)
	partial := []byte{0x01, 0x00, 0x00} // incomplete header of a third frame

	var buf []byte
	buf = append(buf, a...)
	buf = append(buf, b...)
	buf = append(buf, partial...)

	frames, rest := SplitFrames(buf)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Type != MsgHello || frames[1].Type != MsgReady {
		t.Fatalf("frame types = %#x, %#x", frames[0].Type, frames[1].Type)
	}
	if !bytes.Equal(rest, partial) {
		t.Fatalf("leftover = %v, want %v", rest, partial)
	}
}

func TestDatagramFrameRoundTrip(t *testing.T) {
	encoded := EncodeDatagramFrame(MsgClientPing, 0, []byte("xy"))
	frame, err := DecodeDatagramFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeDatagramFrame: %v", err)
	}
	if frame.Type != MsgClientPing || frame.Sequence != 0 || !bytes.Equal(frame.Payload, []byte("xy")) {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestCodecHelloRoundTrip(t *testing.T) {
	c := NewCodec()
	frame, _, err := DecodeFrame(c.EncodeHello("Ripley"))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	msg, err := c.DecodeHello(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeHello: %v", err)
	}
	if msg.Name != "Ripley" {
		t.Fatalf("name = %q, want Ripley", msg.Name)
	}
}

func TestCodecJoinAckRoundTrip(t *testing.T) {
	c := NewCodec()
	members := []NameInfo{
		{Seat: 1, Ready: true, Name: "A"},
		{Seat: 2, Ready: false, Name: "B"},
	}
	frame, _, err := DecodeFrame(c.EncodeJoinAck(7, 2, members))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	msg, err := c.DecodeJoinAck(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeJoinAck: %v", err)
	}
	if msg.RoomID != 7 || msg.YourSeat != 2 || len(msg.Members) != 2 {
		t.Fatalf("msg = %+v", msg)
	}
	if msg.Members[0] != members[0] || msg.Members[1] != members[1] {
		t.Fatalf("members = %+v, want %+v", msg.Members, members)
	}
}

func TestRoomInfoRoundTrip(t *testing.T) {
	r := RoomInfo{RoomID: 3, Count: 2, Capacity: 4, Name: "Alpha Squad", Status: RoomWaiting}
	decoded, err := DecodeRoomInfo(EncodeRoomInfo(r))
	if err != nil {
		t.Fatalf("DecodeRoomInfo: %v", err)
	}
	if decoded != r {
		t.Fatalf("decoded = %+v, want %+v", decoded, r)
	}
}

func TestNameInfoRoundTrip(t *testing.T) {
	n := NameInfo{Seat: 3, Ready: true, Name: "Voss"}
	decoded, err := DecodeNameInfo(EncodeNameInfo(n))
	if err != nil {
		t.Fatalf("DecodeNameInfo: %v", err)
	}
	if decoded != n {
		t.Fatalf("decoded = %+v, want %+v", decoded, n)
	}
}

func TestEntityCreateRoundTrip(t *testing.T) {
	c := NewCodec()
	e := EntityCreate{NetID: 42, Kind: 3, Health: 1000, PosX: 0.85, PosY: 0.5}
	frame, err := DecodeDatagramFrame(c.EncodeEntityCreate(e))
	if err != nil {
		t.Fatalf("DecodeDatagramFrame: %v", err)
	}
	decoded, err := c.DecodeEntityCreate(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeEntityCreate: %v", err)
	}
	if decoded != e {
		t.Fatalf("decoded = %+v, want %+v", decoded, e)
	}
}

func TestEntityUpdateBatchRoundTrip(t *testing.T) {
	c := NewCodec()
	updates := []EntityUpdate{
		{NetID: 1, Health: 100, PosX: 0.1, PosY: 0.2},
		{NetID: 2, Health: 50, PosX: 0.3, PosY: 0.4},
	}
	frame, err := DecodeDatagramFrame(c.EncodeEntityUpdate(updates))
	if err != nil {
		t.Fatalf("DecodeDatagramFrame: %v", err)
	}
	decoded, err := c.DecodeEntityUpdate(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeEntityUpdate: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != updates[0] || decoded[1] != updates[1] {
		t.Fatalf("decoded = %+v, want %+v", decoded, updates)
	}
}

func TestClientPingRoundTrip(t *testing.T) {
	c := NewCodec()
	frame, err := DecodeDatagramFrame(c.EncodeClientPing(123456, 3))
	if err != nil {
		t.Fatalf("DecodeDatagramFrame: %v", err)
	}
	msg, err := c.DecodeClientPing(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeClientPing: %v", err)
	}
	if msg.Timestamp != 123456 || msg.Seat != 3 {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestValidateReliableType(t *testing.T) {
	if err := ValidateReliableType(MsgHello); err != nil {
		t.Fatalf("MsgHello: %v", err)
	}
	if err := ValidateReliableType(0x99); err != ErrUnknownType {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestPlayerInputRoundTrip(t *testing.T) {
	c := NewCodec()
	frame, err := DecodeDatagramFrame(c.EncodePlayerInput(0x1F))
	if err != nil {
		t.Fatalf("DecodeDatagramFrame: %v", err)
	}
	msg, err := c.DecodePlayerInput(frame.Payload)
	if err != nil {
		t.Fatalf("DecodePlayerInput: %v", err)
	}
	if msg.Direction != 0x1F {
		t.Fatalf("direction = %#x, want 0x1F", msg.Direction)
	}
}
