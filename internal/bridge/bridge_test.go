package bridge_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rtype/server/config"
	"github.com/rtype/server/internal/bridge"
	"github.com/rtype/server/internal/dispatcher"
	"github.com/rtype/server/internal/lobby"
	"github.com/rtype/server/internal/transport"
	"github.com/rtype/server/internal/wire"
)

// newStack wires the full reliable-channel stack plus the session bridge,
// the way cmd/gameserver does, against an httptest server.
func newStack(t *testing.T) (*httptest.Server, *wire.Codec) {
	t.Helper()

	reliable := transport.NewReliable(true)
	lm := lobby.NewManager()
	d := dispatcher.New(reliable, lm)

	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.DefaultServerConfig()
	br := bridge.New(ctx, reliable, cfg)
	d.SetGameStarter(br.Start)

	srv := httptest.NewServer(http.HandlerFunc(reliable.HandleUpgrade))

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				d.Tick()
			}
		}
	}()

	t.Cleanup(func() {
		close(stop)
		cancel()
		srv.Close()
	})
	return srv, wire.NewCodec()
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads frames off conn until one of the wanted type arrives,
// skipping broadcasts (MEMBER_JOINED etc.) interleaved before it.
func readUntil(t *testing.T, conn *websocket.Conn, want byte) wire.Frame {
	t.Helper()
	for i := 0; i < 16; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		f, _, err := wire.DecodeFrame(data)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if f.Type == want {
			return f
		}
	}
	t.Fatalf("never received frame type %#x", want)
	return wire.Frame{}
}

func TestGameStartAnnouncedToAllMembersAndPingBindsEndpoint(t *testing.T) {
	srv, codec := newStack(t)

	a := dialWS(t, srv)
	b := dialWS(t, srv)

	a.WriteMessage(websocket.BinaryMessage, codec.EncodeHello("A"))
	readUntil(t, a, wire.MsgHelloAck)
	b.WriteMessage(websocket.BinaryMessage, codec.EncodeHello("B"))
	readUntil(t, b, wire.MsgHelloAck)

	a.WriteMessage(websocket.BinaryMessage, codec.EncodeCreateRoom(2, "r1"))
	createAck, err := codec.DecodeCreateAck(readUntil(t, a, wire.MsgCreateAck).Payload)
	if err != nil {
		t.Fatalf("decode create ack: %v", err)
	}

	b.WriteMessage(websocket.BinaryMessage, codec.EncodeJoinRoom(createAck.RoomID))
	readUntil(t, b, wire.MsgJoinAck)

	a.WriteMessage(websocket.BinaryMessage, codec.EncodeReady())
	b.WriteMessage(websocket.BinaryMessage, codec.EncodeReady())

	startA, err := codec.DecodeGameStart(readUntil(t, a, wire.MsgGameStart).Payload)
	if err != nil {
		t.Fatalf("decode A game start: %v", err)
	}
	startB, err := codec.DecodeGameStart(readUntil(t, b, wire.MsgGameStart).Payload)
	if err != nil {
		t.Fatalf("decode B game start: %v", err)
	}

	if startA != startB {
		t.Fatalf("members saw different GAME_START: %+v vs %+v", startA, startB)
	}
	if startA.UDPPort == 0 {
		t.Fatalf("udp port = 0, want a bound ephemeral port")
	}

	// The datagram side: CLIENT_PING from seat 1 must yield PLAYER_ASSIGNMENT
	// followed by an ENTITY_CREATE burst for both seated players.
	client, err := transport.ListenDatagram(0)
	if err != nil {
		t.Fatalf("ListenDatagram: %v", err)
	}
	defer client.Close()

	simAddr := fmt.Sprintf("127.0.0.1:%d", startA.UDPPort)
	if err := client.SendTo(simAddr, codec.EncodeClientPing(0, 1)); err != nil {
		t.Fatalf("SendTo: %v", err)
	}

	var gotAssignment bool
	creates := make(map[uint32]bool)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && (!gotAssignment || len(creates) < 2) {
		for _, ev := range client.Poll() {
			frame, err := wire.DecodeDatagramFrame(ev.Data)
			if err != nil {
				continue
			}
			switch frame.Type {
			case wire.MsgPlayerAssignment:
				gotAssignment = true
			case wire.MsgEntityCreate:
				e, err := codec.DecodeEntityCreate(frame.Payload)
				if err == nil {
					creates[e.NetID] = true
				}
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !gotAssignment {
		t.Fatalf("never received PLAYER_ASSIGNMENT after CLIENT_PING")
	}
	if len(creates) < 2 {
		t.Fatalf("ENTITY_CREATE burst covered %d entities, want at least the 2 players", len(creates))
	}
}
