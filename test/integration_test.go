package test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"room-relay/gateway"
	"room-relay/observability"
	"room-relay/relay"
	"room-relay/runtime"
	"room-relay/runtime/workers"
)

type wireFrame struct {
	Type    string `json:"type"`
	Payload struct {
		Message    string `json:"message"`
		SenderName string `json:"senderName"`
	} `json:"payload"`
	Message string `json:"message"`
}

type node struct {
	server *gateway.Server
	bridge *relay.Bridge
	ts     *httptest.Server
}

// startRelayNode runs one fan-out node on a test listener.
func startRelayNode(t *testing.T, log *slog.Logger) string {
	t.Helper()
	n := relay.NewNode(log)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", n.HandleWS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// startGateway runs one gateway wired to the relay through a supervised
// bridge, the same topology the binaries assemble.
func startGateway(t *testing.T, log *slog.Logger, relayAddr string) node {
	t.Helper()
	registry := runtime.NewRegistry()
	metrics := observability.NewMetrics(log)
	server := gateway.NewServer(log, registry, metrics, nil, gateway.Options{
		ConnectionBufferSize: 16,
		DeliveryTimeout:      time.Second,
	})

	bridge := relay.NewBridge(log, relayAddr, 16, server.HandleRelayEnvelope).
		WithBackoff(10*time.Millisecond, 100*time.Millisecond)
	server.SetForwarder(bridge)

	sup := workers.NewSupervisor(log, 100*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Add(bridge).Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	mux.HandleFunc("/stats", server.HandleStats)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return node{server: server, bridge: bridge, ts: ts}
}

func dial(t *testing.T, n node) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(n.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func waitForBridge(t *testing.T, bridge *relay.Bridge) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if bridge.State() == relay.StateConnected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, relay.StateConnected, bridge.State())
}

func waitForRoom(t *testing.T, n node, roomID string, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, room := range n.server.Stats().Rooms {
			if room.ID == roomID && len(room.Participants) == want {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d participants", roomID, want)
}

func Test_Chat_Crosses_Gateways(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given one relay node and two gateways linked to it
	relayAddr := startRelayNode(t, log)
	gwA := startGateway(t, log, relayAddr)
	gwB := startGateway(t, log, relayAddr)
	waitForBridge(t, gwA.bridge)
	waitForBridge(t, gwB.bridge)

	// And one participant per gateway in the same room
	alice := dial(t, gwA)
	bob := dial(t, gwB)
	send(t, alice, `{"type":"join","payload":{"roomId":"general","senderName":"alice"}}`)
	send(t, bob, `{"type":"join","payload":{"roomId":"general","senderName":"bob"}}`)
	waitForRoom(t, gwA, "general", 1)
	waitForRoom(t, gwB, "general", 1)

	// When alice speaks on gateway A
	send(t, alice, `{"type":"chat","payload":{"roomId":"general","message":"hello from A","senderName":"alice"}}`)

	// Then bob receives it on gateway B, exactly once
	f := readFrame(t, bob)
	req.Equal("chat", f.Type)
	req.Equal("hello from A", f.Payload.Message)
	req.Equal("alice", f.Payload.SenderName)

	// And the author never sees an echo
	req.NoError(alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err := alice.ReadMessage()
	req.Error(err)
}

func Test_Chat_Stays_Local_When_Rooms_Differ(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	relayAddr := startRelayNode(t, log)
	gwA := startGateway(t, log, relayAddr)
	gwB := startGateway(t, log, relayAddr)
	waitForBridge(t, gwA.bridge)
	waitForBridge(t, gwB.bridge)

	alice := dial(t, gwA)
	bob := dial(t, gwB)
	send(t, alice, `{"type":"join","payload":{"roomId":"general","senderName":"alice"}}`)
	send(t, bob, `{"type":"join","payload":{"roomId":"random","senderName":"bob"}}`)
	waitForRoom(t, gwA, "general", 1)
	waitForRoom(t, gwB, "random", 1)

	// When alice speaks in a room bob's gateway does not host
	send(t, alice, `{"type":"chat","payload":{"roomId":"general","message":"hi","senderName":"alice"}}`)

	// Then the envelope still crosses the relay but bob receives nothing
	req.NoError(bob.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err := bob.ReadMessage()
	req.Error(err)
}

func Test_Three_Gateways_Single_Delivery(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	relayAddr := startRelayNode(t, log)
	gwA := startGateway(t, log, relayAddr)
	gwB := startGateway(t, log, relayAddr)
	gwC := startGateway(t, log, relayAddr)
	for _, gw := range []node{gwA, gwB, gwC} {
		waitForBridge(t, gw.bridge)
	}

	alice := dial(t, gwA)
	bob := dial(t, gwB)
	carol := dial(t, gwC)
	send(t, alice, `{"type":"join","payload":{"roomId":"general","senderName":"alice"}}`)
	send(t, bob, `{"type":"join","payload":{"roomId":"general","senderName":"bob"}}`)
	send(t, carol, `{"type":"join","payload":{"roomId":"general","senderName":"carol"}}`)
	waitForRoom(t, gwA, "general", 1)
	waitForRoom(t, gwB, "general", 1)
	waitForRoom(t, gwC, "general", 1)

	send(t, alice, `{"type":"chat","payload":{"roomId":"general","message":"hi all","senderName":"alice"}}`)

	// Every remote member receives exactly one copy
	for _, conn := range []*websocket.Conn{bob, carol} {
		f := readFrame(t, conn)
		req.Equal("hi all", f.Payload.Message)

		req.NoError(conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
		_, _, err := conn.ReadMessage()
		req.Error(err)
	}
}

func Test_Relay_Outage_Degrades_To_Local_Delivery(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a gateway whose relay address points nowhere
	gw := startGateway(t, log, "ws://localhost:1/ws")

	alice := dial(t, gw)
	bob := dial(t, gw)
	send(t, alice, `{"type":"join","payload":{"roomId":"general","senderName":"alice"}}`)
	send(t, bob, `{"type":"join","payload":{"roomId":"general","senderName":"bob"}}`)
	waitForRoom(t, gw, "general", 2)

	send(t, alice, `{"type":"chat","payload":{"roomId":"general","message":"hi","senderName":"alice"}}`)

	// Local members still receive the chat
	f := readFrame(t, bob)
	req.Equal("hi", f.Payload.Message)

	// And the author is told the relay hop failed
	errFrame := readFrame(t, alice)
	req.Equal("error", errFrame.Type)
	req.Contains(errFrame.Message, "Relay unavailable")
}
