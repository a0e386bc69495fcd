package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type Frame struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload,omitempty"`
	Message string  `json:"message,omitempty"`
}

type Payload struct {
	RoomID     string `json:"roomId,omitempty"`
	Message    string `json:"message,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// RequireGateways skips the suite when no live deployment is configured.
func (s *BaseWsSuite) RequireGateways() {
	if s.Config.GatewayAAddr == "" || s.Config.GatewayBAddr == "" {
		s.T().Skip("GATEWAY_A_ADDR and GATEWAY_B_ADDR must point to running gateways")
	}
}

// WsConn opens a client connection with a colorized header in the logs.
func (s *BaseWsSuite) WsConn(t *testing.T, name string, addr string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	s.Require().NoError(err, "Failed to connect to gateway at "+addr)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send writes one frame, dumping it when E2E_DEBUG_FRAMES is enabled.
func (s *BaseWsSuite) Send(conn *websocket.Conn, f Frame) {
	if s.Config.DebugFrames {
		data, _ := json.Marshal(f)
		s.T().Logf("SEND %s", data)
	}
	s.Require().NoError(conn.WriteJSON(f))
}

// Recv reads one frame within the deadline.
func (s *BaseWsSuite) Recv(conn *websocket.Conn, timeout time.Duration) Frame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)
	if s.Config.DebugFrames {
		s.T().Logf("RECV %s", data)
	}
	var f Frame
	s.Require().NoError(json.Unmarshal(data, &f))
	return f
}

// ExpectSilence asserts no frame arrives within the window.
func (s *BaseWsSuite) ExpectSilence(conn *websocket.Conn, window time.Duration) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(window)))
	_, data, err := conn.ReadMessage()
	s.Require().Error(err, "unexpected frame: %s", data)
}
