package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"room-relay/domain"
	"room-relay/errors"
	"room-relay/protocol"
	"room-relay/sink"
)

const pongWait = 75 * time.Second

// session is the per-connection state machine: Connected until the first
// successful create/join, InRoom after, Closed on disconnect. Membership is
// held by the registry, the session only keeps its connection identity.
type session struct {
	server *Server
	connID string
	conn   *websocket.Conn
	sink   *sink.WsSink
}

func newSession(s *Server, conn *websocket.Conn) *session {
	return &session{
		server: s,
		connID: uuid.NewString(),
		conn:   conn,
		sink:   sink.NewWsSink(s.log, s.opts.ConnectionBufferSize, s.opts.DeliveryTimeout),
	}
}

// run reads frames until the transport fails, then cleans up exactly once.
// A bad message never closes the connection; only transport errors do.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.sink.WritePump(ctx, s.conn)

	defer func() {
		s.server.registry.Disconnect(s.connID)
		s.sink.Close()
		_ = s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				s.server.log.Debug("Read failed", "conn_id", s.connID, "error", err)
			}
			return
		}
		s.handleFrame(ctx, data)
	}
}

// handleFrame processes one inbound frame. Every failure is scoped to this
// message: the sender gets an error frame, the session keeps running.
func (s *session) handleFrame(ctx context.Context, raw []byte) {
	s.server.metrics.FrameReceived()

	cmd, err := protocol.Validate(raw)
	if err != nil {
		s.server.metrics.FrameRejected()
		s.sendError(ctx, err)
		return
	}

	switch c := cmd.(type) {
	case domain.CreateRoomCommand:
		s.handleJoin(ctx, c.Room, c.SenderName, true)
	case domain.JoinRoomCommand:
		s.handleJoin(ctx, c.Room, c.SenderName, !s.server.opts.StrictJoin)
	case domain.ChatCommand:
		s.handleChat(ctx, c)
	case domain.LeaveRoomCommand:
		s.server.registry.Leave(s.connID, c.Room)
	}
}

func (s *session) handleJoin(ctx context.Context, room domain.RoomID, name string, createIfAbsent bool) {
	if name == "" {
		s.sendError(ctx, errors.ErrUsernameMissing)
		return
	}
	if err := s.server.registry.Join(s.connID, name, room, s.sink, createIfAbsent); err != nil {
		s.sendError(ctx, err)
		return
	}
	s.server.log.Debug("Participant joined", "conn_id", s.connID, "room", room, "name", name)
}

// handleChat applies the single-delivery invariant: local members receive the
// message through this gateway's own fan-out (author excluded), remote
// members through the relay hop. In single-node mode only the local fan-out
// runs. A relay outage is surfaced to the sender, not silently swallowed.
func (s *session) handleChat(ctx context.Context, c domain.ChatCommand) {
	name := c.SenderName
	if name == "" {
		if registered, ok := s.server.registry.MemberName(c.Room, s.connID); ok {
			name = registered
		}
	}

	message := c.Message
	if s.server.moderator != nil {
		message, _ = s.server.moderator.Censor(message)
	}
	s.server.metrics.MessageObserved(message)

	delivered, err := s.server.registry.Broadcast(ctx, c.Room, s.connID,
		domain.ChatFrame{Message: message, SenderName: name})
	if err != nil {
		s.sendError(ctx, err)
		return
	}
	s.server.metrics.Delivered(delivered)

	if s.server.forwarder == nil {
		return
	}
	env := domain.Envelope{
		Type: domain.EnvelopeChat,
		Payload: domain.EnvelopePayload{
			RoomID:     string(c.Room),
			Message:    message,
			SenderName: name,
		},
	}
	if err := s.server.forwarder.Forward(env); err != nil {
		s.sendError(ctx, err)
		return
	}
	s.server.metrics.RelayedOut()
}

func (s *session) sendError(ctx context.Context, reason error) {
	if err := s.sink.Consume(ctx, domain.ErrorFrame{Message: reason.Error()}); err != nil {
		s.server.log.Debug("Error frame dropped", "conn_id", s.connID, "error", err)
	}
}
