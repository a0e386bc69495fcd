// Package gateway accepts client WebSocket connections, enforces the frame
// protocol, and applies membership and chat operations to the local registry.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"room-relay/contract"
	"room-relay/domain"
	"room-relay/moderation"
	"room-relay/observability"
)

// Options carries the per-process policy knobs of one gateway.
type Options struct {
	// StrictJoin makes join fail on an unknown room instead of creating it.
	// Create always creates. Default false: join and create are equivalent.
	StrictJoin bool
	// ConnectionBufferSize sizes each participant's outbound frame buffer.
	ConnectionBufferSize int
	// DeliveryTimeout bounds how long a broadcast waits on one slow sink.
	DeliveryTimeout time.Duration
}

// Server serves every client connection of one gateway process.
//
// With no forwarder configured the gateway runs single-node: chat is fanned
// out locally only. With a forwarder every chat additionally crosses the
// relay so participants on other gateway processes receive it too.
type Server struct {
	log       *slog.Logger
	registry  contract.IRegistry
	metrics   *observability.Metrics
	moderator *moderation.Moderator
	forwarder contract.Forwarder
	opts      Options
	upgrader  websocket.Upgrader
}

func NewServer(log *slog.Logger, registry contract.IRegistry, metrics *observability.Metrics,
	moderator *moderation.Moderator, opts Options) *Server {
	return &Server{
		log:       log,
		registry:  registry,
		metrics:   metrics,
		moderator: moderator,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetForwarder switches the gateway into multi-node mode. Must be called
// before the server starts accepting connections.
func (s *Server) SetForwarder(f contract.Forwarder) { s.forwarder = f }

// HandleWS upgrades one client connection and serves its session until the
// peer goes away. Cleanup runs exactly once per connection.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.metrics.ConnectionOpened()
	defer s.metrics.ConnectionClosed()

	sess := newSession(s, conn)
	s.log.Debug("Client connected", "conn_id", sess.connID, "remote", r.RemoteAddr)
	sess.run(r.Context())
	s.log.Debug("Client disconnected", "conn_id", sess.connID)
}

// HandleRelayEnvelope re-broadcasts a chat envelope arriving from another
// gateway into the matching local room. No author exclusion happens here:
// the relay node never echoes a frame back to its originating link, so the
// author of an inbound envelope is never local.
func (s *Server) HandleRelayEnvelope(ctx context.Context, env domain.Envelope) {
	roomID := domain.RoomID(env.Payload.RoomID)
	frame := domain.ChatFrame{Message: env.Payload.Message, SenderName: env.Payload.SenderName}

	delivered, err := s.registry.Broadcast(ctx, roomID, "", frame)
	if err != nil {
		// Not an error: other gateways relay rooms this one does not host.
		s.log.Debug("Relayed chat for unknown local room", "room", roomID)
		return
	}
	s.metrics.RelayedIn()
	s.metrics.Delivered(delivered)
}

// HandleHealth is a liveness probe.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// HandleStats serves the current counters and membership as JSON.
func (s *Server) HandleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Stats()); err != nil {
		s.log.Warn("Failed to encode stats", "error", err)
	}
}

// Stats assembles the full snapshot: counters, membership, relay state.
func (s *Server) Stats() observability.StatsSnapshot {
	snapshot := s.metrics.Counters()
	snapshot.Rooms = lo.Map(s.registry.Snapshot(), func(info domain.RoomInfo, _ int) observability.RoomStats {
		return observability.RoomStats{
			ID: string(info.ID),
			Participants: lo.Map(info.Members, func(p domain.Participant, _ int) string {
				return p.Name
			}),
		}
	})
	snapshot.RelayState = "local"
	if s.forwarder != nil {
		snapshot.RelayState = s.forwarder.State()
	}
	return snapshot
}
