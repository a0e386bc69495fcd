package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"room-relay/domain"
	"room-relay/errors"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// WsSink bridges the registry fan-out to one WebSocket connection.
//
// Consume is called by broadcasters and only enqueues; the WritePump
// goroutine owns every write to the connection, including pings, so no
// two goroutines ever write concurrently.
type WsSink struct {
	log             *slog.Logger
	frames          chan domain.Frame
	done            chan struct{}
	closeOnce       sync.Once
	deliveryTimeout time.Duration
}

func NewWsSink(log *slog.Logger, bufferSize int, deliveryTimeout time.Duration) *WsSink {
	return &WsSink{
		log:             log,
		frames:          make(chan domain.Frame, bufferSize),
		done:            make(chan struct{}),
		deliveryTimeout: deliveryTimeout,
	}
}

// Consume enqueues one frame for delivery. A consumer that cannot drain its
// buffer within the delivery budget loses the frame for itself only; the
// broadcaster is never blocked beyond that budget.
func (s *WsSink) Consume(ctx context.Context, f domain.Frame) error {
	select {
	case s.frames <- f:
		return nil
	case <-s.done:
		return errors.ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.deliveryTimeout):
		return errors.ErrSlowConsumer
	}
}

// Close stops the sink. Idempotent; pending frames are discarded.
func (s *WsSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// WritePump drains the frame buffer onto the connection until the sink is
// closed, the context ends, or a write fails. It is the single writer.
func (s *WsSink) WritePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case f := <-s.frames:
			data, err := f.MarshalWire()
			if err != nil {
				s.log.Error("Failed to marshal outbound frame", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("Write failed, stopping pump", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("Ping failed, stopping pump", "error", err)
				return
			}
		}
	}
}
