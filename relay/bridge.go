package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"room-relay/domain"
	"room-relay/errors"
)

// Bridge connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

const (
	defaultBackoffBase = 1 * time.Second
	defaultBackoffMax  = 30 * time.Second
)

// EnvelopeHandler receives chat envelopes arriving from the relay node.
type EnvelopeHandler func(ctx context.Context, env domain.Envelope)

// Bridge maintains the single outbound connection from a gateway process to
// the relay node. It runs as a supervised worker: Run dials, pumps frames in
// both directions, and redials with exponential backoff until the context is
// canceled. While not Connected, Forward refuses envelopes instead of
// queueing them; the gateway degrades, it never buffers.
type Bridge struct {
	log         *slog.Logger
	addr        string
	handler     EnvelopeHandler
	out         chan domain.Envelope
	backoffBase time.Duration
	backoffMax  time.Duration

	mu    sync.RWMutex
	state string
}

func NewBridge(log *slog.Logger, addr string, bufferSize int, handler EnvelopeHandler) *Bridge {
	return &Bridge{
		log:         log,
		addr:        addr,
		handler:     handler,
		out:         make(chan domain.Envelope, bufferSize),
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
		state:       StateDisconnected,
	}
}

// WithBackoff overrides the reconnect schedule. Intended for tests.
func (b *Bridge) WithBackoff(base, max time.Duration) *Bridge {
	b.backoffBase = base
	b.backoffMax = max
	return b
}

// State reports the current connection state.
func (b *Bridge) State() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Forward hands one envelope to the relay link. It succeeds only while the
// bridge is Connected and the in-flight buffer has room; in every other case
// the envelope is dropped and the caller is told, never queued for later.
func (b *Bridge) Forward(env domain.Envelope) error {
	if b.State() != StateConnected {
		return errors.ErrRelayUnavailable
	}
	select {
	case b.out <- env:
		return nil
	default:
		return errors.ErrRelayUnavailable
	}
}

// Run keeps the link alive until the context is canceled. Each failed dial
// doubles the wait up to the cap; a successful connection resets it.
func (b *Bridge) Run(ctx context.Context) error {
	backoff := b.backoffBase
	for {
		if ctx.Err() != nil {
			b.setState(StateDisconnected)
			return ctx.Err()
		}

		b.setState(StateConnecting)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.addr, nil)
		if err != nil {
			b.setState(StateDisconnected)
			b.log.Warn("Relay dial failed", "addr", b.addr, "retry_in", backoff, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, b.backoffMax)
			continue
		}

		backoff = b.backoffBase
		b.setState(StateConnected)
		b.log.Info("Connected to relay node", "addr", b.addr)

		b.pump(ctx, conn)

		b.setState(StateDisconnected)
		_ = conn.Close()
		b.log.Warn("Relay link lost", "addr", b.addr)
	}
}

// pump serves one live connection: a reader goroutine dispatches inbound
// envelopes to the handler while this goroutine drains the outbound buffer.
// It returns when either direction fails or the context ends.
func (b *Bridge) pump(ctx context.Context, conn *websocket.Conn) {
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var env domain.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				b.log.Debug("Relay read failed", "error", err)
				return
			}
			if env.Type != domain.EnvelopeChat {
				continue
			}
			b.handler(ctx, env)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			<-readerDone
			return
		case <-readerDone:
			return
		case env := <-b.out:
			if err := conn.WriteJSON(env); err != nil {
				b.log.Debug("Relay write failed", "error", err)
				_ = conn.Close()
				<-readerDone
				return
			}
		}
	}
}

func (b *Bridge) setState(state string) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}
