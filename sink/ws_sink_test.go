package sink

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"room-relay/domain"
	"room-relay/errors"
)

func TestWsSink_Consume_Enqueues_Until_Buffer_Is_Full(t *testing.T) {
	req := require.New(t)
	s := NewWsSink(slog.Default(), 2, 50*time.Millisecond)
	ctx := context.Background()

	// Given a buffer of two frames
	req.NoError(s.Consume(ctx, domain.ChatFrame{Message: "one"}))
	req.NoError(s.Consume(ctx, domain.ChatFrame{Message: "two"}))

	// When a third frame arrives and nothing drains the buffer
	err := s.Consume(ctx, domain.ChatFrame{Message: "three"})

	// Then the frame is dropped after the delivery budget
	req.ErrorIs(err, errors.ErrSlowConsumer)
}

func TestWsSink_Consume_After_Close(t *testing.T) {
	req := require.New(t)
	s := NewWsSink(slog.Default(), 1, time.Second)
	req.NoError(s.Consume(context.Background(), domain.ChatFrame{Message: "fill"}))

	s.Close()

	err := s.Consume(context.Background(), domain.ChatFrame{Message: "hi"})
	req.ErrorIs(err, errors.ErrSinkClosed)
}

func TestWsSink_Consume_Honors_Context(t *testing.T) {
	req := require.New(t)
	s := NewWsSink(slog.Default(), 1, time.Minute)
	req.NoError(s.Consume(context.Background(), domain.ChatFrame{Message: "fill"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Consume(ctx, domain.ChatFrame{Message: "hi"})
	req.ErrorIs(err, context.Canceled)
}

func TestWsSink_Close_Is_Idempotent(t *testing.T) {
	s := NewWsSink(slog.Default(), 1, time.Second)

	// Then a double Close must not panic
	s.Close()
	s.Close()
}
