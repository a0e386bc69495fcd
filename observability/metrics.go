// Package observability aggregates live counters for one gateway process.
package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/abadojack/whatlanggo"
)

// RoomStats is the membership view exposed on /stats.
type RoomStats struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
}

// StatsSnapshot aggregates every metric the gateway exposes.
type StatsSnapshot struct {
	ActiveConnections int64  `json:"active_connections"`
	TotalConnections  uint64 `json:"total_connections"`
	FramesIn          uint64 `json:"frames_in"`
	FramesRejected    uint64 `json:"frames_rejected"`
	MessagesIn        uint64 `json:"messages_in"`
	Delivered         uint64 `json:"delivered"`
	RelayedOut        uint64 `json:"relayed_out"`
	RelayedIn         uint64 `json:"relayed_in"`

	RelayState string            `json:"relay_state"`
	Rooms      []RoomStats       `json:"rooms"`
	Languages  map[string]uint64 `json:"languages"`
}

// Metrics collects counters with atomic increments on the hot path.
// Language detection is best effort; undetected messages count as "unknown".
type Metrics struct {
	log *slog.Logger

	activeConnections atomic.Int64
	totalConnections  atomic.Uint64
	framesIn          atomic.Uint64
	framesRejected    atomic.Uint64
	messagesIn        atomic.Uint64
	delivered         atomic.Uint64
	relayedOut        atomic.Uint64
	relayedIn         atomic.Uint64

	mu        sync.Mutex
	languages map[string]uint64
}

func NewMetrics(log *slog.Logger) *Metrics {
	return &Metrics{log: log, languages: make(map[string]uint64)}
}

func (m *Metrics) ConnectionOpened() {
	m.activeConnections.Add(1)
	m.totalConnections.Add(1)
}

func (m *Metrics) ConnectionClosed() { m.activeConnections.Add(-1) }
func (m *Metrics) FrameReceived()    { m.framesIn.Add(1) }
func (m *Metrics) FrameRejected()    { m.framesRejected.Add(1) }
func (m *Metrics) Delivered(n int)   { m.delivered.Add(uint64(n)) }
func (m *Metrics) RelayedOut()       { m.relayedOut.Add(1) }
func (m *Metrics) RelayedIn()        { m.relayedIn.Add(1) }

// MessageObserved counts one chat message and its detected language.
func (m *Metrics) MessageObserved(content string) {
	m.messagesIn.Add(1)

	lang := "unknown"
	if info := whatlanggo.Detect(content); info.IsReliable() {
		lang = info.Lang.Iso6391()
	}

	m.mu.Lock()
	m.languages[lang]++
	m.mu.Unlock()
}

// Counters returns the atomic counter part of the snapshot; membership and
// relay state are filled in by the caller that owns them.
func (m *Metrics) Counters() StatsSnapshot {
	m.mu.Lock()
	languages := make(map[string]uint64, len(m.languages))
	for lang, count := range m.languages {
		languages[lang] = count
	}
	m.mu.Unlock()

	return StatsSnapshot{
		ActiveConnections: m.activeConnections.Load(),
		TotalConnections:  m.totalConnections.Load(),
		FramesIn:          m.framesIn.Load(),
		FramesRejected:    m.framesRejected.Load(),
		MessagesIn:        m.messagesIn.Load(),
		Delivered:         m.delivered.Load(),
		RelayedOut:        m.relayedOut.Load(),
		RelayedIn:         m.relayedIn.Load(),
		Languages:         languages,
	}
}
