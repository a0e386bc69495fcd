// Package relay holds the two halves of the inter-gateway fabric: the Node,
// a protocol-agnostic fan-out switch run as its own process, and the Bridge,
// the single outbound link a gateway keeps toward a Node.
package relay

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Node retransmits every frame read from one link to all other links,
// byte for byte. It has no room concept, no schema, no persistence; that
// is what keeps the fabric reusable.
type Node struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	links map[string]*link
}

type link struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to the link
}

func NewNode(log *slog.Logger) *Node {
	return &Node{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		links: make(map[string]*link),
	}
}

// HandleWS accepts one gateway link and serves it until it closes.
func (n *Node) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	l := &link{id: uuid.NewString(), conn: conn}
	n.register(l)
	n.log.Info("Gateway link connected", "link_id", l.id, "remote", r.RemoteAddr)

	defer func() {
		n.unregister(l)
		_ = conn.Close()
		n.log.Info("Gateway link closed", "link_id", l.id)
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		n.fanout(l, messageType, data)
	}
}

// LinkCount reports the number of currently connected gateway links.
func (n *Node) LinkCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.links)
}

func (n *Node) register(l *link) {
	n.mu.Lock()
	n.links[l.id] = l
	n.mu.Unlock()
}

func (n *Node) unregister(l *link) {
	n.mu.Lock()
	delete(n.links, l.id)
	n.mu.Unlock()
}

// fanout retransmits the frame to every link except its origin. The link set
// is snapshotted first so a link closing mid-loop cannot break iteration.
func (n *Node) fanout(from *link, messageType int, data []byte) {
	n.mu.RLock()
	peers := make([]*link, 0, len(n.links))
	for _, l := range n.links {
		if l.id != from.id {
			peers = append(peers, l)
		}
	}
	n.mu.RUnlock()

	for _, peer := range peers {
		peer.mu.Lock()
		err := peer.conn.WriteMessage(messageType, data)
		peer.mu.Unlock()
		if err != nil {
			// The peer's own read loop will notice and unregister it.
			n.log.Debug("Fanout write failed", "link_id", peer.id, "error", err)
		}
	}
}
