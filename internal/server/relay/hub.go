// Package relay is the opaque byte-pipe between peers. Endpoints attach over
// a websocket keyed by their routing id; the hub forwards envelopes without
// inspecting the payload, which is ciphertext end to end. It also tracks
// presence and feeds advisory connection/message stats back to the directory.
package relay

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/archive"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/gorilla/websocket"
)

// Envelope is one relayed frame. Payload is opaque bytes (base64 in JSON);
// From is stamped by the hub, never trusted from the sender.
type Envelope struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Payload []byte `json:"payload"`
}

// Stats receives advisory bookkeeping about relayed traffic. Implementations
// must not block; the directory service logs failures internally.
type Stats interface {
	RecordConnection(ctx context.Context, a, b string)
	BumpMessageCount(ctx context.Context, id string)
}

type peer struct {
	id   string
	conn *websocket.Conn

	// gorilla allows a single writer at a time
	writeMu sync.Mutex
}

func (p *peer) send(env *Envelope) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(env)
}

// Hub routes envelopes between attached peers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logging.Logger
	stats    Stats
	sink     archive.Sink

	mu      sync.RWMutex
	peers   map[string]*peer
	bridged map[string]map[string]bool
}

// NewHub creates a hub. stats and sink may be nil.
func NewHub(logger logging.Logger, stats Stats, sink archive.Sink) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.With("module", "relay"),
		stats:   stats,
		sink:    sink,
		peers:   make(map[string]*peer),
		bridged: make(map[string]map[string]bool),
	}
}

// ServeHTTP upgrades the connection and pumps frames until the peer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	routingID := r.URL.Query().Get("routing_id")
	if routingID == "" {
		http.Error(w, "routing_id required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}

	p := &peer{id: routingID, conn: conn}
	h.attach(p)
	h.logger.Info(r.Context(), "peer online", "routing_id", routingID)

	defer func() {
		h.detach(p)
		_ = conn.Close()
		h.logger.Info(r.Context(), "peer offline", "routing_id", routingID)
	}()

	for {
		env := &Envelope{}
		if err := conn.ReadJSON(env); err != nil {
			return
		}
		h.deliver(r.Context(), p, env)
	}
}

// Online returns the routing ids currently attached.
func (h *Hub) Online() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	return out
}

func (h *Hub) IsOnline(routingID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.peers[routingID]
	return ok
}

func (h *Hub) attach(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.peers[p.id]; ok {
		_ = old.conn.Close()
	}
	h.peers[p.id] = p
}

func (h *Hub) detach(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.peers[p.id]; ok && current == p {
		delete(h.peers, p.id)
	}
}

func (h *Hub) deliver(ctx context.Context, from *peer, env *Envelope) {
	env.From = from.id

	h.mu.RLock()
	target, ok := h.peers[env.To]
	h.mu.RUnlock()

	if !ok {
		h.logger.Warn(ctx, "dropping envelope for offline peer", "to", env.To, "from", env.From)
		return
	}

	if err := target.send(env); err != nil {
		h.logger.Warn(ctx, "relaying envelope failed", "to", env.To, "error", err.Error())
		return
	}

	h.bookkeep(ctx, env)
}

func (h *Hub) bookkeep(ctx context.Context, env *Envelope) {
	if h.stats != nil {
		h.stats.BumpMessageCount(ctx, env.From)
		if h.markBridged(env.From, env.To) {
			h.stats.RecordConnection(ctx, env.From, env.To)
		}
	}

	if h.sink != nil {
		msg := &archive.Message{
			ID:         archive.NewMessageID(time.Now()),
			From:       env.From,
			To:         env.To,
			Ciphertext: env.Payload,
			Timestamp:  time.Now(),
			Delivered:  true,
		}
		if err := h.sink.Store(ctx, msg); err != nil {
			h.logger.Warn(ctx, "archiving relayed message failed", "id", msg.ID, "error", err.Error())
		}
	}
}

// markBridged reports whether this ordered pair is seen for the first time.
func (h *Hub) markBridged(from, to string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := h.bridged[from]
	if seen == nil {
		seen = make(map[string]bool)
		h.bridged[from] = seen
	}
	if seen[to] {
		return false
	}
	seen[to] = true
	return true
}
