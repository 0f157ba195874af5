package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/gorilla/websocket"
)

// envelope mirrors the relay's frame format.
type envelope struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Payload []byte `json:"payload"`
}

// WSAdapter multiplexes logical pipes over a single websocket connection to
// the relay. One read loop dispatches inbound envelopes to the pipe
// registered for the sending peer; envelopes from unknown peers create a new
// pipe and fire the OnConnect callback, like an incoming call.
type WSAdapter struct {
	conn   *websocket.Conn
	logger logging.Logger

	// gorilla allows a single writer at a time
	writeMu sync.Mutex

	mu        sync.RWMutex
	pipes     map[string]*wsPipe
	onConnect func(Pipe)
	closed    bool
}

// Dial attaches to the relay under the local routing id and starts the read
// loop.
func Dial(ctx context.Context, relayURL, selfRoutingID string, logger logging.Logger) (*WSAdapter, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, fmt.Sprintf("%s?routing_id=%s", relayURL, selfRoutingID), nil)
	if err != nil {
		return nil, fmt.Errorf("relay dial: %w", err)
	}

	a := &WSAdapter{
		conn:   conn,
		logger: logger.With("module", "channel"),
		pipes:  make(map[string]*wsPipe),
	}
	go a.readLoop()
	return a, nil
}

func (a *WSAdapter) Open(ctx context.Context, routingID string) (Pipe, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, fmt.Errorf("adapter closed")
	}
	if p, ok := a.pipes[routingID]; ok {
		return p, nil
	}

	p := newWSPipe(a, routingID)
	a.pipes[routingID] = p
	return p, nil
}

func (a *WSAdapter) OnConnect(fn func(Pipe)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onConnect = fn
}

func (a *WSAdapter) Close() error {
	a.mu.Lock()
	a.closed = true
	a.pipes = make(map[string]*wsPipe)
	a.mu.Unlock()
	return a.conn.Close()
}

func (a *WSAdapter) readLoop() {
	for {
		env := &envelope{}
		if err := a.conn.ReadJSON(env); err != nil {
			a.logger.Debug(context.Background(), "relay read loop stopped", "error", err.Error())
			return
		}

		p, fresh := a.pipeFor(env.From)
		if p == nil {
			continue
		}
		if fresh {
			a.mu.RLock()
			fn := a.onConnect
			a.mu.RUnlock()
			if fn != nil {
				fn(p)
			}
		}
		p.dispatch(env.Payload)
	}
}

// pipeFor returns the pipe for a sender, creating one for first contact.
// fresh reports whether the pipe was just created.
func (a *WSAdapter) pipeFor(remoteID string) (p *wsPipe, fresh bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, false
	}
	if p, ok := a.pipes[remoteID]; ok {
		return p, false
	}

	p = newWSPipe(a, remoteID)
	a.pipes[remoteID] = p
	return p, true
}

func (a *WSAdapter) writeEnvelope(env *envelope) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return a.conn.WriteJSON(env)
}

func (a *WSAdapter) drop(remoteID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pipes, remoteID)
}

// wsPipe is a logical pipe over the shared relay connection. The relay is
// connectionless per peer, so a pipe is usable as soon as it exists and
// OnOpen fires immediately upon registration.
type wsPipe struct {
	adapter *WSAdapter
	remote  string

	mu     sync.RWMutex
	onData func([]byte)
}

func newWSPipe(a *WSAdapter, remote string) *wsPipe {
	return &wsPipe{adapter: a, remote: remote}
}

func (p *wsPipe) RemoteID() string { return p.remote }

func (p *wsPipe) Send(data []byte) error {
	return p.adapter.writeEnvelope(&envelope{To: p.remote, Payload: data})
}

func (p *wsPipe) OnData(fn func([]byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onData = fn
}

func (p *wsPipe) OnOpen(fn func()) {
	if fn != nil {
		fn()
	}
}

func (p *wsPipe) Close() error {
	p.adapter.drop(p.remote)
	return nil
}

func (p *wsPipe) dispatch(data []byte) {
	p.mu.RLock()
	fn := p.onData
	p.mu.RUnlock()

	if fn != nil {
		fn(data)
	}
}
