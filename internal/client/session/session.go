// Package session ties identity, key custody, and transport together into
// the client's messaging session. Every outbound message is encrypted to the
// recipient's public key before it touches a pipe, and every inbound payload
// is decrypted locally. Plaintext never crosses the channel boundary.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/peerlink/internal/archive"
	"github.com/dmitrijs2005/peerlink/internal/client/api"
	"github.com/dmitrijs2005/peerlink/internal/client/channel"
	"github.com/dmitrijs2005/peerlink/internal/keycodec"
	"github.com/dmitrijs2005/peerlink/internal/logging"
)

var (
	ErrNotConnected = errors.New("not connected to peer")
	ErrNoPeerKey    = errors.New("no public key for peer")
	ErrNoIdentity   = errors.New("no identity loaded")
)

// ResolveRoutingID maps a directory user id to the id the transport routes
// by. They coincide today, but the mapping is isolated so the transport
// identifier can diverge from the directory identifier without touching
// callers.
func ResolveRoutingID(userID string) string {
	return userID
}

// DialFunc opens the transport adapter once the local identity is known.
type DialFunc func(ctx context.Context, selfRoutingID string) (channel.Adapter, error)

// MessageHandler receives decrypted inbound messages.
type MessageHandler func(peerID string, plaintext []byte)

// Client is a messaging session for one local identity.
type Client struct {
	api    *api.Client
	dial   DialFunc
	logger logging.Logger

	mu        sync.RWMutex
	keys      *keycodec.KeyPair
	me        *api.User
	adapter   channel.Adapter
	peerKeys  map[string]string
	pipes     map[string]channel.Pipe
	onMessage MessageHandler
}

func NewClient(apiClient *api.Client, dial DialFunc, logger logging.Logger) *Client {
	return &Client{
		api:      apiClient,
		dial:     dial,
		logger:   logger.With("module", "session"),
		peerKeys: make(map[string]string),
		pipes:    make(map[string]channel.Pipe),
	}
}

// OnMessage registers the handler for decrypted inbound messages.
func (c *Client) OnMessage(fn MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// Me returns the current identity record, nil before register or login.
func (c *Client) Me() *api.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.me
}

// Keys returns the loaded key pair, nil before register or UseKeyPair.
func (c *Client) Keys() *keycodec.KeyPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys
}

// Register generates a fresh key pair locally and creates the directory
// record with the public half only. The caller is responsible for persisting
// the key pair.
func (c *Client) Register(ctx context.Context, username string) (*api.User, error) {
	kp, err := keycodec.Generate()
	if err != nil {
		return nil, err
	}

	pubPEM, err := keycodec.EncodePublic(kp.Public)
	if err != nil {
		return nil, err
	}

	user, err := c.api.Register(ctx, username, pubPEM)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.keys = kp
	c.me = user
	c.mu.Unlock()

	c.logger.Info(ctx, "registered", "id", user.ID, "username", user.Username)
	return user, nil
}

// UseKeyPair installs a previously persisted key pair, normally loaded from
// the keystore before Login.
func (c *Client) UseKeyPair(kp *keycodec.KeyPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = kp
}

// Login rotates session credentials for an existing identity. A key pair
// must already be installed via UseKeyPair.
func (c *Client) Login(ctx context.Context, id string) (*api.User, error) {
	c.mu.RLock()
	hasKeys := c.keys != nil
	c.mu.RUnlock()
	if !hasKeys {
		return nil, ErrNoIdentity
	}

	user, err := c.api.Login(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.me = user
	c.mu.Unlock()

	c.logger.Info(ctx, "logged in", "id", user.ID, "sessionId", user.SessionID)
	return user, nil
}

// RefreshSession rotates the credential pair and updates the local record.
func (c *Client) RefreshSession(ctx context.Context) (*api.SessionCredentials, error) {
	c.mu.RLock()
	me := c.me
	c.mu.RUnlock()
	if me == nil {
		return nil, ErrNoIdentity
	}

	creds, err := c.api.RefreshSession(ctx, me.ID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.me.SessionID = creds.SessionID
	c.me.NetworkKey = creds.NetworkKey
	c.mu.Unlock()
	return creds, nil
}

// Connect attaches the session to the transport. Inbound pipes from peers
// who dialed us first are registered automatically.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	me := c.me
	c.mu.RUnlock()
	if me == nil {
		return ErrNoIdentity
	}

	adapter, err := c.dial(ctx, ResolveRoutingID(me.ID))
	if err != nil {
		return err
	}

	adapter.OnConnect(func(p channel.Pipe) {
		c.attachPipe(ctx, p)
	})

	c.mu.Lock()
	c.adapter = adapter
	c.mu.Unlock()
	return nil
}

// ConnectTo resolves the peer's public key from the directory and opens a
// pipe to them.
func (c *Client) ConnectTo(ctx context.Context, peerID string) error {
	c.mu.RLock()
	adapter := c.adapter
	c.mu.RUnlock()
	if adapter == nil {
		return ErrNotConnected
	}

	peer, err := c.api.Lookup(ctx, peerID)
	if err != nil {
		return fmt.Errorf("peer lookup: %w", err)
	}

	c.mu.Lock()
	c.peerKeys[peerID] = peer.PublicKey
	c.mu.Unlock()

	p, err := adapter.Open(ctx, ResolveRoutingID(peerID))
	if err != nil {
		return err
	}

	c.attachPipe(ctx, p)
	return nil
}

// SendMessage encrypts plaintext to the peer's public key and sends it over
// the open pipe.
func (c *Client) SendMessage(ctx context.Context, peerID string, plaintext []byte) error {
	c.mu.RLock()
	p, connected := c.pipes[peerID]
	keyPEM, hasKey := c.peerKeys[peerID]
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}
	if !hasKey {
		return ErrNoPeerKey
	}

	ciphertext, err := keycodec.Encrypt(plaintext, keyPEM)
	if err != nil {
		return err
	}
	return p.Send(ciphertext)
}

// Find resolves a peer's public record by id and caches their public key
// for later sends.
func (c *Client) Find(ctx context.Context, peerID string) (*api.PublicUser, error) {
	peer, err := c.api.Lookup(ctx, peerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.peerKeys[peerID] = peer.PublicKey
	c.mu.Unlock()
	return peer, nil
}

// Users lists everyone known to the directory, network keys redacted.
func (c *Client) Users(ctx context.Context) ([]*api.User, error) {
	return c.api.List(ctx)
}

// Online returns the routing ids currently attached to the relay.
func (c *Client) Online(ctx context.Context) ([]string, error) {
	return c.api.Presence(ctx)
}

// Archived fetches best-effort archived messages for the local identity.
func (c *Client) Archived(ctx context.Context) ([]*archive.Message, error) {
	c.mu.RLock()
	me := c.me
	c.mu.RUnlock()
	if me == nil {
		return nil, ErrNoIdentity
	}
	return c.api.Archived(ctx, me.ID)
}

// Close tears down the transport and forgets open pipes. Identity and keys
// stay loaded.
func (c *Client) Close() error {
	c.mu.Lock()
	adapter := c.adapter
	c.adapter = nil
	c.pipes = make(map[string]channel.Pipe)
	c.mu.Unlock()

	if adapter != nil {
		return adapter.Close()
	}
	return nil
}

// attachPipe wires a pipe's inbound data into the decrypt path and tracks it
// for sending. The adapter calls this from its read loop, so nothing here may
// block: inbound decryption only needs the local private key, and the peer's
// public key (needed for replies) is warmed up off the delivery path.
func (c *Client) attachPipe(ctx context.Context, p channel.Pipe) {
	peerID := p.RemoteID()

	c.mu.Lock()
	c.pipes[peerID] = p
	_, known := c.peerKeys[peerID]
	c.mu.Unlock()

	if !known {
		go c.warmPeerKey(ctx, peerID)
	}

	p.OnData(func(data []byte) {
		c.receive(ctx, peerID, data)
	})
}

// warmPeerKey caches a peer's public key for outbound replies. A failure
// only means the first reply needs an explicit Find or ConnectTo.
func (c *Client) warmPeerKey(ctx context.Context, peerID string) {
	c.mu.RLock()
	_, known := c.peerKeys[peerID]
	c.mu.RUnlock()
	if known {
		return
	}

	peer, err := c.api.Lookup(ctx, peerID)
	if err != nil {
		c.logger.Warn(ctx, "peer key lookup failed", "peer", peerID, "error", err.Error())
		return
	}

	c.mu.Lock()
	c.peerKeys[peerID] = peer.PublicKey
	c.mu.Unlock()
}

// receive decrypts one inbound payload. Undecryptable payloads are dropped
// without killing the pipe; the channel stays usable.
func (c *Client) receive(ctx context.Context, peerID string, ciphertext []byte) {
	c.mu.RLock()
	keys := c.keys
	handler := c.onMessage
	c.mu.RUnlock()

	if keys == nil {
		return
	}

	plaintext, err := keycodec.Decrypt(ciphertext, keys.Private)
	if err != nil {
		c.logger.Warn(ctx, "dropping undecryptable message", "peer", peerID)
		return
	}

	if handler != nil {
		handler(peerID, plaintext)
	}
}
