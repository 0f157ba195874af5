// Package cli implements the interactive PeerLink client: a small REPL over
// the session client for registering, logging in, finding peers and
// exchanging encrypted messages.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/peerlink/internal/client/api"
	"github.com/dmitrijs2005/peerlink/internal/client/channel"
	"github.com/dmitrijs2005/peerlink/internal/client/config"
	"github.com/dmitrijs2005/peerlink/internal/client/keystore"
	"github.com/dmitrijs2005/peerlink/internal/client/session"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/shared"
)

type App struct {
	config   *config.Config
	session  *session.Client
	keystore *keystore.Store
	logger   logging.Logger
	reader   *bufio.Reader
}

func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	ks, err := keystore.New(cfg.KeystoreDir)
	if err != nil {
		return nil, err
	}

	dial := func(ctx context.Context, selfRoutingID string) (channel.Adapter, error) {
		return channel.Dial(ctx, cfg.RelayEndpointAddr, selfRoutingID, logger)
	}

	a := &App{
		config:   cfg,
		keystore: ks,
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
	}
	a.session = session.NewClient(api.NewClient(cfg.ServerEndpointAddr, cfg.RequestTimeout), dial, logger)
	a.session.OnMessage(func(peerID string, plaintext []byte) {
		fmt.Printf("\n[%s] %s\n", peerID, string(plaintext))
	})
	return a, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Me() != nil
}

// Register creates a new identity. The key pair is generated locally and
// stored encrypted under a passphrase; only the public half goes to the
// directory.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.session.Register(ctx, username)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	passphrase, err := GetPassphrase(os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(passphrase)

	if err := a.keystore.Save(user.ID, a.session.Keys(), passphrase); err != nil {
		fmt.Println("Saving key failed:", err)
		return err
	}

	fmt.Println("Registered. Your id is:", user.ID)
	fmt.Println("Keep it; it is how peers find you and how you log in.")
	return a.connect(ctx)
}

// Login loads the stored key for an existing id and rotates the session
// credentials.
func (a *App) Login(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Your user id", os.Stdout)
	if err != nil {
		return err
	}

	passphrase, err := GetPassphrase(os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(passphrase)

	kp, err := a.keystore.Load(id, passphrase)
	if err != nil {
		fmt.Println("Loading key failed:", err)
		return err
	}
	a.session.UseKeyPair(kp)

	user, err := a.session.Login(ctx, id)
	if err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	fmt.Println("Logged in as", user.Username)
	return a.connect(ctx)
}

func (a *App) connect(ctx context.Context) error {
	if err := a.session.Connect(ctx); err != nil {
		fmt.Println("Relay connection failed:", err)
		return err
	}
	fmt.Println("Connected to relay.")
	return nil
}

// Refresh rotates the session credential pair.
func (a *App) Refresh(ctx context.Context) error {
	creds, err := a.session.RefreshSession(ctx)
	if err != nil {
		fmt.Println("Refresh failed:", err)
		return err
	}
	fmt.Println("New session id:", creds.SessionID)
	return nil
}

// Find shows a peer's public record by id.
func (a *App) Find(ctx context.Context, peerID string) error {
	if peerID == "" {
		var err error
		peerID, err = GetSimpleText(a.reader, "Peer id", os.Stdout)
		if err != nil {
			return err
		}
	}

	peer, err := a.session.Find(ctx, peerID)
	if err != nil {
		fmt.Println("Lookup failed:", err)
		return err
	}
	fmt.Printf("%s  %s\n", peer.ID, peer.Username)
	fmt.Println(peer.PublicKey)
	return nil
}

// Users lists everyone known to the directory.
func (a *App) Users(ctx context.Context) error {
	users, err := a.session.Users(ctx)
	if err != nil {
		fmt.Println("Listing users failed:", err)
		return err
	}
	for _, u := range users {
		fmt.Printf("%s  %s  (messages: %d)\n", u.ID, u.Username, u.MessageCount)
	}
	return nil
}

// Online shows who is currently attached to the relay.
func (a *App) Online(ctx context.Context) error {
	online, err := a.session.Online(ctx)
	if err != nil {
		fmt.Println("Presence query failed:", err)
		return err
	}
	if len(online) == 0 {
		fmt.Println("Nobody is online.")
		return nil
	}
	for _, id := range online {
		fmt.Println(id)
	}
	return nil
}

// Connect opens an encrypted channel to a peer by id.
func (a *App) Connect(ctx context.Context, peerID string) error {
	if peerID == "" {
		var err error
		peerID, err = GetSimpleText(a.reader, "Peer id", os.Stdout)
		if err != nil {
			return err
		}
	}

	if err := a.session.ConnectTo(ctx, peerID); err != nil {
		fmt.Println("Connecting failed:", err)
		return err
	}
	fmt.Println("Channel open to", peerID)
	return nil
}

// Send encrypts and sends one message to a connected peer.
func (a *App) Send(ctx context.Context, peerID, text string) error {
	if peerID == "" {
		var err error
		peerID, err = GetSimpleText(a.reader, "Peer id", os.Stdout)
		if err != nil {
			return err
		}
	}
	if text == "" {
		var err error
		text, err = GetSimpleText(a.reader, "Message", os.Stdout)
		if err != nil {
			return err
		}
	}

	if err := a.session.SendMessage(ctx, peerID, []byte(text)); err != nil {
		fmt.Println("Sending failed:", err)
		return err
	}
	return nil
}

// History prints archived messages for the current user. The archive is
// best-effort, so the list may be incomplete.
func (a *App) History(ctx context.Context) error {
	msgs, err := a.session.Archived(ctx)
	if err != nil {
		fmt.Println("Fetching history failed:", err)
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("No archived messages.")
		return nil
	}
	for _, m := range msgs {
		fmt.Printf("%s  from %s  (%d bytes, encrypted)\n", m.Timestamp.Format("2006-01-02 15:04:05"), m.From, len(m.Ciphertext))
	}
	return nil
}

func (a *App) Close() error {
	return a.session.Close()
}
