// Package api is the HTTP client for the directory service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/archive"
	"github.com/dmitrijs2005/peerlink/internal/shared"
)

// User is the directory's view of an identity as returned by register and
// login. The private key never appears here; it exists only locally.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PublicKey    string    `json:"publicKey"`
	SessionID    string    `json:"sessionId"`
	NetworkKey   string    `json:"networkKey,omitempty"`
	LastLogin    time.Time `json:"lastLogin"`
	CreatedAt    time.Time `json:"createdAt"`
	IsActive     bool      `json:"isActive"`
	MessageCount int64     `json:"messageCount"`
	Connections  []string  `json:"connections,omitempty"`
}

// PublicUser is what lookup returns for other people's records.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
	SessionID string `json:"sessionId"`
}

// SessionCredentials is the rotated pair returned by update-session.
type SessionCredentials struct {
	SessionID  string `json:"sessionId"`
	NetworkKey string `json:"networkKey"`
}

type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// Register submits the username and locally generated public key and
// returns the freshly created record with its first session credentials.
func (c *Client) Register(ctx context.Context, username, publicKeyPEM string) (*User, error) {
	out := &User{}
	err := c.post(ctx, "/api/auth/register", map[string]string{
		"username":  username,
		"publicKey": publicKeyPEM,
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Login rotates the session credentials for an existing id.
func (c *Client) Login(ctx context.Context, id string) (*User, error) {
	out := &User{}
	if err := c.post(ctx, "/api/auth/login", map[string]string{"id": id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup resolves a peer's public record by id.
func (c *Client) Lookup(ctx context.Context, id string) (*PublicUser, error) {
	out := &PublicUser{}
	if err := c.getJSON(ctx, "/api/auth/user/"+url.PathEscape(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all known users, network keys redacted server-side.
func (c *Client) List(ctx context.Context) ([]*User, error) {
	var out []*User
	if err := c.getJSON(ctx, "/api/auth/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshSession rotates the credential pair without a full login.
func (c *Client) RefreshSession(ctx context.Context, id string) (*SessionCredentials, error) {
	out := &SessionCredentials{}
	if err := c.post(ctx, "/api/auth/update-session/"+url.PathEscape(id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Presence returns the routing ids currently attached to the relay.
func (c *Client) Presence(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/api/presence", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Archived fetches the best-effort archived messages for a user. The result
// may be incomplete.
func (c *Client) Archived(ctx context.Context, id string) ([]*archive.Message, error) {
	var out []*archive.Message
	if err := c.getJSON(ctx, "/api/archive/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if in != nil {
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, path); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response, path string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrorNotFound
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("directory %s: %s", path, resp.Status)
	}
	return nil
}
