package models

import "time"

// User is the durable identity record owned by the directory. The directory
// is the only writer of SessionID, NetworkKey and LastLogin, and the private
// half of the key pair is never stored here.
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

// PublicUser is the view exposed by lookup. It never carries the network key.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
	SessionID string `json:"sessionId"`
}

// SessionCredentials is the pair rotated together on every login/refresh.
type SessionCredentials struct {
	SessionID  string `json:"sessionId"`
	NetworkKey string `json:"networkKey"`
}

// PublicView projects the record into its lookup shape.
func (u *User) PublicView() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		PublicKey: u.PublicKey,
		SessionID: u.SessionID,
	}
}

// Redacted returns a copy safe for listing: everything except the network key.
func (u *User) Redacted() *User {
	c := u.Clone()
	c.NetworkKey = ""
	return c
}

// Clone returns a deep copy so callers can hand records across goroutines.
func (u *User) Clone() *User {
	c := *u
	if u.Connections != nil {
		c.Connections = append([]string(nil), u.Connections...)
	}
	return &c
}
