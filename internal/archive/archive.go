// Package archive is the best-effort message archival layer. Messages are
// stored as opaque ciphertext keyed by recipient; retrieval is lazy and may
// be incomplete. Nothing here is allowed to block the encrypt/send path —
// callers go through AsyncSink, which drops rather than waits.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is an archived ciphertext envelope. The plaintext never reaches
// this layer.
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Ciphertext []byte    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Delivered  bool      `json:"delivered"`
}

// Sink stores and retrieves archived messages. ForUser returns the messages
// addressed to userID on a best-effort basis: the result may be incomplete
// and implementations cap it rather than paginate exhaustively.
type Sink interface {
	Store(ctx context.Context, msg *Message) error
	ForUser(ctx context.Context, userID string) ([]*Message, error)
}

// NewMessageID returns a unique archive key for a message.
func NewMessageID(now time.Time) string {
	return fmt.Sprintf("msg_%d_%s", now.UnixMilli(), uuid.NewString())
}
