// Package channel defines the byte-pipe boundary the session client talks
// through. The core only relies on send(bytes) and on-receive(bytes)
// semantics; everything else about the transport is opaque.
package channel

import "context"

// Pipe is one logical channel to a single remote endpoint.
type Pipe interface {
	// RemoteID is the routing id of the other endpoint.
	RemoteID() string

	// Send writes opaque bytes to the remote endpoint.
	Send(data []byte) error

	// OnData registers the inbound callback. The adapter may deliver
	// concurrently from multiple channels; callbacks must be quick and
	// hand heavy work off.
	OnData(fn func(data []byte))

	// OnOpen registers a callback fired once the pipe is usable.
	OnOpen(fn func())

	Close() error
}

// Adapter opens pipes keyed by routing id.
type Adapter interface {
	// Open establishes a pipe to the given routing id.
	Open(ctx context.Context, routingID string) (Pipe, error)

	// OnConnect registers a callback for pipes initiated by remote peers.
	OnConnect(fn func(Pipe))

	Close() error
}
