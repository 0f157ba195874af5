// Package credentials generates the per-login session credential pair: an
// unpredictable session identifier and a symmetric network key. The issuer
// holds no state; it is invoked by the directory on register, login and
// refresh.
package credentials

import (
	"github.com/dmitrijs2005/peerlink/internal/shared"
	"github.com/google/uuid"
)

// NetworkKeySize is the length of a network key in bytes before hex encoding.
const NetworkKeySize = 32

type Issuer struct{}

func NewIssuer() *Issuer {
	return &Issuer{}
}

// NewSessionID returns a fresh session identifier. UUIDv4 carries 122 bits
// of entropy, which keeps collisions below the birthday bound at any
// realistic population size.
func (i *Issuer) NewSessionID() string {
	return uuid.NewString()
}

// NewNetworkKey returns a fresh 256-bit symmetric secret, hex-encoded for
// transit.
func (i *Issuer) NewNetworkKey() (string, error) {
	return shared.MakeRandHexString(NetworkKeySize)
}
