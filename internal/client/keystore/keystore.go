// Package keystore persists the local private key, encrypted at rest with
// AES-GCM under an argon2id passphrase-derived key. This is the client-side
// custody half of the design: the directory never sees private material.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/peerlink/internal/cryptox"
	"github.com/dmitrijs2005/peerlink/internal/filex"
	"github.com/dmitrijs2005/peerlink/internal/keycodec"
	"github.com/dmitrijs2005/peerlink/internal/shared"
)

var (
	ErrNoKey            = errors.New("no stored key for user")
	ErrWrongPassphrase  = errors.New("wrong passphrase")
	ErrCorruptedKeyFile = errors.New("corrupted key file")
)

const saltSize = 16

// keyFile is the on-disk layout. All byte fields are base64 via
// encoding/json's default []byte handling.
type keyFile struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

type Store struct {
	dir string
}

// New opens (and creates if needed) a keystore directory.
func New(dir string) (*Store, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Save encrypts the private key under the passphrase and writes it to a
// per-user file. An existing key for the same user is overwritten.
func (s *Store) Save(userID string, kp *keycodec.KeyPair, passphrase []byte) error {
	privPEM, err := keycodec.EncodePrivate(kp.Private)
	if err != nil {
		return err
	}

	salt := shared.GenerateRandByteArray(saltSize)
	key := cryptox.DeriveKey(passphrase, salt)
	defer shared.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Encrypt([]byte(privPEM), key)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(keyFile{Salt: salt, Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(userID), payload, 0o600)
}

// Load decrypts and returns the key pair stored for userID.
func (s *Store) Load(userID string, passphrase []byte) (*keycodec.KeyPair, error) {
	payload, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoKey
		}
		return nil, err
	}

	f := &keyFile{}
	if err := json.Unmarshal(payload, f); err != nil {
		return nil, ErrCorruptedKeyFile
	}

	key := cryptox.DeriveKey(passphrase, f.Salt)
	defer shared.WipeByteArray(key)

	privPEM, err := cryptox.Decrypt(f.Ciphertext, f.Nonce, key)
	if err != nil {
		if errors.Is(err, cryptox.ErrDecryptFailed) {
			return nil, ErrWrongPassphrase
		}
		return nil, err
	}
	defer shared.WipeByteArray(privPEM)

	priv, err := keycodec.DecodePrivate(string(privPEM))
	if err != nil {
		return nil, ErrCorruptedKeyFile
	}

	return &keycodec.KeyPair{Public: &priv.PublicKey, Private: priv}, nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("key_%s.json", userID))
}
