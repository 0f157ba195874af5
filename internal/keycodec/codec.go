// Package keycodec implements the asymmetric message-encryption discipline:
// RSA-2048 key pairs, OAEP/SHA-256 encryption toward a recipient's public
// key, and decryption with the holder's private key.
//
// Public keys travel as SPKI PEM strings; private keys are encoded as PKCS#8
// PEM and never leave the holder's machine. All functions are pure and safe
// for concurrent use.
package keycodec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyBits is the fixed security parameter for generated key pairs.
const KeyBits = 2048

// oaepOverhead is the number of bytes OAEP padding consumes per message.
const oaepOverhead = 2*sha256.Size + 2

var (
	ErrKeyGeneration   = errors.New("key generation failed")
	ErrInvalidKey      = errors.New("invalid key")
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrDecryption is returned for every decryption failure. The cause is
	// deliberately not exposed so callers cannot distinguish padding errors
	// from key mismatches.
	ErrDecryption = errors.New("decryption failed")
)

// KeyPair holds an RSA key pair generated together. The two halves are never
// split or regenerated after issuance.
type KeyPair struct {
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// Generate produces a fresh RSA-2048 key pair.
func Generate() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return &KeyPair{Public: &priv.PublicKey, Private: priv}, nil
}

// MaxPlaintext returns the largest message, in bytes, that Encrypt accepts
// for the given public key.
func MaxPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - oaepOverhead
}

// Encrypt encrypts plaintext for the recipient identified by publicKeyPEM
// using RSA-OAEP with SHA-256. OAEP is randomized, so two calls with the
// same inputs produce different ciphertexts.
//
// Returns ErrInvalidKey if the key does not parse and ErrPayloadTooLarge if
// the plaintext exceeds MaxPlaintext for the key.
func Encrypt(plaintext []byte, publicKeyPEM string) ([]byte, error) {
	pub, err := DecodePublic(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	if len(plaintext) > MaxPlaintext(pub) {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(plaintext), MaxPlaintext(pub))
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return ciphertext, nil
}

// Decrypt decrypts ciphertext with the holder's private key. Any failure,
// whatever the underlying reason, surfaces as ErrDecryption.
func Decrypt(ciphertext []byte, priv *rsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, ErrDecryption
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// EncodePublic renders a public key as SPKI PEM.
func EncodePublic(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// DecodePublic parses an SPKI PEM public key.
func DecodePublic(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, ErrInvalidKey
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidKey
	}
	return pub, nil
}

// EncodePrivate renders a private key as PKCS#8 PEM.
func EncodePrivate(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// DecodePrivate parses a PKCS#8 PEM private key.
func DecodePrivate(privateKeyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrInvalidKey
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrInvalidKey
	}
	return priv, nil
}
