package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/peerlink/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := shared.GenerateRandByteArray(32)
	msg := []byte("private key pem bytes")

	ct, nonce, err := Encrypt(msg, key)
	require.NoError(t, err)
	require.Len(t, nonce, 12)

	pt, err := Decrypt(ct, nonce, key)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)
}

func TestDecrypt_WrongKey(t *testing.T) {
	key := shared.GenerateRandByteArray(32)
	other := shared.GenerateRandByteArray(32)

	ct, nonce, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Decrypt(ct, nonce, other)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestEncrypt_BadKeyLength(t *testing.T) {
	_, _, err := Encrypt([]byte("x"), []byte("short"))
	assert.Error(t, err)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := shared.GenerateRandByteArray(16)

	a := DeriveKey([]byte("passphrase"), salt)
	b := DeriveKey([]byte("passphrase"), salt)
	c := DeriveKey([]byte("different"), salt)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
