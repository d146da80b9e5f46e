package aead

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/sessionseal/sessionseal"
)

// ChaCha20Poly1305KeySize is the key size in bytes required by ChaCha20-Poly1305.
const ChaCha20Poly1305KeySize = chacha20poly1305.KeySize

func chaCha20Poly1305CipherFactory(key []byte) (cipher.AEAD, error) {
	return chacha20poly1305.New(key)
}

// NewChaCha20Poly1305 returns the logic required to encrypt data using
// ChaCha20-Poly1305.
func NewChaCha20Poly1305() sessionseal.AEAD {
	return cryptoFunc(chaCha20Poly1305CipherFactory)
}
