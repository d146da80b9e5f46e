package aead

import (
	"github.com/pkg/errors"

	"github.com/sessionseal/sessionseal"
)

// Supported cipher identifiers.
const (
	AES256GCM        = "aes-256-gcm"
	AES128GCM        = "aes-128-gcm"
	ChaCha20Poly1305 = "chacha20-poly1305"
)

var ciphers = map[string]sessionseal.Cipher{
	AES256GCM:        {AEAD: NewAES256GCM(), KeySize: AES256KeySize},
	AES128GCM:        {AEAD: NewAES128GCM(), KeySize: AES128KeySize},
	ChaCha20Poly1305: {AEAD: NewChaCha20Poly1305(), KeySize: ChaCha20Poly1305KeySize},
}

// ForCipher returns the cipher registered under the given identifier, or the
// default cipher when the identifier is empty. An unknown identifier is a
// configuration error.
func ForCipher(id string) (sessionseal.Cipher, error) {
	if id == "" {
		id = sessionseal.DefaultCipher
	}

	c, ok := ciphers[id]
	if !ok {
		return sessionseal.Cipher{}, errors.WithMessagef(sessionseal.ErrConfiguration, "unsupported cipher %q", id)
	}

	return c, nil
}
