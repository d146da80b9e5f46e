package aead

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/sessionseal/sessionseal"
)

// AES-GCM key sizes in bytes.
const (
	AES256KeySize = 32
	AES128KeySize = 16
)

// aesGCMCipherFactory returns a AEAD cipher using AES/GCM
func aesGCMCipherFactory(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// NewAES256GCM returns the logic required to encrypt data using AES-256/GCM.
func NewAES256GCM() sessionseal.AEAD {
	return cryptoFunc(aesGCMCipherFactory)
}

// NewAES128GCM returns the logic required to encrypt data using AES-128/GCM.
// The cipher is selected by key length; callers must supply 16-byte keys.
func NewAES128GCM() sessionseal.AEAD {
	return cryptoFunc(aesGCMCipherFactory)
}
