package sessionseal

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"strings"

	"github.com/godaddy/asherah/go/securememory"
	"github.com/pkg/errors"
)

// KeyPair holds the two one-way derivatives of a session identifier: the raw
// encryption key and the fixed-format storage lookup key. A KeyPair is
// ephemeral; it is recomputed from the caller-supplied identifier on every
// operation and never cached or persisted.
type KeyPair struct {
	EncKey     []byte
	StorageKey string
}

// hashFunctions maps supported hash identifiers to their constructors.
var hashFunctions = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// keyDeriver turns a session identifier into a KeyPair. The deployment
// entropy is held in locked memory and read per derivation.
type keyDeriver struct {
	hashFn  func() hash.Hash
	entropy securememory.Secret
}

// DeriveKeys computes the encryption key and storage key for the given
// session identifier. Derivation is deterministic: identical inputs always
// produce identical keys.
//
// The encryption key is the raw output of HMAC(hash, key=id, msg=entropy),
// keeping the full digest available as cipher key material. The storage key
// comes from a second, independent HMAC round keyed by the same identifier
// but over the encryption key itself, so neither derived value can be used
// to reconstruct the other without the identifier.
func (d *keyDeriver) DeriveKeys(id string) (KeyPair, error) {
	encKey, err := d.entropy.WithBytesFunc(func(entropy []byte) ([]byte, error) {
		return hmacSum(d.hashFn, []byte(id), entropy), nil
	})
	if err != nil {
		return KeyPair{}, errors.Wrap(err, "error reading entropy")
	}

	return KeyPair{
		EncKey:     encKey,
		StorageKey: deriveStorageKey(d.hashFn, []byte(id), encKey),
	}, nil
}

func hmacSum(h func() hash.Hash, key, message []byte) []byte {
	mac := hmac.New(h, key)
	mac.Write(message)

	return mac.Sum(nil)
}

// deriveStorageKey normalizes the second-round HMAC digest into a
// fixed-length alphanumeric lookup key: the raw digest is base64 encoded,
// stripped of non-alphanumeric characters, and truncated to
// StorageKeyLength. Stripping a single digest yields fewer than
// StorageKeyLength characters only with vanishing probability, but further
// HMAC rounds over the previous digest extend the material deterministically
// so the length invariant holds for any digest size.
func deriveStorageKey(h func() hash.Hash, id, encKey []byte) string {
	var b strings.Builder

	raw := hmacSum(h, id, encKey)

	for {
		for _, c := range base64.StdEncoding.EncodeToString(raw) {
			if isAlphanumeric(c) {
				b.WriteRune(c)
			}
		}

		if b.Len() >= StorageKeyLength {
			return b.String()[:StorageKeyLength]
		}

		raw = hmacSum(h, id, raw)
	}
}

func isAlphanumeric(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
