// Package sessionseal implements transparent encryption for server-side
// session storage. Session payloads are encrypted at rest, and both the
// encryption key and the storage lookup key are derived from the session
// identifier itself, so a compromised storage backend reveals neither the
// plaintext nor the identifier.
//
// Your main interaction with the library will most likely be the Handler,
// which should be created on application start up and stored for the
// lifetime of the app. Persistence is delegated to a pluggable Store and
// the cryptographic primitive to an AEAD implementation; both are supplied
// (or selected by configuration) at construction time.
package sessionseal

import "context"

// AEAD contains the functions required to encrypt and decrypt data using a
// specific cipher. Implementations must be stateless: the key is supplied on
// every call and must not be retained between calls, as the Handler re-keys
// on every single operation.
type AEAD interface {
	// Encrypt encrypts data using the provided key bytes. The returned
	// ciphertext carries the integrity tag and nonce required to decrypt
	// and authenticate it later.
	Encrypt(data, key []byte) ([]byte, error)
	// Decrypt decrypts data using the provided key bytes. The integrity tag
	// is verified before any plaintext is returned; tampered or wrongly-keyed
	// ciphertext produces an error, never partial plaintext.
	Decrypt(data, key []byte) ([]byte, error)
}

// Store implements the required methods to persist encrypted session records
// keyed by their derived storage key. Implementations own the correctness of
// their persistence; the Handler imposes no atomicity or concurrency
// discipline beyond what the store provides.
type Store interface {
	// Load retrieves the record for the given storage key. The return value
	// will be nil if not already present.
	Load(ctx context.Context, key string) ([]byte, error)
	// Store persists the record under the given storage key, replacing any
	// existing record.
	Store(ctx context.Context, key string, data []byte) error
	// Remove deletes the record for the given storage key, if present.
	Remove(ctx context.Context, key string) error
}

// StorageKeyLength is the fixed length of every derived storage key.
// Storage keys are alphanumeric and always exactly this long, regardless of
// the configured hash or the session identifier length, so they are safe to
// use directly as filenames or database keys.
const StorageKeyLength = 26

// MinEntropyLength is the minimum length, in characters, of the deployment
// entropy supplied via Config.
const MinEntropyLength = 64
