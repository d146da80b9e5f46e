package sessionseal

// Default identifiers used when the corresponding Config field is left empty.
const (
	DefaultCipher = "aes-256-gcm"
	DefaultHash   = "sha256"
)

// Config contains the required information to set up a Handler. It is
// captured at construction and never mutated afterwards.
type Config struct {
	// Cipher identifies the AEAD cipher the handler was configured for.
	// It must match the cipher implementation supplied to NewHandler,
	// e.g. via aead.ForCipher.
	Cipher string
	// Hash identifies the hash function used for HMAC key derivation.
	// Supported values are sha256, sha384 and sha512.
	Hash string
	// Entropy is the deployment-wide secret mixed into every key
	// derivation. It must be at least MinEntropyLength characters and must
	// remain fixed for the lifetime of the deployment: rotating it renders
	// every previously written session permanently undecryptable.
	Entropy string
	// AllowWeakRandom permits construction to proceed when the
	// cryptographically-secure randomness source used for cipher nonces
	// cannot be verified. It should only be enabled in constrained test
	// environments.
	AllowWeakRandom bool
}

// Cipher couples an AEAD implementation with the key size it requires. The
// handler truncates each derived encryption key to KeySize bytes before
// handing it to the AEAD.
type Cipher struct {
	AEAD    AEAD
	KeySize int
}
