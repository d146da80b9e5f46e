package sessionseal

import (
	"context"
	"time"

	"github.com/godaddy/asherah/go/securememory"
	"github.com/godaddy/asherah/go/securememory/memguard"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/sessionseal/sessionseal/internal"
	"github.com/sessionseal/sessionseal/pkg/log"
)

// MetricsPrefix prefixes all metrics names.
const MetricsPrefix = "seal"

// Handler operation metrics
var (
	readTimer    = metrics.GetOrRegisterTimer(MetricsPrefix+".session.read", nil)
	writeTimer   = metrics.GetOrRegisterTimer(MetricsPrefix+".session.write", nil)
	destroyTimer = metrics.GetOrRegisterTimer(MetricsPrefix+".session.destroy", nil)
)

// Option is used to configure additional options in a Handler.
type Option func(*Handler)

// WithSecretFactory sets the factory used to hold the deployment entropy in
// protected memory.
func WithSecretFactory(f securememory.SecretFactory) Option {
	return func(h *Handler) {
		h.secretFactory = f
	}
}

// WithMetrics enables or disables metrics.
func WithMetrics(enabled bool) Option {
	return func(h *Handler) {
		if !enabled {
			metrics.DefaultRegistry.UnregisterAll()
		}
	}
}

// Handler composes key derivation, an AEAD cipher and a Store into the
// session operations Open, Close, Read, Write and Destroy. It retains no
// session-specific state between calls: keys are re-derived from the
// caller-supplied identifier on every operation, so concurrent calls for the
// same or different identifiers need no synchronization inside the handler.
type Handler struct {
	deriver *keyDeriver
	store   Store
	cipher  Cipher

	secretFactory securememory.SecretFactory

	savePath string
	name     string
}

// NewHandler creates a Handler backed by the provided store and cipher. The
// configuration is validated eagerly; any violation is reported as
// ErrConfiguration and the handler is unusable until reconfigured.
func NewHandler(config *Config, store Store, cipher Cipher, opts ...Option) (*Handler, error) {
	if config == nil {
		return nil, configError("config is required")
	}

	if store == nil {
		return nil, configError("store is required")
	}

	if cipher.AEAD == nil || cipher.KeySize <= 0 {
		return nil, configError("cipher implementation is required")
	}

	if len(config.Entropy) < MinEntropyLength {
		return nil, configError("entropy must be at least %d characters, got %d", MinEntropyLength, len(config.Entropy))
	}

	hashID := config.Hash
	if hashID == "" {
		hashID = DefaultHash
	}

	hashFn, ok := hashFunctions[hashID]
	if !ok {
		return nil, configError("unsupported hash %q", hashID)
	}

	if size := hashFn().Size(); size < cipher.KeySize {
		return nil, configError("hash %q digest size %d is smaller than cipher key size %d", hashID, size, cipher.KeySize)
	}

	if err := internal.CheckRandom(); err != nil {
		if !config.AllowWeakRandom {
			return nil, configError("randomness source unavailable: %v", err)
		}

		log.Debugf("proceeding with unverified randomness source: %v", err)
	}

	h := &Handler{
		store:         store,
		cipher:        cipher,
		secretFactory: new(memguard.SecretFactory),
	}

	for _, opt := range opts {
		opt(h)
	}

	entropy, err := h.secretFactory.New([]byte(config.Entropy))
	if err != nil {
		return nil, errors.Wrap(err, "error protecting entropy")
	}

	h.deriver = &keyDeriver{
		hashFn:  hashFn,
		entropy: entropy,
	}

	return h, nil
}

// Open records the save path and session name for use by the configured
// store. Stores that resolve their location from these values, such as the
// file store, implement SetLocation; all others ignore them. Open always
// succeeds.
func (h *Handler) Open(savePath, name string) error {
	h.savePath = savePath
	h.name = name

	if v, ok := h.store.(interface{ SetLocation(path, name string) }); ok {
		v.SetLocation(savePath, name)
	}

	return nil
}

// Close ends the current session exchange. The handler keeps no per-session
// state, so Close is a no-op and always succeeds.
func (h *Handler) Close() error {
	return nil
}

// Write encrypts data under keys derived from id and persists the resulting
// ciphertext. Store failures are returned to the caller unmodified.
func (h *Handler) Write(ctx context.Context, id string, data []byte) error {
	defer writeTimer.UpdateSince(time.Now())

	keys, err := h.deriver.DeriveKeys(id)
	if err != nil {
		return err
	}
	defer internal.MemClr(keys.EncKey)

	ciphertext, err := h.cipher.AEAD.Encrypt(data, keys.EncKey[:h.cipher.KeySize])
	if err != nil {
		return errors.Wrap(err, "error encrypting session payload")
	}

	return errors.Wrap(h.store.Store(ctx, keys.StorageKey, ciphertext), "error storing session record")
}

// Read loads and decrypts the session payload for id. A missing record and a
// record that fails authentication both yield an empty payload with no
// error: callers proceed as if the session were new rather than ever
// observing unverified plaintext. Store I/O failures are returned as errors.
func (h *Handler) Read(ctx context.Context, id string) ([]byte, error) {
	defer readTimer.UpdateSince(time.Now())

	keys, err := h.deriver.DeriveKeys(id)
	if err != nil {
		return nil, err
	}
	defer internal.MemClr(keys.EncKey)

	raw, err := h.store.Load(ctx, keys.StorageKey)
	if err != nil {
		return nil, errors.Wrap(err, "error loading session record")
	}

	if raw == nil {
		return []byte{}, nil
	}

	data, err := h.cipher.AEAD.Decrypt(raw, keys.EncKey[:h.cipher.KeySize])
	if err != nil {
		log.Debugf("session record failed authentication, treating as empty: %v", err)
		return []byte{}, nil
	}

	return data, nil
}

// Destroy removes the stored record for id. Keys are derived from the id
// argument passed to this call, never from a previously captured value, so
// only the named session's record is removed.
func (h *Handler) Destroy(ctx context.Context, id string) error {
	defer destroyTimer.UpdateSince(time.Now())

	keys, err := h.deriver.DeriveKeys(id)
	if err != nil {
		return err
	}

	internal.MemClr(keys.EncKey)

	return errors.Wrap(h.store.Remove(ctx, keys.StorageKey), "error removing session record")
}

// Release frees the locked memory holding the deployment entropy. It should
// be called when the handler is no longer in use; operations on a released
// handler fail.
func (h *Handler) Release() error {
	return h.deriver.entropy.Close()
}
