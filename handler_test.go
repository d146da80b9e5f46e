package sessionseal_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionseal/sessionseal"
	"github.com/sessionseal/sessionseal/pkg/crypto/aead"
	"github.com/sessionseal/sessionseal/pkg/persistence"
)

const testEntropy = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func testConfig() *sessionseal.Config {
	return &sessionseal.Config{
		Cipher:  aead.AES256GCM,
		Hash:    "sha256",
		Entropy: testEntropy,
	}
}

func newTestHandler(t *testing.T, store sessionseal.Store) *sessionseal.Handler {
	t.Helper()

	cipher, err := aead.ForCipher(aead.AES256GCM)
	require.NoError(t, err)

	h, err := sessionseal.NewHandler(testConfig(), store, cipher)
	require.NoError(t, err)

	t.Cleanup(func() { h.Release() })

	return h
}

func TestNewHandler_Validation(t *testing.T) {
	store := persistence.NewMemoryStore()

	cipher, err := aead.ForCipher(aead.AES256GCM)
	require.NoError(t, err)

	tests := []struct {
		name   string
		config *sessionseal.Config
		store  sessionseal.Store
		cipher sessionseal.Cipher
	}{
		{
			name:   "nil config",
			config: nil,
			store:  store,
			cipher: cipher,
		},
		{
			name:   "nil store",
			config: testConfig(),
			store:  nil,
			cipher: cipher,
		},
		{
			name:   "missing cipher",
			config: testConfig(),
			store:  store,
			cipher: sessionseal.Cipher{},
		},
		{
			name: "entropy one short of minimum",
			config: &sessionseal.Config{
				Entropy: strings.Repeat("e", sessionseal.MinEntropyLength-1),
			},
			store:  store,
			cipher: cipher,
		},
		{
			name: "unsupported hash",
			config: &sessionseal.Config{
				Hash:    "md5",
				Entropy: testEntropy,
			},
			store:  store,
			cipher: cipher,
		},
		{
			name: "digest smaller than cipher key size",
			config: &sessionseal.Config{
				Hash:    "sha256",
				Entropy: testEntropy,
			},
			store:  store,
			cipher: sessionseal.Cipher{AEAD: cipher.AEAD, KeySize: 48},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := sessionseal.NewHandler(tt.config, tt.store, tt.cipher)
			assert.Nil(t, h)
			assert.True(t, errors.Is(err, sessionseal.ErrConfiguration))
		})
	}
}

func TestNewHandler_MinimumEntropySucceeds(t *testing.T) {
	cipher, err := aead.ForCipher(aead.AES256GCM)
	require.NoError(t, err)

	h, err := sessionseal.NewHandler(&sessionseal.Config{
		Entropy: strings.Repeat("e", sessionseal.MinEntropyLength),
	}, persistence.NewMemoryStore(), cipher)

	require.NoError(t, err)
	require.NotNil(t, h)

	assert.NoError(t, h.Release())
}

func TestNewHandler_DigestLargeEnoughForCipher(t *testing.T) {
	cipher, err := aead.ForCipher(aead.ChaCha20Poly1305)
	require.NoError(t, err)

	h, err := sessionseal.NewHandler(&sessionseal.Config{
		Hash:    "sha512",
		Entropy: testEntropy,
	}, persistence.NewMemoryStore(), cipher)

	require.NoError(t, err)
	assert.NoError(t, h.Release())
}

func TestHandler_WriteRead_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t, persistence.NewMemoryStore())

	payloads := [][]byte{
		[]byte("hello world"),
		{},
		{0xff, 0x00, 0xfe, 0x01, 0x80},
		[]byte(strings.Repeat("large payload ", 1024)),
	}

	for i, payload := range payloads {
		id := "session-" + string(rune('a'+i))

		require.NoError(t, h.Write(ctx, id, payload))

		got, err := h.Read(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestHandler_Read_MissingSession(t *testing.T) {
	h := newTestHandler(t, persistence.NewMemoryStore())

	got, err := h.Read(context.Background(), "never-written")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}

func TestHandler_Read_TamperedCiphertext(t *testing.T) {
	ctx := context.Background()

	var (
		storedKey  string
		storedData []byte
	)

	backing := persistence.NewMemoryStore()
	store := &persistence.StoreFuncs{
		LoadFunc: backing.Load,
		StoreFunc: func(ctx context.Context, key string, data []byte) error {
			storedKey = key
			storedData = data
			return backing.Store(ctx, key, data)
		},
		RemoveFunc: backing.Remove,
	}

	h := newTestHandler(t, store)

	require.NoError(t, h.Write(ctx, "session-1", []byte("sensitive data")))

	// flip a single bit of the stored ciphertext
	tampered := make([]byte, len(storedData))
	copy(tampered, storedData)
	tampered[len(tampered)/2] ^= 0x01
	require.NoError(t, backing.Store(ctx, storedKey, tampered))

	got, err := h.Read(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got, "tampered record must read as empty, never as altered plaintext")
}

func TestHandler_Isolation(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t, persistence.NewMemoryStore())

	require.NoError(t, h.Write(ctx, "id-one", []byte("data for one")))

	got, err := h.Read(ctx, "id-two")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}

func TestHandler_DestroyPrecision(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t, persistence.NewMemoryStore())

	require.NoError(t, h.Write(ctx, "id-one", []byte("d1")))
	require.NoError(t, h.Write(ctx, "id-two", []byte("d2")))

	require.NoError(t, h.Destroy(ctx, "id-one"))

	gone, err := h.Read(ctx, "id-one")
	require.NoError(t, err)
	assert.Equal(t, []byte{}, gone)

	kept, err := h.Read(ctx, "id-two")
	require.NoError(t, err)
	assert.Equal(t, []byte("d2"), kept)
}

func TestHandler_Destroy_UsesArgumentID(t *testing.T) {
	ctx := context.Background()

	var writtenKey, removedKey string

	store := &persistence.StoreFuncs{
		StoreFunc: func(_ context.Context, key string, _ []byte) error {
			writtenKey = key
			return nil
		},
		RemoveFunc: func(_ context.Context, key string) error {
			removedKey = key
			return nil
		},
	}

	h := newTestHandler(t, store)

	require.NoError(t, h.Write(ctx, "the-session", []byte("d")))
	require.NoError(t, h.Destroy(ctx, "the-session"))
	assert.Equal(t, writtenKey, removedKey)

	require.NoError(t, h.Destroy(ctx, "another-session"))
	assert.NotEqual(t, writtenKey, removedKey)
}

func TestHandler_StoreFailurePropagation(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend unavailable")

	store := &persistence.StoreFuncs{
		LoadFunc:   func(context.Context, string) ([]byte, error) { return nil, boom },
		StoreFunc:  func(context.Context, string, []byte) error { return boom },
		RemoveFunc: func(context.Context, string) error { return boom },
	}

	h := newTestHandler(t, store)

	assert.ErrorIs(t, h.Write(ctx, "id", []byte("d")), boom)
	assert.ErrorIs(t, h.Destroy(ctx, "id"), boom)

	got, err := h.Read(ctx, "id")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestHandler_OpenForwardsLocationToFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := persistence.NewFileStore("")
	h := newTestHandler(t, store)

	require.NoError(t, h.Open(dir, "myapp"))
	require.NoError(t, h.Write(ctx, "session-1", []byte("payload")))

	got, err := h.Read(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	assert.NoError(t, h.Close())
}

func TestHandler_CloseIsNoOp(t *testing.T) {
	h := newTestHandler(t, persistence.NewMemoryStore())

	assert.NoError(t, h.Close())
	assert.NoError(t, h.Close())
}

func TestHandler_ReleasedHandlerFails(t *testing.T) {
	cipher, err := aead.ForCipher(aead.AES256GCM)
	require.NoError(t, err)

	h, err := sessionseal.NewHandler(testConfig(), persistence.NewMemoryStore(), cipher)
	require.NoError(t, err)

	require.NoError(t, h.Release())

	assert.Error(t, h.Write(context.Background(), "id", []byte("d")))

	_, err = h.Read(context.Background(), "id")
	assert.Error(t, err)
}

func TestHandler_CiphertextOpaqueAtRest(t *testing.T) {
	ctx := context.Background()

	var storedKey string

	backing := persistence.NewMemoryStore()
	store := &persistence.StoreFuncs{
		LoadFunc: backing.Load,
		StoreFunc: func(ctx context.Context, key string, data []byte) error {
			storedKey = key
			return backing.Store(ctx, key, data)
		},
		RemoveFunc: backing.Remove,
	}

	h := newTestHandler(t, store)

	payload := []byte("plaintext session payload")
	require.NoError(t, h.Write(ctx, "secret-session-id", payload))

	// neither the identifier nor the plaintext appear in what the backend sees
	assert.NotContains(t, storedKey, "secret-session-id")

	raw, err := backing.Load(ctx, storedKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), string(payload))
}

func TestHandler_DistinctIDsProduceDistinctRecords(t *testing.T) {
	ctx := context.Background()
	backing := persistence.NewMemoryStore()
	h := newTestHandler(t, backing)

	for i := 0; i < 20; i++ {
		require.NoError(t, h.Write(ctx, "session-"+strings.Repeat("a", i+1), []byte("same payload")))
	}

	assert.Equal(t, 20, backing.Len())
}
