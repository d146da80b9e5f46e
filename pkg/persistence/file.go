package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/sessionseal/sessionseal"
)

var (
	// Verify FileStore implements the store interface.
	_ sessionseal.Store = (*FileStore)(nil)

	storeFileTimer  = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.file.store", sessionseal.MetricsPrefix), nil)
	loadFileTimer   = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.file.load", sessionseal.MetricsPrefix), nil)
	removeFileTimer = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.file.remove", sessionseal.MetricsPrefix), nil)
)

const defaultFileMode = os.FileMode(0o600)

// FileStore persists each session record as a single file under a directory.
// Storage keys are alphanumeric by construction, so they are used directly
// as filename components. The directory and filename prefix may be supplied
// up front or via the handler's Open call.
type FileStore struct {
	mu sync.RWMutex

	dir  string
	name string
}

// FileStoreOption is used to configure additional options in a FileStore.
type FileStoreOption func(*FileStore)

// WithFilePrefix sets the prefix prepended to every record filename.
func WithFilePrefix(name string) FileStoreOption {
	return func(s *FileStore) {
		s.name = name
	}
}

// NewFileStore returns a new file-backed store rooted at dir.
func NewFileStore(dir string, opts ...FileStoreOption) *FileStore {
	store := &FileStore{
		dir:  dir,
		name: "sess",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// SetLocation updates the directory and filename prefix. It is invoked by
// the handler's Open operation with the caller-supplied save path and
// session name.
func (s *FileStore) SetLocation(path, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path != "" {
		s.dir = path
	}

	if name != "" {
		s.name = name
	}
}

func (s *FileStore) filename(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filepath.Join(s.dir, s.name+"_"+key)
}

// Load retrieves the record for the given storage key.
// The return value will be nil if not already present.
func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	defer loadFileTimer.UpdateSince(time.Now())

	data, err := os.ReadFile(s.filename(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "error reading session file")
	}

	return data, nil
}

// Store persists the record under the given storage key, replacing any
// existing record.
func (s *FileStore) Store(_ context.Context, key string, data []byte) error {
	defer storeFileTimer.UpdateSince(time.Now())

	s.mu.RLock()
	dir := s.dir
	s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "error creating session directory")
	}

	return errors.Wrap(os.WriteFile(s.filename(key), data, defaultFileMode), "error writing session file")
}

// Remove deletes the record for the given storage key, if present.
func (s *FileStore) Remove(_ context.Context, key string) error {
	defer removeFileTimer.UpdateSince(time.Now())

	if err := os.Remove(s.filename(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "error removing session file")
	}

	return nil
}
