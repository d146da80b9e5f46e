// Package persistence provides Store implementations backed by memory, the
// filesystem, SQL databases, Redis and DynamoDB. All stores treat keys and
// records as opaque; encryption happens in the Handler before data reaches a
// store.
package persistence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sessionseal/sessionseal"
)

func errNotImplemented(op string) error {
	return errors.Errorf("store operation %s is not implemented", op)
}

// StoreFuncs is an adapter to allow the use of ordinary functions as a
// sessionseal.Store. Nil members report an error when called, which makes
// the type convenient for fault injection in tests.
type StoreFuncs struct {
	LoadFunc   func(ctx context.Context, key string) ([]byte, error)
	StoreFunc  func(ctx context.Context, key string, data []byte) error
	RemoveFunc func(ctx context.Context, key string) error
}

var _ sessionseal.Store = (*StoreFuncs)(nil)

// Load calls LoadFunc(ctx, key).
func (s *StoreFuncs) Load(ctx context.Context, key string) ([]byte, error) {
	if s.LoadFunc == nil {
		return nil, errNotImplemented("Load")
	}

	return s.LoadFunc(ctx, key)
}

// Store calls StoreFunc(ctx, key, data).
func (s *StoreFuncs) Store(ctx context.Context, key string, data []byte) error {
	if s.StoreFunc == nil {
		return errNotImplemented("Store")
	}

	return s.StoreFunc(ctx, key, data)
}

// Remove calls RemoveFunc(ctx, key).
func (s *StoreFuncs) Remove(ctx context.Context, key string) error {
	if s.RemoveFunc == nil {
		return errNotImplemented("Remove")
	}

	return s.RemoveFunc(ctx, key)
}
