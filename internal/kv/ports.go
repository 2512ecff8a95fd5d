// Package kv defines the key-value port the transaction store persists through.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("kv store closed")

type (
	// Store is a byte-valued key-value store. Get reports found=false for an
	// absent key; that is not an error.
	Store interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Set(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
	}

	// BatchWriter writes several keys in one step. A nil value deletes the key.
	BatchWriter interface {
		SetMany(ctx context.Context, entries map[string][]byte) error
	}

	// Pinger reports whether the backend is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// WriteAll writes entries through BatchWriter when s supports it, and key by
// key otherwise.
func WriteAll(ctx context.Context, s Store, entries map[string][]byte) error {
	if bw, ok := s.(BatchWriter); ok {
		return bw.SetMany(ctx, entries)
	}
	for k, v := range entries {
		var err error
		if v == nil {
			err = s.Delete(ctx, k)
		} else {
			err = s.Set(ctx, k, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
