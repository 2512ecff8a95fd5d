package memory

import (
	"context"
	"sync"

	"salesjournal/internal/kv"
)

// Store keeps values in process memory. Contents are lost on restart.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
}

var (
	_ kv.Store       = (*Store)(nil)
	_ kv.BatchWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Get returns a copy of the value under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// SetMany applies all entries under one lock.
func (s *Store) SetMany(_ context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		if v == nil {
			delete(s.items, k)
			continue
		}
		s.items[k] = append([]byte(nil), v...)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
