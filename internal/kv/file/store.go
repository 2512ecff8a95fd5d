// Package file keeps key-value pairs in a single JSON snapshot on disk.
//
// Every write rewrites the whole snapshot to path+".tmp" and renames it over
// the original, so a crash mid-write leaves the previous snapshot intact.
// Reads and writes reload the snapshot when another process has replaced
// the file since it was last seen.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"salesjournal/internal/kv"
)

const storageName = "json_snapshot"

type (
	Meta struct {
		Storage   string    `json:"storage"`
		Timestamp time.Time `json:"timestamp"`
	}

	// Snapshot is the on-disk layout. Values are kept as strings so JSON
	// payloads stay readable when the file is inspected by hand.
	Snapshot struct {
		Meta    Meta              `json:"meta"`
		Entries map[string]string `json:"entries"`
	}
)

type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	seen    fs.FileInfo // file the entries were read from or written to; nil if absent
}

var (
	_ kv.Store       = (*Store)(nil)
	_ kv.BatchWriter = (*Store)(nil)
	_ kv.Pinger      = (*Store)(nil)
)

// New opens the snapshot at path. A missing file is an empty store.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{path: path, entries: map[string]string{}}
	if err := s.refreshLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// refreshLocked reloads the snapshot if the file on disk is not the one the
// in-memory entries came from.
func (s *Store) refreshLocked() error {
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if s.seen != nil {
			s.entries = map[string]string{}
			s.seen = nil
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat snapshot %s: %w", s.path, err)
	}
	if s.seen != nil && os.SameFile(s.seen, info) &&
		s.seen.ModTime().Equal(info.ModTime()) && s.seen.Size() == info.Size() {
		return nil
	}

	snap, err := LoadSnapshot(s.path)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", s.path, err)
	}
	if snap.Entries == nil {
		snap.Entries = map[string]string{}
	}
	s.entries = snap.Entries
	s.seen = info
	return nil
}

func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&snap)
	return snap, err
}

func SaveSnapshot(path string, snap Snapshot) error {
	snap.Meta.Storage = storageName
	snap.Meta.Timestamp = time.Now()
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(); err != nil {
		return nil, false, err
	}
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.SetMany(ctx, map[string][]byte{key: nil})
}

// SetMany applies entries on top of the latest snapshot and persists once.
// On a failed write the in-memory view is left as it was.
func (s *Store) SetMany(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(); err != nil {
		return err
	}

	next := make(map[string]string, len(s.entries)+len(entries))
	for k, v := range s.entries {
		next[k] = v
	}
	for k, v := range entries {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = string(v)
	}

	if err := SaveSnapshot(s.path, Snapshot{Entries: next}); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	s.entries = next
	if info, err := os.Stat(s.path); err == nil {
		s.seen = info
	} else {
		s.seen = nil
	}
	return nil
}

// Ping checks the data directory is still writable.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}
