package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "sales.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, found, err := s.Get(ctx, "missing"); found || err != nil {
		t.Fatalf("absent key: found=%v err=%v", found, err)
	}
	if err := s.Set(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte(`[3]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != `[3]` {
		t.Fatalf("unexpected value %q found=%v err=%v", got, found, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("key should be gone")
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSQLiteSetManyAndReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	if err := s.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	if err := s.SetMany(ctx, map[string][]byte{"a": nil}); err != nil {
		t.Fatalf("SetMany delete: %v", err)
	}
	s.Close()

	// Migrations must be idempotent on reopen.
	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, found, _ := s2.Get(ctx, "a"); found {
		t.Fatalf("a should have been deleted")
	}
	if v, found, _ := s2.Get(ctx, "b"); !found || string(v) != "2" {
		t.Fatalf("b not persisted: %q", v)
	}
}
