package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "k", `["a"]`); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", `{"version":1,"entries":["b","a"]}`); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := s.Get(ctx, "k"); err != nil || !ok || v != `{"version":1,"entries":["b","a"]}` {
		t.Errorf("got %q %v %v", v, ok, err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	t.Run("value survives reopen", func(t *testing.T) {
		s2, err := Open(ctx, path)
		if err != nil {
			t.Fatal(err)
		}
		defer s2.Close()
		if _, ok, _ := s2.Get(ctx, "k"); !ok {
			t.Fatal("value lost across reopen")
		}
		if err := s2.Remove(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s2.Get(ctx, "k"); ok {
			t.Error("key should be gone")
		}
	})
}
