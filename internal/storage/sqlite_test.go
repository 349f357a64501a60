package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "local.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "saved_locations/default.json")
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("Get on empty store: err = %v; want ErrNotExist", err)
	}
}

func TestSQLiteStore_PutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	steps := []struct {
		key   string
		value string
	}{
		{"a", `[]`},
		{"b", `[{"name":"b"}]`},
		{"a", `[{"name":"a"}]`},
	}
	for _, st := range steps {
		if err := s.Put(ctx, st.key, []byte(st.value)); err != nil {
			t.Fatalf("Put(%q): %v", st.key, err)
		}
	}

	want := map[string]string{"a": `[{"name":"a"}]`, "b": `[{"name":"b"}]`}
	for key, value := range want {
		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%q): %v", key, err)
		}
		if string(got) != value {
			t.Errorf("Get(%q) = %s; want %s", key, got, value)
		}
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := first.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get after reopen = %q, %v; want v", got, err)
	}
}
