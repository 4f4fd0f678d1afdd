package bolt

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGetRoundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "watchHistory", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, ok, err := store.Get(ctx, "watchHistory")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}
	if string(value) != `[{"id":"1"}]` {
		t.Errorf("unexpected value %q", value)
	}
}

func TestStore_GetMissingKey(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "downloads", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete(ctx, "downloads"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, ok, err := store.Get(ctx, "downloads")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected key to be gone")
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, "downloads"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(ctx, "credentials", []byte(`{"token":"t"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "credentials")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(value) != `{"token":"t"}` {
		t.Fatalf("expected persisted value, got ok=%v value=%q", ok, value)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	store := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
