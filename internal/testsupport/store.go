package testsupport

import (
	"testing"

	"galleria/internal/config"
	"galleria/internal/storage"
)

// MustOpenStore opens a storage.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
