package testsupport

import (
	"context"
	"testing"

	"lockbox/internal/config"
	"lockbox/internal/manifest"
)

// MustOpenManifest opens the manifest database named by cfg and registers cleanup.
func MustOpenManifest(t testing.TB, cfg *config.Config) *manifest.Store {
	t.Helper()

	store, err := manifest.Open(context.Background(), cfg.Manifest.Path)
	if err != nil {
		t.Fatalf("manifest.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustRecord stores a manifest entry for tests.
func MustRecord(t testing.TB, store *manifest.Store, entry manifest.Entry) {
	t.Helper()

	if err := store.Record(context.Background(), entry); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
}
