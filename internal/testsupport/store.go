package testsupport

import (
	"testing"

	"quill/internal/config"
	"quill/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config, opts ...ledger.Option) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
