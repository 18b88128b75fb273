package fieldmap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/petal-labs/recordflow/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteStoreConfig{
		DSN: filepath.Join(t.TempDir(), "aliases.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteStoreConfig{}); err == nil {
		t.Error("empty DSN should fail")
	}
}

func TestSQLiteStore_PutLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, core.ResourceCompanies, "Ticker", "stock_symbol"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, core.ResourceDeals, "arr", "annual_recurring_revenue"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Aliases are case-folded on write.
	if got := loaded[core.ResourceCompanies]["ticker"]; got != "stock_symbol" {
		t.Errorf("companies ticker = %q, want stock_symbol", got)
	}
	if got := loaded[core.ResourceDeals]["arr"]; got != "annual_recurring_revenue" {
		t.Errorf("deals arr = %q, want annual_recurring_revenue", got)
	}
}

func TestSQLiteStore_PutReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, core.ResourcePeople, "handle", "twitter"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, core.ResourcePeople, "handle", "social_handle"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded[core.ResourcePeople]["handle"]; got != "social_handle" {
		t.Errorf("handle = %q, want latest write", got)
	}
}

func TestSQLiteStore_PutValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, core.ResourceCompanies, "", "name"); err == nil {
		t.Error("empty alias should fail")
	}
	if err := store.Put(ctx, core.ResourceType("widgets"), "a", "b"); err == nil {
		t.Error("invalid resource should fail")
	}
	if code := core.AdapterErrorCode(store.Put(ctx, core.ResourceType("widgets"), "a", "b")); code != core.ErrCodeInvalidResourceType {
		t.Errorf("code = %q, want INVALID_RESOURCE_TYPE", code)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, core.ResourceTasks, "eta", "deadline_at"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, core.ResourceTasks, "eta"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded[core.ResourceTasks]) != 0 {
		t.Errorf("deleted alias still present: %v", loaded[core.ResourceTasks])
	}
}

func TestSQLiteStore_FeedsMapper(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, core.ResourceCompanies, "hq", "primary_location"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	custom, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	m := NewWithCustom(custom)
	result := m.MapRecordFields(core.ResourceCompanies, map[string]any{"hq": "Berlin"})
	if _, ok := result.Mapped["primary_location"]; !ok {
		t.Errorf("custom alias from store not applied: %v", result.Mapped)
	}
}
