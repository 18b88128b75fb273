package stage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/petal-labs/recordflow/core"
)

// fakeFetcher counts calls and serves a fixed option set or error.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	options []core.Option
	err     error
}

func (f *fakeFetcher) FetchOptions(ctx context.Context, resource core.ResourceType, fieldSlug string) ([]core.Option, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.options, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func dealOptions() []core.Option {
	return []core.Option{
		{Title: "Demo", Value: "demo"},
		{Title: "Qualified", Value: "qualified"},
		{Title: "Won", Value: "won"},
		{Title: "Old Stage", Value: "old", IsArchived: true},
	}
}

func TestValidateStage_ExactMatch(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Demo", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Demo" {
		t.Errorf("ValidatedStage = %q, want Demo", result.ValidatedStage)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("exact match should not warn: %v", result.Warnings)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.callCount())
	}
}

func TestValidateStage_SkipAPICall(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Anything Goes", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Anything Goes" {
		t.Errorf("ValidatedStage = %q, want raw value unchanged", result.ValidatedStage)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("skipAPICall must not hit the network, calls = %d", fetcher.callCount())
	}
}

func TestValidateStage_CaseInsensitiveMatch(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "qualified", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Qualified" {
		t.Errorf("ValidatedStage = %q, want canonical casing", result.ValidatedStage)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("case correction should warn once: %v", result.Warnings)
	}
}

func TestValidateStage_FuzzyCorrection(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Demi", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Demo" {
		t.Errorf("ValidatedStage = %q, want nearest option Demo", result.ValidatedStage)
	}
	if len(result.Warnings) == 0 {
		t.Error("fuzzy correction should warn")
	}
	if len(result.Suggestions) == 0 || result.Suggestions[0] != "Demo" {
		t.Errorf("Suggestions = %v, want Demo first", result.Suggestions)
	}
}

func TestValidateStage_UnmatchedFallsBackToDefault(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{DefaultStage: "Qualified"})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "xyz123", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Qualified" {
		t.Errorf("ValidatedStage = %q, want configured default", result.ValidatedStage)
	}
	if len(result.Suggestions) == 0 {
		t.Error("unmatched value should still carry ranked suggestions")
	}
	if len(result.Warnings) == 0 {
		t.Error("default substitution should warn")
	}
}

func TestValidateStage_StrictModeRejectsUnmatched(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{Mode: core.ModeStrict})

	_, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Demi", false)
	if err == nil {
		t.Fatal("strict mode must reject unmatched values")
	}
	var ae *core.AdapterError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AdapterError, got %v", err)
	}
	if ae.Code != core.ErrCodeStageMismatch {
		t.Errorf("code = %q, want STAGE_MISMATCH", ae.Code)
	}
	if _, ok := ae.Details["suggestions"]; !ok {
		t.Error("strict error should carry suggestions")
	}
}

func TestValidateStage_StrictModeAcceptsExact(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{Mode: core.ModeStrict})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Won", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Won" {
		t.Errorf("ValidatedStage = %q, want Won", result.ValidatedStage)
	}
}

func TestValidateStage_ArchivedOptionsFiltered(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{Mode: core.ModeStrict})

	if _, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Old Stage", false); err == nil {
		t.Error("archived option must not match")
	}
}

func TestValidateStage_OptionSetCachedAcrossCalls(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{})

	for i := 0; i < 5; i++ {
		if _, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Demo", false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1 (option set cached)", fetcher.callCount())
	}
}

func TestValidateStage_FetchFailureDegradesToFallback(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("api unreachable")}
	v := New(fetcher, nil, Config{})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Demo", false)
	if err != nil {
		t.Fatalf("fetch failure must not fail validation: %v", err)
	}
	if result.ValidatedStage != "Demo" {
		t.Errorf("ValidatedStage = %q, want Demo from fallback list", result.ValidatedStage)
	}
	if len(result.Warnings) == 0 {
		t.Error("fallback use should warn")
	}

	// Failures are not cached; the next call retries the fetch.
	if _, err := v.ValidateStage(context.Background(), core.ResourceDeals, "Demo", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Errorf("fetch calls = %d, want 2 (failure not cached)", fetcher.callCount())
	}
}

func TestValidateStage_CustomFallbackList(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("down")}
	v := New(fetcher, nil, Config{
		FallbackStages: []string{"Open", "Closed"},
	})

	result, err := v.ValidateStage(context.Background(), core.ResourceDeals, "nothing like it", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ValidatedStage != "Open" {
		t.Errorf("default should come from custom fallback list, got %q", result.ValidatedStage)
	}
}

func TestValidateStage_ConcurrentValidationsSingleFetch(t *testing.T) {
	fetcher := &fakeFetcher{options: dealOptions()}
	v := New(fetcher, nil, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = v.ValidateStage(context.Background(), core.ResourceDeals, "Demo", false)
		}()
	}
	wg.Wait()

	// Correctness allows duplicate idempotent fetches under race, but the
	// single-flight should keep the count far below the caller count.
	if calls := fetcher.callCount(); calls > 4 {
		t.Errorf("fetch calls = %d, want fetches collapsed by single-flight", calls)
	}
}
