// Package verify confirms that written field values actually persisted,
// classifying mismatches as semantic (different data) or cosmetic (same
// data, different representation). Verification is best-effort by design:
// a failure to read the record back never invalidates the write it is
// checking.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/petal-labs/recordflow/core"
)

// Verification is the outcome of one persistence check.
type Verification struct {
	Verified      bool           `json:"verified"`
	Discrepancies []string       `json:"discrepancies"`
	Warnings      []string       `json:"warnings"`
	ActualValues  map[string]any `json:"actual_values"`
}

// Options controls a single verification call.
type Options struct {
	// Skip bypasses verification entirely.
	Skip bool
	// Strict retains cosmetic discrepancies and turns any non-empty
	// discrepancy list into an error.
	Strict bool
	// IncludeCosmetic keeps cosmetic discrepancies in the Discrepancies
	// list without strict's error promotion.
	IncludeCosmetic bool
}

// Config configures a Verifier.
type Config struct {
	// Disabled turns every call into a skip, e.g. from a global
	// field-verification toggle.
	Disabled bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Verifier compares expected post-write values against the stored record.
type Verifier struct {
	fetcher  core.RecordFetcher
	disabled bool
	logger   *slog.Logger
}

// New creates a Verifier. fetcher may be nil when every call supplies the
// actual record.
func New(fetcher core.RecordFetcher, cfg Config) *Verifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		fetcher:  fetcher,
		disabled: cfg.Disabled,
		logger:   logger,
	}
}

// VerifyPersistence compares each key of expected against the actual
// record. When actual is nil the record is fetched; a fetch failure
// degrades to Verified=true with a warning. Only semantic discrepancies
// fail verification unless strict mode or IncludeCosmetic is requested;
// in strict mode a non-empty discrepancy list is returned as an error.
func (v *Verifier) VerifyPersistence(ctx context.Context, resource core.ResourceType, recordID string, expected map[string]any, actual core.Record, opts Options) (Verification, error) {
	if opts.Skip || v.disabled {
		return Verification{
			Verified: true,
			Warnings: []string{"field persistence verification skipped"},
		}, nil
	}

	result := Verification{
		Verified:     true,
		ActualValues: make(map[string]any, len(expected)),
	}

	if actual == nil {
		if v.fetcher == nil {
			result.Warnings = append(result.Warnings,
				"no record supplied and no fetcher configured; skipping verification")
			return result, nil
		}
		fetched, err := v.fetcher.FetchRecord(ctx, resource, recordID)
		if err != nil {
			// The write already succeeded; a verification-only read
			// failure must not fail the caller.
			v.logger.Warn("could not fetch record for verification",
				"resource", resource.String(), "record_id", recordID, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"could not verify persistence: fetching %s %q failed: %v", resource, recordID, err))
			return result, nil
		}
		actual = fetched
	}

	keys := make([]string, 0, len(expected))
	for key := range expected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := expected[key]
		actualValue, present := actual[key]
		result.ActualValues[key] = actualValue

		if !present {
			result.Verified = false
			result.Discrepancies = append(result.Discrepancies, fmt.Sprintf(
				"field %q missing from stored record (expected %v)", key, expectedValue))
			continue
		}

		switch compareValues(expectedValue, actualValue) {
		case compEqual:
		case compCosmetic:
			msg := fmt.Sprintf(
				"field %q differs only in representation (expected %v, actual %v)",
				key, expectedValue, actualValue)
			if opts.Strict || opts.IncludeCosmetic {
				result.Discrepancies = append(result.Discrepancies, msg)
			} else {
				result.Warnings = append(result.Warnings, msg)
			}
		case compSemantic:
			result.Verified = false
			result.Discrepancies = append(result.Discrepancies, fmt.Sprintf(
				"field %q expected %v, stored record has %v", key, expectedValue, actualValue))
		}
	}

	if opts.Strict && len(result.Discrepancies) > 0 {
		return result, core.NewAdapterError(core.ErrCodeVerificationFailed,
			"%d field(s) did not persist as written for %s %q",
			len(result.Discrepancies), resource, recordID).
			WithDetails(map[string]any{"discrepancies": result.Discrepancies})
	}

	return result, nil
}
