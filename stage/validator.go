// Package stage validates enumerated field values (deal stage and similar
// select attributes) against the backend's current option set, with
// case-insensitive and edit-distance correction, TTL caching, and a
// fallback list when the option API is unreachable.
package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/petal-labs/recordflow/cache"
	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/match"
)

const (
	defaultFieldSlug      = "stage"
	defaultCacheTTL       = 5 * time.Minute
	defaultMaxSuggestions = 3
	defaultMaxDistance    = 3
)

// DefaultFallbackStages is the common-stage list used when the option API
// is unreachable. A policy default, not an invariant: override it in
// Config when the workspace uses different stages.
var DefaultFallbackStages = []string{
	"Lead",
	"In Progress",
	"Demo",
	"Proposal",
	"Negotiation",
	"Won",
	"Lost",
}

// ValidationResult is the outcome of one stage validation.
type ValidationResult struct {
	ValidatedStage string   `json:"validated_stage"`
	Warnings       []string `json:"warnings"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

// Config controls validator behavior. The zero value gets sensible
// defaults from New.
type Config struct {
	// FieldSlug is the select attribute to validate; defaults to "stage".
	FieldSlug string
	// CacheTTL bounds how long a fetched option set is reused.
	CacheTTL time.Duration
	// DefaultStage is substituted for unmatched values in warn mode;
	// defaults to the first fallback stage.
	DefaultStage string
	// FallbackStages replaces DefaultFallbackStages when set.
	FallbackStages []string
	// MaxSuggestions caps the ranked suggestion list.
	MaxSuggestions int
	// MaxDistance is the edit-distance threshold for fuzzy correction.
	MaxDistance int
	// Mode selects warn-and-correct or strict behavior.
	Mode core.ValidationMode
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Validator validates stage values for one or more resource types. Safe
// for concurrent use; simultaneous validations for the same resource
// collapse onto one option fetch.
type Validator struct {
	fetcher core.OptionFetcher
	cache   *cache.Service
	cfg     Config
	logger  *slog.Logger
	group   singleflight.Group
}

// New creates a Validator. The cache may be shared with other components;
// nil creates a private one.
func New(fetcher core.OptionFetcher, cacheSvc *cache.Service, cfg Config) *Validator {
	if cacheSvc == nil {
		cacheSvc = cache.New()
	}
	if strings.TrimSpace(cfg.FieldSlug) == "" {
		cfg.FieldSlug = defaultFieldSlug
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if len(cfg.FallbackStages) == 0 {
		cfg.FallbackStages = DefaultFallbackStages
	}
	if strings.TrimSpace(cfg.DefaultStage) == "" {
		cfg.DefaultStage = cfg.FallbackStages[0]
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = defaultMaxSuggestions
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = defaultMaxDistance
	}
	if !cfg.Mode.Valid() {
		cfg.Mode = core.ModeWarn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{
		fetcher: fetcher,
		cache:   cacheSvc,
		cfg:     cfg,
		logger:  logger,
	}
}

// ValidateStage validates raw against the resource's current option set.
// With skipAPICall the raw value is returned unchanged and no network call
// is made; error-recovery paths use this to avoid cascading failures.
//
// In warn mode unmatched values are corrected (nearest option within the
// distance threshold) or replaced by the default stage, always with
// warnings and suggestions. In strict mode an unmatched value is an error.
func (v *Validator) ValidateStage(ctx context.Context, resource core.ResourceType, raw string, skipAPICall bool) (ValidationResult, error) {
	if skipAPICall {
		return ValidationResult{
			ValidatedStage: raw,
			Warnings:       []string{"stage validation skipped (no API call)"},
		}, nil
	}

	result := ValidationResult{}

	options, fromFallback, err := v.loadOptions(ctx, resource)
	if err != nil {
		return ValidationResult{}, err
	}
	if fromFallback {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"could not fetch %s options for %s; validating against the fallback list",
			v.cfg.FieldSlug, resource))
	}

	titles := make([]string, 0, len(options))
	for _, opt := range options {
		if opt.IsArchived {
			continue
		}
		titles = append(titles, opt.Title)
	}

	// Exact match.
	for _, title := range titles {
		if title == raw {
			result.ValidatedStage = raw
			return result, nil
		}
	}

	// Case-insensitive match corrects to the canonical casing.
	for _, title := range titles {
		if strings.EqualFold(title, raw) {
			result.ValidatedStage = title
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"stage %q matched %q case-insensitively; using the canonical form", raw, title))
			return result, nil
		}
	}

	// Fuzzy: rank all candidates for suggestions, correct only within the
	// acceptance threshold.
	ranked := match.Closest(raw, titles, v.cfg.MaxSuggestions, 0)
	for _, c := range ranked {
		result.Suggestions = append(result.Suggestions, c.Value)
	}

	if v.cfg.Mode == core.ModeStrict {
		err := core.NewAdapterError(core.ErrCodeStageMismatch,
			"stage %q does not match any available option for %s", raw, resource)
		if len(result.Suggestions) > 0 {
			err = err.WithDetails(map[string]any{"suggestions": result.Suggestions})
		}
		return ValidationResult{}, err
	}

	if len(ranked) > 0 && ranked[0].Distance <= v.cfg.MaxDistance {
		nearest := ranked[0].Value
		result.ValidatedStage = nearest
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"stage %q is not an available option; using closest match %q", raw, nearest))
		v.logger.Warn("corrected stage value",
			"resource", resource.String(), "raw", raw, "corrected", nearest)
		return result, nil
	}

	result.ValidatedStage = v.cfg.DefaultStage
	result.Warnings = append(result.Warnings, fmt.Sprintf(
		"stage %q does not match any available option; falling back to default %q",
		raw, v.cfg.DefaultStage))
	v.logger.Warn("stage value fell back to default",
		"resource", resource.String(), "raw", raw, "default", v.cfg.DefaultStage)
	return result, nil
}

// ClearCache drops all cached option sets.
func (v *Validator) ClearCache() {
	v.cache.Clear()
}

// loadOptions returns the resource's option set, preferring the cache,
// then the fetcher (single-flighted), then the fallback list. The
// fallback is never cached so the next call retries the API.
func (v *Validator) loadOptions(ctx context.Context, resource core.ResourceType) ([]core.Option, bool, error) {
	key := optionsKey(resource, v.cfg.FieldSlug)

	value, _, err := v.cache.GetOrLoad(ctx, key, v.cfg.CacheTTL, func(ctx context.Context) (any, error) {
		fetched, err, _ := v.group.Do(key, func() (any, error) {
			return v.fetcher.FetchOptions(ctx, resource, v.cfg.FieldSlug)
		})
		if err != nil {
			return nil, err
		}
		return fetched, nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		v.logger.Warn("option fetch failed; using fallback stages",
			"resource", resource.String(), "field", v.cfg.FieldSlug, "error", err)
		fallback := make([]core.Option, len(v.cfg.FallbackStages))
		for i, title := range v.cfg.FallbackStages {
			fallback[i] = core.Option{Title: title, Value: title}
		}
		return fallback, true, nil
	}

	options, ok := value.([]core.Option)
	if !ok {
		return nil, false, core.NewAdapterError(core.ErrCodeUpstreamFailure,
			"cached option set for %s has unexpected type %T", resource, value)
	}
	return options, false, nil
}

func optionsKey(resource core.ResourceType, fieldSlug string) string {
	return fmt.Sprintf("options:%s:%s", resource, fieldSlug)
}
