package recordflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/recordflow/cache"
	"github.com/petal-labs/recordflow/config"
	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/fieldmap"
	"github.com/petal-labs/recordflow/registry"
	"github.com/petal-labs/recordflow/search"
	"github.com/petal-labs/recordflow/stage"
	"github.com/petal-labs/recordflow/verify"
)

// Backend is the full surface the adapter needs from a CRM client. A
// production client implements all four; tests usually fake only the
// pieces an operation touches.
type Backend interface {
	core.Executor
	core.Writer
	core.OptionFetcher
	core.RecordFetcher
}

// WriteResult is the outcome of a create or update operation.
type WriteResult struct {
	Record       core.Record          `json:"record"`
	Warnings     []string             `json:"warnings,omitempty"`
	Verification *verify.Verification `json:"verification,omitempty"`
	OperationID  string               `json:"operation_id"`
}

// Options carries optional Service collaborators. Zero value is usable.
type Options struct {
	// Registry defaults to the global resource registry.
	Registry *registry.Registry
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Emit receives adapter events; nil drops them.
	Emit core.EventEmitter
	// CustomAliases layers workspace-defined field aliases over the
	// built-in tables, e.g. loaded from a fieldmap.SQLiteStore.
	CustomAliases map[core.ResourceType]map[string]string
}

// Service is the adapter facade. It composes field mapping, search
// dispatch, stage validation, caching, and post-write verification over
// one backend, applying the configured validation mode uniformly.
type Service struct {
	backend  Backend
	cfg      config.Config
	registry *registry.Registry
	logger   *slog.Logger
	emit     core.EventEmitter

	mapper     *fieldmap.Mapper
	dispatcher *search.Dispatcher
	stages     *stage.Validator
	verifier   *verify.Verifier
	records    *cache.Service
	negative   *cache.NegativeCache
	sweeper    *cache.Sweeper

	now func() time.Time
}

// NewService assembles a Service over the backend.
func NewService(backend Backend, cfg config.Config, opts Options) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("recordflow: backend is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Registry == nil {
		opts.Registry = registry.Global()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	emit := opts.Emit
	if emit == nil {
		emit = func(core.Event) {}
	}

	records := cache.New()
	negative := cache.NewNegativeCache(cfg.NegativeTTL.Std())

	mapper := fieldmap.New()
	if len(opts.CustomAliases) > 0 {
		mapper = fieldmap.NewWithCustom(opts.CustomAliases)
	}

	dispatcher, err := search.New(search.Config{
		Executor:            backend,
		Cache:               records,
		Registry:            opts.Registry,
		DefaultLimit:        cfg.DefaultLimit,
		CollectionTTL:       cfg.CacheTTL.Std(),
		VolumeWarnThreshold: cfg.VolumeWarnThreshold,
		Logger:              opts.Logger,
		Emit:                emit,
	})
	if err != nil {
		return nil, err
	}

	stages := stage.New(backend, records, stage.Config{
		CacheTTL:       cfg.OptionsTTL.Std(),
		DefaultStage:   cfg.DefaultStage,
		FallbackStages: cfg.FallbackStages,
		MaxSuggestions: cfg.MaxSuggestions,
		MaxDistance:    cfg.MaxEditDistance,
		Mode:           cfg.Mode,
		Logger:         opts.Logger,
	})

	verifier := verify.New(backend, verify.Config{
		Disabled: !cfg.VerifyWrites,
		Logger:   opts.Logger,
	})

	s := &Service{
		backend:    backend,
		cfg:        cfg,
		registry:   opts.Registry,
		logger:     opts.Logger,
		emit:       emit,
		mapper:     mapper,
		dispatcher: dispatcher,
		stages:     stages,
		verifier:   verifier,
		records:    records,
		negative:   negative,
		now:        time.Now,
	}

	if cfg.SweepSchedule != "" {
		sweeper, err := cache.NewSweeper(cache.SweeperConfig{
			Cache:    records,
			TTL:      cfg.CacheTTL.Std(),
			Schedule: cfg.SweepSchedule,
			Negative: negative,
			Logger:   opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		s.sweeper = sweeper
	}

	return s, nil
}

// Start launches background maintenance (the cache sweeper, when
// configured). Safe to call when no sweeper is configured.
func (s *Service) Start(ctx context.Context) error {
	if s.sweeper == nil {
		return nil
	}
	return s.sweeper.Start(ctx)
}

// Close stops background maintenance.
func (s *Service) Close() {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
}

// SearchRecords validates and executes one search through the resource's
// strategy. Recoverable downstream failures return an empty result set.
func (s *Service) SearchRecords(ctx context.Context, p search.Params) ([]core.Record, error) {
	op := s.begin("SearchRecords", p.Resource)

	records, err := s.dispatcher.Search(ctx, p)
	if err != nil {
		s.fail(op, err)
		return nil, err
	}
	s.finish(op)
	return records, nil
}

// GetRecord reads one record, serving repeats from the record cache and
// short-circuiting IDs known to be missing via the negative cache.
func (s *Service) GetRecord(ctx context.Context, resource core.ResourceType, recordID string) (core.Record, error) {
	op := s.begin("GetRecord", resource)

	if !resource.Valid() {
		err := core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"unknown resource type %q", resource)
		s.fail(op, err)
		return nil, err
	}
	if strings.TrimSpace(recordID) == "" {
		err := core.NewAdapterError(core.ErrCodeNotFound, "record id is required")
		s.fail(op, err)
		return nil, err
	}

	if s.negative.Is404Cached(resource, recordID) {
		s.event(op, core.EventCacheHit, map[string]any{"cache_key": "404:" + recordKey(resource, recordID)})
		err := core.NewAdapterError(core.ErrCodeNotFound,
			"%s record %q not found (cached)", resource, recordID)
		s.fail(op, err)
		return nil, err
	}

	key := recordKey(resource, recordID)
	value, fromCache, err := s.records.GetOrLoad(ctx, key, s.cfg.CacheTTL.Std(), func(ctx context.Context) (any, error) {
		return s.backend.FetchRecord(ctx, resource, recordID)
	})
	if err != nil {
		if core.IsNotFound(err) {
			s.negative.Cache404(resource, recordID)
			err = core.NewAdapterError(core.ErrCodeNotFound,
				"%s record %q not found", resource, recordID).WithCause(err)
		}
		s.fail(op, err)
		return nil, err
	}

	if fromCache {
		s.event(op, core.EventCacheHit, map[string]any{"cache_key": key})
	} else {
		s.event(op, core.EventCacheMiss, map[string]any{"cache_key": key})
	}

	record, ok := value.(core.Record)
	if !ok {
		err := core.NewAdapterError(core.ErrCodeUpstreamFailure,
			"cached record %s has unexpected type %T", key, value)
		s.fail(op, err)
		return nil, err
	}
	s.finish(op)
	return record, nil
}

// CreateRecord maps aliases to canonical slugs, validates the stage field
// where the resource has one, writes the record, and verifies persistence.
// Field collisions abort before any network call.
func (s *Service) CreateRecord(ctx context.Context, resource core.ResourceType, fields map[string]any) (WriteResult, error) {
	op := s.begin("CreateRecord", resource)

	mapped, warnings, err := s.prepareFields(ctx, op, resource, fields)
	if err != nil {
		s.fail(op, err)
		return WriteResult{}, err
	}

	created, err := s.backend.CreateRecord(ctx, resource, mapped)
	if err != nil {
		s.fail(op, err)
		return WriteResult{}, err
	}
	s.invalidateCollection(resource)

	result := WriteResult{Record: created, Warnings: warnings, OperationID: op.id}
	if err := s.verifyWrite(ctx, op, resource, recordIDOf(created), mapped, created, &result); err != nil {
		s.fail(op, err)
		return result, err
	}

	s.finish(op)
	return result, nil
}

// UpdateRecord maps aliases, validates the stage field, applies the
// update, and verifies persistence. IDs known missing via the negative
// cache fail without a network call.
func (s *Service) UpdateRecord(ctx context.Context, resource core.ResourceType, recordID string, fields map[string]any) (WriteResult, error) {
	op := s.begin("UpdateRecord", resource)

	if s.negative.Is404Cached(resource, recordID) {
		err := core.NewAdapterError(core.ErrCodeNotFound,
			"%s record %q not found (cached)", resource, recordID)
		s.fail(op, err)
		return WriteResult{}, err
	}

	mapped, warnings, err := s.prepareFields(ctx, op, resource, fields)
	if err != nil {
		s.fail(op, err)
		return WriteResult{}, err
	}

	updated, err := s.backend.UpdateRecord(ctx, resource, recordID, mapped)
	if err != nil {
		if core.IsNotFound(err) {
			s.negative.Cache404(resource, recordID)
		}
		s.fail(op, err)
		return WriteResult{}, err
	}
	s.records.Delete(recordKey(resource, recordID))
	s.invalidateCollection(resource)

	result := WriteResult{Record: updated, Warnings: warnings, OperationID: op.id}
	if err := s.verifyWrite(ctx, op, resource, recordID, mapped, updated, &result); err != nil {
		s.fail(op, err)
		return result, err
	}

	s.finish(op)
	return result, nil
}

// DeleteRecord removes the record and poisons the negative cache so
// immediate re-reads skip the backend.
func (s *Service) DeleteRecord(ctx context.Context, resource core.ResourceType, recordID string) error {
	op := s.begin("DeleteRecord", resource)

	if !resource.Valid() {
		err := core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"unknown resource type %q", resource)
		s.fail(op, err)
		return err
	}

	if err := s.backend.DeleteRecord(ctx, resource, recordID); err != nil {
		s.fail(op, err)
		return err
	}

	s.records.Delete(recordKey(resource, recordID))
	s.invalidateCollection(resource)
	s.negative.Cache404(resource, recordID)

	s.finish(op)
	return nil
}

// ValidateStage exposes stage validation directly, e.g. for dry runs.
func (s *Service) ValidateStage(ctx context.Context, resource core.ResourceType, raw string) (stage.ValidationResult, error) {
	return s.stages.ValidateStage(ctx, resource, raw, false)
}

// MapFields exposes alias translation directly without writing anything.
func (s *Service) MapFields(resource core.ResourceType, fields map[string]any) fieldmap.MappingResult {
	return s.mapper.MapRecordFields(resource, fields)
}

// CacheStats reports positive and negative cache contents.
func (s *Service) CacheStats() (records cache.Stats, negative cache.Stats) {
	return s.records.Stats(), s.negative.Stats()
}

// ClearCaches drops every cached record, collection, and 404 entry.
func (s *Service) ClearCaches() {
	s.records.Clear()
	s.negative.Clear()
	s.stages.ClearCache()
}

// prepareFields runs the pre-write pipeline: resource check, alias
// mapping with collision detection, then stage validation when the
// resource declares a stage field.
func (s *Service) prepareFields(ctx context.Context, op operation, resource core.ResourceType, fields map[string]any) (map[string]any, []string, error) {
	if !resource.Valid() {
		return nil, nil, core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"unknown resource type %q", resource)
	}

	mapping := s.mapper.MapRecordFields(resource, fields)
	if len(mapping.Errors) > 0 {
		return nil, nil, core.NewAdapterError(core.ErrCodeFieldCollision,
			"conflicting field aliases for %s: %s", resource, strings.Join(mapping.Errors, "; "))
	}
	warnings := mapping.Warnings
	mapped := mapping.Mapped

	def, ok := s.registry.Get(resource)
	if !ok || def.StageField == "" {
		return mapped, warnings, nil
	}
	raw, present := mapped[def.StageField]
	rawStage, isString := raw.(string)
	if !present || !isString || strings.TrimSpace(rawStage) == "" {
		return mapped, warnings, nil
	}

	validation, err := s.stages.ValidateStage(ctx, resource, rawStage, false)
	if err != nil {
		return nil, nil, err
	}
	if validation.ValidatedStage != rawStage {
		s.event(op, core.EventStageCorrected, map[string]any{
			"field": def.StageField, "from": rawStage, "to": validation.ValidatedStage,
		})
	}
	mapped[def.StageField] = validation.ValidatedStage
	warnings = append(warnings, validation.Warnings...)
	return mapped, warnings, nil
}

// verifyWrite runs post-write verification and folds the outcome into the
// result. In warn mode verification never blocks the write it checks; in
// strict mode every discrepancy, cosmetic included, is retained and the
// verifier's error propagates to the caller.
func (s *Service) verifyWrite(ctx context.Context, op operation, resource core.ResourceType, recordID string, expected map[string]any, actual core.Record, result *WriteResult) error {
	if !s.cfg.VerifyWrites {
		return nil
	}

	verification, err := s.verifier.VerifyPersistence(ctx, resource, recordID, expected, actual, verify.Options{
		Strict: s.cfg.Mode == core.ModeStrict,
	})
	result.Verification = &verification
	result.Warnings = append(result.Warnings, verification.Warnings...)

	for _, discrepancy := range verification.Discrepancies {
		s.event(op, core.EventVerifyDiscrepancy, map[string]any{"field": discrepancy})
	}
	return err
}

func (s *Service) invalidateCollection(resource core.ResourceType) {
	s.records.Delete(fmt.Sprintf("collection:%s", resource))
}

// operation carries per-call event correlation.
type operation struct {
	id       string
	name     string
	resource core.ResourceType
	started  time.Time
}

func (s *Service) begin(name string, resource core.ResourceType) operation {
	op := operation{
		id:       uuid.NewString(),
		name:     name,
		resource: resource,
		started:  s.now(),
	}
	s.emit(core.Event{
		Kind:        core.EventOperationStarted,
		OperationID: op.id,
		Operation:   op.name,
		Resource:    op.resource,
		Time:        op.started,
	})
	return op
}

func (s *Service) finish(op operation) {
	now := s.now()
	s.emit(core.Event{
		Kind:        core.EventOperationFinished,
		OperationID: op.id,
		Operation:   op.name,
		Resource:    op.resource,
		Time:        now,
		Elapsed:     now.Sub(op.started),
	})
}

func (s *Service) fail(op operation, err error) {
	now := s.now()
	s.logger.Error("operation failed",
		"operation", op.name, "operation_id", op.id,
		"resource", op.resource.String(), "error", err)
	s.emit(core.Event{
		Kind:        core.EventOperationFailed,
		OperationID: op.id,
		Operation:   op.name,
		Resource:    op.resource,
		Time:        now,
		Elapsed:     now.Sub(op.started),
		Payload:     map[string]any{"error": err.Error()},
	})
}

func (s *Service) event(op operation, kind core.EventKind, payload map[string]any) {
	s.emit(core.Event{
		Kind:        kind,
		OperationID: op.id,
		Operation:   op.name,
		Resource:    op.resource,
		Time:        s.now(),
		Payload:     payload,
	})
}

func recordKey(resource core.ResourceType, recordID string) string {
	return fmt.Sprintf("record:%s:%s", resource, recordID)
}

// recordIDOf pulls the backend-assigned identifier out of a record.
func recordIDOf(record core.Record) string {
	if record == nil {
		return ""
	}
	if id, ok := record["id"].(string); ok {
		return id
	}
	return ""
}
