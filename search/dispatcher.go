package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/petal-labs/recordflow/cache"
	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/registry"
)

const (
	defaultLimit         = 20
	defaultCollectionTTL = 5 * time.Minute
	defaultVolumeWarn    = 500
)

// Config assembles a Dispatcher.
type Config struct {
	// Executor performs the actual network search. Required.
	Executor core.Executor
	// Cache holds full collections for client-paginated resources. A
	// private cache is created when nil.
	Cache *cache.Service
	// Registry supplies resource capability definitions; defaults to the
	// global registry.
	Registry *registry.Registry
	// DefaultLimit applies when params carry no limit.
	DefaultLimit int
	// CollectionTTL bounds the full-collection cache for resources
	// without server-side pagination.
	CollectionTTL time.Duration
	// VolumeWarnThreshold triggers a performance warning when a fresh
	// full-collection load exceeds this many records.
	VolumeWarnThreshold int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Emit receives search events (degradations); nil drops them.
	Emit core.EventEmitter
}

// strategy is the per-resource search behavior. One implementation exists
// per capability class; the lookup table is built at construction.
type strategy interface {
	search(ctx context.Context, p Params, q core.Query) ([]core.Record, error)
}

// Dispatcher validates search parameters, builds the canonical query for
// the resource's search type, and routes it through the resource's
// strategy. Search stays best-effort: recoverable downstream failures
// degrade to an empty result set with a logged warning.
type Dispatcher struct {
	cfg        Config
	strategies map[core.ResourceType]strategy
}

// New creates a Dispatcher from config.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Executor == nil {
		return nil, errors.New("search: executor is required")
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New()
	}
	if cfg.Registry == nil {
		cfg.Registry = registry.Global()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.CollectionTTL <= 0 {
		cfg.CollectionTTL = defaultCollectionTTL
	}
	if cfg.VolumeWarnThreshold <= 0 {
		cfg.VolumeWarnThreshold = defaultVolumeWarn
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Emit == nil {
		cfg.Emit = func(core.Event) {}
	}

	d := &Dispatcher{
		cfg:        cfg,
		strategies: make(map[core.ResourceType]strategy),
	}
	for _, def := range cfg.Registry.All() {
		if def.ServerPaginated {
			d.strategies[def.Type] = &serverPagedStrategy{dispatcher: d, def: def}
		} else {
			d.strategies[def.Type] = &collectionStrategy{dispatcher: d, def: def}
		}
	}
	return d, nil
}

// Search validates params, builds the query, and executes it through the
// resource's strategy.
func (d *Dispatcher) Search(ctx context.Context, p Params) ([]core.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	strat, ok := d.strategies[p.Resource]
	if !ok {
		return nil, core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"no search strategy registered for resource type %q", p.Resource)
	}

	def, _ := d.cfg.Registry.Get(p.Resource)
	q, err := buildQuery(def, p)
	if err != nil {
		return nil, err
	}

	records, err := strat.search(ctx, p, q)
	if err != nil {
		if core.IsRecoverableSearchError(err) {
			d.cfg.Logger.Warn("search degraded to empty result",
				"resource", p.Resource.String(), "search_type", string(p.Type), "error", err)
			d.cfg.Emit(core.Event{
				Kind:     core.EventSearchDegraded,
				Resource: p.Resource,
				Time:     time.Now(),
				Payload:  map[string]any{"search_type": string(p.Type), "error": err.Error()},
			})
			return []core.Record{}, nil
		}
		return nil, err
	}
	return records, nil
}

// PlanQuery validates params and returns the canonical query Search would
// execute, without touching the backend. Used for dry runs.
func PlanQuery(reg *registry.Registry, p Params) (core.Query, error) {
	if reg == nil {
		reg = registry.Global()
	}
	if err := p.Validate(); err != nil {
		return core.Query{}, err
	}
	def, ok := reg.Get(p.Resource)
	if !ok {
		return core.Query{}, core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"unknown resource type %q", p.Resource)
	}
	return buildQuery(def, p)
}

// buildQuery maps the search type to the canonical executor query.
func buildQuery(def registry.ResourceDef, p Params) (core.Query, error) {
	switch p.Type {
	case TypeBasic:
		if len(p.Filters) > 0 {
			return core.Query{Filter: p.Filters}, nil
		}
		if def.SupportsQuerySearch {
			return core.Query{Text: p.Query}, nil
		}
		return core.Query{Filter: ContainsFilter(def.BasicSearchFields, p.Query)}, nil

	case TypeContent:
		fields := p.ContentFields
		if len(fields) == 0 {
			fields = def.ContentSearchFields
		}
		return core.Query{Filter: ContainsFilter(fields, p.Query)}, nil

	case TypeRelationship:
		return core.Query{
			Filter: RelationshipFilter(p.RelationshipTargetType, p.RelationshipTargetID),
		}, nil

	case TypeTimeframe:
		filter := TimeframeFilter(p.TimeframeAttribute, p.DateOperator, p.StartDate, p.EndDate)
		if filter == nil {
			return core.Query{}, core.NewAdapterError(core.ErrCodeMissingSearchField,
				"unknown date operator %q", p.DateOperator)
		}
		return core.Query{Filter: filter}, nil

	case TypeAdvanced:
		return core.Query{Filter: p.Filters}, nil
	}

	return core.Query{}, core.NewAdapterError(core.ErrCodeMissingSearchField,
		"unknown search type %q", p.Type)
}

// serverPagedStrategy delegates pagination to the backend.
type serverPagedStrategy struct {
	dispatcher *Dispatcher
	def        registry.ResourceDef
}

func (s *serverPagedStrategy) search(ctx context.Context, p Params, q core.Query) ([]core.Record, error) {
	q.Limit = p.Limit
	if q.Limit <= 0 {
		q.Limit = s.dispatcher.cfg.DefaultLimit
	}
	q.Offset = p.Offset
	return s.dispatcher.cfg.Executor.Search(ctx, p.Resource, q)
}

// collectionStrategy serves resources without server-side pagination
// (tasks, lists): the entire collection is fetched once, cached, and
// filtered/paginated client-side.
type collectionStrategy struct {
	dispatcher *Dispatcher
	def        registry.ResourceDef
}

func (s *collectionStrategy) search(ctx context.Context, p Params, q core.Query) ([]core.Record, error) {
	d := s.dispatcher
	key := collectionKey(p.Resource)

	value, fromCache, err := d.cfg.Cache.GetOrLoad(ctx, key, d.cfg.CollectionTTL, func(ctx context.Context) (any, error) {
		// Limit/Offset zero: fetch everything.
		return d.cfg.Executor.Search(ctx, p.Resource, core.Query{})
	})
	if err != nil {
		return nil, err
	}
	all, ok := value.([]core.Record)
	if !ok {
		return nil, core.NewAdapterError(core.ErrCodeUpstreamFailure,
			"cached collection for %s has unexpected type %T", p.Resource, value)
	}

	if !fromCache && len(all) > d.cfg.VolumeWarnThreshold {
		d.cfg.Logger.Warn("large collection loaded without server-side pagination",
			"resource", p.Resource.String(), "count", len(all),
			"threshold", d.cfg.VolumeWarnThreshold)
	}

	matched := s.filterCollection(all, q)

	// Client-side pagination: offset past the dataset is an empty result,
	// not an error.
	if p.Offset >= len(matched) {
		return []core.Record{}, nil
	}
	limit := p.Limit
	if limit <= 0 {
		limit = d.cfg.DefaultLimit
	}
	end := p.Offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[p.Offset:end], nil
}

// filterCollection applies the built query client-side. The backend
// returned the raw collection, so the canonical filter tree (contains,
// relationship path, timeframe ranges, advanced trees) is evaluated here
// record by record. A query-capable resource leaves only text, matched
// against the resource's basic fields.
func (s *collectionStrategy) filterCollection(all []core.Record, q core.Query) []core.Record {
	text := strings.TrimSpace(q.Text)
	if len(q.Filter) == 0 && text == "" {
		return all
	}

	matched := make([]core.Record, 0, len(all))
	if len(q.Filter) > 0 {
		for _, record := range all {
			if matchesFilter(record, q.Filter) {
				matched = append(matched, record)
			}
		}
		return matched
	}

	needle := strings.ToLower(text)
	for _, record := range all {
		if recordMatches(record, s.def.BasicSearchFields, needle) {
			matched = append(matched, record)
		}
	}
	return matched
}

func recordMatches(record core.Record, fields []string, needle string) bool {
	for _, field := range fields {
		value, ok := record[field]
		if !ok {
			continue
		}
		text, ok := value.(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

func collectionKey(resource core.ResourceType) string {
	return fmt.Sprintf("collection:%s", resource)
}
