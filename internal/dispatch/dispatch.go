// Package dispatch implements the gateway's three meta-operations: tool
// discovery, tool specification lookup, and schema-validated execution. Every
// transport (MCP stdio, HTTP) goes through the same Dispatcher.
package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/ziadkadry99/knowstore/internal/audit"
	"github.com/ziadkadry99/knowstore/internal/catalog"
	"github.com/ziadkadry99/knowstore/internal/knowledge"
)

// DefaultTimeout bounds a single tool execution when the caller doesn't set one.
const DefaultTimeout = 30 * time.Second

type handlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Dispatcher routes execute_tool calls to their handlers after parameter
// validation, and records successful mutations in the audit log.
type Dispatcher struct {
	catalog  *catalog.Catalog
	store    *knowledge.Store
	dedup    *knowledge.Deduplicator
	audit    *audit.Store
	timeout  time.Duration
	defaults Defaults
	handlers map[string]handlerFunc
}

// Defaults are the fallback values used when a call omits an optional tuning
// parameter. Zero fields keep the built-in values.
type Defaults struct {
	SearchLimit         int
	SimilarityThreshold float64
	DedupThreshold      float64
	DedupTopK           int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout overrides the per-call execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithAudit enables audit logging of successful mutations.
func WithAudit(store *audit.Store) Option {
	return func(disp *Dispatcher) { disp.audit = store }
}

// WithDefaults overrides the fallbacks for optional tool parameters.
func WithDefaults(def Defaults) Option {
	return func(disp *Dispatcher) {
		if def.SearchLimit > 0 {
			disp.defaults.SearchLimit = def.SearchLimit
		}
		if def.SimilarityThreshold > 0 {
			disp.defaults.SimilarityThreshold = def.SimilarityThreshold
		}
		if def.DedupThreshold > 0 {
			disp.defaults.DedupThreshold = def.DedupThreshold
		}
		if def.DedupTopK > 0 {
			disp.defaults.DedupTopK = def.DedupTopK
		}
	}
}

// New creates a Dispatcher over the given catalog and knowledge store.
func New(cat *catalog.Catalog, store *knowledge.Store, dedup *knowledge.Deduplicator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog: cat,
		store:   store,
		dedup:   dedup,
		timeout: DefaultTimeout,
		defaults: Defaults{
			SearchLimit:         knowledge.DefaultSearchLimit,
			SimilarityThreshold: knowledge.DefaultSimilarityThreshold,
			DedupThreshold:      knowledge.DefaultDedupThreshold,
			DedupTopK:           knowledge.DefaultDedupTopK,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[string]handlerFunc{
		"add_entry":    d.handleAddEntry,
		"get_entry":    d.handleGetEntry,
		"update_entry": d.handleUpdateEntry,
		"delete_entry": d.handleDeleteEntry,
		"search":       d.handleSearch,
		"find_similar": d.handleFindSimilar,
		"list_entries": d.handleListEntries,
		"get_stats":    d.handleGetStats,
	}
	return d
}

// DiscoverTools lists registered tools, optionally narrowed by category and a
// name/description substring.
func (d *Dispatcher) DiscoverTools(category, pattern string) []catalog.Summary {
	return d.catalog.List(category, pattern)
}

// GetToolSpec returns the full descriptor for one tool.
func (d *Dispatcher) GetToolSpec(name string) (*catalog.Descriptor, error) {
	return d.catalog.Lookup(name)
}

// ExecuteTool validates params against the tool's schema and runs it. No
// handler runs, and no state changes, when validation fails. Returned errors
// are always extractable as *knowledge.Error.
func (d *Dispatcher) ExecuteTool(ctx context.Context, name string, params map[string]any) (any, error) {
	desc, err := d.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := desc.Validate(params); err != nil {
		return nil, err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result, err := d.handlers[name](ctx, params)
	if err != nil {
		return nil, knowledge.Convert(err)
	}
	return result, nil
}

// Envelope is the uniform execute_tool response shape: exactly one of Result
// or Error is set.
type Envelope struct {
	Result any              `json:"result,omitempty"`
	Error  *knowledge.Error `json:"error,omitempty"`
}

// Execute wraps ExecuteTool into an Envelope for transports.
func (d *Dispatcher) Execute(ctx context.Context, name string, params map[string]any) Envelope {
	result, err := d.ExecuteTool(ctx, name, params)
	if err != nil {
		return Envelope{Error: knowledge.Convert(err)}
	}
	return Envelope{Result: result}
}

// record appends to the audit log, best effort: a failed audit write never
// fails the mutation it describes.
func (d *Dispatcher) record(ctx context.Context, rec audit.Record) {
	if d.audit == nil {
		return
	}
	if err := d.audit.Log(ctx, rec); err != nil {
		log.Printf("audit log write failed: %v", err)
	}
}

func (d *Dispatcher) handleAddEntry(ctx context.Context, params map[string]any) (any, error) {
	problem := stringParam(params, "problem_pattern", "")

	if boolParam(params, "dedup_check", true) {
		match, err := d.dedup.CheckDuplicate(ctx, problem,
			floatParam(params, "dedup_threshold", d.defaults.DedupThreshold),
			intParam(params, "dedup_top_k", d.defaults.DedupTopK),
		)
		if err != nil {
			return nil, err
		}
		if match != nil {
			return map[string]any{
				"created":          false,
				"duplicate_of":     match.EntryID,
				"similarity_score": match.Similarity,
			}, nil
		}
	}

	cp := knowledge.CreateParams{
		ProblemPattern: problem,
		Solution:       stringParam(params, "solution", ""),
		CodeExample:    stringParam(params, "code_example", ""),
		Tags:           stringSliceParam(params, "tags"),
		PatternType:    knowledge.PatternType(stringParam(params, "pattern_type", "")),
		SourceSession:  stringParam(params, "source_session", ""),
		SourceType:     knowledge.SourceType(stringParam(params, "source_type", "")),
	}
	if v, ok := params["quality_score"]; ok {
		if f, err := floatValue(v); err == nil {
			cp.QualityScore = &f
		}
	}

	entry, err := d.store.Create(ctx, cp)
	if err != nil {
		return nil, err
	}

	action := audit.ActionEntryAdded
	if entry.SourceType == knowledge.SourceSeeded {
		action = audit.ActionEntrySeeded
	}
	d.record(ctx, audit.Record{Action: action, EntryID: entry.ID, Tool: "add_entry"})

	return map[string]any{
		"created":  true,
		"entry_id": entry.ID,
		"entry":    entry,
	}, nil
}

func (d *Dispatcher) handleGetEntry(ctx context.Context, params map[string]any) (any, error) {
	entry, err := d.store.Get(ctx, stringParam(params, "entry_id", ""))
	if err != nil {
		return nil, err
	}
	return map[string]any{"entry": entry}, nil
}

func (d *Dispatcher) handleUpdateEntry(ctx context.Context, params map[string]any) (any, error) {
	id := stringParam(params, "entry_id", "")
	updates := mapParam(params, "updates")

	entry, err := d.store.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(updates))
	for field := range updates {
		changed = append(changed, field)
	}
	d.record(ctx, audit.Record{
		Action:        audit.ActionEntryUpdated,
		EntryID:       id,
		Tool:          "update_entry",
		ChangedFields: changed,
	})

	return map[string]any{"entry": entry}, nil
}

func (d *Dispatcher) handleDeleteEntry(ctx context.Context, params map[string]any) (any, error) {
	id := stringParam(params, "entry_id", "")
	if err := d.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	d.record(ctx, audit.Record{Action: audit.ActionEntryDeleted, EntryID: id, Tool: "delete_entry"})
	return map[string]any{"deleted": true, "entry_id": id}, nil
}

func (d *Dispatcher) handleSearch(ctx context.Context, params map[string]any) (any, error) {
	results, err := d.store.Search(ctx,
		stringParam(params, "query", ""),
		intParam(params, "limit", d.defaults.SearchLimit),
		floatParam(params, "min_similarity", 0),
		filterParam(params, "filters"),
	)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results, "count": len(results)}, nil
}

func (d *Dispatcher) handleFindSimilar(ctx context.Context, params map[string]any) (any, error) {
	results, err := d.dedup.FindSimilar(ctx,
		stringParam(params, "text", ""),
		intParam(params, "top_k", 10),
		floatParam(params, "min_similarity", d.defaults.SimilarityThreshold),
	)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results, "count": len(results)}, nil
}

func (d *Dispatcher) handleListEntries(ctx context.Context, params map[string]any) (any, error) {
	entries, nextCursor, err := d.store.List(ctx,
		filterParam(params, "filters"),
		stringParam(params, "cursor", ""),
		intParam(params, "page_size", 0),
	)
	if err != nil {
		return nil, err
	}
	result := map[string]any{"entries": entries, "count": len(entries)}
	if nextCursor != "" {
		result["next_cursor"] = nextCursor
	}
	return result, nil
}

func (d *Dispatcher) handleGetStats(ctx context.Context, params map[string]any) (any, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
