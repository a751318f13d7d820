package knowledge

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/knowstore/internal/vectordb"
)

// DefaultQualityScore is assigned when Create is called without one.
const DefaultQualityScore = 0.5

const defaultPageSize = 100

// immutableFields are write-once: present in an update, the whole update is
// rejected. Order is fixed so the reported field is deterministic.
var immutableFields = []string{
	"id", "problem_pattern", "solution", "code_example",
	"created_at", "source_session", "source_type",
}

// mutableFields is the allow-list for Store.Update.
var mutableFields = map[string]bool{
	"tags":            true,
	"pattern_type":    true,
	"quality_score":   true,
	"times_applied":   true,
	"success_count":   true,
	"failure_count":   true,
	"status":          true,
	"superseded_by":   true,
	"last_applied_at": true,
}

// statusTransitions is the single source of truth for the lifecycle state
// machine. superseded is terminal.
var statusTransitions = map[Status]map[Status]bool{
	StatusActive: {
		StatusCanonical:  true,
		StatusArchived:   true,
		StatusSuperseded: true,
	},
	StatusCanonical: {
		StatusArchived:   true,
		StatusSuperseded: true,
	},
	StatusArchived: {
		StatusActive: true,
	},
	StatusSuperseded: {},
}

// Store owns the id → Entry mapping on top of the similarity backend, and
// enforces field mutability and status transitions.
type Store struct {
	backend vectordb.VectorStore
	now     func() time.Time
	newID   func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a Store over the given similarity backend.
func NewStore(backend vectordb.VectorStore) *Store {
	return &Store{
		backend: backend,
		// Round(0) strips the monotonic clock reading so timestamps compare
		// cleanly after a codec round trip.
		now:     func() time.Time { return time.Now().UTC().Round(0) },
		newID:   uuid.NewString,
		locks:   make(map[string]*sync.Mutex),
	}
}

// entryLock returns the mutex serializing updates to one entry id.
func (s *Store) entryLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create validates the params, assigns a fresh id and timestamps, and inserts
// the embedded entry into the backend. On backend failure the entry is not
// created.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Entry, error) {
	if strings.TrimSpace(p.ProblemPattern) == "" {
		return nil, schemaErrf("problem_pattern", "must not be empty")
	}
	if strings.TrimSpace(p.Solution) == "" {
		return nil, schemaErrf("solution", "must not be empty")
	}

	patternType := p.PatternType
	if patternType == "" {
		patternType = TypeBugfix
	}
	if !patternType.Valid() {
		return nil, schemaErrf("pattern_type", "%q is not one of %v", patternType, PatternTypes)
	}

	sourceType := p.SourceType
	if sourceType == "" {
		sourceType = SourceSession
	}
	if !sourceType.Valid() {
		return nil, schemaErrf("source_type", "%q is not one of %v", sourceType, SourceTypes)
	}

	quality := DefaultQualityScore
	if p.QualityScore != nil {
		quality = *p.QualityScore
	}
	if quality < 0 || quality > 1 {
		return nil, schemaErrf("quality_score", "%v is outside [0, 1]", quality)
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.now()
	entry := Entry{
		ID:             s.newID(),
		ProblemPattern: p.ProblemPattern,
		Solution:       p.Solution,
		CodeExample:    p.CodeExample,
		Tags:           tags,
		PatternType:    patternType,
		QualityScore:   quality,
		Status:         StatusActive,
		SourceSession:  p.SourceSession,
		SourceType:     sourceType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.backend.Upsert(ctx, entryToDocument(entry)); err != nil {
		return nil, backendErr("create entry", err)
	}
	return &entry, nil
}

// Get fetches an entry by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	doc, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, vectordb.ErrNotFound) {
			return nil, notFoundf("entry %q not found", id)
		}
		return nil, backendErr("get entry", err)
	}
	entry := documentToEntry(doc)
	return &entry, nil
}

// Update applies a sparse field update to one entry. The whole batch is
// validated before any write: immutable or unknown fields, bad values, and
// disallowed status transitions all reject the update without touching the
// stored record. Concurrent updates to the same id are serialized.
func (s *Store) Update(ctx context.Context, id string, updates map[string]any) (*Entry, error) {
	if len(updates) == 0 {
		return nil, schemaErrf("updates", "no fields to update")
	}
	for _, f := range immutableFields {
		if _, ok := updates[f]; ok {
			return nil, immutableErr(f)
		}
	}
	fields := make([]string, 0, len(updates))
	for f := range updates {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if !mutableFields[f] {
			return nil, schemaErrf(f, "unknown field")
		}
	}

	lock := s.entryLock(id)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, vectordb.ErrNotFound) {
			return nil, notFoundf("entry %q not found", id)
		}
		return nil, backendErr("get entry", err)
	}
	entry := documentToEntry(doc)

	next, err := s.applyUpdates(ctx, entry, updates)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	// The problem pattern is write-once, so the stored embedding is reused
	// verbatim; only the metadata payload changes.
	updated := entryToDocument(*next)
	updated.Embedding = doc.Embedding
	if err := s.backend.Upsert(ctx, updated); err != nil {
		return nil, backendErr("update entry", err)
	}
	return next, nil
}

// applyUpdates validates and applies the sparse update on a copy of cur.
func (s *Store) applyUpdates(ctx context.Context, cur Entry, updates map[string]any) (*Entry, error) {
	next := cur
	next.Tags = append([]string(nil), cur.Tags...)

	if v, ok := updates["tags"]; ok {
		tags, err := toStringSlice(v)
		if err != nil {
			return nil, schemaErrf("tags", "%v", err)
		}
		next.Tags = tags
	}

	if v, ok := updates["pattern_type"]; ok {
		str, err := toString(v)
		if err != nil {
			return nil, schemaErrf("pattern_type", "%v", err)
		}
		pt := PatternType(str)
		if !pt.Valid() {
			return nil, schemaErrf("pattern_type", "%q is not one of %v", str, PatternTypes)
		}
		next.PatternType = pt
	}

	if v, ok := updates["quality_score"]; ok {
		f, err := toFloat(v)
		if err != nil {
			return nil, schemaErrf("quality_score", "%v", err)
		}
		if f < 0 || f > 1 {
			return nil, schemaErrf("quality_score", "%v is outside [0, 1]", f)
		}
		next.QualityScore = f
	}

	for field, dst := range map[string]*int{
		"times_applied": &next.TimesApplied,
		"success_count": &next.SuccessCount,
		"failure_count": &next.FailureCount,
	} {
		v, ok := updates[field]
		if !ok {
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return nil, schemaErrf(field, "%v", err)
		}
		if n < 0 {
			return nil, schemaErrf(field, "must be non-negative")
		}
		*dst = n
	}

	if v, ok := updates["last_applied_at"]; ok {
		t, err := toTime(v)
		if err != nil {
			return nil, schemaErrf("last_applied_at", "%v", err)
		}
		next.LastAppliedAt = &t
	}

	if err := s.applyStatusChange(ctx, cur, &next, updates); err != nil {
		return nil, err
	}
	return &next, nil
}

// applyStatusChange enforces the transition table and the superseded_by
// coupling: superseded_by may only be set together with a transition to
// superseded, and must resolve to an existing entry.
func (s *Store) applyStatusChange(ctx context.Context, cur Entry, next *Entry, updates map[string]any) error {
	var requested Status
	if v, ok := updates["status"]; ok {
		str, err := toString(v)
		if err != nil {
			return schemaErrf("status", "%v", err)
		}
		requested = Status(str)
		if !requested.Valid() {
			return schemaErrf("status", "%q is not one of %v", str, Statuses)
		}
	}

	supersededBy, hasSupersededBy := "", false
	if v, ok := updates["superseded_by"]; ok {
		str, err := toString(v)
		if err != nil {
			return schemaErrf("superseded_by", "%v", err)
		}
		supersededBy, hasSupersededBy = str, true
	}

	if requested == "" || requested == cur.Status {
		if hasSupersededBy {
			return schemaErrf("superseded_by", "can only be set together with a transition to status=superseded")
		}
		return nil
	}

	if !statusTransitions[cur.Status][requested] {
		return transitionErrf("transition %s -> %s is not allowed", cur.Status, requested)
	}

	if requested == StatusSuperseded {
		if !hasSupersededBy || supersededBy == "" {
			return transitionErrf("transition to superseded requires superseded_by")
		}
		if supersededBy == cur.ID {
			return danglingErrf("entry cannot supersede itself")
		}
		if _, err := s.backend.Get(ctx, supersededBy); err != nil {
			if errors.Is(err, vectordb.ErrNotFound) {
				return danglingErrf("superseding entry %q does not exist", supersededBy)
			}
			return backendErr("resolve superseded_by", err)
		}
		next.SupersededBy = supersededBy
	} else if hasSupersededBy {
		return schemaErrf("superseded_by", "can only be set together with a transition to status=superseded")
	}

	next.Status = requested
	return nil
}

// Delete removes the entry and its embedding. Irreversible; archiving via
// Update is the recommended path.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.backend.Get(ctx, id); err != nil {
		if errors.Is(err, vectordb.ErrNotFound) {
			return notFoundf("entry %q not found", id)
		}
		return backendErr("get entry", err)
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		return backendErr("delete entry", err)
	}
	return nil
}

// List returns one page of entries matching the filter, ordered by created_at
// descending with ties broken by id, plus a cursor for the next page ("" when
// exhausted).
func (s *Store) List(ctx context.Context, filter ListFilter, cursor string, pageSize int) ([]Entry, string, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	docs, err := s.backend.All(ctx)
	if err != nil {
		return nil, "", backendErr("list entries", err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		e := documentToEntry(doc)
		if filter.Matches(e) {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})

	start := 0
	if cursor != "" {
		afterTime, afterID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		for start < len(entries) {
			e := entries[start]
			if e.CreatedAt.Before(afterTime) || (e.CreatedAt.Equal(afterTime) && e.ID > afterID) {
				break
			}
			start++
		}
	}

	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}
	page := entries[start:end]

	nextCursor := ""
	if end < len(entries) && len(page) > 0 {
		last := page[len(page)-1]
		nextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return page, nextCursor, nil
}

// Stats aggregates collection-level counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.backend.All(ctx)
	if err != nil {
		return nil, backendErr("collect stats", err)
	}

	stats := &Stats{
		EntriesByStatus: make(map[string]int),
		EntriesByType:   make(map[string]int),
		TopTags:         []TagCount{},
	}

	tagCounts := make(map[string]int)
	var qualitySum float64
	for _, doc := range docs {
		e := documentToEntry(doc)
		stats.TotalEntries++
		stats.EntriesByStatus[string(e.Status)]++
		stats.EntriesByType[string(e.PatternType)]++
		qualitySum += e.QualityScore
		for _, tag := range e.Tags {
			tagCounts[tag]++
		}
	}
	if stats.TotalEntries > 0 {
		stats.AvgQualityScore = qualitySum / float64(stats.TotalEntries)
	}

	for tag, count := range tagCounts {
		stats.TopTags = append(stats.TopTags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count != stats.TopTags[j].Count {
			return stats.TopTags[i].Count > stats.TopTags[j].Count
		}
		return stats.TopTags[i].Tag < stats.TopTags[j].Tag
	})
	if len(stats.TopTags) > 10 {
		stats.TopTags = stats.TopTags[:10]
	}
	return stats, nil
}

// Persist saves the backend's data to dir.
func (s *Store) Persist(ctx context.Context, dir string) error {
	return s.backend.Persist(ctx, dir)
}

// Load restores the backend's data from dir.
func (s *Store) Load(ctx context.Context, dir string) error {
	return s.backend.Load(ctx, dir)
}

func encodeCursor(t time.Time, id string) string {
	raw := t.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", schemaErrf("cursor", "malformed cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", schemaErrf("cursor", "malformed cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", schemaErrf("cursor", "malformed cursor timestamp")
	}
	return t, parts[1], nil
}

// Loose decoders for JSON-shaped update values.

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func toStringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...), nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string elements, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array of strings, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch vv := v.(type) {
	case float64:
		return vv, nil
	case float32:
		return float64(vv), nil
	case int:
		return float64(vv), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toInt(v any) (int, error) {
	switch vv := v.(type) {
	case int:
		return vv, nil
	case float64:
		if vv != float64(int(vv)) {
			return 0, fmt.Errorf("expected integer, got %v", vv)
		}
		return int(vv), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch vv := v.(type) {
	case time.Time:
		return vv, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, vv)
		if err != nil {
			return time.Time{}, fmt.Errorf("expected RFC 3339 timestamp: %v", err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("expected RFC 3339 timestamp string, got %T", v)
	}
}
