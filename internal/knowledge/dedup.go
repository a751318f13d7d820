package knowledge

import (
	"context"
	"strings"

	"github.com/ziadkadry99/knowstore/internal/vectordb"
)

// Dedup defaults, tuned for creation-time duplicate refusal: the guard
// threshold sits well above the plain similarity-search default.
const (
	DefaultDedupThreshold      = 0.92
	DefaultDedupTopK           = 5
	DefaultSimilarityThreshold = 0.85
)

// Deduplicator decides whether a candidate problem description duplicates an
// existing entry, using the backend's nearest-neighbor search.
type Deduplicator struct {
	backend vectordb.VectorStore
}

// NewDeduplicator creates a Deduplicator over the given backend.
func NewDeduplicator(backend vectordb.VectorStore) *Deduplicator {
	return &Deduplicator{backend: backend}
}

// Match reports an existing entry that clears the dedup threshold.
type Match struct {
	EntryID    string  `json:"entry_id"`
	Similarity float64 `json:"similarity_score"`
	Entry      Entry   `json:"entry"`
}

// FindSimilar returns entries similar to the given problem text, in
// non-increasing similarity order, capped at topK and filtered below
// minSimilarity.
func (d *Deduplicator) FindSimilar(ctx context.Context, text string, topK int, minSimilarity float64) ([]SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, schemaErrf("text", "must not be empty")
	}
	if topK <= 0 {
		return nil, schemaErrf("top_k", "must be positive")
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, schemaErrf("min_similarity", "%v is outside [0, 1]", minSimilarity)
	}

	hits, err := d.backend.Query(ctx, text, topK)
	if err != nil {
		return nil, backendErr("similarity query", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		score := float64(hit.Similarity)
		if score < minSimilarity {
			continue
		}
		results = append(results, SearchResult{
			Entry:      documentToEntry(hit.Document),
			Similarity: score,
		})
	}
	return results, nil
}

// CheckDuplicate is the dedup guard for entry creation: it returns the best
// match at or above threshold, or nil when creation should proceed.
func (d *Deduplicator) CheckDuplicate(ctx context.Context, text string, threshold float64, topK int) (*Match, error) {
	results, err := d.FindSimilar(ctx, text, topK, threshold)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	best := results[0]
	return &Match{
		EntryID:    best.Entry.ID,
		Similarity: best.Similarity,
		Entry:      best.Entry,
	}, nil
}
