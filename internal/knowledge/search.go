package knowledge

import (
	"context"
	"strings"
)

// DefaultSearchLimit is used when the caller doesn't cap result count.
const DefaultSearchLimit = 10

// When a filter is set the backend is asked for extra candidates, since
// filtering happens after the nearest-neighbor ranking.
const filterFetchFactor = 5

// Search runs a semantic query with optional metadata filters. Results come
// back in non-increasing similarity order, at most limit of them, all at or
// above minSimilarity.
func (s *Store) Search(ctx context.Context, query string, limit int, minSimilarity float64, filter ListFilter) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, schemaErrf("query", "must not be empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, schemaErrf("min_similarity", "%v is outside [0, 1]", minSimilarity)
	}

	fetchK := limit
	if !filter.IsZero() {
		fetchK = limit * filterFetchFactor
	}

	hits, err := s.backend.Query(ctx, query, fetchK)
	if err != nil {
		return nil, backendErr("search", err)
	}

	results := make([]SearchResult, 0, limit)
	for _, hit := range hits {
		score := float64(hit.Similarity)
		if score < minSimilarity {
			continue
		}
		entry := documentToEntry(hit.Document)
		if !filter.Matches(entry) {
			continue
		}
		results = append(results, SearchResult{Entry: entry, Similarity: score})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
