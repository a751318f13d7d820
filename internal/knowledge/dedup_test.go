package knowledge

import (
	"context"
	"testing"
)

func TestFindSimilarOrderingAndThreshold(t *testing.T) {
	store, backend := newTestStore()
	dedup := NewDeduplicator(backend)
	ctx := context.Background()

	problems := []string{
		"pytest async fixture setup fails with event loop closed",
		"pytest async fixture setup fails with loop already closed",
		"dockerfile layer caching busts on every go build",
		"kubernetes pod stuck in pending due to node taints",
	}
	for _, p := range problems {
		if _, err := store.Create(ctx, CreateParams{ProblemPattern: p, Solution: "fix it"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	results, err := dedup.FindSimilar(ctx, problems[0], 3, 0.0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(results) > 3 {
		t.Fatalf("got %d results, top_k was 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not in non-increasing similarity order at %d", i)
		}
	}
	if results[0].Entry.ProblemPattern != problems[0] {
		t.Errorf("top result = %q, want exact match", results[0].Entry.ProblemPattern)
	}

	// A high floor must drop everything below it.
	results, err = dedup.FindSimilar(ctx, problems[0], 10, 0.99)
	if err != nil {
		t.Fatalf("FindSimilar with floor: %v", err)
	}
	for _, r := range results {
		if r.Similarity < 0.99 {
			t.Errorf("result below min_similarity: %v", r.Similarity)
		}
	}
}

func TestFindSimilarValidation(t *testing.T) {
	_, backend := newTestStore()
	dedup := NewDeduplicator(backend)
	ctx := context.Background()

	_, err := dedup.FindSimilar(ctx, "", 5, 0.5)
	wantKind(t, err, KindSchemaValidation)

	_, err = dedup.FindSimilar(ctx, "text", 0, 0.5)
	wantKind(t, err, KindSchemaValidation)

	_, err = dedup.FindSimilar(ctx, "text", 5, 1.5)
	wantKind(t, err, KindSchemaValidation)
}

func TestCheckDuplicate(t *testing.T) {
	store, backend := newTestStore()
	dedup := NewDeduplicator(backend)
	ctx := context.Background()

	existing, err := store.Create(ctx, CreateParams{
		ProblemPattern: "http client leaks connections when body is not closed",
		Solution:       "always close resp.Body",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("identical text is a duplicate", func(t *testing.T) {
		match, err := dedup.CheckDuplicate(ctx, existing.ProblemPattern, 0.92, 5)
		if err != nil {
			t.Fatalf("CheckDuplicate: %v", err)
		}
		if match == nil {
			t.Fatal("expected a duplicate match")
		}
		if match.EntryID != existing.ID {
			t.Errorf("EntryID = %s, want %s", match.EntryID, existing.ID)
		}
		if match.Similarity < 0.92 {
			t.Errorf("Similarity = %v, want >= threshold", match.Similarity)
		}
	})

	t.Run("unrelated text is not a duplicate", func(t *testing.T) {
		match, err := dedup.CheckDuplicate(ctx, "zzzz 9999 ~~~~ unrelated symbols", 0.92, 5)
		if err != nil {
			t.Fatalf("CheckDuplicate: %v", err)
		}
		if match != nil {
			t.Errorf("unexpected match: %+v", match)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		_, emptyBackend := newTestStore()
		emptyDedup := NewDeduplicator(emptyBackend)
		match, err := emptyDedup.CheckDuplicate(ctx, "anything", 0.92, 5)
		if err != nil {
			t.Fatalf("CheckDuplicate: %v", err)
		}
		if match != nil {
			t.Errorf("unexpected match on empty store: %+v", match)
		}
	})
}
