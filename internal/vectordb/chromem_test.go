package vectordb

import (
	"context"
	"math"
	"testing"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Similar texts produce similar vectors because shared characters contribute
// to the same positions in the vector.
type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(&mockEmbedder{dims: 64})
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	return store
}

func TestUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := Document{
		ID:      "doc-1",
		Content: "pytest fixtures not found in conftest",
		Metadata: map[string]string{
			"status": "active",
			"tags":   "pytest,fixtures",
		},
	}

	if err := store.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}

	got, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != doc.Content {
		t.Errorf("Content = %q, want %q", got.Content, doc.Content)
	}
	if got.Metadata["status"] != "active" {
		t.Errorf("Metadata[status] = %q, want active", got.Metadata["status"])
	}
	if len(got.Embedding) == 0 {
		t.Error("expected embedding to be populated on Get")
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if err != ErrNotFound {
		t.Fatalf("Get missing id: err = %v, want ErrNotFound", err)
	}
}

func TestUpsertOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := Document{
		ID:       "doc-1",
		Content:  "goroutine leak in worker pool",
		Metadata: map[string]string{"status": "active"},
	}
	if err := store.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Replace metadata, reusing the stored embedding.
	stored, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	stored.Metadata["status"] = "archived"
	if err := store.Upsert(ctx, stored); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}

	if got := store.Count(); got != 1 {
		t.Fatalf("Count after overwrite = %d, want 1", got)
	}
	got, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if got.Metadata["status"] != "archived" {
		t.Errorf("Metadata[status] = %q, want archived", got.Metadata["status"])
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, Document{ID: "doc-1", Content: "something"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := store.Count(); got != 0 {
		t.Errorf("Count after delete = %d, want 0", got)
	}
	if _, err := store.Get(ctx, "doc-1"); err != ErrNotFound {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}

	// Deleting an unknown id is not an error.
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing id: %v", err)
	}
}

func TestQueryOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "a", Content: "pytest async fixture setup fails"},
		{ID: "b", Content: "pytest async fixture setup failure"},
		{ID: "c", Content: "dockerfile layer caching for go builds"},
	}
	for _, d := range docs {
		if err := store.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert %s: %v", d.ID, err)
		}
	}

	results, err := store.Query(ctx, "pytest async fixture setup fails", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not in non-increasing similarity order: %v > %v at %d",
				results[i].Similarity, results[i-1].Similarity, i)
		}
	}
	if results[0].Document.ID != "a" {
		t.Errorf("top result = %s, want a", results[0].Document.ID)
	}

	// topK caps the result count.
	results, err = store.Query(ctx, "pytest", 1)
	if err != nil {
		t.Fatalf("Query topK=1: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestQueryEmptyStore(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results on empty store, got %v", results)
	}
}

func TestPersistAndLoad(t *testing.T) {
	embedder := &mockEmbedder{dims: 64}
	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	ctx := context.Background()

	docs := []Document{
		{ID: "p1", Content: "nil pointer in http handler", Metadata: map[string]string{"status": "active"}},
		{ID: "p2", Content: "sql connection pool exhaustion", Metadata: map[string]string{"status": "canonical"}},
	}
	for _, d := range docs {
		if err := store.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert %s: %v", d.ID, err)
		}
	}

	dir := t.TempDir()
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store2, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore for load: %v", err)
	}
	if err := store2.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := store2.Count(); got != 2 {
		t.Fatalf("Count after load = %d, want 2", got)
	}

	// The id index must be rebuilt so Get works without a search.
	got, err := store2.Get(ctx, "p2")
	if err != nil {
		t.Fatalf("Get after load: %v", err)
	}
	if got.Metadata["status"] != "canonical" {
		t.Errorf("Metadata[status] = %q, want canonical", got.Metadata["status"])
	}

	all, err := store2.All(ctx)
	if err != nil {
		t.Fatalf("All after load: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("All returned %d docs, want 2", len(all))
	}
}
