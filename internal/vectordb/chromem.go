package vectordb

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/knowstore/internal/embeddings"
)

const (
	collectionName = "knowledge_patterns"
	snapshotFile   = "knowstore.gob.gz"
)

// ChromemStore implements VectorStore using chromem-go. Alongside the chromem
// collection it maintains an id-keyed index of documents so Get and All do not
// need an embedding round trip.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc

	mu    sync.RWMutex
	index map[string]Document
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
		index:      make(map[string]Document),
	}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	if doc.Embedding == nil {
		vec, err := s.embedFunc(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embed document: %w", err)
		}
		doc.Embedding = vec
	}
	doc.Metadata = maps.Clone(doc.Metadata)

	err := s.collection.AddDocuments(ctx, []chromem.Document{{
		ID:        doc.ID,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		Embedding: doc.Embedding,
	}}, 1)
	if err != nil {
		return fmt.Errorf("chromem add: %w", err)
	}

	s.mu.Lock()
	s.index[doc.ID] = doc
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Get(_ context.Context, id string) (Document, error) {
	s.mu.RLock()
	doc, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Metadata = maps.Clone(doc.Metadata)
	return doc, nil
}

func (s *ChromemStore) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	_, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}

	s.mu.Lock()
	delete(s.index, id)
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, text string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, text, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:        r.ID,
				Content:   r.Content,
				Metadata:  maps.Clone(r.Metadata),
				Embedding: r.Embedding,
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) All(_ context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.index))
	for _, doc := range s.index {
		doc.Metadata = maps.Clone(doc.Metadata)
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

func (s *ChromemStore) Persist(_ context.Context, dir string) error {
	return s.db.ExportToFile(filepath.Join(dir, snapshotFile), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, snapshotFile), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire the collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col

	return s.rebuildIndex(ctx)
}

// rebuildIndex repopulates the id index from the collection. chromem-go has no
// enumeration API, so a single ranked query over the full collection stands in
// for one.
func (s *ChromemStore) rebuildIndex(ctx context.Context) error {
	count := s.collection.Count()

	index := make(map[string]Document, count)
	if count > 0 {
		results, err := s.collection.Query(ctx, collectionName, count, nil, nil)
		if err != nil {
			return fmt.Errorf("chromem query for index rebuild: %w", err)
		}
		for _, r := range results {
			index[r.ID] = Document{
				ID:        r.ID,
				Content:   r.Content,
				Metadata:  maps.Clone(r.Metadata),
				Embedding: r.Embedding,
			}
		}
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return nil
}
