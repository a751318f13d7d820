package vectordb

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists under the requested id.
var ErrNotFound = errors.New("document not found")

// Document is a single embedded record. Content is the text that gets
// embedded; Metadata is a flat string map, the shape chromem-go stores
// natively.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string

	// Embedding is the vector for Content. Optional on Upsert; when set the
	// store reuses it instead of recomputing.
	Embedding []float32
}

// SearchResult pairs a document with its similarity score in [0, 1].
type SearchResult struct {
	Document   Document
	Similarity float32
}

// VectorStore is the similarity backend: embedding, nearest-neighbor search,
// and persistence of (vector, payload) pairs keyed by id.
type VectorStore interface {
	// Upsert inserts or replaces the document under its id.
	Upsert(ctx context.Context, doc Document) error

	// Get fetches a document by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (Document, error)

	// Delete removes the document and its vector. Deleting an unknown id is
	// not an error.
	Delete(ctx context.Context, id string) error

	// Query embeds the text and returns up to topK nearest documents in
	// non-increasing similarity order.
	Query(ctx context.Context, text string, topK int) ([]SearchResult, error)

	// All returns every stored document, in no particular order.
	All(ctx context.Context) ([]Document, error)

	// Count returns the number of stored documents.
	Count() int

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error
}
