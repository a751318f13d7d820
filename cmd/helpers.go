package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/knowstore/internal/audit"
	"github.com/ziadkadry99/knowstore/internal/catalog"
	"github.com/ziadkadry99/knowstore/internal/config"
	"github.com/ziadkadry99/knowstore/internal/db"
	"github.com/ziadkadry99/knowstore/internal/dispatch"
	"github.com/ziadkadry99/knowstore/internal/embeddings"
	"github.com/ziadkadry99/knowstore/internal/knowledge"
	"github.com/ziadkadry99/knowstore/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `knowstore init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.DefaultEmbeddingModel(cfg.EmbeddingProvider)
	}

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// components holds everything a transport command needs: the vector-backed
// knowledge store, the dispatcher, and the SQLite audit sidecar.
type components struct {
	backend    *vectordb.ChromemStore
	store      *knowledge.Store
	dedup      *knowledge.Deduplicator
	audits     *audit.Store
	dispatcher *dispatch.Dispatcher
	database   *db.DB
}

func (c *components) Close() {
	if c.database != nil {
		c.database.Close()
	}
}

// buildComponents wires the full stack from config: embedder, vector store
// (loading the snapshot from the data dir when present), knowledge store,
// deduplicator, audit log and dispatcher.
func buildComponents(cfg *config.Config) (*components, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	backend, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	if err := backend.Load(context.Background(), cfg.DataDir); err != nil {
		// The store may simply be empty on first run.
		fmt.Fprintf(os.Stderr, "Warning: could not load vector store from %s: %v\n", cfg.DataDir, err)
	}

	cat, err := catalog.New()
	if err != nil {
		return nil, fmt.Errorf("building tool catalog: %w", err)
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	store := knowledge.NewStore(backend)
	dedup := knowledge.NewDeduplicator(backend)
	audits := audit.NewStore(database)

	d := dispatch.New(cat, store, dedup,
		dispatch.WithAudit(audits),
		dispatch.WithTimeout(time.Duration(cfg.ToolTimeoutSeconds)*time.Second),
		dispatch.WithDefaults(dispatch.Defaults{
			SearchLimit:         cfg.SearchLimit,
			SimilarityThreshold: cfg.SimilarityThreshold,
			DedupThreshold:      cfg.Dedup.Threshold,
			DedupTopK:           cfg.Dedup.TopK,
		}),
	)

	return &components{
		backend:    backend,
		store:      store,
		dedup:      dedup,
		audits:     audits,
		dispatcher: d,
		database:   database,
	}, nil
}
