package config

import "path/filepath"

// DefaultConfigFile is the conventional config location in a project root.
const DefaultConfigFile = ".knowstore.yml"

// embeddingModels maps each provider to its default embedding model.
var embeddingModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingProvider:   ProviderOpenAI,
		EmbeddingModel:      embeddingModels[ProviderOpenAI],
		OllamaURL:           "http://localhost:11434",
		DataDir:             ".knowstore",
		Host:                "127.0.0.1",
		Port:                8750,
		SearchLimit:         10,
		SimilarityThreshold: 0.85,
		Dedup: DedupConfig{
			Threshold: 0.92,
			TopK:      5,
		},
		ToolTimeoutSeconds: 30,
	}
}

// DefaultEmbeddingModel returns the default model for the given provider.
func DefaultEmbeddingModel(provider ProviderType) string {
	if model, ok := embeddingModels[provider]; ok {
		return model
	}
	return embeddingModels[ProviderOpenAI]
}

// DatabasePath returns the audit database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "knowstore.db")
}
