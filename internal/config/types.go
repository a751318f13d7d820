package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level knowstore configuration, corresponding to
// .knowstore.yml.
type Config struct {
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	OllamaURL         string       `yaml:"ollama_url" koanf:"ollama_url"`

	// DataDir holds the vector-store snapshot and the audit database.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`

	SearchLimit         int     `yaml:"search_limit" koanf:"search_limit"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" koanf:"similarity_threshold"`

	Dedup DedupConfig `yaml:"dedup" koanf:"dedup"`

	// ToolTimeoutSeconds bounds a single execute_tool call.
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds" koanf:"tool_timeout_seconds"`
}

// DedupConfig holds creation-time duplicate-guard settings.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold" koanf:"threshold"`
	TopK      int     `yaml:"top_k" koanf:"top_k"`
}
