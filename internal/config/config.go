package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourcesConfig lists the pages scraped at startup.
type SourcesConfig struct {
	URLs         []string `yaml:"urls"`
	TimeoutSecs  int      `yaml:"timeout_secs"`
	UserAgent    string   `yaml:"user_agent"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

// ChunkerConfig configures how extracted blocks are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// HashingEmbedderConfig configures the offline hashing embedder.
type HashingEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string                 `yaml:"type"`
	Hashing *HashingEmbedderConfig `yaml:"hashing,omitempty"`
	OpenAI  *OpenAIEmbedderConfig  `yaml:"openai,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant collection.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorIndexConfig selects and configures the vector index implementation.
type VectorIndexConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SQLiteConfig configures the SQLite metadata store.
type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
}

// MetadataStoreConfig selects the metadata store implementation.
type MetadataStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// RetrievalConfig configures nearest-neighbour retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// GeminiConfig configures the Gemini-style REST generator.
type GeminiConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// OpenAIGenerationConfig configures the chat completions generator.
type OpenAIGenerationConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// GenerationConfig selects the generator and holds the fixed generation parameters.
type GenerationConfig struct {
	Type            string                  `yaml:"type"`
	Temperature     float32                 `yaml:"temperature"`
	MaxOutputTokens int                     `yaml:"max_output_tokens"`
	TimeoutSecs     int                     `yaml:"timeout_secs"`
	Gemini          *GeminiConfig           `yaml:"gemini,omitempty"`
	OpenAI          *OpenAIGenerationConfig `yaml:"openai,omitempty"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SummarizerConfig configures the corpus summary.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Sources       SourcesConfig       `yaml:"sources"`
	Chunker       ChunkerConfig       `yaml:"chunker"`
	Embedder      EmbedderConfig      `yaml:"embedder"`
	VectorIndex   VectorIndexConfig   `yaml:"vector_index"`
	MetadataStore MetadataStoreConfig `yaml:"metadata_store"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Generation    GenerationConfig    `yaml:"generation"`
	Server        ServerConfig        `yaml:"server"`
	Summarizer    SummarizerConfig    `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/webrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/webrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown implementation types and impossible values.
// Credentials are checked by the component constructors.
func (c *AppConfig) Validate() error {
	check := func(field, value string, allowed ...string) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("unknown %s: %q", field, value)
	}
	if err := check("chunker.type", c.Chunker.Type, "block", "sentence"); err != nil {
		return err
	}
	if err := check("embedder.type", c.Embedder.Type, "hashing", "openai"); err != nil {
		return err
	}
	if err := check("vector_index.type", c.VectorIndex.Type, "memory", "qdrant"); err != nil {
		return err
	}
	if err := check("metadata_store.type", c.MetadataStore.Type, "memory", "sqlite"); err != nil {
		return err
	}
	if err := check("generation.type", c.Generation.Type, "gemini", "openai"); err != nil {
		return err
	}
	if c.VectorIndex.Type == "qdrant" && (c.VectorIndex.Qdrant == nil || c.VectorIndex.Qdrant.URL == "") {
		return errors.New("vector_index.qdrant.url is required")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature %v out of range [0,2]", c.Generation.Temperature)
	}
	if c.Embedder.Type == "hashing" && c.Embedder.Hashing.Dimension <= 0 {
		return fmt.Errorf("embedder.hashing.dimension must be positive, got %d", c.Embedder.Hashing.Dimension)
	}
	return nil
}

// SourceTimeout is the per-page fetch timeout.
func (c *AppConfig) SourceTimeout() time.Duration {
	return time.Duration(c.Sources.TimeoutSecs) * time.Second
}

// GenerationTimeout bounds each call to the generation API.
func (c *AppConfig) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSecs) * time.Second
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "webrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Sources.TimeoutSecs == 0 {
		cfg.Sources.TimeoutSecs = 10
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "webrag/1.0"
	}
	if cfg.Sources.MaxBodyBytes == 0 {
		cfg.Sources.MaxBodyBytes = 4 << 20
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "block"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	switch cfg.Embedder.Type {
	case "hashing":
		if cfg.Embedder.Hashing == nil {
			cfg.Embedder.Hashing = &HashingEmbedderConfig{}
		}
		if cfg.Embedder.Hashing.Dimension == 0 {
			cfg.Embedder.Hashing.Dimension = 384
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 5
		}
	}

	if cfg.VectorIndex.Type == "" {
		cfg.VectorIndex.Type = "memory"
	}
	if q := cfg.VectorIndex.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "webrag"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}

	if cfg.MetadataStore.Type == "" {
		cfg.MetadataStore.Type = "memory"
	}
	if cfg.MetadataStore.Type == "sqlite" {
		if cfg.MetadataStore.SQLite == nil {
			cfg.MetadataStore.SQLite = &SQLiteConfig{}
		}
		if cfg.MetadataStore.SQLite.DSN == "" {
			cfg.MetadataStore.SQLite.DSN = ":memory:"
		}
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}

	g := &cfg.Generation
	if g.Type == "" {
		g.Type = "gemini"
	}
	if g.Temperature == 0 {
		g.Temperature = 0.7
	}
	if g.MaxOutputTokens == 0 {
		g.MaxOutputTokens = 200
	}
	if g.TimeoutSecs == 0 {
		g.TimeoutSecs = 30
	}
	switch g.Type {
	case "gemini":
		if g.Gemini == nil {
			g.Gemini = &GeminiConfig{}
		}
		if g.Gemini.Endpoint == "" {
			g.Gemini.Endpoint = "https://generativelanguage.googleapis.com/v1beta2/models/text-bison-001:generate"
		}
		if g.Gemini.APIKeyEnv == "" {
			g.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
	case "openai":
		if g.OpenAI == nil {
			g.OpenAI = &OpenAIGenerationConfig{}
		}
		if g.OpenAI.APIKeyEnv == "" {
			g.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if g.OpenAI.Model == "" {
			g.OpenAI.Model = "gpt-4o-mini"
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
}
