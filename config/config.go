// Package config loads the application configuration from an optional YAML
// file with environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultTemperature    = 0.0
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 5
	DefaultMaxRewrites    = 2
	DefaultCollectionName = "rag_documents"
	DefaultChromaHost     = "localhost"
	DefaultChromaPort     = 8000
)

// Config is the full application configuration.
type Config struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Chroma    ChromaConfig    `yaml:"chroma"`
	Documents DocumentsConfig `yaml:"documents"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
}

// OpenAIConfig configures the chat and embedding models.
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
}

// ChromaConfig points at an external Chroma server.
type ChromaConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	CollectionName string `yaml:"collection_name"`
}

// URL returns the server URL.
func (c ChromaConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// DocumentsConfig configures ingestion.
type DocumentsConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	DataDir      string `yaml:"data_dir"`
}

// WorkflowConfig configures the retrieval loop.
type WorkflowConfig struct {
	TopK        int `yaml:"top_k"`
	MaxRewrites int `yaml:"max_rewrites"`
}

// RedisConfig configures the optional Redis session store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig configures the optional Postgres session store.
type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
}

// SQLiteConfig configures the optional SQLite session store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration with all defaults applied.
func Default() Config {
	return Config{
		OpenAI: OpenAIConfig{
			Model:          DefaultModel,
			EmbeddingModel: DefaultEmbeddingModel,
			Temperature:    DefaultTemperature,
		},
		Chroma: ChromaConfig{
			Host:           DefaultChromaHost,
			Port:           DefaultChromaPort,
			CollectionName: DefaultCollectionName,
		},
		Documents: DocumentsConfig{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			DataDir:      "data/raw",
		},
		Workflow: WorkflowConfig{
			TopK:        DefaultTopK,
			MaxRewrites: DefaultMaxRewrites,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// doesn't exist), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the loaded values.
func (c *Config) applyEnv() error {
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "DEFAULT_MODEL")
	setString(&c.OpenAI.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&c.Chroma.Host, "CHROMA_HOST")
	setString(&c.Chroma.CollectionName, "DEFAULT_COLLECTION_NAME")
	setString(&c.Documents.DataDir, "DATA_DIR")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Postgres.ConnString, "POSTGRES_CONN_STRING")
	setString(&c.SQLite.Path, "SQLITE_PATH")

	if err := setInt(&c.Chroma.Port, "CHROMA_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Documents.ChunkSize, "DEFAULT_CHUNK_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.Documents.ChunkOverlap, "DEFAULT_CHUNK_OVERLAP"); err != nil {
		return err
	}
	if err := setInt(&c.Workflow.TopK, "DEFAULT_TOP_K"); err != nil {
		return err
	}
	if err := setInt(&c.Workflow.MaxRewrites, "DEFAULT_MAX_REWRITES"); err != nil {
		return err
	}
	return setFloat(&c.OpenAI.Temperature, "DEFAULT_TEMPERATURE")
}

// Validate checks the values the workflow depends on.
func (c Config) Validate() error {
	if c.Workflow.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Workflow.TopK)
	}
	if c.Workflow.MaxRewrites < 0 {
		return fmt.Errorf("max_rewrites must be non-negative, got %d", c.Workflow.MaxRewrites)
	}
	if c.Documents.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Documents.ChunkSize)
	}
	if c.Documents.ChunkOverlap < 0 || c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.Documents.ChunkOverlap)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = f
	return nil
}
