package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"`
}

type StoreConfig struct {
	Backend string `toml:"backend"` // memory | postgres | sqlite
	DSN     string `toml:"dsn"`
}

type MemgraphConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

type LineageConfig struct {
	MinParentAgeGapYears int `toml:"min_parent_age_gap_years"`
	DefaultTreeDepth     int `toml:"default_tree_depth"`
	DefaultQueryDepth    int `toml:"default_query_depth"`
	MaxQueryDepth        int `toml:"max_query_depth"`
}

type LLMConfig struct {
	Provider  string `toml:"provider"` // openai | claude | gemini | ollama, empty disables
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	MaxTokens int    `toml:"max_tokens"`
}

type BiographyPrompts struct {
	Draft string `toml:"draft"`
}

type Config struct {
	Server    ServerConfig     `toml:"server"`
	Store     StoreConfig      `toml:"store"`
	Memgraph  MemgraphConfig   `toml:"memgraph"`
	Redis     RedisConfig      `toml:"redis"`
	Lineage   LineageConfig    `toml:"lineage"`
	LLM       LLMConfig        `toml:"llm"`
	Biography BiographyPrompts `toml:"biography"`
}

// Default returns an in-memory configuration that needs no external services.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "dev"},
		Store:  StoreConfig{Backend: "memory"},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			TTLSeconds: 300,
		},
		Lineage: LineageConfig{
			MinParentAgeGapYears: 10,
			DefaultTreeDepth:     5,
			DefaultQueryDepth:    10,
			MaxQueryDepth:        50,
		},
		LLM: LLMConfig{MaxTokens: 600},
	}
}

// Load reads a TOML file on top of Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides config values with environment variables when present.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "APP_MODE")
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.DSN, "STORE_DSN")

	if setString(&c.Memgraph.URI, "MEMGRAPH_URI") {
		c.Memgraph.Enabled = true
	}
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")

	if setString(&c.Redis.Addr, "REDIS_ADDR") {
		c.Redis.Enabled = true
	}
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
}

func setString(dst *string, key string) bool {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return true
	}
	return false
}
