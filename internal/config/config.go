package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "scoretree.json5"

// Config is the full process configuration.
type Config struct {
	Fetch     FetchConfig     `json:"fetch"`
	Discovery DiscoveryConfig `json:"discovery"`
	Harvest   HarvestConfig   `json:"harvest"`
	Storage   StorageConfig   `json:"storage"`
	Server    ServerConfig    `json:"server"`
	Schedule  ScheduleConfig  `json:"schedule"`
	Log       LogConfig       `json:"log"`
}

// FetchConfig governs the HTTP substrate.
type FetchConfig struct {
	BaseURL        string  `json:"base_url"`
	UserAgent      string  `json:"user_agent"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	RatePerSecond  float64 `json:"rate_per_second"`
	Burst          int     `json:"burst"`
	Retries        int     `json:"retries"`
	Concurrency    int     `json:"concurrency"`

	// BreakerFailures consecutive failures open an endpoint's breaker; 0 disables it.
	BreakerFailures        int `json:"breaker_failures"`
	BreakerCooldownSeconds int `json:"breaker_cooldown_seconds"`
}

// DiscoveryConfig is the identifier scan configuration.
type DiscoveryConfig struct {
	MinID      int64    `json:"min_id"`
	MaxID      int64    `json:"max_id"`
	MaxRange   int64    `json:"max_range"` // widest id range a single scan may cover
	Teams      []string `json:"teams"`
	OutputPath string   `json:"output_path"`
}

// HarvestConfig is the enrichment configuration.
type HarvestConfig struct {
	NodesPath   string `json:"nodes_path"`
	OutputPath  string `json:"output_path"`
	StripMarkup bool   `json:"strip_markup"`
	NodesFromDB bool   `json:"nodes_from_db"`
}

// StorageConfig names optional Postgres and Redis backends; empty disables them.
type StorageConfig struct {
	AtlasDSN string `json:"atlas_dsn"`
	RedisURL string `json:"redis_url"`
}

// ServerConfig is used by serve mode.
type ServerConfig struct {
	RESTPort string `json:"rest_port"`
	WSPort   string `json:"ws_port"`
}

// ScheduleConfig holds cron expressions; empty disables a schedule.
type ScheduleConfig struct {
	Discovery string `json:"discovery"`
	Harvest   string `json:"harvest"`
}

// LogConfig selects logrus level and formatter.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Fetch: FetchConfig{
			BaseURL:                "https://games.mobileapi.hupu.com",
			UserAgent:              "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148",
			TimeoutSeconds:         15,
			Concurrency:            16,
			BreakerFailures:        0,
			BreakerCooldownSeconds: 30,
		},
		Discovery: DiscoveryConfig{
			MinID:      0,
			MaxID:      6000,
			MaxRange:   1_000_000,
			OutputPath: "nba_root_ids.json",
		},
		Harvest: HarvestConfig{
			NodesPath:  "nba_root_ids.json",
			OutputPath: "match_stats.csv",
		},
		Server: ServerConfig{
			RESTPort: "8080",
			WSPort:   "8081",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// BreakerCooldown returns how long an open breaker waits before probing.
func (f FetchConfig) BreakerCooldown() time.Duration {
	return time.Duration(f.BreakerCooldownSeconds) * time.Second
}

// Load builds the configuration: defaults, then <name>.<ext>, then
// <name>.local.<ext>, then environment overrides. Missing files are skipped.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	for _, file := range []string{path, localPath(path)} {
		if err := mergeFile(&cfg, file); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if len(content) == 0 {
		return nil
	}

	var override Config
	if err := json5.Unmarshal(content, &override); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

func localPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	prefix := base[:len(base)-len(ext)]
	return filepath.Join(dir, prefix+".local"+ext)
}

func applyEnv(cfg *Config) {
	cfg.Fetch.BaseURL = getEnv("SCORETREE_BASE_URL", cfg.Fetch.BaseURL)
	cfg.Fetch.Concurrency = getEnvInt("SCORETREE_CONCURRENCY", cfg.Fetch.Concurrency)
	cfg.Storage.AtlasDSN = getEnv("ATLAS_DSN", cfg.Storage.AtlasDSN)
	cfg.Storage.RedisURL = getEnv("REDIS_URL", cfg.Storage.RedisURL)
	cfg.Server.RESTPort = getEnv("REST_PORT", cfg.Server.RESTPort)
	cfg.Server.WSPort = getEnv("WS_PORT", cfg.Server.WSPort)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
