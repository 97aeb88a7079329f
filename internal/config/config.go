package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const maxBatchSize = 32

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	AnnifAPIBase        string        `mapstructure:"annif_api_base"`
	AnnifTimeoutSeconds int64         `mapstructure:"annif_timeout_seconds"`
	AnnifTimeout        time.Duration `mapstructure:"-"`
	ProjectID           string        `mapstructure:"annif_project_id"`
	SuggestLimit        int           `mapstructure:"suggest_limit"`
	SuggestThreshold    float64       `mapstructure:"suggest_threshold"`
	BatchSize           int           `mapstructure:"batch_size"`
	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`

	CorpusFile           string        `mapstructure:"corpus_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	IndexIntervalSeconds int64         `mapstructure:"index_interval"`
	IndexInterval        time.Duration `mapstructure:"-"`
	MetricsAddr          string        `mapstructure:"metrics_addr"`
	LearnEnabled         bool          `mapstructure:"learn_enabled"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "annif-indexer")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("annif_api_base", "https://api.annif.org/v1/")
	v.SetDefault("annif_timeout_seconds", 30)
	v.SetDefault("annif_project_id", "yso-en")
	v.SetDefault("suggest_limit", 0)
	v.SetDefault("suggest_threshold", 0.0)
	v.SetDefault("batch_size", maxBatchSize)
	v.SetDefault("fetch_timeout_seconds", 15)
	v.SetDefault("corpus_file", "./configs/corpus.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("index_interval", 3600) // seconds
	v.SetDefault("metrics_addr", "")
	v.SetDefault("learn_enabled", false)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/index.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.AnnifAPIBase == "" {
		return fmt.Errorf("annif_api_base is required")
	}
	if cfg.ProjectID == "" {
		return fmt.Errorf("annif_project_id is required")
	}
	if cfg.AnnifTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid annif_timeout_seconds (must be positive seconds)")
	}
	cfg.AnnifTimeout = time.Duration(cfg.AnnifTimeoutSeconds) * time.Second

	if cfg.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.IndexIntervalSeconds <= 0 {
		return fmt.Errorf("invalid index_interval (must be positive seconds)")
	}
	cfg.IndexInterval = time.Duration(cfg.IndexIntervalSeconds) * time.Second

	if cfg.SuggestLimit < 0 {
		return fmt.Errorf("invalid suggest_limit (must not be negative)")
	}
	if cfg.SuggestThreshold < 0 || cfg.SuggestThreshold > 1 {
		return fmt.Errorf("invalid suggest_threshold (must be within 0..1)")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
