package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnnifAPIBase != "https://api.annif.org/v1/" {
		t.Fatalf("AnnifAPIBase = %q", cfg.AnnifAPIBase)
	}
	if cfg.AnnifTimeout != 30*time.Second {
		t.Fatalf("AnnifTimeout = %v", cfg.AnnifTimeout)
	}
	if cfg.BatchSize != 32 {
		t.Fatalf("BatchSize = %d", cfg.BatchSize)
	}
	if cfg.IndexInterval != time.Hour {
		t.Fatalf("IndexInterval = %v", cfg.IndexInterval)
	}
	if cfg.SuggestLimit != 0 || cfg.SuggestThreshold != 0 {
		t.Fatalf("optional suggest params should default to unset, got %d/%v", cfg.SuggestLimit, cfg.SuggestThreshold)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ANNIF_API_BASE", "http://localhost:5000/v1/")
	t.Setenv("ANNIF_PROJECT_ID", "tfidf-fi")
	t.Setenv("SUGGEST_LIMIT", "5")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("LEARN_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnnifAPIBase != "http://localhost:5000/v1/" || cfg.ProjectID != "tfidf-fi" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.SuggestLimit != 5 {
		t.Fatalf("SuggestLimit = %d", cfg.SuggestLimit)
	}
	if cfg.BatchSize != 32 {
		t.Fatalf("BatchSize should be clamped to 32, got %d", cfg.BatchSize)
	}
	if !cfg.LearnEnabled {
		t.Fatalf("LearnEnabled not read from environment")
	}
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	t.Setenv("INDEX_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero index_interval")
	}
}

func TestNormalizeRejectsThresholdOutOfRange(t *testing.T) {
	cfg := Config{
		AnnifAPIBase:          "http://x/",
		ProjectID:             "p",
		AnnifTimeoutSeconds:   1,
		FetchTimeoutSeconds:   1,
		IndexIntervalSeconds:  1,
		StorageTTLSeconds:     1,
		StorageCleanupSeconds: 1,
		SuggestThreshold:      1.5,
	}
	if err := cfg.normalize(); err == nil {
		t.Fatalf("expected threshold validation error")
	}
}
