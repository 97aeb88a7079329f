package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samvad-hq/annif-client/internal/config"
	"github.com/samvad-hq/annif-client/internal/indexer"
	"github.com/samvad-hq/annif-client/internal/logger"
	"github.com/samvad-hq/annif-client/internal/metrics"
	"github.com/samvad-hq/annif-client/internal/storage"
	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/samvad-hq/annif-client/pkg/corpus"
	"github.com/samvad-hq/annif-client/pkg/httpclient"
	"github.com/samvad-hq/annif-client/pkg/publishers"
)

const metricsShutdownTimeout = 5 * time.Second

// Indexer is the indexing runtime. It owns the index loop, the store, the
// publishers and the optional metrics endpoint.
type Indexer struct {
	cfg           *config.Config
	corpus        *corpus.Corpus
	fanout        *publishers.Fanout
	service       *indexer.Service
	indexInterval time.Duration
	log           logger.Logger
	store         storage.Store
	metrics       *metrics.Indexer
}

// NewIndexer builds the runtime from config and the files it points at.
func NewIndexer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Indexer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	docs, err := corpus.Load(cfg.CorpusFile)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	log.InfoObj("corpus loaded", "corpus_meta", map[string]any{
		"file":  cfg.CorpusFile,
		"count": docs.Len(),
	})

	fanout, err := buildPublishers(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		DocumentTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"document_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	m, err := metrics.NewIndexer(prometheus.NewRegistry())
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	client := annif.New(
		annif.WithBaseURL(cfg.AnnifAPIBase),
		annif.WithTimeout(cfg.AnnifTimeout),
		annif.WithLogger(log),
	)
	scraper := indexer.NewScraper(httpclient.NewRestyClient(cfg.FetchTimeout), 0)
	service := indexer.NewService(client, indexer.NewTextResolver(scraper), fanout, store, log, indexer.Options{
		BatchSize: cfg.BatchSize,
		Suggest:   suggestOptions(cfg),
		Metrics:   m,
	})

	return &Indexer{
		cfg:           cfg,
		corpus:        docs,
		fanout:        fanout,
		service:       service,
		indexInterval: cfg.IndexInterval,
		log:           log,
		store:         store,
		metrics:       m,
	}, nil
}

func buildPublishers(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.WarnObj("no publishers file configured; results are only recorded", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// suggestOptions maps the zero config values to "not supplied".
func suggestOptions(cfg *config.Config) []annif.SuggestOption {
	var opts []annif.SuggestOption
	if cfg.SuggestLimit > 0 {
		opts = append(opts, annif.WithLimit(cfg.SuggestLimit))
	}
	if cfg.SuggestThreshold > 0 {
		opts = append(opts, annif.WithThreshold(cfg.SuggestThreshold))
	}
	return opts
}

// Run starts the index loop until the context is cancelled.
func (ix *Indexer) Run(ctx context.Context) error {
	if ix == nil || ix.service == nil {
		return fmt.Errorf("indexer is not initialized")
	}
	defer ix.close()

	stopMetrics := ix.serveMetrics()
	defer stopMetrics()

	ix.log.InfoObj("indexer loop starting", "indexer_state", map[string]any{
		"project_id":       ix.cfg.ProjectID,
		"documents_count":  ix.corpus.Len(),
		"publishers_count": ix.fanout.Size(),
		"index_interval":   ix.indexInterval.String(),
		"learn_enabled":    ix.cfg.LearnEnabled,
	})

	if err := ix.runOnce(ctx); err != nil {
		if errors.Is(err, annif.ErrNotFound) {
			return fmt.Errorf("initial index pass: %w", err)
		}
		ix.log.ErrorObj("initial index pass failed", "error", err.Error())
	}

	ticker := time.NewTicker(ix.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ix.log.InfoObj("indexer loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := ix.runOnce(ctx); err != nil {
				ix.log.ErrorObj("scheduled index pass failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single pass: optional training, then indexing.
func (ix *Indexer) runOnce(ctx context.Context) error {
	entries := ix.corpus.All()
	start := time.Now()
	ix.log.InfoObj("index pass started", "index_meta", map[string]any{
		"project_id":      ix.cfg.ProjectID,
		"documents_count": len(entries),
		"started_at":      start.UTC(),
	})

	if ix.cfg.LearnEnabled {
		if err := ix.service.Train(ctx, ix.cfg.ProjectID, entries); err != nil {
			if errors.Is(err, annif.ErrNotFound) {
				return err
			}
			ix.log.WarnObj("learn pass failed", "error", err.Error())
		}
	}

	if err := ix.service.Run(ctx, ix.cfg.ProjectID, entries); err != nil {
		return err
	}
	ix.log.InfoObj("index pass completed", "index_meta", map[string]any{
		"project_id": ix.cfg.ProjectID,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// serveMetrics starts the /metrics listener when configured and returns its stop func.
func (ix *Indexer) serveMetrics() func() {
	if ix.cfg.MetricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", ix.metrics.Handler())
	srv := &http.Server{
		Addr:              ix.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ix.log.InfoObj("metrics endpoint starting", "metrics_addr", ix.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ix.log.ErrorObj("metrics server error", "error", err.Error())
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			ix.log.WarnObj("metrics server shutdown failed", "error", err.Error())
		}
		<-done
	}
}

// close releases the publishers and the store, logging failures.
func (ix *Indexer) close() {
	if err := ix.fanout.Close(); err != nil {
		ix.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if ix.store == nil {
		return
	}
	if err := ix.store.Close(); err != nil {
		ix.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
