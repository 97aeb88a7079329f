// Package indexer submits corpus documents to Annif and publishes the
// suggested subjects.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/annif-client/internal/logger"
	"github.com/samvad-hq/annif-client/internal/metrics"
	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/samvad-hq/annif-client/pkg/corpus"
	"github.com/samvad-hq/annif-client/pkg/publishers"
)

// MaxBatchSize is the largest document count Annif accepts per suggest-batch call.
const MaxBatchSize = 32

const learnScopePrefix = "learn:"

// Options tunes a Service.
type Options struct {
	BatchSize int
	Suggest   []annif.SuggestOption
	Metrics   *metrics.Indexer
}

// Service indexes corpus entries against one Annif project at a time.
type Service struct {
	client    Annif
	resolver  Resolver
	publisher EventPublisher
	store     Deduper
	log       logger.Logger
	metrics   *metrics.Indexer
	batchSize int
	suggest   []annif.SuggestOption
}

// NewService wires the indexer. publisher and store may be nil.
func NewService(client Annif, resolver Resolver, publisher EventPublisher, store Deduper, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if resolver == nil {
		resolver = NewTextResolver(nil)
	}
	size := opts.BatchSize
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	return &Service{
		client:    client,
		resolver:  resolver,
		publisher: publisher,
		store:     store,
		log:       log,
		metrics:   opts.Metrics,
		batchSize: size,
		suggest:   opts.Suggest,
	}
}

// Run executes one indexing pass over entries. Per-document failures are
// joined into the returned error; an unknown project stops the pass.
func (s *Service) Run(ctx context.Context, projectID string, entries []corpus.Entry) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("indexer service is not initialized")
	}
	if len(entries) == 0 {
		return fmt.Errorf("no documents to index")
	}

	pending := s.filterPending(projectID, projectID, entries)
	if len(pending) == 0 {
		s.log.InfoObj("no new documents to index", "index_result", map[string]any{
			"project_id": projectID,
			"skipped":    len(entries),
		})
		s.metrics.RecordPass(0, nil)
		return nil
	}

	var errs []error
	for _, batch := range chunk(pending, s.batchSize) {
		if ctx.Err() != nil {
			break
		}
		if err := s.indexBatch(ctx, projectID, batch); err != nil {
			if errors.Is(err, annif.ErrNotFound) {
				s.metrics.RecordPass(len(pending), err)
				return fmt.Errorf("project %s: %w", projectID, err)
			}
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	s.metrics.RecordPass(len(pending), err)
	s.log.InfoObj("index pass completed", "index_result", map[string]any{
		"project_id": projectID,
		"submitted":  len(pending),
		"skipped":    len(entries) - len(pending),
		"errors":     len(errs),
	})
	return err
}

func (s *Service) indexBatch(ctx context.Context, projectID string, batch []corpus.Entry) error {
	resolved, docs, errs := s.resolveAll(ctx, projectID, batch, false)
	if len(docs) == 0 {
		return errors.Join(errs...)
	}

	start := time.Now()
	results, err := s.client.SuggestBatch(ctx, projectID, docs, s.suggest...)
	s.metrics.RecordBatch(projectID, time.Since(start), err)
	if err != nil {
		for range docs {
			s.metrics.RecordDocument(projectID, metrics.StatusFailed)
		}
		return errors.Join(append(errs, fmt.Errorf("suggest batch of %d: %w", len(docs), err))...)
	}
	if len(results) != len(docs) {
		return errors.Join(append(errs, fmt.Errorf("suggest batch returned %d results for %d documents", len(results), len(docs)))...)
	}

	for i, r := range resolved {
		evt := publishers.NewEvent(projectID, r.Entry.ID, r.Title, r.Entry.Source(), results[i].Results)
		if err := s.publishAndMark(ctx, projectID, evt); err != nil {
			errs = append(errs, err)
			s.metrics.RecordDocument(projectID, metrics.StatusFailed)
			continue
		}
		s.metrics.RecordDocument(projectID, metrics.StatusIndexed)
	}
	return errors.Join(errs...)
}

// publishAndMark fans the event out and remembers the document when at least
// one publisher accepted it, or when no publishers are configured.
func (s *Service) publishAndMark(ctx context.Context, projectID string, evt publishers.Event) error {
	var (
		successes int
		pubErr    error
	)
	if s.publisher != nil && s.publisher.Size() > 0 {
		successes, pubErr = s.publisher.Publish(ctx, evt)
		s.metrics.RecordPublish(pubErr)
		if pubErr != nil {
			s.log.WarnObj("publish failed", "publish_error", map[string]any{
				"project_id":  projectID,
				"document_id": evt.DocumentID,
				"successes":   successes,
				"error":       pubErr.Error(),
			})
		}
		if successes == 0 {
			if pubErr == nil {
				pubErr = errors.New("no publisher accepted the event")
			}
			return fmt.Errorf("publish document %s: %w", evt.DocumentID, pubErr)
		}
	}

	s.mark(projectID, evt.DocumentID)
	if pubErr != nil {
		return fmt.Errorf("publish document %s: %w", evt.DocumentID, pubErr)
	}
	return nil
}

// Train sends the entries that carry subjects to the project's learn endpoint.
// Each entry is learned once; the store scope is separate from indexing.
func (s *Service) Train(ctx context.Context, projectID string, entries []corpus.Entry) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("indexer service is not initialized")
	}

	labelled := make([]corpus.Entry, 0, len(entries))
	for _, e := range entries {
		if len(e.Subjects) > 0 {
			labelled = append(labelled, e)
		}
	}
	scope := learnScopePrefix + projectID
	pending := s.filterPending(projectID, scope, labelled)
	if len(pending) == 0 {
		return nil
	}

	var errs []error
	for _, batch := range chunk(pending, s.batchSize) {
		if ctx.Err() != nil {
			break
		}
		resolved, docs, resolveErrs := s.resolveAll(ctx, projectID, batch, true)
		errs = append(errs, resolveErrs...)
		if len(docs) == 0 {
			continue
		}
		if _, err := s.client.Learn(ctx, projectID, docs); err != nil {
			if errors.Is(err, annif.ErrNotFound) {
				return fmt.Errorf("project %s: %w", projectID, err)
			}
			errs = append(errs, fmt.Errorf("learn batch of %d: %w", len(docs), err))
			continue
		}
		for _, r := range resolved {
			s.mark(scope, r.Entry.ID)
			s.metrics.RecordDocument(projectID, metrics.StatusLearned)
		}
	}

	s.log.InfoObj("learn pass completed", "learn_result", map[string]any{
		"project_id": projectID,
		"submitted":  len(pending),
		"errors":     len(errs),
	})
	return errors.Join(errs...)
}

func (s *Service) resolveAll(ctx context.Context, projectID string, batch []corpus.Entry, withSubjects bool) ([]Resolved, []annif.Document, []error) {
	resolved := make([]Resolved, 0, len(batch))
	docs := make([]annif.Document, 0, len(batch))
	var errs []error

	for _, e := range batch {
		r, err := s.resolver.Resolve(ctx, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve document %s: %w", e.ID, err))
			s.metrics.RecordDocument(projectID, metrics.StatusFailed)
			s.log.WarnObj("document text unavailable", "resolve_error", map[string]any{
				"document_id": e.ID,
				"source":      e.Source(),
				"error":       err.Error(),
			})
			continue
		}
		doc := annif.Document{DocumentID: e.ID, Text: r.Text}
		if withSubjects {
			doc.Subjects = e.Subjects
		}
		resolved = append(resolved, r)
		docs = append(docs, doc)
	}
	return resolved, docs, errs
}

// filterPending drops entries already recorded under scope. Lookup errors
// keep the entry.
func (s *Service) filterPending(projectID, scope string, entries []corpus.Entry) []corpus.Entry {
	if s.store == nil {
		return entries
	}
	out := make([]corpus.Entry, 0, len(entries))
	for _, e := range entries {
		seen, err := s.store.Seen(scope, e.ID)
		if err != nil {
			s.log.WarnObj("store lookup failed", "store_error", map[string]any{
				"scope":       scope,
				"document_id": e.ID,
				"error":       err.Error(),
			})
			out = append(out, e)
			continue
		}
		if seen {
			s.metrics.RecordDocument(projectID, metrics.StatusSkipped)
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Service) mark(scope, documentID string) {
	if s.store == nil {
		return
	}
	if err := s.store.Mark(scope, documentID); err != nil {
		s.log.WarnObj("store mark failed", "store_error", map[string]any{
			"scope":       scope,
			"document_id": documentID,
			"error":       err.Error(),
		})
	}
}

func chunk(entries []corpus.Entry, size int) [][]corpus.Entry {
	var out [][]corpus.Entry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		out = append(out, entries[start:end])
	}
	return out
}
