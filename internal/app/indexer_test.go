package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/annif-client/internal/config"
	"github.com/samvad-hq/annif-client/internal/storage"
	"github.com/samvad-hq/annif-client/pkg/annif"
	"github.com/samvad-hq/annif-client/pkg/publishers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func fakeAnnifServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/projects/yso-en/suggest-batch") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "Project 'x' not found"}`))
			return
		}
		var req struct {
			Documents []annif.Document `json:"documents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out := make([]annif.BatchResult, 0, len(req.Documents))
		for _, d := range req.Documents {
			out = append(out, annif.BatchResult{
				DocumentID: d.DocumentID,
				Results:    []annif.SuggestionResult{{URI: "http://www.yso.fi/onto/yso/p2346", Label: "computers", Score: 0.8}},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
}

type eventSink struct {
	mu     sync.Mutex
	events []publishers.Event
	got    chan struct{}
}

func (s *eventSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var evt publishers.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
	select {
	case s.got <- struct{}{}:
	default:
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(t *testing.T, apiBase, sinkURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "doc2.txt", "Libraries catalogue books with subject headings.")
	corpusFile := writeFile(t, dir, "corpus.yaml", `
documents:
  - id: d1
    title: Computers
    text: Computers process information.
  - id: d2
    file: doc2.txt
`)
	publishersFile := writeFile(t, dir, "publishers.yaml", `
publishers:
  - id: sink
    type: http
    http:
      url: `+sinkURL+`
`)

	return &config.Config{
		AnnifAPIBase:           apiBase + "/v1/",
		AnnifTimeout:           5 * time.Second,
		ProjectID:              "yso-en",
		BatchSize:              32,
		FetchTimeout:           5 * time.Second,
		CorpusFile:             corpusFile,
		PublishersFile:         publishersFile,
		IndexInterval:          time.Hour,
		StorageType:            storage.TypeBBolt,
		BBoltPath:              filepath.Join(dir, "index.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func TestIndexerRunPublishesAndExitsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	api := fakeAnnifServer(t)
	defer api.Close()
	sink := &eventSink{got: make(chan struct{}, 4)}
	sinkSrv := httptest.NewServer(sink)
	defer sinkSrv.Close()

	cfg := testConfig(t, api.URL, sinkSrv.URL)
	ix, err := NewIndexer(context.Background(), cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ix.Run(ctx) }()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.events) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("indexer did not stop after cancellation")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	ids := []string{sink.events[0].DocumentID, sink.events[1].DocumentID}
	assert.ElementsMatch(t, []string{"d1", "d2"}, ids)
	for _, evt := range sink.events {
		assert.Equal(t, "yso-en", evt.ProjectID)
		assert.NotEmpty(t, evt.EventID)
		require.Len(t, evt.Results, 1)
		assert.Equal(t, "computers", evt.Results[0].Label)
	}

	store, err := storage.NewStore(storage.TypeBBolt, cfg.BBoltPath, storage.Options{})
	require.NoError(t, err)
	defer store.Close()
	seen, err := store.Seen("yso-en", "d2")
	require.NoError(t, err)
	assert.True(t, seen, "published documents are remembered")
}

func TestIndexerRunFailsOnUnknownProject(t *testing.T) {
	api := fakeAnnifServer(t)
	defer api.Close()

	cfg := testConfig(t, api.URL, "http://127.0.0.1:1/unused")
	cfg.ProjectID = "missing"
	cfg.PublishersFile = ""
	ix, err := NewIndexer(context.Background(), cfg, nil)
	require.NoError(t, err)

	err = ix.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, annif.ErrNotFound)
}

func TestNewIndexerRequiresCorpus(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	cfg.CorpusFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewIndexer(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load corpus")
}

func TestNewIndexerRejectsNilConfig(t *testing.T) {
	_, err := NewIndexer(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestSuggestOptionsOmitsZeroValues(t *testing.T) {
	assert.Empty(t, suggestOptions(&config.Config{}))
	assert.Len(t, suggestOptions(&config.Config{SuggestLimit: 5, SuggestThreshold: 0.2}), 2)
}
