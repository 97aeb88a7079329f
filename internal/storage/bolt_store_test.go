package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBoltStoreMarksAndExpiresDocuments(t *testing.T) {
	opts := Options{
		DocumentTTL:     time.Hour,
		CleanupInterval: time.Minute,
	}

	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "nested", "index.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	clock := time.Now()
	store.now = func() time.Time { return clock }

	seen, err := store.Seen("yso-en", "doc-1")
	if err != nil || seen {
		t.Fatalf("expected unseen document, seen=%v err=%v", seen, err)
	}

	if err := store.Mark("yso-en", "doc-1"); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	seen, err = store.Seen("yso-en", "doc-1")
	if err != nil || !seen {
		t.Fatalf("expected document marked as indexed, got seen=%v err=%v", seen, err)
	}

	// Same document against another project is still pending.
	seen, err = store.Seen("tfidf-fi", "doc-1")
	if err != nil || seen {
		t.Fatalf("expected per-project scoping, got seen=%v err=%v", seen, err)
	}

	clock = clock.Add(2 * time.Hour)
	seen, err = store.Seen("yso-en", "doc-1")
	if err != nil {
		t.Fatalf("Seen after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire")
	}
}

func TestBoltStoreCleanupSweepsAllProjects(t *testing.T) {
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "index.db"), Options{
		DocumentTTL:     time.Minute,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	clock := time.Now()
	store.now = func() time.Time { return clock }
	for _, p := range []string{"a", "b"} {
		if err := store.Mark(p, "doc"); err != nil {
			t.Fatalf("Mark: %v", err)
		}
	}

	clock = clock.Add(10 * time.Minute)
	if err := store.maybeCleanupExpired(clock); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if got := store.lastCleanup.Load(); got != clock.Unix() {
		t.Fatalf("lastCleanup = %d want %d", got, clock.Unix())
	}
	for _, p := range []string{"a", "b"} {
		if seen, _ := store.Seen(p, "doc"); seen {
			t.Fatalf("project %s entry survived cleanup", p)
		}
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Mark("p", "x"); err != nil {
		t.Fatalf("noop store Mark: %v", err)
	}
	if seen, _ := store.Seen("p", "x"); seen {
		t.Fatalf("noop store never remembers")
	}
}

func TestNewStoreRejectsUnknownAndMissingPath(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewStore(TypeBBolt, " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestMemoryStore(t *testing.T) {
	store, err := NewStore(TypeMemory, "", Options{DocumentTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	defer store.Close()

	if err := store.Mark("p", "x"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if seen, _ := store.Seen("p", "x"); !seen {
		t.Fatalf("expected memory store to remember document")
	}
	if seen, _ := store.Seen("q", "x"); seen {
		t.Fatalf("expected per-project scoping")
	}
}
