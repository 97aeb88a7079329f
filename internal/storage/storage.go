package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store remembers which corpus documents were already indexed, per Annif project.
type Store interface {
	Close() error
	Seen(projectID, documentID string) (bool, error)
	Mark(projectID, documentID string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	DocumentTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	TypeBBolt  = "bbolt"
	TypeMemory = "memory"

	defaultDocumentTTL     = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case TypeMemory:
		return newMemoryStore(opts), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.DocumentTTL <= 0 {
		opts.DocumentTTL = defaultDocumentTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) Seen(string, string) (bool, error) { return false, nil }
func (noopStore) Mark(string, string) error         { return nil }
