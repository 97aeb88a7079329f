package storage

import (
	gocache "github.com/patrickmn/go-cache"
)

// memoryStore keeps indexed document IDs in process memory; they are lost on restart.
type memoryStore struct {
	cache *gocache.Cache
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{cache: gocache.New(opts.DocumentTTL, opts.CleanupInterval)}
}

func (m *memoryStore) Close() error {
	m.cache.Flush()
	return nil
}

func (m *memoryStore) Seen(projectID, documentID string) (bool, error) {
	_, ok := m.cache.Get(memoryKey(projectID, documentID))
	return ok, nil
}

func (m *memoryStore) Mark(projectID, documentID string) error {
	m.cache.SetDefault(memoryKey(projectID, documentID), struct{}{})
	return nil
}

func memoryKey(projectID, documentID string) string {
	return projectID + "\x00" + documentID
}
