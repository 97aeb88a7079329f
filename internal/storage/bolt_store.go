package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// projectsBucket holds one nested bucket per Annif project, keyed by document ID.
	projectsBucket   = "projects"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("projects bucket missing")

// boltStore implements a Store backed by BoltDB. Each value is the big-endian
// unix expiry of the entry.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	documentTTL     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(projectsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		documentTTL:     opts.DocumentTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Seen reports whether documentID was indexed against projectID and has not expired.
// Expired entries are removed on read.
func (b *boltStore) Seen(projectID, documentID string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var seen bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := projectBucket(tx, projectID, false)
		if err != nil || bucket == nil {
			return err
		}

		key := []byte(documentID)
		expiry, ok := decodeExpiry(bucket.Get(key))
		if !ok || !expiry.After(now) {
			if bucket.Get(key) != nil {
				return bucket.Delete(key)
			}
			return nil
		}
		seen = true
		return nil
	})
	return seen, err
}

// Mark records documentID as indexed against projectID for the configured TTL.
func (b *boltStore) Mark(projectID, documentID string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := projectBucket(tx, projectID, true)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(documentID), encodeExpiry(now.Add(b.documentTTL)))
	})
}

// projectBucket returns the nested bucket for projectID, creating it when asked.
func projectBucket(tx *bolt.Tx, projectID string, create bool) (*bolt.Bucket, error) {
	root := tx.Bucket([]byte(projectsBucket))
	if root == nil {
		return nil, errBucketMissing
	}
	if !create {
		return root.Bucket([]byte(projectID)), nil
	}
	bucket, err := root.CreateBucketIfNotExists([]byte(projectID))
	if err != nil {
		return nil, fmt.Errorf("create project bucket %q: %w", projectID, err)
	}
	return bucket, nil
}

// maybeCleanupExpired sweeps all project buckets at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(projectsBucket))
		if root == nil {
			return errBucketMissing
		}
		return root.ForEachBucket(func(name []byte) error {
			cursor := root.Bucket(name).Cursor()
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
					if err := cursor.Delete(); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
