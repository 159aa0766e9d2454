// Package store persists a client's latest project-collection snapshot to a
// local bbolt file. The relay keeps no history, so a client that restarts
// has only this cache to show until the next project_update arrives.
package store

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketSnapshots = []byte("snapshots")
	keyLatest       = []byte("latest")
)

// Store is a single-key snapshot cache.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveSnapshot replaces the cached snapshot with raw (a JSON-encoded project
// collection).
func (s *Store) SaveSnapshot(raw []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put(keyLatest, raw)
	})
}

// LoadSnapshot returns the cached snapshot, or nil if none has been saved.
func (s *Store) LoadSnapshot() ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketSnapshots).Get(keyLatest); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
