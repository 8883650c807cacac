// Package udpkv implements the UDP key-value store (§6, §11.4): single
// datagram requests, each either a retrieve ("key") or an insert
// ("key=value"), backed by an in-memory-only Badger instance rather than a
// bare map so the trivial service still exercises a real embedded KV engine.
package udpkv

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ProtectedKey can never be overwritten by a client request; it reports the
// store's own version string.
const ProtectedKey = "version"

const versionString = "protohackers-udpkv 1.0"

// Store wraps an in-memory Badger database. Nothing it holds ever touches
// disk: badger.DefaultOptions("").WithInMemory(true) keeps the no-persistence
// Non-goal intact while still giving the service a transactional KV engine.
type Store struct {
	db *badger.DB
}

// NewStore opens an in-memory Badger instance seeded with the protected
// version key.
func NewStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("udpkv: opening badger: %w", err)
	}
	s := &Store{db: db}
	if err := s.set(ProtectedKey, versionString); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores value under key, silently ignoring attempts to overwrite the
// protected version key, matching the original's "if key != version" guard.
func (s *Store) Set(key, value string) error {
	if key == ProtectedKey {
		return nil
	}
	return s.set(key, value)
}

func (s *Store) set(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// Get returns the value stored under key, or "" if key has never been set.
func (s *Store) Get(key string) (string, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = bytes.Clone(val)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("udpkv: reading key %q: %w", key, err)
	}
	return string(value), nil
}
