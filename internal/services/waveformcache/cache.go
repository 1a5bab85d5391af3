// Package waveformcache persists resolved waveform peaks keyed by content
// URL, so repeated views of the same track never re-fetch or re-analyze.
package waveformcache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// keyPrefix namespaces this subsystem's entries so Clear never touches
// anything else sharing the store.
const keyPrefix = "waveform:"

// entry is the stored value for a cache key
type entry struct {
	Data      []float64 `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

// Cache is a persistent URL-keyed peaks store backed by BadgerDB.
// Entries are never proactively expired: peaks for an immutable audio URL
// never change, so staleness is not a concern and only manual clears remove
// data.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a cache at the given directory
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Cache{db: db}, nil
}

// OpenInMemory opens an ephemeral cache, used in tests
func OpenInMemory() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger database: %w", err)
	}

	return &Cache{db: db}, nil
}

// NormalizeKey strips the query string from a URL so cache-busting
// parameters do not fragment the cache.
func NormalizeKey(url string) string {
	if i := strings.Index(url, "?"); i >= 0 {
		return url[:i]
	}
	return url
}

// Get returns the cached peaks for a URL, or (nil, false) on a miss.
// A corrupted entry is deleted and reported as a miss.
func (c *Cache) Get(url string) ([]float64, bool) {
	key := []byte(keyPrefix + NormalizeKey(url))

	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, false
	}

	if err != nil {
		// Self-heal: drop the unreadable entry and treat as a miss
		log.Printf("[DEBUG] Dropping corrupted waveform cache entry for %s: %v", url, err)
		if delErr := c.delete(key); delErr != nil {
			log.Printf("[ERROR] Failed to delete corrupted cache entry: %v", delErr)
		}
		return nil, false
	}

	if len(e.Data) == 0 {
		return nil, false
	}

	return e.Data, true
}

// Set stores peaks under a URL. Callers treat this as fire-and-forget; a
// failed write must never block or fail the acquisition path.
func (c *Cache) Set(url string, peaks []float64) error {
	if len(peaks) == 0 {
		return fmt.Errorf("refusing to cache empty peaks for %s", url)
	}

	data, err := json.Marshal(entry{Data: peaks, Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	key := []byte(keyPrefix + NormalizeKey(url))
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Clear removes the entries for the given URLs, or every entry under this
// subsystem's namespace when called with no arguments.
func (c *Cache) Clear(urls ...string) error {
	if len(urls) == 0 {
		return c.db.DropPrefix([]byte(keyPrefix))
	}

	for _, url := range urls {
		if err := c.delete([]byte(keyPrefix + NormalizeKey(url))); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying store
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) delete(key []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// rawSet writes an arbitrary value under a URL key, bypassing entry
// encoding. Only used by tests to simulate corruption.
func (c *Cache) rawSet(url string, value []byte) error {
	key := []byte(keyPrefix + NormalizeKey(url))
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}
