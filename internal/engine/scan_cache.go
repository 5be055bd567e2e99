// ABOUTME: VerdictCache caches table verdicts by database fingerprint and file digest in BadgerDB
// ABOUTME: Avoids re-walking the tables for files already seen with TTL-based expiration

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const verdictCachePrefix = "verdict:"

// CacheConfig holds configuration for the verdict cache.
type CacheConfig struct {
	// Path to the database directory. Empty disables the cache unless InMemory is set.
	Dir string

	// InMemory runs the database in memory (for testing).
	InMemory bool

	// TTL of cached verdicts. Zero keeps entries until the fingerprint changes.
	TTL time.Duration

	// Logger for BadgerDB operations.
	Logger badger.Logger
}

// Enabled reports whether a cache should be opened.
func (c CacheConfig) Enabled() bool {
	return c.Dir != "" || c.InMemory
}

// VerdictCache maps (database fingerprint, sha256, size) to matched names.
type VerdictCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewVerdictCache opens the verdict cache.
func NewVerdictCache(cfg CacheConfig) (*VerdictCache, error) {
	opts := badger.DefaultOptions(cfg.Dir)

	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db: %w", err)
	}

	return &VerdictCache{
		db:  db,
		ttl: cfg.TTL,
	}, nil
}

// Close closes the database.
func (c *VerdictCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// verdictKey builds the cache key. The fingerprint pins the exact set of loaded tables.
func verdictKey(fingerprint, sha256Hex string, size uint64) []byte {
	return []byte(verdictCachePrefix + fingerprint + ":" + sha256Hex + ":" + strconv.FormatUint(size, 10))
}

// Put stores the matched names for a file; an empty list records a clean verdict.
func (c *VerdictCache) Put(ctx context.Context, fingerprint, sha256Hex string, size uint64, names []string) error {
	if names == nil {
		names = []string{}
	}

	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshaling verdict: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(verdictKey(fingerprint, sha256Hex, size), data)

		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}

		return txn.SetEntry(entry)
	})
}

// Get retrieves cached names.
// Returns (names, true, nil) if found, (nil, false, nil) if not found.
func (c *VerdictCache) Get(ctx context.Context, fingerprint, sha256Hex string, size uint64) ([]string, bool, error) {
	var (
		names []string
		found bool
	)

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(verdictKey(fingerprint, sha256Hex, size))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting cache entry: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &names); err != nil {
				return fmt.Errorf("unmarshaling verdict: %w", err)
			}
			found = true
			return nil
		})
	})

	if err != nil {
		return nil, false, err
	}

	return names, found, nil
}

// Clear removes all cached verdicts.
func (c *VerdictCache) Clear(ctx context.Context) error {
	return c.db.DropPrefix([]byte(verdictCachePrefix))
}

// Count returns the number of cached verdicts.
func (c *VerdictCache) Count(ctx context.Context) (int64, error) {
	var count int64

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(verdictCachePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// TTL returns the cache TTL.
func (c *VerdictCache) TTL() time.Duration {
	return c.ttl
}
