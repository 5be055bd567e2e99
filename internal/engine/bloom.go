// ABOUTME: Bloom filter index over the hashes of one signature table
// ABOUTME: Rejects definitely-absent digests before the ordered table scan

package engine

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// BloomConfig holds configuration for the Bloom filter.
type BloomConfig struct {
	// Expected number of items to be added.
	ExpectedItems uint

	// Desired false positive rate (e.g., 0.01 for 1%).
	FalsePositiveRate float64
}

// DefaultBloomConfig returns the default filter settings.
func DefaultBloomConfig() BloomConfig {
	return BloomConfig{
		ExpectedItems:     1024,
		FalsePositiveRate: 0.001,
	}
}

// BloomStats contains statistics about the Bloom filter.
type BloomStats struct {
	// Configured capacity.
	Capacity uint

	// Configured false positive rate.
	FalsePositiveRate float64

	// Size of the bit set in bytes.
	BitSetSize uint64

	// Number of hash functions used.
	HashFunctions uint
}

// BloomFilter wraps a Bloom filter keyed by Hash.Key().
// It is filled once while a table loads and only read afterwards.
type BloomFilter struct {
	filter *bloom.BloomFilter
	config BloomConfig
}

// NewBloomFilter creates a new Bloom filter with the given configuration.
func NewBloomFilter(cfg BloomConfig) *BloomFilter {
	if cfg.ExpectedItems == 0 {
		cfg.ExpectedItems = 1
	}
	if cfg.FalsePositiveRate <= 0 || cfg.FalsePositiveRate >= 1 {
		cfg.FalsePositiveRate = DefaultBloomConfig().FalsePositiveRate
	}

	return &BloomFilter{
		filter: bloom.NewWithEstimates(cfg.ExpectedItems, cfg.FalsePositiveRate),
		config: cfg,
	}
}

// Add adds a hash to the filter.
func (bf *BloomFilter) Add(hash types.Hash) {
	bf.filter.Add([]byte(hash.Key()))
}

// Test checks if a hash might be in the filter.
// Returns true if the hash might be present (could be false positive).
// Returns false if the hash is definitely not present.
func (bf *BloomFilter) Test(hash types.Hash) bool {
	return bf.filter.Test([]byte(hash.Key()))
}

// TestAny reports whether any of the digests might be present.
func (bf *BloomFilter) TestAny(d types.Digests) bool {
	for _, h := range d.Hashes() {
		if bf.Test(h) {
			return true
		}
	}
	return false
}

// Stats returns statistics about the filter.
func (bf *BloomFilter) Stats() BloomStats {
	return BloomStats{
		Capacity:          bf.config.ExpectedItems,
		FalsePositiveRate: bf.config.FalsePositiveRate,
		BitSetSize:        uint64(bf.filter.Cap() / 8),
		HashFunctions:     bf.filter.K(),
	}
}
