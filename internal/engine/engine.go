// ABOUTME: Signature database holding at most one table per format
// ABOUTME: Loads tables from directories and folds per-table matches into one verdict per file

package engine

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/feeds"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/observability"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Read buffer used while digesting a target file.
const readBufferSize = 64 * 1024

// Config holds configuration for the signature database.
type Config struct {
	// Bloom filter settings. ExpectedItems is a floor; larger tables size their own filter.
	Bloom BloomConfig

	// DisableBloom turns off the per-table prefilter.
	DisableBloom bool

	// Verdict cache settings. The cache is only opened when enabled.
	Cache CacheConfig

	// Logger for load diagnostics.
	Logger *slog.Logger
}

// KnownRecorder receives the entry count of every table loaded.
type KnownRecorder interface {
	AddKnown(n uint64)
}

// Stats contains lookup statistics.
type Stats struct {
	TablesLoaded    int
	KnownSignatures int
	FilesScanned    int64
	TableLookups    int64
	BloomRejections int64
	CacheHits       int64
	CacheMisses     int64
}

// slot is the live table of one format with its prefilter.
type slot struct {
	table *feeds.Table
	bloom *BloomFilter
}

// lookup consults the prefilter, then the ordered table.
func (s *slot) lookup(d types.Digests, size uint64) (name string, ok bool, rejected bool) {
	if s.bloom != nil && !s.mightContain(d) {
		return "", false, true
	}
	name, ok = s.table.Lookup(d, size)
	return name, ok, false
}

func (s *slot) mightContain(d types.Digests) bool {
	for _, ht := range s.table.Format.Algorithms() {
		v := d.Get(ht)
		if v == "" {
			continue
		}
		if s.bloom.Test(types.Hash{Type: ht, Value: v}) {
			return true
		}
	}
	return false
}

// Database owns zero or one table per known format.
// Tables are loaded before scanning starts and never change while scanning.
type Database struct {
	slots  map[feeds.Format]*slot
	cache  *VerdictCache
	config Config
	logger *slog.Logger

	// Statistics counters.
	filesScanned    int64
	tableLookups    int64
	bloomRejections int64
	cacheHits       int64
	cacheMisses     int64
}

// NewDatabase creates an empty database with the given configuration.
func NewDatabase(cfg Config) (*Database, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db := &Database{
		slots:  make(map[feeds.Format]*slot, len(feeds.Formats)),
		config: cfg,
		logger: logger,
	}

	if cfg.Cache.Enabled() {
		cache, err := NewVerdictCache(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to open verdict cache: %w", err)
		}
		db.cache = cache
	}

	return db, nil
}

// Close releases the verdict cache if one is open.
func (db *Database) Close() error {
	if db.cache == nil {
		return nil
	}
	return db.cache.Close()
}

// LoadDirs loads every directory in order, stopping at the first error.
func (db *Database) LoadDirs(ctx context.Context, dirs []string, rec KnownRecorder) error {
	for _, dir := range dirs {
		if err := db.Load(ctx, dir, rec); err != nil {
			return err
		}
	}
	return nil
}

// Load loads every HDB and HSB table found directly in dir, in name order.
// A later table of a format replaces the earlier one. Files with other
// extensions are skipped. Any listing, read, or parse failure aborts the load.
func (db *Database) Load(ctx context.Context, dir string, rec KnownRecorder) error {
	ctx, span := observability.StartSpan(ctx, "sigscan.load_dir",
		trace.WithAttributes(attribute.String("db.dir", dir)))
	defer span.End()

	entries, err := os.ReadDir(dir)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("reading database directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		format := feeds.FormatFromPath(entry.Name())
		if format == feeds.FormatUnknown {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("loading table %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		table, err := feeds.LoadTable(path, format)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("loading table %s: %w", path, err)
		}

		db.Install(ctx, table)
		if rec != nil {
			rec.AddKnown(uint64(table.Len()))
		}
	}

	return nil
}

// Install makes table the live table of its format, replacing any previous one.
func (db *Database) Install(ctx context.Context, table *feeds.Table) {
	if prev, ok := db.slots[table.Format]; ok {
		observability.LogWithContext(ctx, db.logger, slog.LevelWarn, "replacing signature table",
			slog.String("format", table.Format.String()),
			slog.String("previous", prev.table.Source),
			slog.String("source", table.Source),
		)
	}

	s := &slot{table: table}
	if !db.config.DisableBloom {
		cfg := db.config.Bloom
		cfg.ExpectedItems = max(cfg.ExpectedItems, uint(table.Len()))
		s.bloom = NewBloomFilter(cfg)
		for _, h := range table.Hashes() {
			s.bloom.Add(h)
		}
	}
	db.slots[table.Format] = s

	observability.LogWithContext(ctx, db.logger, slog.LevelInfo, "loaded signature table",
		slog.String("format", table.Format.String()),
		slog.String("source", table.Source),
		slog.Int("entries", table.Len()),
	)
}

// loaded returns the live slots in consultation order.
func (db *Database) loaded() []*slot {
	slots := make([]*slot, 0, len(db.slots))
	for _, f := range feeds.Formats {
		if s, ok := db.slots[f]; ok {
			slots = append(slots, s)
		}
	}
	return slots
}

// Tables returns the live tables in consultation order.
func (db *Database) Tables() []*feeds.Table {
	slots := db.loaded()
	tables := make([]*feeds.Table, 0, len(slots))
	for _, s := range slots {
		tables = append(tables, s.table)
	}
	return tables
}

// KnownSignatures returns the number of entries across the live tables.
func (db *Database) KnownSignatures() int {
	n := 0
	for _, s := range db.slots {
		n += s.table.Len()
	}
	return n
}

// Fingerprint identifies the exact set of live tables.
func (db *Database) Fingerprint() string {
	h := sha256.New()
	for _, s := range db.loaded() {
		fmt.Fprintf(h, "%s:%s\n", s.table.Format, s.table.Fingerprint)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Algorithms returns the digests a scan must compute for the live tables.
func (db *Database) Algorithms() []types.HashType {
	need := make(map[types.HashType]bool)
	for _, s := range db.loaded() {
		for _, ht := range s.table.Format.Algorithms() {
			need[ht] = true
		}
	}
	// The cache is keyed by SHA256.
	if db.cache != nil {
		need[types.HashTypeSHA256] = true
	}

	algs := make([]types.HashType, 0, len(need))
	for _, ht := range []types.HashType{types.HashTypeMD5, types.HashTypeSHA1, types.HashTypeSHA256} {
		if need[ht] {
			algs = append(algs, ht)
		}
	}
	return algs
}

// Scan classifies one file against the live tables.
// Unreadable files give VerdictError and zero-length files VerdictEmpty; in
// both cases no digest is computed and no table is consulted.
func (db *Database) Scan(ctx context.Context, path string) types.MatchResult {
	ctx, span := observability.StartSpan(ctx, "sigscan.scan_file",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	result := db.scan(ctx, path)

	span.SetAttributes(
		attribute.String("scan.verdict", result.Verdict.String()),
		attribute.Int("scan.matches", len(result.Names)),
	)
	return result
}

func (db *Database) scan(ctx context.Context, path string) types.MatchResult {
	f, err := os.Open(path)
	if err != nil {
		return types.NewErrorResult(path, readErrorDesc(err))
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, readBufferSize)
	if _, err := br.Peek(1); err != nil {
		if err == io.EOF {
			db.filesScanned++
			return types.NewEmptyResult(path)
		}
		return types.NewErrorResult(path, readErrorDesc(err))
	}

	digests, n, err := ComputeDigests(br, db.Algorithms())
	if err != nil {
		return types.NewErrorResult(path, readErrorDesc(err))
	}
	db.filesScanned++

	size := uint64(n)
	start := types.NewCleanResult(path).WithSize(n)

	if db.cache == nil {
		return db.Fold(start, digests, size)
	}

	fingerprint := db.Fingerprint()
	sha := digests.Get(types.HashTypeSHA256)

	names, found, err := db.cache.Get(ctx, fingerprint, sha, size)
	if err != nil {
		observability.LogWithContext(ctx, db.logger, slog.LevelWarn, "verdict cache read failed",
			slog.String("path", path), slog.Any("error", err))
	}
	if found {
		db.cacheHits++
		if len(names) == 0 {
			return start
		}
		return types.NewInvalidResult(path, names...).WithSize(n)
	}
	db.cacheMisses++

	result := db.Fold(start, digests, size)
	if err := db.cache.Put(ctx, fingerprint, sha, size, result.Names); err != nil {
		observability.LogWithContext(ctx, db.logger, slog.LevelWarn, "verdict cache write failed",
			slog.String("path", path), slog.Any("error", err))
	}
	return result
}

// Fold consults every live table in format order, threading the running
// result through types.Accumulate so later matches append to earlier ones.
func (db *Database) Fold(start types.MatchResult, d types.Digests, size uint64) types.MatchResult {
	result := start
	for _, s := range db.loaded() {
		db.tableLookups++
		name, ok, rejected := s.lookup(d, size)
		if rejected {
			db.bloomRejections++
			continue
		}
		if ok {
			result = types.Accumulate(result, name)
		}
	}
	return result
}

// Stats returns lookup statistics.
func (db *Database) Stats() Stats {
	return Stats{
		TablesLoaded:    len(db.slots),
		KnownSignatures: db.KnownSignatures(),
		FilesScanned:    db.filesScanned,
		TableLookups:    db.tableLookups,
		BloomRejections: db.bloomRejections,
		CacheHits:       db.cacheHits,
		CacheMisses:     db.cacheMisses,
	}
}

// readErrorDesc renders a read failure for the per-file report.
func readErrorDesc(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return "unable to read file: " + pathErr.Err.Error()
	}
	return "unable to read file: " + err.Error()
}
