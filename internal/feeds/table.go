// ABOUTME: In-memory signature table loaded from one HDB or HSB file
// ABOUTME: All-or-nothing loading and first-match lookup in authored order

package feeds

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Longest accepted table line.
const maxLineSize = 1024 * 1024

// Table is an ordered, immutable collection of signatures of one format.
type Table struct {
	// Format of every entry in the table.
	Format Format

	// Path of the file the table was loaded from.
	Source string

	// Entries in file order.
	Entries []types.Signature

	// SHA256 of the raw table file.
	Fingerprint string
}

// LoadTable reads and parses a table file.
// A single malformed line fails the whole load.
func LoadTable(path string, format Format) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return ParseTable(data, format, path)
}

// ReadTable parses a table from a reader.
func ReadTable(r io.Reader, format Format, source string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	return ParseTable(data, format, source)
}

// ParseTable parses raw table content. Line terminators ("\n" or "\r\n") are
// stripped; every other line, blank ones included, must be a valid entry.
func ParseTable(data []byte, format Format, source string) (*Table, error) {
	if format == FormatUnknown {
		return nil, ErrUnknownFormat
	}

	sum := sha256.Sum256(data)
	t := &Table{
		Format:      format,
		Source:      source,
		Fingerprint: hex.EncodeToString(sum[:]),
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		sig, err := format.ParseLine(line)
		if err != nil {
			return nil, &ParseError{Source: source, Line: lineNo, Text: line, Err: err}
		}
		t.Entries = append(t.Entries, sig)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", source, err)
	}

	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.Entries)
}

// Lookup returns the name of the first entry, in file order, whose hash equals
// the file's digest for that entry's algorithm and whose size constraint holds.
func (t *Table) Lookup(d types.Digests, size uint64) (string, bool) {
	for _, e := range t.Entries {
		ht := e.HashType()
		if !t.Format.Supports(ht) {
			continue
		}
		if d.Get(ht) == e.Hash && e.MatchesSize(size) {
			return e.Name, true
		}
	}
	return "", false
}

// Hashes returns the distinct entry hashes this table can match, for indexing.
func (t *Table) Hashes() []types.Hash {
	seen := make(map[string]struct{}, len(t.Entries))
	hashes := make([]types.Hash, 0, len(t.Entries))

	for _, e := range t.Entries {
		ht := e.HashType()
		if !t.Format.Supports(ht) {
			continue
		}
		h := types.Hash{Type: ht, Value: e.Hash}
		if _, ok := seen[h.Key()]; ok {
			continue
		}
		seen[h.Key()] = struct{}{}
		hashes = append(hashes, h)
	}

	return hashes
}
