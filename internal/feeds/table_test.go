// ABOUTME: Tests for signature table loading and lookup
// ABOUTME: Covers all-or-nothing loads, format detection, and first-match lookup

package feeds_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/feeds"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Digests of the 4-byte content "test".
const (
	testMD5    = "098f6bcd4621d373cade4e832627b4f6"
	testSHA1   = "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3"
	testSHA256 = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
)

func testDigests() types.Digests {
	return types.Digests{
		types.HashTypeMD5:    testMD5,
		types.HashTypeSHA1:   testSHA1,
		types.HashTypeSHA256: testSHA256,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
	return path
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want feeds.Format
	}{
		{path: "/db/main.hdb", want: feeds.FormatHDB},
		{path: "/db/daily.hsb", want: feeds.FormatHSB},
		{path: "/db/main.HDB", want: feeds.FormatUnknown},
		{path: "/db/main.hdb.bak", want: feeds.FormatUnknown},
		{path: "/db/main.mdb", want: feeds.FormatUnknown},
		{path: "/db/hdb", want: feeds.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := feeds.FormatFromPath(tt.path); got != tt.want {
				t.Errorf("FormatFromPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFormat_Algorithms(t *testing.T) {
	t.Parallel()

	if !feeds.FormatHDB.Supports(types.HashTypeMD5) || feeds.FormatHDB.Supports(types.HashTypeSHA1) {
		t.Error("HDB must support md5 only")
	}
	if !feeds.FormatHSB.Supports(types.HashTypeSHA1) || !feeds.FormatHSB.Supports(types.HashTypeSHA256) {
		t.Error("HSB must support sha1 and sha256")
	}
	if feeds.FormatHSB.Supports(types.HashTypeMD5) {
		t.Error("HSB must not support md5")
	}
	if len(feeds.Formats) != 2 || feeds.Formats[0] != feeds.FormatHDB || feeds.Formats[1] != feeds.FormatHSB {
		t.Errorf("Formats = %v, want [hdb hsb]", feeds.Formats)
	}
}

func TestLoadTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "main.hdb", testMD5+":4:Trojan.Test\n"+eicarMD5+":68:Eicar-Test-Signature\n")

	table, err := feeds.LoadTable(path, feeds.FormatHDB)
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}

	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
	if table.Source != path {
		t.Errorf("Source = %q, want %q", table.Source, path)
	}
	if table.Format != feeds.FormatHDB {
		t.Errorf("Format = %v, want hdb", table.Format)
	}
	if len(table.Fingerprint) != types.SHA256Length {
		t.Errorf("Fingerprint = %q, want 64 hex chars", table.Fingerprint)
	}
	if table.Entries[0].Name != "Trojan.Test" || table.Entries[1].Name != "Eicar-Test-Signature" {
		t.Errorf("Entries not in file order: %+v", table.Entries)
	}
}

func TestLoadTable_CRLF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "win.hsb", testSHA1+":4:Crlf.Test\r\n")

	table, err := feeds.LoadTable(path, feeds.FormatHSB)
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}
	if table.Entries[0].Name != "Crlf.Test" {
		t.Errorf("Name = %q, want Crlf.Test", table.Entries[0].Name)
	}
}

func TestLoadTable_BadLineAbortsWholeLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := strings.Join([]string{
		testMD5 + ":4:Good.One",
		testMD5 + ":four:Bad.One",
		eicarMD5 + ":68:Never.Reached",
	}, "\n")
	path := writeFile(t, dir, "broken.hdb", content)

	table, err := feeds.LoadTable(path, feeds.FormatHDB)
	if err == nil {
		t.Fatalf("LoadTable() = %+v, want error", table)
	}
	if table != nil {
		t.Error("LoadTable() returned a partial table")
	}

	var perr *feeds.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %T, want *ParseError", err)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
	if perr.Source != path {
		t.Errorf("Source = %q, want %q", perr.Source, path)
	}
	if !errors.Is(err, feeds.ErrInvalidEntry) {
		t.Errorf("errors.Is(err, ErrInvalidEntry) = false for %v", err)
	}
}

func TestLoadTable_BlankLineFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "gap.hsb", testSHA1+":4:A\n\n"+testSHA256+":4:B\n")

	if _, err := feeds.LoadTable(path, feeds.FormatHSB); err == nil {
		t.Error("LoadTable() with blank line succeeded, want error")
	}
}

func TestLoadTable_EmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "empty.hdb", "")

	table, err := feeds.LoadTable(path, feeds.FormatHDB)
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestLoadTable_Missing(t *testing.T) {
	t.Parallel()

	_, err := feeds.LoadTable(filepath.Join(t.TempDir(), "nope.hdb"), feeds.FormatHDB)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   feeds.Format
		content  string
		size     uint64
		wantName string
		wantOK   bool
	}{
		{
			name:     "md5 and size match",
			format:   feeds.FormatHDB,
			content:  testMD5 + ":4:Trojan.Test",
			size:     4,
			wantName: "Trojan.Test",
			wantOK:   true,
		},
		{
			name:    "md5 match but size differs",
			format:  feeds.FormatHDB,
			content: testMD5 + ":5:Trojan.Test",
			size:    4,
		},
		{
			name:     "earlier non-matching hash is skipped",
			format:   feeds.FormatHDB,
			content:  eicarMD5 + ":10:X\n" + testMD5 + ":10:X",
			size:     10,
			wantName: "X",
			wantOK:   true,
		},
		{
			name:     "first of several matches wins",
			format:   feeds.FormatHSB,
			content:  testSHA256 + ":4:First\n" + testSHA1 + ":4:Second",
			size:     4,
			wantName: "First",
			wantOK:   true,
		},
		{
			name:     "sized entry after failing size wins",
			format:   feeds.FormatHSB,
			content:  testSHA1 + ":9:Wrong.Size\n" + testSHA1 + ":4:Right.Size",
			size:     4,
			wantName: "Right.Size",
			wantOK:   true,
		},
		{
			name:     "wildcard ignores size",
			format:   feeds.FormatHSB,
			content:  testSHA1 + ":100:Wild:73",
			size:     4,
			wantName: "Wild",
			wantOK:   true,
		},
		{
			name:    "case sensitive",
			format:  feeds.FormatHDB,
			content: strings.ToUpper(testMD5) + ":4:Upper",
			size:    4,
		},
		{
			name:    "hsb never matches md5 length",
			format:  feeds.FormatHSB,
			content: testMD5 + ":4:Wrong.Algo",
			size:    4,
		},
		{
			name:    "hdb never matches sha1 length",
			format:  feeds.FormatHDB,
			content: testSHA1 + ":4:Wrong.Algo",
			size:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, err := feeds.ReadTable(strings.NewReader(tt.content), tt.format, "inline")
			if err != nil {
				t.Fatalf("ReadTable() error: %v", err)
			}

			name, ok := table.Lookup(testDigests(), tt.size)
			if ok != tt.wantOK || name != tt.wantName {
				t.Errorf("Lookup() = (%q, %v), want (%q, %v)", name, ok, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestTable_Hashes(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		testSHA1 + ":4:A",
		testSHA1 + ":5:B",
		testSHA256 + ":4:C",
		testMD5 + ":4:Unusable",
	}, "\n")

	table, err := feeds.ReadTable(strings.NewReader(content), feeds.FormatHSB, "inline")
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}

	hashes := table.Hashes()
	if len(hashes) != 2 {
		t.Fatalf("len(Hashes()) = %d, want 2: %v", len(hashes), hashes)
	}
	if hashes[0].Type != types.HashTypeSHA1 || hashes[1].Type != types.HashTypeSHA256 {
		t.Errorf("Hashes() = %v", hashes)
	}
}

func TestParseTable_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := feeds.ParseTable([]byte(testMD5+":4:A"), feeds.FormatUnknown, "x")
	if !errors.Is(err, feeds.ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}
