// ABOUTME: Signature table formats and their file extensions
// ABOUTME: Defines the fixed consultation order and per-format hash algorithms

package feeds

import (
	"path/filepath"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Format identifies a signature table format.
type Format int

const (
	// FormatUnknown is returned for files that are not signature tables.
	FormatUnknown Format = iota
	// FormatHDB is the MD5 table: hash:size:name, size mandatory.
	FormatHDB
	// FormatHSB is the SHA1/SHA256 table: hash:size:name with an optional wildcard field.
	FormatHSB
)

// Table file extensions.
const (
	HDBExt = "hdb"
	HSBExt = "hsb"
)

// Formats lists the known formats in consultation order.
var Formats = []Format{FormatHDB, FormatHSB}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatHDB:
		return "hdb"
	case FormatHSB:
		return "hsb"
	default:
		return "unknown"
	}
}

// Ext returns the file extension (without dot) of the format.
func (f Format) Ext() string {
	switch f {
	case FormatHDB:
		return HDBExt
	case FormatHSB:
		return HSBExt
	default:
		return ""
	}
}

// Algorithms returns the hash algorithms entries of this format may use.
func (f Format) Algorithms() []types.HashType {
	switch f {
	case FormatHDB:
		return []types.HashType{types.HashTypeMD5}
	case FormatHSB:
		return []types.HashType{types.HashTypeSHA1, types.HashTypeSHA256}
	default:
		return nil
	}
}

// Supports reports whether entries of this format may carry a digest of type ht.
func (f Format) Supports(ht types.HashType) bool {
	for _, a := range f.Algorithms() {
		if a == ht {
			return true
		}
	}
	return false
}

// ParseLine decodes one table line in this format.
func (f Format) ParseLine(line string) (types.Signature, error) {
	switch f {
	case FormatHDB:
		return ParseHDBLine(line)
	case FormatHSB:
		return ParseHSBLine(line)
	default:
		return types.Signature{}, ErrUnknownFormat
	}
}

// FormatFromPath returns the format identified by the file extension.
// The match is exact: "main.hdb" is a table, "main.HDB" and "main.hdb.bak" are not.
func FormatFromPath(path string) Format {
	switch filepath.Ext(path) {
	case "." + HDBExt:
		return FormatHDB
	case "." + HSBExt:
		return FormatHSB
	default:
		return FormatUnknown
	}
}
