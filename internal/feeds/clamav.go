// ABOUTME: ClamAV-style hash signature line parsers
// ABOUTME: Decodes HDB (md5:size:name) and HSB (sha:size:name[:73]) entries strictly

package feeds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Field separator for all table formats.
const fieldSep = ":"

// ParseHDBLine parses an MD5 hash signature line.
// Format: MD5:FileSize:MalwareName
// The hash is kept exactly as written; no case normalization happens here.
func ParseHDBLine(line string) (types.Signature, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != 3 {
		return types.Signature{}, fmt.Errorf("%w: want 3 fields, got %d", ErrInvalidEntry, len(parts))
	}

	size, err := parseSize(parts[1])
	if err != nil {
		return types.Signature{}, err
	}

	return types.Signature{
		Hash: parts[0],
		Size: size,
		Name: parts[2],
	}, nil
}

// ParseHSBLine parses a SHA1/SHA256 hash signature line.
// Format: Hash:FileSize:MalwareName or Hash:FileSize:MalwareName:73
// With the trailing wildcard token the size field is not interpreted.
func ParseHSBLine(line string) (types.Signature, error) {
	parts := strings.Split(line, fieldSep)

	switch len(parts) {
	case 3:
		size, err := parseSize(parts[1])
		if err != nil {
			return types.Signature{}, err
		}
		return types.Signature{
			Hash: parts[0],
			Size: size,
			Name: parts[2],
		}, nil
	case 4:
		if parts[3] != types.WildcardSizeToken {
			return types.Signature{}, fmt.Errorf("%w: unknown fourth field %q", ErrInvalidEntry, parts[3])
		}
		return types.Signature{
			Hash:    parts[0],
			AnySize: true,
			Name:    parts[2],
		}, nil
	default:
		return types.Signature{}, fmt.Errorf("%w: want 3 or 4 fields, got %d", ErrInvalidEntry, len(parts))
	}
}

// parseSize parses a decimal, non-negative file size.
func parseSize(s string) (uint64, error) {
	size, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad size %q", ErrInvalidEntry, s)
	}
	return size, nil
}
