// ABOUTME: Hash types for file digests (SHA256, SHA1, MD5)
// ABOUTME: Maps hex digest lengths to algorithms and carries per-file digest sets

package types

import "sort"

// HashType represents the type of hash algorithm.
type HashType int

const (
	// HashTypeUnknown represents an unknown or invalid hash type.
	HashTypeUnknown HashType = iota
	// HashTypeSHA256 represents a SHA-256 hash (64 hex characters).
	HashTypeSHA256
	// HashTypeSHA1 represents a SHA-1 hash (40 hex characters).
	HashTypeSHA1
	// HashTypeMD5 represents an MD5 hash (32 hex characters).
	HashTypeMD5
)

// Hash length constants.
const (
	SHA256Length = 64
	SHA1Length   = 40
	MD5Length    = 32
)

// String returns the string representation of the hash type.
func (ht HashType) String() string {
	switch ht {
	case HashTypeSHA256:
		return "sha256"
	case HashTypeSHA1:
		return "sha1"
	case HashTypeMD5:
		return "md5"
	default:
		return "unknown"
	}
}

// HexLength returns the length of a hex-encoded digest of this type.
func (ht HashType) HexLength() int {
	switch ht {
	case HashTypeSHA256:
		return SHA256Length
	case HashTypeSHA1:
		return SHA1Length
	case HashTypeMD5:
		return MD5Length
	default:
		return 0
	}
}

// HashTypeForLength detects the algorithm from a hex digest length.
func HashTypeForLength(n int) HashType {
	switch n {
	case SHA256Length:
		return HashTypeSHA256
	case SHA1Length:
		return HashTypeSHA1
	case MD5Length:
		return HashTypeMD5
	default:
		return HashTypeUnknown
	}
}

// Hash represents a file hash with its type and value.
type Hash struct {
	Type  HashType `json:"type"`
	Value string   `json:"value"`
}

// Key returns the index key for this hash (e.g., "sha256:abc123").
func (h Hash) Key() string {
	return h.Type.String() + ":" + h.Value
}

// IsValid returns true if the hash has a known type and matching length.
func (h Hash) IsValid() bool {
	if h.Type == HashTypeUnknown || h.Value == "" {
		return false
	}
	return len(h.Value) == h.Type.HexLength()
}

// Digests holds the lowercase hex digests computed for one file, keyed by algorithm.
type Digests map[HashType]string

// Get returns the digest for the given algorithm, or "" if it was not computed.
func (d Digests) Get(ht HashType) string {
	return d[ht]
}

// Hashes returns the digests as Hash values in a stable order.
func (d Digests) Hashes() []Hash {
	hashes := make([]Hash, 0, len(d))
	for ht, v := range d {
		hashes = append(hashes, Hash{Type: ht, Value: v})
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].Type < hashes[j].Type })
	return hashes
}
