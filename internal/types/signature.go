// ABOUTME: Signature type representing one entry of a hash signature table
// ABOUTME: Holds the authored digest, the expected file size, and the detection name

package types

import "strconv"

// WildcardSizeToken is the fourth field that marks an entry as matching any file size.
const WildcardSizeToken = "73"

// Signature represents one known-file identity loaded from a signature table.
type Signature struct {
	// Hex digest exactly as authored; matching is case-sensitive.
	Hash string `json:"hash"`

	// Exact file size in bytes. Ignored when AnySize is set.
	Size uint64 `json:"size"`

	// AnySize marks a wildcard entry that matches on hash alone.
	AnySize bool `json:"any_size,omitempty"`

	// Detection name reported on a match.
	Name string `json:"name"`
}

// HashType returns the algorithm implied by the digest length.
func (s Signature) HashType() HashType {
	return HashTypeForLength(len(s.Hash))
}

// MatchesSize reports whether a file of n bytes satisfies the size constraint.
func (s Signature) MatchesSize(n uint64) bool {
	return s.AnySize || s.Size == n
}

// Line serializes the signature back into a table line.
// Wildcard entries are written with a zero size and the wildcard token.
func (s Signature) Line() string {
	if s.AnySize {
		return s.Hash + ":0:" + s.Name + ":" + WildcardSizeToken
	}
	return s.Hash + ":" + strconv.FormatUint(s.Size, 10) + ":" + s.Name
}
