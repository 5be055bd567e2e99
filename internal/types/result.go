// ABOUTME: MatchResult type representing the verdict for one scanned file
// ABOUTME: Closed set of outcomes (ok/empty/invalid/error) with pure accumulation

package types

// Verdict is the outcome variant of a MatchResult.
type Verdict int

const (
	// VerdictClean indicates no loaded table matched the file.
	VerdictClean Verdict = iota
	// VerdictEmpty indicates the file had zero bytes.
	VerdictEmpty
	// VerdictInvalid indicates at least one table matched the file.
	VerdictInvalid
	// VerdictError indicates the file could not be read.
	VerdictError
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictClean:
		return "ok"
	case VerdictEmpty:
		return "empty"
	case VerdictInvalid:
		return "invalid"
	case VerdictError:
		return "error"
	default:
		return "unknown"
	}
}

// MatchResult is the classification of one scanned file.
// Names is only set for VerdictInvalid and Err only for VerdictError.
type MatchResult struct {
	Path    string   `json:"path"`
	Verdict Verdict  `json:"-"`
	Names   []string `json:"names,omitempty"`
	Err     string   `json:"error,omitempty"`

	// Number of bytes read from the file. Zero for errors and empty files.
	Size int64 `json:"size"`
}

// NewCleanResult creates a result for a file no table matched.
func NewCleanResult(path string) MatchResult {
	return MatchResult{Path: path, Verdict: VerdictClean}
}

// NewEmptyResult creates a result for a zero-length file.
func NewEmptyResult(path string) MatchResult {
	return MatchResult{Path: path, Verdict: VerdictEmpty}
}

// NewInvalidResult creates a result carrying the matched signature names.
func NewInvalidResult(path string, names ...string) MatchResult {
	return MatchResult{
		Path:    path,
		Verdict: VerdictInvalid,
		Names:   append([]string(nil), names...),
	}
}

// NewErrorResult creates a result for a file that could not be read.
func NewErrorResult(path, desc string) MatchResult {
	return MatchResult{Path: path, Verdict: VerdictError, Err: desc}
}

// IsInfected returns true if at least one signature matched.
func (r MatchResult) IsInfected() bool {
	return r.Verdict == VerdictInvalid
}

// WithSize sets the number of bytes read and returns the result for chaining.
func (r MatchResult) WithSize(n int64) MatchResult {
	r.Size = n
	return r
}

// Accumulate folds one matched name into a running result.
// An Invalid result gets the name appended after its existing names; any
// other result is replaced by a new Invalid result with a single name.
// prev is never modified.
func Accumulate(prev MatchResult, name string) MatchResult {
	if prev.Verdict != VerdictInvalid {
		return MatchResult{
			Path:    prev.Path,
			Verdict: VerdictInvalid,
			Names:   []string{name},
			Size:    prev.Size,
		}
	}

	names := make([]string, 0, len(prev.Names)+1)
	names = append(names, prev.Names...)
	names = append(names, name)

	next := prev
	next.Names = names
	return next
}
