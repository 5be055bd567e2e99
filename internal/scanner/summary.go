// ABOUTME: Run summary counters for a scan invocation
// ABOUTME: Tracks known signatures, walked directories, scanned files, and timing

package scanner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Summary accumulates run statistics.
// It has a single owner and is not safe for concurrent use.
type Summary struct {
	RunID   string
	Version string

	Known          uint64
	ScannedDirs    uint64
	ScannedFiles   uint64
	Infected       uint64
	DataScannedKiB float64

	StartDate time.Time
	EndDate   time.Time

	now func() time.Time
}

// NewSummary creates a summary for one run.
func NewSummary(runID, version string) *Summary {
	return &Summary{
		RunID:   runID,
		Version: version,
		now:     time.Now,
	}
}

// Begin stamps the start of the run.
func (s *Summary) Begin() {
	s.StartDate = s.clock()
	s.EndDate = s.StartDate
}

// End stamps the end of the run.
func (s *Summary) End() {
	s.EndDate = s.clock()
}

func (s *Summary) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// AddKnown adds the entry count of one loaded table.
func (s *Summary) AddKnown(n uint64) {
	s.Known += n
}

// AddDir counts one walked directory.
func (s *Summary) AddDir() {
	s.ScannedDirs++
}

// Record accounts for one file result. Error results change nothing.
func (s *Summary) Record(r types.MatchResult) {
	if r.Verdict == types.VerdictError {
		return
	}

	s.ScannedFiles++
	s.DataScannedKiB += float64(r.Size) / 1024.0
	if r.IsInfected() {
		s.Infected++
	}
}

// Elapsed returns the run duration.
func (s *Summary) Elapsed() time.Duration {
	return s.EndDate.Sub(s.StartDate)
}

// DisplayTime renders the elapsed time in whole seconds with a breakdown.
func (s *Summary) DisplayTime() string {
	return formatElapsed(s.Elapsed())
}

func formatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	if minutes == 0 {
		return fmt.Sprintf("%d seconds", seconds)
	}

	hours := minutes / 60
	if hours == 0 {
		return fmt.Sprintf("%d sec (%d m %d s)", seconds, minutes, seconds%60)
	}

	days := hours / 24
	if days == 0 {
		return fmt.Sprintf("%d sec (%d h %d m %d s)", seconds, hours, minutes%60, seconds%60)
	}

	return fmt.Sprintf("%d sec (%d d %d h %d m %d s)", seconds, days, hours%24, minutes%60, seconds%60)
}

// WriteTo prints the summary block.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	b.WriteString("----------- SCAN SUMMARY -----------\n")
	fmt.Fprintf(&b, "Known viruses: %d\n", s.Known)
	fmt.Fprintf(&b, "Application Version: %s\n", s.Version)
	fmt.Fprintf(&b, "Scanned directories: %d\n", s.ScannedDirs)
	fmt.Fprintf(&b, "Scanned files: %d\n", s.ScannedFiles)
	fmt.Fprintf(&b, "Infected files: %d\n", s.Infected)
	fmt.Fprintf(&b, "Data scanned: %.2f MB\n", s.DataScannedKiB/1024.0)
	fmt.Fprintf(&b, "Time: %s\n", s.DisplayTime())
	fmt.Fprintf(&b, "Start date: %s\n", s.StartDate.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "End date: %s\n", s.EndDate.Format(time.RFC3339Nano))

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
