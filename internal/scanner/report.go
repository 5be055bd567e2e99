// ABOUTME: Reporters that render per-file results and the run summary
// ABOUTME: Console text lines, JSON lines, and fan-out to several reporters

package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Reporter receives every file result and, once, the final summary.
type Reporter interface {
	Report(ctx context.Context, r types.MatchResult) error
	Finish(ctx context.Context, s *Summary) error
}

// FormatResult renders one console line (without newline).
// tables is the number of tables consulted for the file.
func FormatResult(r types.MatchResult, tables int) string {
	switch r.Verdict {
	case types.VerdictClean:
		return r.Path + ": OK"
	case types.VerdictEmpty:
		return r.Path + ": Empty file"
	case types.VerdictInvalid:
		return fmt.Sprintf("%s: Invalid: %s FOUND(%d/%d)", r.Path, strings.Join(r.Names, ", "), len(r.Names), tables)
	case types.VerdictError:
		return r.Path + ": Error: " + r.Err
	default:
		return r.Path + ": " + r.Verdict.String()
	}
}

// TextReporter writes console lines and the summary block.
type TextReporter struct {
	w           io.Writer
	tables      int
	showSummary bool
}

// NewTextReporter creates a console reporter.
func NewTextReporter(w io.Writer, tables int, showSummary bool) *TextReporter {
	return &TextReporter{w: w, tables: tables, showSummary: showSummary}
}

// Report writes one result line.
func (tr *TextReporter) Report(_ context.Context, r types.MatchResult) error {
	_, err := fmt.Fprintln(tr.w, FormatResult(r, tr.tables))
	return err
}

// Finish writes the summary block unless disabled.
func (tr *TextReporter) Finish(_ context.Context, s *Summary) error {
	if !tr.showSummary {
		return nil
	}
	_, err := s.WriteTo(tr.w)
	return err
}

// ResultRecord is the JSON form of one file result.
type ResultRecord struct {
	Type    string   `json:"type"`
	Path    string   `json:"path"`
	Verdict string   `json:"verdict"`
	Names   []string `json:"names,omitempty"`
	Error   string   `json:"error,omitempty"`
	Size    int64    `json:"size"`
}

// SummaryRecord is the JSON form of the run summary.
type SummaryRecord struct {
	Type           string    `json:"type"`
	RunID          string    `json:"run_id"`
	Version        string    `json:"version"`
	Known          uint64    `json:"known_signatures"`
	ScannedDirs    uint64    `json:"scanned_directories"`
	ScannedFiles   uint64    `json:"scanned_files"`
	Infected       uint64    `json:"infected_files"`
	DataScannedKiB float64   `json:"data_scanned_kib"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
}

// NewResultRecord converts a result for JSON output.
func NewResultRecord(r types.MatchResult) ResultRecord {
	return ResultRecord{
		Type:    "result",
		Path:    r.Path,
		Verdict: r.Verdict.String(),
		Names:   r.Names,
		Error:   r.Err,
		Size:    r.Size,
	}
}

// NewSummaryRecord converts a summary for JSON output.
func NewSummaryRecord(s *Summary) SummaryRecord {
	return SummaryRecord{
		Type:           "summary",
		RunID:          s.RunID,
		Version:        s.Version,
		Known:          s.Known,
		ScannedDirs:    s.ScannedDirs,
		ScannedFiles:   s.ScannedFiles,
		Infected:       s.Infected,
		DataScannedKiB: s.DataScannedKiB,
		ElapsedMs:      s.Elapsed().Milliseconds(),
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
	}
}

// JSONReporter writes one JSON object per line.
type JSONReporter struct {
	enc         *json.Encoder
	showSummary bool
}

// NewJSONReporter creates a JSON lines reporter.
func NewJSONReporter(w io.Writer, showSummary bool) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w), showSummary: showSummary}
}

// Report writes one result object.
func (jr *JSONReporter) Report(_ context.Context, r types.MatchResult) error {
	return jr.enc.Encode(NewResultRecord(r))
}

// Finish writes the summary object unless disabled.
func (jr *JSONReporter) Finish(_ context.Context, s *Summary) error {
	if !jr.showSummary {
		return nil
	}
	return jr.enc.Encode(NewSummaryRecord(s))
}

// MultiReporter fans out to several reporters.
// Every reporter is always called; the errors are joined.
type MultiReporter []Reporter

// Report forwards the result to every reporter.
func (m MultiReporter) Report(ctx context.Context, r types.MatchResult) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Finish forwards the summary to every reporter.
func (m MultiReporter) Finish(ctx context.Context, s *Summary) error {
	var errs []error
	for _, rep := range m {
		if err := rep.Finish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
