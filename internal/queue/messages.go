// ABOUTME: Event types published to NATS during a scan run
// ABOUTME: Defines ResultEvent per scanned file and SummaryEvent per run

package queue

import (
	"time"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/scanner"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

// Detection is one matched signature name with its classification.
type Detection struct {
	// Signature name from the table.
	Name string `json:"name"`

	// Threat type derived from the name.
	Threat string `json:"threat"`

	// Severity derived from the name.
	Severity string `json:"severity"`
}

// ResultEvent is published for every scanned file.
type ResultEvent struct {
	// Run identifier shared by all events of one invocation.
	RunID string `json:"run_id"`

	// Scanned path.
	Path string `json:"path"`

	// Verdict: "ok", "empty", "invalid", "error".
	Verdict string `json:"verdict"`

	// Matched signatures in table order.
	Detections []Detection `json:"detections,omitempty"`

	// Read error description.
	Error string `json:"error,omitempty"`

	// Bytes read from the file.
	Size int64 `json:"size"`

	// Timestamp of the event.
	ScannedAt time.Time `json:"scanned_at"`
}

// SummaryEvent is published once when the run finishes.
type SummaryEvent struct {
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

// NewResultEvent builds the event for one file result.
func NewResultEvent(runID string, r types.MatchResult) ResultEvent {
	ev := ResultEvent{
		RunID:     runID,
		Path:      r.Path,
		Verdict:   r.Verdict.String(),
		Error:     r.Err,
		Size:      r.Size,
		ScannedAt: time.Now().UTC(),
	}

	for _, name := range r.Names {
		ev.Detections = append(ev.Detections, Detection{
			Name:     name,
			Threat:   types.ThreatTypeFromDetection(name).String(),
			Severity: types.SeverityFromDetection(name).String(),
		})
	}

	return ev
}

// NewSummaryEvent builds the event for a finished run.
func NewSummaryEvent(s *scanner.Summary) SummaryEvent {
	return SummaryEvent{
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
