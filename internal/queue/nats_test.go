// ABOUTME: Tests for NATS event construction and publisher behaviour without a server
// ABOUTME: Covers subjects, detection classification, headers, and unconnected errors

package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/queue"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/scanner"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

func TestNATSConfig_Subjects(t *testing.T) {
	t.Parallel()

	cfg := queue.DefaultNATSConfig()
	cfg.Subject = "av.scan"

	if got := cfg.ResultSubject(); got != "av.scan.result" {
		t.Errorf("ResultSubject() = %q", got)
	}
	if got := cfg.SummarySubject(); got != "av.scan.summary" {
		t.Errorf("SummarySubject() = %q", got)
	}
}

func TestNewResultEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      types.MatchResult
		wantVerdict string
		wantThreats []string
	}{
		{
			name:        "clean",
			result:      types.NewCleanResult("/a").WithSize(10),
			wantVerdict: "ok",
		},
		{
			name:        "invalid keeps name order",
			result:      types.NewInvalidResult("/b", "Win.Trojan.Agent-1", "Eicar-Test-Signature"),
			wantVerdict: "invalid",
			wantThreats: []string{"trojan", "testfile"},
		},
		{
			name:        "error",
			result:      types.NewErrorResult("/c", "unable to read file"),
			wantVerdict: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev := queue.NewResultEvent("run-1", tt.result)
			if ev.RunID != "run-1" || ev.Path != tt.result.Path {
				t.Errorf("event = %+v", ev)
			}
			if ev.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %q, want %q", ev.Verdict, tt.wantVerdict)
			}
			if ev.Error != tt.result.Err || ev.Size != tt.result.Size {
				t.Errorf("event = %+v, want error/size from result", ev)
			}
			if len(ev.Detections) != len(tt.wantThreats) {
				t.Fatalf("Detections = %+v", ev.Detections)
			}
			for i, d := range ev.Detections {
				if d.Name != tt.result.Names[i] {
					t.Errorf("Detections[%d].Name = %q", i, d.Name)
				}
				if d.Threat != tt.wantThreats[i] {
					t.Errorf("Detections[%d].Threat = %q, want %q", i, d.Threat, tt.wantThreats[i])
				}
			}
		})
	}
}

func TestNewSummaryEvent(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := scanner.NewSummary("run-9", "2.0.0")
	s.Known = 10
	s.ScannedFiles = 3
	s.Infected = 1
	s.StartDate = start
	s.EndDate = start.Add(2 * time.Second)

	ev := queue.NewSummaryEvent(s)

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded["run_id"] != "run-9" || decoded["elapsed_ms"] != float64(2000) || decoded["infected_files"] != float64(1) {
		t.Errorf("summary event = %s", data)
	}
}

func TestNewMessage_Headers(t *testing.T) {
	t.Parallel()

	msg := queue.NewMessage(context.Background(), "sigscan.result", "run-7", []byte(`{}`))

	if msg.Subject != "sigscan.result" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if got := msg.Header.Get(queue.HeaderRunID); got != "run-7" {
		t.Errorf("run header = %q", got)
	}
	if got := msg.Header.Get(queue.HeaderTraceID); got != "" {
		t.Errorf("trace header = %q, want empty without a span", got)
	}
}

func TestPublisher_NotConnected(t *testing.T) {
	t.Parallel()

	p := queue.NewPublisher(queue.DefaultNATSConfig(), "run", nil)
	ctx := context.Background()

	if p.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if err := p.Report(ctx, types.NewCleanResult("/x")); !errors.Is(err, queue.ErrNotConnected) {
		t.Errorf("Report() error = %v, want ErrNotConnected", err)
	}
	for range queue.DefaultNATSConfig().MaxPublishFailures + 1 {
		_ = p.Report(ctx, types.NewCleanResult("/x"))
	}
	if got := p.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0 while unconnected", got)
	}
	if err := p.Finish(ctx, scanner.NewSummary("run", "v")); !errors.Is(err, queue.ErrNotConnected) {
		t.Errorf("Finish() error = %v, want ErrNotConnected", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
