// ABOUTME: Tests for result reporters
// ABOUTME: Covers console line formats, JSON lines, and fan-out error handling

package scanner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/scanner"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

func TestFormatResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result types.MatchResult
		tables int
		want   string
	}{
		{
			name:   "ok",
			result: types.NewCleanResult("/t/a"),
			tables: 2,
			want:   "/t/a: OK",
		},
		{
			name:   "empty",
			result: types.NewEmptyResult("/t/b"),
			tables: 2,
			want:   "/t/b: Empty file",
		},
		{
			name:   "invalid both tables",
			result: types.NewInvalidResult("/t/c", "Foo", "Bar"),
			tables: 2,
			want:   "/t/c: Invalid: Foo, Bar FOUND(2/2)",
		},
		{
			name:   "invalid single table",
			result: types.NewInvalidResult("/t/d", "Foo"),
			tables: 1,
			want:   "/t/d: Invalid: Foo FOUND(1/1)",
		},
		{
			name:   "one of two",
			result: types.NewInvalidResult("/t/e", "Foo"),
			tables: 2,
			want:   "/t/e: Invalid: Foo FOUND(1/2)",
		},
		{
			name:   "error",
			result: types.NewErrorResult("/t/f", "unable to read file"),
			tables: 2,
			want:   "/t/f: Error: unable to read file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := scanner.FormatResult(tt.result, tt.tables); got != tt.want {
				t.Errorf("FormatResult() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextReporter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		showSummary bool
		wantSummary bool
	}{
		{name: "with summary", showSummary: true, wantSummary: true},
		{name: "without summary", showSummary: false, wantSummary: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			rep := scanner.NewTextReporter(&buf, 2, tt.showSummary)
			ctx := context.Background()

			if err := rep.Report(ctx, types.NewCleanResult("/x")); err != nil {
				t.Fatalf("Report() error: %v", err)
			}
			if err := rep.Finish(ctx, scanner.NewSummary("run", "v")); err != nil {
				t.Fatalf("Finish() error: %v", err)
			}

			if !strings.HasPrefix(buf.String(), "/x: OK\n") {
				t.Errorf("output = %q", buf.String())
			}
			if got := strings.Contains(buf.String(), "SCAN SUMMARY"); got != tt.wantSummary {
				t.Errorf("summary present = %v, want %v", got, tt.wantSummary)
			}
		})
	}
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := scanner.NewJSONReporter(&buf, true)
	ctx := context.Background()

	if err := rep.Report(ctx, types.NewInvalidResult("/x", "Foo", "Bar").WithSize(4)); err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	if err := rep.Report(ctx, types.NewErrorResult("/y", "unable to read file")); err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	summary := scanner.NewSummary("run-42", "1.0.0")
	summary.Infected = 1
	if err := rep.Finish(ctx, summary); err != nil {
		t.Fatalf("Finish() error: %v", err)
	}

	sc := bufio.NewScanner(&buf)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}

	var first scanner.ResultRecord
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if first.Type != "result" || first.Verdict != "invalid" || len(first.Names) != 2 || first.Size != 4 {
		t.Errorf("first record = %+v", first)
	}

	var second scanner.ResultRecord
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if second.Verdict != "error" || second.Error != "unable to read file" {
		t.Errorf("second record = %+v", second)
	}

	var last scanner.SummaryRecord
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if last.Type != "summary" || last.RunID != "run-42" || last.Infected != 1 {
		t.Errorf("summary record = %+v", last)
	}
}

// recordingReporter remembers what it was given.
type recordingReporter struct {
	results  []types.MatchResult
	finished *scanner.Summary
	err      error
}

func (r *recordingReporter) Report(_ context.Context, res types.MatchResult) error {
	r.results = append(r.results, res)
	return r.err
}

func (r *recordingReporter) Finish(_ context.Context, s *scanner.Summary) error {
	r.finished = s
	return r.err
}

func TestMultiReporter(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken pipe")
	failing := &recordingReporter{err: errBroken}
	healthy := &recordingReporter{}
	multi := scanner.MultiReporter{failing, healthy}
	ctx := context.Background()

	if err := multi.Report(ctx, types.NewCleanResult("/x")); !errors.Is(err, errBroken) {
		t.Errorf("Report() error = %v, want %v", err, errBroken)
	}
	if len(healthy.results) != 1 {
		t.Error("healthy reporter was skipped after a failure")
	}

	summary := scanner.NewSummary("run", "v")
	if err := multi.Finish(ctx, summary); !errors.Is(err, errBroken) {
		t.Errorf("Finish() error = %v, want %v", err, errBroken)
	}
	if healthy.finished != summary {
		t.Error("healthy reporter did not receive the summary")
	}
}
