// ABOUTME: Tests for MatchResult verdicts and accumulation
// ABOUTME: Covers constructors, verdict strings, and append-not-overwrite folding

package types_test

import (
	"reflect"
	"testing"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/types"
)

func TestVerdict_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verdict types.Verdict
		want    string
	}{
		{name: "Clean", verdict: types.VerdictClean, want: "ok"},
		{name: "Empty", verdict: types.VerdictEmpty, want: "empty"},
		{name: "Invalid", verdict: types.VerdictInvalid, want: "invalid"},
		{name: "Error", verdict: types.VerdictError, want: "error"},
		{name: "Out of range", verdict: types.Verdict(42), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.verdict.String(); got != tt.want {
				t.Errorf("Verdict.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	clean := types.NewCleanResult("/tmp/a")
	if clean.Verdict != types.VerdictClean || clean.Path != "/tmp/a" || clean.IsInfected() {
		t.Errorf("NewCleanResult() = %+v", clean)
	}

	empty := types.NewEmptyResult("/tmp/b")
	if empty.Verdict != types.VerdictEmpty || empty.IsInfected() {
		t.Errorf("NewEmptyResult() = %+v", empty)
	}

	invalid := types.NewInvalidResult("/tmp/c", "Foo", "Bar")
	if !invalid.IsInfected() {
		t.Error("NewInvalidResult().IsInfected() = false, want true")
	}
	if !reflect.DeepEqual(invalid.Names, []string{"Foo", "Bar"}) {
		t.Errorf("Names = %v, want [Foo Bar]", invalid.Names)
	}

	errRes := types.NewErrorResult("/tmp/d", "unable to read file")
	if errRes.Verdict != types.VerdictError || errRes.Err != "unable to read file" {
		t.Errorf("NewErrorResult() = %+v", errRes)
	}
}

func TestAccumulate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		prev      types.MatchResult
		match     string
		wantNames []string
	}{
		{
			name:      "clean starts new invalid",
			prev:      types.NewCleanResult("/f"),
			match:     "Foo",
			wantNames: []string{"Foo"},
		},
		{
			name:      "invalid appends",
			prev:      types.NewInvalidResult("/f", "Foo"),
			match:     "Bar",
			wantNames: []string{"Foo", "Bar"},
		},
		{
			name:      "invalid appends duplicate name",
			prev:      types.NewInvalidResult("/f", "X"),
			match:     "X",
			wantNames: []string{"X", "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := types.Accumulate(tt.prev, tt.match)
			if got.Verdict != types.VerdictInvalid {
				t.Errorf("Verdict = %v, want invalid", got.Verdict)
			}
			if got.Path != tt.prev.Path {
				t.Errorf("Path = %q, want %q", got.Path, tt.prev.Path)
			}
			if !reflect.DeepEqual(got.Names, tt.wantNames) {
				t.Errorf("Names = %v, want %v", got.Names, tt.wantNames)
			}
		})
	}
}

func TestAccumulate_DoesNotMutatePrevious(t *testing.T) {
	t.Parallel()

	names := make([]string, 1, 4)
	names[0] = "Foo"
	prev := types.MatchResult{Path: "/f", Verdict: types.VerdictInvalid, Names: names}

	a := types.Accumulate(prev, "Bar")
	b := types.Accumulate(prev, "Baz")

	if !reflect.DeepEqual(prev.Names, []string{"Foo"}) {
		t.Errorf("prev.Names = %v, want [Foo]", prev.Names)
	}
	if !reflect.DeepEqual(a.Names, []string{"Foo", "Bar"}) {
		t.Errorf("a.Names = %v, want [Foo Bar]", a.Names)
	}
	if !reflect.DeepEqual(b.Names, []string{"Foo", "Baz"}) {
		t.Errorf("b.Names = %v, want [Foo Baz]", b.Names)
	}
}

func TestAccumulate_KeepsSize(t *testing.T) {
	t.Parallel()

	got := types.Accumulate(types.NewCleanResult("/f").WithSize(4), "Trojan.Test")
	if got.Size != 4 {
		t.Errorf("Size = %d, want 4", got.Size)
	}
}

func TestThreatClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		detection  string
		wantThreat types.ThreatType
		wantSev    types.Severity
	}{
		{name: "trojan", detection: "Win.Trojan.Agent-123", wantThreat: types.ThreatTypeTrojan, wantSev: types.SeverityCritical},
		{name: "worm", detection: "Win.Worm.Mydoom", wantThreat: types.ThreatTypeWorm, wantSev: types.SeverityHigh},
		{name: "pua", detection: "PUA.Win.Packer", wantThreat: types.ThreatTypePUP, wantSev: types.SeverityMedium},
		{name: "eicar", detection: "Eicar-Test-Signature", wantThreat: types.ThreatTypeTestFile, wantSev: types.SeverityLow},
		{name: "generic", detection: "Unix.Malware.Agent", wantThreat: types.ThreatTypeMalware, wantSev: types.SeverityMedium},
		{name: "empty", detection: "", wantThreat: types.ThreatTypeUnknown, wantSev: types.SeverityUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := types.ThreatTypeFromDetection(tt.detection); got != tt.wantThreat {
				t.Errorf("ThreatTypeFromDetection(%q) = %v, want %v", tt.detection, got, tt.wantThreat)
			}
			if got := types.SeverityFromDetection(tt.detection); got != tt.wantSev {
				t.Errorf("SeverityFromDetection(%q) = %v, want %v", tt.detection, got, tt.wantSev)
			}
		})
	}
}
