package dashboard

import (
	"reflect"
	"testing"

	"tableau-agent-mcp-server/internal/question"
)

func controlsFromLabels(labels ...string) []FilterControl {
	out := make([]FilterControl, len(labels))
	for i, l := range labels {
		out[i] = FilterControl{Label: l, CleanLabel: CleanLabel(l), Index: i}
	}
	return out
}

func TestResolvePrefersReportingCollege(t *testing.T) {
	controls := controlsFromLabels("University Name", "Reporting College")
	entities := question.Entities{question.KindLocation: "Lehman"}

	got := Resolve(entities, controls)
	if len(got) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(got))
	}
	if got[0].Control.Label != "Reporting College" {
		t.Errorf("assigned to %q, want %q", got[0].Control.Label, "Reporting College")
	}
	if got[0].Score != 25 {
		t.Errorf("score = %d, want 25", got[0].Score)
	}
}

func TestResolveSubstringScore(t *testing.T) {
	controls := controlsFromLabels("University Name")
	got := Resolve(question.Entities{question.KindLocation: "Pace"}, controls)
	if len(got) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(got))
	}
	if got[0].Score != scoreSubstring {
		t.Errorf("score = %d, want %d", got[0].Score, scoreSubstring)
	}
}

func TestResolveDegreeBoost(t *testing.T) {
	controls := controlsFromLabels("Program Name", "Award Level")
	got := Resolve(question.Entities{question.KindDegree: "Bachelor's"}, controls)
	if len(got) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(got))
	}
	if got[0].Control.Label != "Award Level" {
		t.Errorf("assigned to %q, want %q", got[0].Control.Label, "Award Level")
	}
}

// Each control serves at most one entity; the kind earlier in the resolution
// order claims the contested control.
func TestResolveControlClaimedOnce(t *testing.T) {
	controls := controlsFromLabels("Program Name")
	entities := question.Entities{
		question.KindDegree:  "Bachelor's",
		question.KindProgram: "Nursing",
	}

	got := Resolve(entities, controls)
	if len(got) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(got))
	}
	if got[0].Kind != question.KindDegree {
		t.Errorf("control claimed by %s, want %s", got[0].Kind, question.KindDegree)
	}
}

func TestResolveUnmatchedEntityDropped(t *testing.T) {
	controls := controlsFromLabels("Reporting College")
	entities := question.Entities{
		question.KindLocation: "Lehman",
		question.KindTime:     "2023",
	}

	got := Resolve(entities, controls)
	if len(got) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(got))
	}
	if got[0].Kind != question.KindLocation {
		t.Errorf("kept %s, want %s", got[0].Kind, question.KindLocation)
	}
}

// Same inputs always produce the same assignments in the same order.
func TestResolveDeterministic(t *testing.T) {
	controls := controlsFromLabels("Reporting College", "Award Level", "STEM Category", "Year")
	entities := question.Entities{
		question.KindLocation: "Baruch",
		question.KindDegree:   "Master's",
		question.KindCategory: "STEM",
		question.KindTime:     "2024",
	}

	first := Resolve(entities, controls)
	for i := 0; i < 10; i++ {
		again := Resolve(entities, controls)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("resolution differs across runs:\n%v\n%v", first, again)
		}
	}

	wantKinds := []question.EntityKind{
		question.KindLocation,
		question.KindDegree,
		question.KindCategory,
		question.KindTime,
	}
	if len(first) != len(wantKinds) {
		t.Fatalf("expected %d assignments, got %d", len(wantKinds), len(first))
	}
	for i, k := range wantKinds {
		if first[i].Kind != k {
			t.Errorf("assignment %d kind = %s, want %s", i, first[i].Kind, k)
		}
	}
}

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Reporting   College ", "reporting college"},
		{"Award\nLevel", "award level"},
		{"YEAR", "year"},
	}
	for _, tt := range tests {
		if got := CleanLabel(tt.in); got != tt.want {
			t.Errorf("CleanLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
