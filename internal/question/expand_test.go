package question

import "testing"

func TestExpandExactMatch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"how many bachelor", "how many bachelor's programs"},
		{"How Many Bachelor", "how many bachelor's programs"},
		{"  filter by college  ", "filter by college and show results"},
		{"show me trends", "show me trends in the data over time"},
	}

	for _, tt := range tests {
		got := Expand(tt.in)
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandSubstringMatch(t *testing.T) {
	got := Expand("please compare data")
	want := "compare data across different categories"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpandUnknownQuestionPassesThrough(t *testing.T) {
	in := "which nursing programs does Hunter offer?"
	if got := Expand(in); got != in {
		t.Errorf("Expand(%q) = %q, want input unchanged", in, got)
	}
}

// Expanding twice must equal expanding once, for every table entry and for
// arbitrary questions.
func TestExpandIdempotent(t *testing.T) {
	inputs := []string{
		"how many bachelor",
		"show me data for certificate",
		"filter by degree",
		"show me graphs",
		"how many STEM programs at Baruch",
		"",
	}
	for _, e := range expansions {
		inputs = append(inputs, e.truncated, e.expanded)
	}

	for _, in := range inputs {
		once := Expand(in)
		twice := Expand(once)
		if once != twice {
			t.Errorf("Expand not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
