package question

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Entities
	}{
		{
			name: "count question with subfield, degree, and college",
			in:   "how many computer science bachelor's programs at Lehman",
			want: Entities{
				KindLocation: "Lehman",
				KindDegree:   "Bachelor's",
				KindCategory: "Computer Science",
			},
		},
		{
			name: "coarse category with college",
			in:   "how many STEM programs at Baruch",
			want: Entities{
				KindLocation: "Baruch",
				KindCategory: "STEM",
			},
		},
		{
			name: "program name used when no category matches",
			in:   "show me nursing programs",
			want: Entities{
				KindProgram: "Nursing",
			},
		},
		{
			name: "award name token",
			in:   "show me BA programs",
			want: Entities{
				KindAwardName: "BA",
			},
		},
		{
			name: "phd sets both degree and award name",
			in:   "phd programs at Hunter",
			want: Entities{
				KindLocation:  "Hunter",
				KindDegree:    "Doctoral",
				KindAwardName: "PhD",
			},
		},
		{
			name: "delivery format and year",
			in:   "online certificate programs in 2023",
			want: Entities{
				KindDegree:         "Certificate",
				KindDeliveryFormat: "Online",
				KindTime:           "2023",
			},
		},
		{
			name: "college type plural",
			in:   "degrees offered at community colleges",
			want: Entities{
				KindCollegeType: "Community",
			},
		},
		{
			name: "academic plan with college",
			in:   "accounting programs at Baruch",
			want: Entities{
				KindLocation:     "Baruch",
				KindAcademicPlan: "Accounting",
			},
		},
		{
			name: "relative time keyword",
			in:   "show me the latest enrollment figures",
			want: Entities{
				KindTime: "latest",
			},
		},
		{
			name: "empty question",
			in:   "",
			want: Entities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// Gazetteer names canonicalize no matter what surrounds them, and without
// relying on the location regexes.
func TestExtractGazetteerCanonicalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"programs at lehman", "Lehman"},
		{"LEHMAN COLLEGE offerings", "Lehman"},
		{"what does city college offer", "City College"},
		{"staten island campus data", "Staten Island"},
	}

	for _, tt := range tests {
		got := Extract(tt.in)
		if got[KindLocation] != tt.want {
			t.Errorf("Extract(%q) location = %q, want %q", tt.in, got[KindLocation], tt.want)
		}
	}
}

func TestExtractLocationRegexFallback(t *testing.T) {
	got := Extract("pace university programs")
	if got[KindLocation] != "Pace" {
		t.Errorf("location = %q, want %q", got[KindLocation], "Pace")
	}
}

// No degree keyword means no degree entity, even for questions that look like
// they should have one.
func TestExtractDegreeAbsent(t *testing.T) {
	for _, in := range []string{
		"how many programs at Queens",
		"show me STEM data",
		"compare engineering across colleges",
	} {
		got := Extract(in)
		if v, ok := got[KindDegree]; ok {
			t.Errorf("Extract(%q) degree = %q, want no degree entity", in, v)
		}
	}
}

func TestExtractSevisNegationFirst(t *testing.T) {
	got := Extract("programs that are not sevis eligible")
	if got[KindSevis] != "No" {
		t.Errorf("sevis = %q, want %q", got[KindSevis], "No")
	}

	got = Extract("sevis eligible programs at Brooklyn")
	if got[KindSevis] != "Yes" {
		t.Errorf("sevis = %q, want %q", got[KindSevis], "Yes")
	}
}

// CIP matching tries the 2-digit pattern first across the whole question, so
// a standalone 2-digit code wins over a longer code appearing earlier.
func TestExtractCIPCodePrecedence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"programs under cip 11", "11"},
		{"programs under cip 1107", "1107"},
		{"programs under cip 110701", "110701"},
		{"cip codes 1107 and 11", "11"},
	}

	for _, tt := range tests {
		got := Extract(tt.in)
		if got[KindCIPCode] != tt.want {
			t.Errorf("Extract(%q) cip = %q, want %q", tt.in, got[KindCIPCode], tt.want)
		}
	}
}

// Extraction runs on the expanded question, so a clipped question still
// yields the degree the expansion restores.
func TestExtractRunsOnExpandedQuestion(t *testing.T) {
	got := Extract("how many bachelor")
	if got[KindDegree] != "Bachelor's" {
		t.Errorf("degree = %q, want %q", got[KindDegree], "Bachelor's")
	}
}
