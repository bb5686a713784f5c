// Package question turns free-text questions about the program inventory
// dashboard into typed entities the filter resolver can act on. Everything in
// this package is pure: tables in, strings out, no surface access.
package question

import "strings"

// expansion maps a known truncated phrasing to its likely full form. The
// hosting agent sometimes clips questions mid-word ("how many bachelor"), so
// extraction runs on the expanded form.
type expansion struct {
	truncated string
	expanded  string
}

// Ordered: exact matches are tried before substring matches, and within each
// pass the first hit wins.
var expansions = []expansion{
	{"show me data for bachelor", "show me data for bachelor's programs"},
	{"show me data for master", "show me data for master's programs"},
	{"show me data for associate", "show me data for associate programs"},
	{"show me data for certificate", "show me data for certificate programs"},
	{"how many bachelor", "how many bachelor's programs"},
	{"how many master", "how many master's programs"},
	{"how many associate", "how many associate programs"},
	{"how many certificate", "how many certificate programs"},
	{"filter by college", "filter by college and show results"},
	{"filter by degree", "filter by degree level and show results"},
	{"filter by program", "filter by program type and show results"},
	{"compare data", "compare data across different categories"},
	{"show me trends", "show me trends in the data over time"},
	{"show me charts", "show me charts and visualizations"},
	{"show me graphs", "show me graphs and charts"},
}

// Expand canonicalizes known truncated questions. Expanding an
// already-expanded question returns it unchanged.
func Expand(q string) string {
	lower := strings.ToLower(strings.TrimSpace(q))

	for _, e := range expansions {
		if lower == e.truncated {
			return e.expanded
		}
	}
	for _, e := range expansions {
		if strings.Contains(lower, e.truncated) {
			if lower == e.expanded {
				return q
			}
			return e.expanded
		}
	}
	return q
}
