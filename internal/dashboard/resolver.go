package dashboard

import (
	"log"
	"strings"

	"tableau-agent-mcp-server/internal/question"
)

// resolutionOrder fixes which entity claims a control first when two kinds
// could plausibly score the same control.
var resolutionOrder = []question.EntityKind{
	question.KindLocation,
	question.KindDegree,
	question.KindCategory,
	question.KindProgram,
	question.KindAwardName,
	question.KindDeliveryFormat,
	question.KindCollegeType,
	question.KindAcademicPlan,
	question.KindCIPCode,
	question.KindSevis,
	question.KindTime,
}

// candidateLabels lists, best-first, the control labels each entity kind is
// willing to bind to. Matching is against the cleaned label.
var candidateLabels = map[question.EntityKind][]string{
	question.KindLocation:       {"reporting college", "enrolled college", "college", "university", "institution", "campus"},
	question.KindDegree:         {"award level", "award name", "degree", "level", "program"},
	question.KindCategory:       {"stem category", "category", "type", "classification"},
	question.KindProgram:        {"program name", "academic plan", "program", "name", "title"},
	question.KindAwardName:      {"award name"},
	question.KindDeliveryFormat: {"delivery format", "delivery", "format", "modality"},
	question.KindCollegeType:    {"college type", "type of college"},
	question.KindAcademicPlan:   {"academic plan", "plan"},
	question.KindCIPCode:        {"cip code", "cip"},
	question.KindSevis:          {"sevis eligible", "sevis"},
	question.KindTime:           {"year", "date", "period"},
}

// labelBoost rewards controls whose labels are known-good homes for a kind,
// so "Reporting College" beats a bare "College" control.
var labelBoost = map[question.EntityKind][]struct {
	fragment string
	bonus    int
}{
	question.KindLocation: {
		{"reporting college", 15},
		{"enrolled college", 10},
	},
	question.KindDegree: {
		{"award level", 15},
		{"award name", 10},
	},
}

const (
	scoreExact     = 10
	scoreSubstring = 5
)

// Resolve maps each extracted entity onto the best-scoring available control.
// Resolution is deterministic: kinds are visited in a fixed order, each
// control serves at most one entity, and score ties go to the control
// discovered first. Entities with no scoring control are dropped.
func Resolve(entities question.Entities, controls []FilterControl) []FilterAssignment {
	assignments := make([]FilterAssignment, 0, len(entities))
	claimed := make(map[int]bool, len(controls))

	for _, kind := range resolutionOrder {
		value, ok := entities[kind]
		if !ok {
			continue
		}

		best := -1
		bestScore := 0
		for i, ctrl := range controls {
			if claimed[i] {
				continue
			}
			s := scoreControl(kind, ctrl.CleanLabel)
			if s > bestScore {
				best, bestScore = i, s
			}
		}

		if best < 0 {
			log.Printf("no filter control matches %s entity %q, dropping", kind, value)
			continue
		}

		claimed[best] = true
		assignments = append(assignments, FilterAssignment{
			Kind:    kind,
			Value:   value,
			Control: controls[best],
			Score:   bestScore,
		})
	}

	return assignments
}

func scoreControl(kind question.EntityKind, cleanLabel string) int {
	base := 0
	for _, cand := range candidateLabels[kind] {
		if cleanLabel == cand {
			base = scoreExact
			break
		}
		if base < scoreSubstring && strings.Contains(cleanLabel, cand) {
			base = scoreSubstring
		}
	}
	if base == 0 {
		return 0
	}
	for _, b := range labelBoost[kind] {
		if strings.Contains(cleanLabel, b.fragment) {
			base += b.bonus
			break
		}
	}
	return base
}

// CleanLabel normalizes a rendered control label for matching and dedupe.
func CleanLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
