package question

import (
	"regexp"
	"strings"
)

// EntityKind classifies a value extracted from the question text.
type EntityKind string

const (
	KindLocation       EntityKind = "location"
	KindDegree         EntityKind = "degree"
	KindCategory       EntityKind = "category"
	KindProgram        EntityKind = "program"
	KindAwardName      EntityKind = "award_name"
	KindDeliveryFormat EntityKind = "delivery_format"
	KindCollegeType    EntityKind = "college_type"
	KindAcademicPlan   EntityKind = "academic_plan"
	KindCIPCode        EntityKind = "cip_code"
	KindSevis          EntityKind = "sevis_eligibility"
	KindTime           EntityKind = "time"
)

// Entities holds at most one value per kind. First match wins within a kind;
// kinds are independent of each other.
type Entities map[EntityKind]string

// keywordEntry pairs a set of trigger keywords with the canonical value they
// map to. Slice order is the tie-break, so precedence is a data change.
type keywordEntry struct {
	keywords  []string
	canonical string
}

// Known institution short names. Multi-word entries are canonicalized as a
// unit ("city college" -> "City College").
var collegeGazetteer = []keywordEntry{
	{[]string{"lehman"}, "Lehman"},
	{[]string{"baruch"}, "Baruch"},
	{[]string{"queens"}, "Queens"},
	{[]string{"brooklyn"}, "Brooklyn"},
	{[]string{"hunter"}, "Hunter"},
	{[]string{"city college"}, "City College"},
	{[]string{"bronx"}, "Bronx"},
	{[]string{"staten island"}, "Staten Island"},
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([a-z]+(?:\s+[a-z]+)*)\s+(?:college|university|school|institution)\b`),
	regexp.MustCompile(`\b([a-z]+(?:\s+[a-z]+)*)\s+(?:city|state|county)\b`),
}

var degreeTable = []keywordEntry{
	{[]string{"bachelor"}, "Bachelor's"},
	{[]string{"master"}, "Master's"},
	{[]string{"associate"}, "Associate"},
	{[]string{"certificate"}, "Certificate"},
	{[]string{"doctoral", "phd", "doctorate"}, "Doctoral"},
}

var categoryTable = []keywordEntry{
	{[]string{"stem"}, "STEM"},
	{[]string{"business", "commerce"}, "Business"},
	{[]string{"engineering"}, "Engineering"},
	{[]string{"arts", "art"}, "Arts"},
	{[]string{"science", "scientific"}, "Science"},
	{[]string{"education", "teaching"}, "Education"},
	{[]string{"medicine", "medical"}, "Medicine"},
	{[]string{"law", "legal"}, "Law"},
	{[]string{"technology", "tech"}, "Technology"},
}

// STEM subfields override the coarse category when present: "computer
// science" should resolve to Computer Science, not Science.
var stemSubfieldTable = []keywordEntry{
	{[]string{"computer science"}, "Computer Science"},
	{[]string{"biology", "biological"}, "Biology"},
	{[]string{"chemistry"}, "Chemistry"},
	{[]string{"engineering"}, "Engineering"},
	{[]string{"mathematics", "math"}, "Mathematics"},
	{[]string{"physics"}, "Physics"},
	{[]string{"statistics"}, "Statistics"},
	{[]string{"technology"}, "Technology"},
	{[]string{"earth science", "geology"}, "Earth Science"},
	{[]string{"general science"}, "General Science"},
}

// Closed list of program names, only consulted when no category matched.
var programTable = []keywordEntry{
	{[]string{"business administration"}, "Business Administration"},
	{[]string{"nursing"}, "Nursing"},
	{[]string{"psychology"}, "Psychology"},
	{[]string{"education"}, "Education"},
	{[]string{"social work"}, "Social Work"},
	{[]string{"criminal justice"}, "Criminal Justice"},
}

var awardNamePattern = regexp.MustCompile(`\b(ba|bs|ma|ms|mba|aas|aa|phd)\b`)

var deliveryFormatTable = []keywordEntry{
	{[]string{"online", "distance learning"}, "Online"},
	{[]string{"in person", "in-person", "on campus", "on-campus"}, "In Person"},
	{[]string{"hybrid", "blended"}, "Hybrid"},
}

var collegeTypeTable = []keywordEntry{
	{[]string{"community college", "community colleges"}, "Community"},
	{[]string{"senior college", "senior colleges"}, "Senior"},
	{[]string{"comprehensive college", "comprehensive colleges"}, "Comprehensive"},
	{[]string{"graduate school", "graduate schools"}, "Graduate"},
}

var academicPlanTable = []keywordEntry{
	{[]string{"accounting"}, "Accounting"},
	{[]string{"finance"}, "Finance"},
	{[]string{"marketing"}, "Marketing"},
	{[]string{"biotechnology"}, "Biotechnology"},
	{[]string{"data science"}, "Data Science"},
	{[]string{"public health"}, "Public Health"},
}

// CIP codes are only looked for when the question mentions "cip", so years
// and counts don't masquerade as codes. Patterns are tried shortest-first,
// matching the dashboard's 2, 4, and 6 digit code filters; a standalone
// 2-digit code wins over a longer code elsewhere in the question.
var cipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{2})\b`),
	regexp.MustCompile(`\b(\d{4})\b`),
	regexp.MustCompile(`\b(\d{6})\b`),
}

var sevisTable = []keywordEntry{
	{[]string{"not sevis eligible", "not sevis-eligible"}, "No"},
	{[]string{"sevis eligible", "sevis-eligible", "sevis approved", "sevis"}, "Yes"},
}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(20\d{2})\b`),
	regexp.MustCompile(`\b(current|recent|latest)\b`),
	regexp.MustCompile(`\b(last\s+year|this\s+year)\b`),
}

// Extract classifies the question into typed entities. It is total: no input
// is rejected, and a kind with no match is simply absent from the result.
func Extract(q string) Entities {
	lower := strings.ToLower(Expand(q))
	entities := make(Entities)

	if loc := extractLocation(lower); loc != "" {
		entities[KindLocation] = loc
	}
	if deg, ok := lookupKeyword(degreeTable, lower); ok {
		entities[KindDegree] = deg
	}

	category, haveCategory := lookupKeyword(categoryTable, lower)
	if sub, ok := lookupKeyword(stemSubfieldTable, lower); ok {
		category, haveCategory = sub, true
	}
	if haveCategory {
		entities[KindCategory] = category
	} else if prog, ok := lookupKeyword(programTable, lower); ok {
		entities[KindProgram] = prog
	}

	if m := awardNamePattern.FindStringSubmatch(lower); m != nil {
		if m[1] == "phd" {
			entities[KindAwardName] = "PhD"
		} else {
			entities[KindAwardName] = strings.ToUpper(m[1])
		}
	}
	if v, ok := lookupKeyword(deliveryFormatTable, lower); ok {
		entities[KindDeliveryFormat] = v
	}
	if v, ok := lookupKeyword(collegeTypeTable, lower); ok {
		entities[KindCollegeType] = v
	}
	if v, ok := lookupKeyword(academicPlanTable, lower); ok {
		entities[KindAcademicPlan] = v
	}
	if strings.Contains(lower, "cip") {
		for _, p := range cipPatterns {
			if m := p.FindStringSubmatch(lower); m != nil {
				entities[KindCIPCode] = m[1]
				break
			}
		}
	}
	if v, ok := lookupKeyword(sevisTable, lower); ok {
		entities[KindSevis] = v
	}
	for _, p := range timePatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			entities[KindTime] = m[1]
			break
		}
	}

	return entities
}

func extractLocation(lower string) string {
	for _, entry := range collegeGazetteer {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.canonical
			}
		}
	}
	for _, p := range locationPatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			return titleCase(m[1])
		}
	}
	return ""
}

func lookupKeyword(table []keywordEntry, lower string) (string, bool) {
	for _, entry := range table {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.canonical, true
			}
		}
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
