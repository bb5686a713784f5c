package dashboard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Intent is the shape of answer a question is asking for.
type Intent string

const (
	IntentKPI        Intent = "kpi"
	IntentList       Intent = "list"
	IntentComparison Intent = "comparison"
	IntentSummary    Intent = "summary"
)

// DetectIntent classifies the question by its leading verbs. Checks run in
// order; the first matching group wins.
func DetectIntent(q string) Intent {
	lower := strings.ToLower(q)
	for _, kw := range []string{"how many", "count", "number"} {
		if strings.Contains(lower, kw) {
			return IntentKPI
		}
	}
	for _, kw := range []string{"show", "list", "what", "which"} {
		if strings.Contains(lower, kw) {
			return IntentList
		}
	}
	for _, kw := range []string{"compare", "difference"} {
		if strings.Contains(lower, kw) {
			return IntentComparison
		}
	}
	return IntentSummary
}

// Labeled counts render as "Programs: 42". The label group stops at the
// colon so adjacent cells don't bleed in.
var labeledKPIPattern = regexp.MustCompile(`([A-Za-z][A-Za-z\s]*?):\s*(\d+)`)

var numberPattern = regexp.MustCompile(`\b(\d{2,4})\b`)

const (
	kpiMin = 10
	kpiMax = 9999

	maxKPIs        = 10
	maxListItems   = 20
	maxComparisons = 10
	maxSummaries   = 10

	minFreeTextLen = 3
	maxFreeTextLen = 200
	minHeadingLen  = 5
	maxHeadingLen  = 300
)

// ExtractData scrapes the rendered dashboard HTML for data matching the
// question's intent. The HTML is a snapshot taken after filters settled, so
// everything here is a pure function of it.
func ExtractData(html string, intent Intent) ([]Datum, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse dashboard html: %w", err)
	}

	switch intent {
	case IntentKPI:
		return extractKPIs(doc), nil
	case IntentList:
		return extractListItems(doc), nil
	case IntentComparison:
		return extractComparisons(doc), nil
	default:
		return extractSummaries(doc), nil
	}
}

// leafTexts yields the trimmed text of leaf elements, so a parent's text
// never duplicates its children's. tag is the element name the text came from.
func leafTexts(doc *goquery.Document, visit func(tag, text string) bool) {
	doc.Find("span, div, td, th, p, label, h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		return visit(goquery.NodeName(s), text)
	})
}

func extractKPIs(doc *goquery.Document) []Datum {
	var labeled, bare []Datum

	leafTexts(doc, func(tag, text string) bool {
		for _, m := range labeledKPIPattern.FindAllStringSubmatch(text, -1) {
			if !plausibleCount(m[2]) {
				continue
			}
			labeled = append(labeled, Datum{
				Kind:    DatumKPI,
				Label:   strings.TrimSpace(m[1]),
				Value:   m[2],
				Context: text,
				Tag:     tag,
			})
		}
		if len(labeled) == 0 {
			for _, m := range numberPattern.FindAllStringSubmatch(text, -1) {
				if plausibleCount(m[1]) {
					bare = append(bare, Datum{Kind: DatumKPI, Value: m[1], Context: text, Tag: tag})
				}
			}
		}
		return len(labeled) < maxKPIs
	})

	if len(labeled) > 0 {
		return capDatums(labeled, maxKPIs)
	}
	return capDatums(bare, maxKPIs)
}

func plausibleCount(s string) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= kpiMin && n <= kpiMax
}

func extractListItems(doc *goquery.Document) []Datum {
	var items []Datum

	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		parts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			if t := strings.TrimSpace(c.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) >= 2 {
			items = append(items, Datum{
				Kind:  DatumListItem,
				Value: strings.Join(parts, " | "),
				Cells: parts,
				Tag:   "tr",
			})
		}
		return len(items) < maxListItems
	})

	if len(items) > 0 {
		return items
	}

	// No tables on the sheet; fall back to short free-text nodes.
	leafTexts(doc, func(tag, text string) bool {
		if len(text) >= minFreeTextLen && len(text) <= maxFreeTextLen {
			items = append(items, Datum{Kind: DatumListItem, Value: text, Tag: tag})
		}
		return len(items) < maxListItems
	})
	return items
}

func extractComparisons(doc *goquery.Document) []Datum {
	var items []Datum

	leafTexts(doc, func(tag, text string) bool {
		nums := numberPattern.FindAllString(text, -1)
		if len(nums) >= 2 {
			items = append(items, Datum{
				Kind:   DatumComparison,
				Value:  text,
				Values: nums,
				Tag:    tag,
			})
		}
		return len(items) < maxComparisons
	})
	return items
}

func extractSummaries(doc *goquery.Document) []Datum {
	var items []Datum

	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if len(text) >= minHeadingLen && len(text) <= maxHeadingLen {
			items = append(items, Datum{Kind: DatumSummary, Value: text, Tag: goquery.NodeName(s)})
		}
		return len(items) < maxSummaries
	})
	return items
}

func capDatums(ds []Datum, n int) []Datum {
	if len(ds) > n {
		return ds[:n]
	}
	return ds
}
