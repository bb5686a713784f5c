// Package dashboard drives a published Tableau dashboard: it discovers the
// filter controls on the rendered page, maps question entities onto them,
// walks each control through its dropdown protocol, and scrapes the refreshed
// page for an answer.
package dashboard

import "tableau-agent-mcp-server/internal/question"

// FilterControl is one combo-box control discovered on the page.
type FilterControl struct {
	Label        string `json:"label"`                   // label as rendered, whitespace intact
	CleanLabel   string `json:"clean_label"`             // lowercased, collapsed whitespace; dedupe key
	Index        int    `json:"index"`                   // position in discovery order
	CurrentValue string `json:"current_value,omitempty"` // rendered selection at discovery time
}

// FilterAssignment binds an extracted entity to the control that should
// receive its value.
type FilterAssignment struct {
	Kind    question.EntityKind `json:"kind"`
	Value   string              `json:"value"`
	Control FilterControl       `json:"control"`
	Score   int                 `json:"score"`
}

// FilterOutcome records what happened when an assignment was driven through
// the page. Applied stays true on a close-timeout because the selection was
// already confirmed; FailReason is set only when Applied is false.
type FilterOutcome struct {
	Filter     string `json:"filter"`
	Value      string `json:"value"`
	Applied    bool   `json:"applied"`
	FailReason string `json:"fail_reason,omitempty"`
}

// DatumKind tags what a scraped value is.
type DatumKind string

const (
	DatumKPI        DatumKind = "kpi"
	DatumListItem   DatumKind = "list_item"
	DatumComparison DatumKind = "comparison"
	DatumSummary    DatumKind = "summary"
)

// Datum is one piece of data scraped from the refreshed dashboard. Label is
// only set for labeled KPIs; Values carries the number set of a comparison;
// Cells carries the raw columns of a table row. Tag names the HTML element
// the value came from and Context the surrounding text, both for provenance.
type Datum struct {
	Kind    DatumKind `json:"kind"`
	Label   string    `json:"label,omitempty"`
	Value   string    `json:"value"`
	Values  []string  `json:"values,omitempty"`
	Cells   []string  `json:"cells,omitempty"`
	Context string    `json:"context,omitempty"`
	Tag     string    `json:"tag,omitempty"`
}

// Result is the full answer for one analyzed question.
type Result struct {
	Question       string          `json:"question"`
	Response       string          `json:"response"`
	AppliedFilters []FilterOutcome `json:"applied_filters"`
	ExtractedData  []Datum         `json:"extracted_data"`
	DashboardTitle string          `json:"dashboard_title,omitempty"`
	DashboardURL   string          `json:"dashboard_url,omitempty"`
	ScreenshotPath string          `json:"screenshot_path,omitempty"`
}
