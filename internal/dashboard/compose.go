package dashboard

import (
	"fmt"
	"strings"

	"tableau-agent-mcp-server/internal/question"
)

// fallbackResponse is returned verbatim whenever extraction found nothing,
// so callers can test for it.
const fallbackResponse = "No matching data was visible on the dashboard for this question."

// Compose renders the final answer text. Sections appear in a fixed order:
// dashboard title, recognized entities, applied filters, skipped filters,
// then the extracted data phrased for the intent.
func Compose(intent Intent, entities question.Entities, filters []FilterOutcome, data []Datum, title string) string {
	var b strings.Builder

	if title != "" {
		fmt.Fprintf(&b, "Dashboard: %s\n\n", title)
	}

	if len(entities) > 0 {
		b.WriteString("Understood from the question:\n")
		// resolutionOrder keeps the listing stable across runs.
		for _, kind := range resolutionOrder {
			if v, ok := entities[kind]; ok {
				fmt.Fprintf(&b, "- %s: %s\n", kind, v)
			}
		}
		b.WriteString("\n")
	}

	var applied, skipped []FilterOutcome
	for _, f := range filters {
		if f.Applied {
			applied = append(applied, f)
		} else {
			skipped = append(skipped, f)
		}
	}

	if len(applied) > 0 {
		b.WriteString("Filters applied:\n")
		for _, f := range applied {
			fmt.Fprintf(&b, "- %s = %s\n", f.Filter, f.Value)
		}
		b.WriteString("\n")
	}
	if len(skipped) > 0 {
		b.WriteString("Filters skipped:\n")
		for _, f := range skipped {
			fmt.Fprintf(&b, "- %s = %s (%s)\n", f.Filter, f.Value, f.FailReason)
		}
		b.WriteString("\n")
	}

	if len(data) == 0 {
		b.WriteString(fallbackResponse)
		return b.String()
	}

	switch intent {
	case IntentKPI:
		if len(data) == 1 {
			d := data[0]
			if d.Label != "" {
				fmt.Fprintf(&b, "The dashboard shows %s: %s.", d.Label, d.Value)
			} else {
				fmt.Fprintf(&b, "The dashboard shows a count of %s.", d.Value)
			}
		} else {
			b.WriteString("Counts found:\n")
			for _, d := range data {
				if d.Label != "" {
					fmt.Fprintf(&b, "- %s: %s\n", d.Label, d.Value)
				} else {
					fmt.Fprintf(&b, "- %s\n", d.Value)
				}
			}
		}
	case IntentList:
		b.WriteString("Matching entries:\n")
		for _, d := range data {
			fmt.Fprintf(&b, "- %s\n", d.Value)
		}
	case IntentComparison:
		b.WriteString("Comparison values:\n")
		for _, d := range data {
			fmt.Fprintf(&b, "- %s (%s)\n", d.Value, strings.Join(d.Values, " vs "))
		}
	default:
		b.WriteString("Dashboard sections:\n")
		for _, d := range data {
			fmt.Fprintf(&b, "- %s\n", d.Value)
		}
	}

	return b.String()
}
