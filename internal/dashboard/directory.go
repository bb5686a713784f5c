package dashboard

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"tableau-agent-mcp-server/internal/config"
)

// labelScript resolves a human label plus the rendered selection for each
// filter container. The chain mirrors how Tableau embeds actually carry
// labels: explicit attributes first, visible text last. "(All)" is an
// option, never a control.
const labelScript = `
(filtersSelector) => {
	const norm = s => (s || '').trim().replace(/\s+/g, ' ');

	const labelFor = (el) => {
		const direct = el.getAttribute('title') ||
			el.getAttribute('aria-label') ||
			el.getAttribute('name') ||
			el.getAttribute('data-testid') ||
			el.getAttribute('data-tb-test-id');
		if (direct) return norm(direct);

		const text = norm(el.textContent);
		if (text) return text;

		const refID = el.getAttribute('aria-labelledby');
		if (refID) {
			const ref = document.getElementById(refID);
			if (ref) return norm(ref.textContent);
		}
		return '';
	};

	const valueFor = (el) => {
		if (el.tagName === 'SELECT') {
			const opt = el.options[el.selectedIndex];
			return opt ? norm(opt.textContent) : '';
		}
		const picked = el.querySelector('.tabComboBoxNameContainer, [class*="NameContainer"]');
		return picked ? norm(picked.textContent) : '';
	};

	const out = [];
	const seen = new Set();
	const push = (label, value) => {
		if (!label || label === '(All)') return;
		const key = label.toLowerCase();
		if (seen.has(key)) return;
		seen.add(key);
		out.push({label: label, value: value || ''});
	};

	document.querySelectorAll('h3.FilterTitle, h3[class*="FilterTitle"]')
		.forEach(el => {
			const container = el.closest('div') || el.parentElement;
			push(norm(el.textContent), container ? valueFor(container) : '');
		});
	document.querySelectorAll(filtersSelector)
		.forEach(el => push(labelFor(el), valueFor(el)));
	document.querySelectorAll('select, [role="combobox"]')
		.forEach(el => push(labelFor(el), valueFor(el)));
	return out;
}
`

// discoveredControl is the raw wire shape labelScript returns per control.
type discoveredControl struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// buildControls turns raw discoveries into controls, deduplicated by cleaned
// label and indexed in discovery order.
func buildControls(found []discoveredControl) []FilterControl {
	controls := make([]FilterControl, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, f := range found {
		clean := CleanLabel(f.Label)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		controls = append(controls, FilterControl{
			Label:        f.Label,
			CleanLabel:   clean,
			Index:        len(controls),
			CurrentValue: f.Value,
		})
	}
	return controls
}

// DiscoverControls enumerates the filter controls currently rendered on the
// page, deduplicated by cleaned label and ordered as found.
func DiscoverControls(page *rod.Page, cfg config.DashboardConfig) ([]FilterControl, error) {
	res, err := page.Evaluate(&rod.EvalOptions{
		JS:           labelScript,
		JSArgs:       []interface{}{cfg.FiltersSelector},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, fmt.Errorf("discover filter controls: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("decode filter labels: %w", err)
	}
	var found []discoveredControl
	if err := json.Unmarshal(raw, &found); err != nil {
		return nil, fmt.Errorf("decode filter labels: %w", err)
	}

	controls := buildControls(found)
	log.Printf("discovered %d filter controls", len(controls))
	return controls, nil
}

// EnumerateOptions opens a control's dropdown, reads its option titles, and
// closes the panel again. The page is left the way it was found even when
// reading fails partway.
func EnumerateOptions(page *rod.Page, cfg config.DashboardConfig, control FilterControl) ([]string, error) {
	if options, ok := nativeSelectOptions(page, control.Label); ok {
		return options, nil
	}

	surface := newRodSurface(page, cfg)

	if err := surface.OpenControl(control.Label); err != nil {
		return nil, err
	}
	defer func() {
		_ = page.Keyboard.Press(input.Escape)
	}()

	if surface.WaitPanelOpen() != waitMet {
		return nil, fmt.Errorf("option panel for %q did not open", control.Label)
	}

	res, err := page.Evaluate(&rod.EvalOptions{
		JS: fmt.Sprintf(`
		() => {
			const panel = document.querySelector('%s');
			if (!panel) return [];
			return Array.from(panel.querySelectorAll('a[title]'))
				.map(a => (a.getAttribute('title') || '').trim())
				.filter(t => t !== '');
		}
		`, panelSelector),
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, fmt.Errorf("read options for %q: %w", control.Label, err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return options, nil
}

// nativeSelectOptions reads option texts straight off a native select matching
// the label, which needs no panel round trip.
func nativeSelectOptions(page *rod.Page, label string) ([]string, bool) {
	res, err := page.Evaluate(&rod.EvalOptions{
		JS: `
		(label) => {
			const norm = s => (s || '').trim().toLowerCase().replace(/\s+/g, ' ');
			const want = norm(label);
			const sel = Array.from(document.querySelectorAll('select')).find(s =>
				norm(s.getAttribute('title') || s.getAttribute('aria-label') || s.getAttribute('name')) === want);
			if (!sel) return null;
			return Array.from(sel.options)
				.map(o => (o.textContent || '').trim())
				.filter(t => t !== '' && t !== '(All)');
		}
		`,
		JSArgs:       []interface{}{label},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return nil, false
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil || string(raw) == "null" {
		return nil, false
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, false
	}
	return options, true
}
