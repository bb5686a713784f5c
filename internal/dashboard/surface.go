package dashboard

import (
	"fmt"
	"log"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"tableau-agent-mcp-server/internal/config"
)

// panelSelector matches the dropdown option panel Tableau renders for a
// combo-box filter. The class list is version-dependent; "tile" has been
// stable across the embeds we target.
const panelSelector = `div[role="listbox"][class*="tile"]`

// locatorStrategy is one way of turning a filter label into a click on its
// dropdown button. Strategies run in order until one reports success.
type locatorStrategy struct {
	name string
	js   string
}

// Strategy scripts take the label, click the button themselves, and return
// whether they found it. Label matching is case and whitespace insensitive.
var openControlStrategies = []locatorStrategy{
	{
		name: "filter title traversal",
		js: `
		(label) => {
			const norm = s => (s || '').trim().toLowerCase().replace(/\s+/g, ' ');
			const want = norm(label);
			const titles = Array.from(document.querySelectorAll('h3.FilterTitle, h3[class*="FilterTitle"]'));
			const title = titles.find(t => norm(t.textContent) === want) ||
				titles.find(t => norm(t.textContent).includes(want));
			if (!title) return false;
			let node = title;
			for (let i = 0; i < 6 && node; i++) {
				const btn = node.querySelector && node.querySelector('span.tabComboBoxButton');
				if (btn) { btn.click(); return true; }
				node = node.parentElement;
			}
			return false;
		}
		`,
	},
	{
		name: "name container sibling",
		js: `
		(label) => {
			const norm = s => (s || '').trim().toLowerCase().replace(/\s+/g, ' ');
			const want = norm(label);
			const containers = Array.from(document.querySelectorAll('div.tabComboBoxNameContainer'));
			const hit = containers.find(c => norm(c.textContent) === want) ||
				containers.find(c => norm(c.textContent).includes(want));
			if (!hit) return false;
			let node = hit;
			for (let i = 0; i < 6 && node; i++) {
				const btn = node.querySelector && node.querySelector('span.tabComboBoxButton');
				if (btn) { btn.click(); return true; }
				node = node.parentElement;
			}
			return false;
		}
		`,
	},
	{
		name: "text proximity",
		js: `
		(label) => {
			const norm = s => (s || '').trim().toLowerCase().replace(/\s+/g, ' ');
			const want = norm(label);
			const all = Array.from(document.querySelectorAll('h1, h2, h3, h4, span, div'));
			const hit = all.find(el => el.children.length === 0 && norm(el.textContent) === want);
			if (!hit) return false;
			let node = hit;
			for (let i = 0; i < 8 && node; i++) {
				const btn = node.querySelector && node.querySelector('span.tabComboBoxButton');
				if (btn) { btn.click(); return true; }
				node = node.parentElement;
			}
			return false;
		}
		`,
	},
}

// rodSurface drives the dropdown protocol against a live page.
type rodSurface struct {
	page *rod.Page
	cfg  config.DashboardConfig
}

func newRodSurface(page *rod.Page, cfg config.DashboardConfig) *rodSurface {
	return &rodSurface{page: page, cfg: cfg}
}

func (r *rodSurface) evalBool(js string, args ...interface{}) (bool, error) {
	res, err := r.page.Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	return res.Value.Bool(), nil
}

// waitFor polls the predicate script until it returns true or the timeout
// lapses. An eval failure ends the wait immediately.
func (r *rodSurface) waitFor(timeout time.Duration, js string) waitResult {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := r.evalBool(js)
		if err != nil {
			return waitErrored
		}
		if ok {
			return waitMet
		}
		if time.Now().After(deadline) {
			return waitTimedOut
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (r *rodSurface) OpenControl(label string) error {
	for _, strat := range openControlStrategies {
		ok, err := r.evalBool(strat.js, label)
		if err != nil {
			log.Printf("[filter:%s] strategy %q errored: %v", label, strat.name, err)
			continue
		}
		if ok {
			log.Printf("[filter:%s] opened via %s", label, strat.name)
			return nil
		}
	}
	return fmt.Errorf("no locator strategy found control %q", label)
}

func (r *rodSurface) WaitPanelOpen() waitResult {
	return r.waitFor(r.cfg.PanelOpen(), fmt.Sprintf(`
	() => {
		const p = document.querySelector('%s');
		if (!p) return false;
		const rect = p.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}
	`, panelSelector))
}

func (r *rodSurface) ClearAll() error {
	ok, err := r.evalBool(fmt.Sprintf(`
	() => {
		const panel = document.querySelector('%s');
		if (!panel) return false;
		const all = panel.querySelector('a[title="(All)"]');
		if (!all) return false;
		const box = all.closest('div[role="checkbox"]');
		if (!box) return false;
		const input = box.querySelector('input');
		(input || box).click();
		return true;
	}
	`, panelSelector))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("(All) option not present in panel")
	}
	return nil
}

func (r *rodSurface) Settle() {
	time.Sleep(r.cfg.Settle())
}

// selectValueScript matches the option by attribute comparison instead of an
// interpolated selector, so values holding quotes or selector metacharacters
// still match. The value arrives as a script argument, never spliced in.
const selectValueScript = `
	(value) => {
		const panel = document.querySelector('%s');
		if (!panel) return false;
		const links = Array.from(panel.querySelectorAll('a[title]'));
		let link = links.find(a => a.getAttribute('title') === value);
		if (!link) {
			const want = value.trim().toLowerCase();
			link = links.find(a => (a.getAttribute('title') || '').trim().toLowerCase() === want);
		}
		if (!link) return false;
		const box = link.closest('div[role="checkbox"]');
		const input = box && box.querySelector('input');
		(input || box || link).click();
		return true;
	}
	`

func (r *rodSurface) SelectValue(value string) (bool, error) {
	return r.evalBool(fmt.Sprintf(selectValueScript, panelSelector), value)
}

func (r *rodSurface) WaitConfirmEnabled() waitResult {
	return r.waitFor(r.cfg.Confirm(), fmt.Sprintf(`
	() => {
		const panel = document.querySelector('%s');
		const scope = panel || document;
		const btn = Array.from(scope.querySelectorAll('button'))
			.find(b => /apply/i.test(b.textContent || '') && !b.disabled);
		return !!btn;
	}
	`, panelSelector))
}

// Confirm prefers the in-panel apply button; some embeds render a single
// page-level Apply instead.
func (r *rodSurface) Confirm() error {
	ok, err := r.evalBool(fmt.Sprintf(`
	() => {
		const panel = document.querySelector('%s');
		const scopes = panel ? [panel, document] : [document];
		for (const scope of scopes) {
			const btn = Array.from(scope.querySelectorAll('button'))
				.find(b => /apply/i.test(b.textContent || '') && !b.disabled);
			if (btn) {
				try {
					btn.click();
				} catch (e) {
					btn.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window}));
				}
				return true;
			}
		}
		return false;
	}
	`, panelSelector))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no enabled apply button")
	}
	return nil
}

func (r *rodSurface) WaitPanelClosed() waitResult {
	res := r.waitFor(r.cfg.PanelClose(), fmt.Sprintf(`
	() => {
		const p = document.querySelector('%s');
		if (!p) return true;
		const rect = p.getBoundingClientRect();
		return rect.width === 0 || rect.height === 0;
	}
	`, panelSelector))
	if res == waitTimedOut {
		// Stuck panel; Escape closes it without undoing the applied value.
		_ = r.page.Keyboard.Press(input.Escape)
	}
	return res
}

// clickGlobalApply presses the page-level Apply control some embeds render to
// commit all pending filter changes at once. Best effort; most embeds apply
// per panel and have no such control.
func (r *rodSurface) clickGlobalApply() {
	ok, err := r.evalBool(`
	() => {
		const candidates = Array.from(document.querySelectorAll('span.label, button'));
		const hit = candidates.find(el => (el.textContent || '').trim().toLowerCase() === 'apply');
		if (!hit) return false;
		hit.click();
		return true;
	}
	`)
	if err != nil || !ok {
		return
	}
	log.Printf("clicked page-level apply")
	r.WaitDashboardSettled()
}

func (r *rodSurface) WaitDashboardSettled() {
	if err := r.page.Timeout(r.cfg.Reload()).WaitLoad(); err != nil {
		log.Printf("dashboard load wait: %v", err)
	}
	time.Sleep(r.cfg.Settle())
}
