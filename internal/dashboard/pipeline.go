package dashboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tableau-agent-mcp-server/internal/browser"
	"tableau-agent-mcp-server/internal/config"
	"tableau-agent-mcp-server/internal/mangle"
	"tableau-agent-mcp-server/internal/question"
)

// Analyzer runs the full question-to-answer pipeline against the configured
// dashboard. Browser access is serialized by the session manager, so one
// Analyzer serves concurrent callers.
type Analyzer struct {
	sessions *browser.SessionManager
	cfg      config.Config
	engine   browser.EngineSink
	rec      *recorderSink
}

// recorderSink narrows the recorder so a nil recorder needs no guards.
type recorderSink struct {
	rec Recorder
}

// Recorder is the trace surface the pipeline writes to.
type Recorder interface {
	Start(runID string) error
	Log(eventType, runID string, data interface{})
	SaveScreenshot(runID string, png []byte) (string, error)
}

func (r *recorderSink) start(runID string) {
	if r == nil || r.rec == nil {
		return
	}
	if err := r.rec.Start(runID); err != nil {
		log.Printf("[analysis:%s] trace start: %v", runID, err)
	}
}

func (r *recorderSink) log(eventType, runID string, data interface{}) {
	if r == nil || r.rec == nil {
		return
	}
	r.rec.Log(eventType, runID, data)
}

func (r *recorderSink) saveScreenshot(runID string, png []byte) string {
	if r == nil || r.rec == nil || len(png) == 0 {
		return ""
	}
	path, err := r.rec.SaveScreenshot(runID, png)
	if err != nil {
		log.Printf("[analysis:%s] save screenshot: %v", runID, err)
		return ""
	}
	return path
}

func NewAnalyzer(sessions *browser.SessionManager, cfg config.Config, sink browser.EngineSink, rec Recorder) *Analyzer {
	return &Analyzer{
		sessions: sessions,
		cfg:      cfg,
		engine:   sink,
		rec:      &recorderSink{rec: rec},
	}
}

// Analyze answers one natural-language question about the dashboard. Only a
// failure to acquire a rendered dashboard is fatal; every later stage
// degrades into a partial answer instead of an error.
func (a *Analyzer) Analyze(ctx context.Context, q string) (Result, error) {
	runID := uuid.NewString()
	a.rec.start(runID)
	a.rec.log("question", runID, map[string]string{"text": q})
	log.Printf("[analysis:%s] question: %q", runID, q)

	session, page, release, err := a.sessions.AcquireDashboard(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("acquire dashboard: %w", err)
	}
	defer release()

	expanded := question.Expand(q)
	entities := question.Extract(q)
	log.Printf("[analysis:%s] entities: %v", runID, entities)
	a.rec.log("entities", runID, entities)

	controls, err := DiscoverControls(page, a.cfg.Dashboard)
	if err != nil {
		log.Printf("[analysis:%s] discovery failed: %v", runID, err)
	}
	a.emitDiscoveryFacts(ctx, runID, controls)

	assignments := Resolve(entities, controls)
	a.rec.log("assignments", runID, assignments)

	surface := newRodSurface(page, a.cfg.Dashboard)
	outcomes := applyAll(surface, assignments)
	if len(assignments) > 0 {
		surface.clickGlobalApply()
	}
	a.emitFilterFacts(ctx, runID, outcomes)
	for _, o := range outcomes {
		a.rec.log("filter", runID, o)
	}

	screenshotPath := ""
	if png, err := a.sessions.Screenshot(page); err != nil {
		log.Printf("[analysis:%s] screenshot: %v", runID, err)
	} else {
		screenshotPath = a.rec.saveScreenshot(runID, png)
	}

	intent := DetectIntent(expanded)
	html, err := page.HTML()
	if err != nil {
		log.Printf("[analysis:%s] read page html: %v", runID, err)
	}

	data, err := ExtractData(html, intent)
	if err != nil {
		log.Printf("[analysis:%s] extraction failed: %v", runID, err)
	}
	a.emitDatumFacts(ctx, runID, data)

	title := session.Title
	if info, err := page.Info(); err == nil && info.Title != "" {
		title = info.Title
	}

	result := Result{
		Question:       q,
		Response:       Compose(intent, entities, outcomes, data, title),
		AppliedFilters: outcomes,
		ExtractedData:  data,
		DashboardTitle: title,
		DashboardURL:   a.cfg.Dashboard.URL,
		ScreenshotPath: screenshotPath,
	}
	a.rec.log("result", runID, result)
	log.Printf("[analysis:%s] done: %d filters, %d data points", runID, len(outcomes), len(data))
	return result, nil
}

// FilterInfo is one discovered control, optionally with its option values.
type FilterInfo struct {
	Label   string   `json:"label"`
	Options []string `json:"options,omitempty"`
}

// ListFilters discovers the dashboard's filter controls. With includeOptions
// it also opens each dropdown to read the available values, which is slower
// and mutates transient page state.
func (a *Analyzer) ListFilters(ctx context.Context, includeOptions bool) ([]FilterInfo, error) {
	_, page, release, err := a.sessions.AcquireDashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire dashboard: %w", err)
	}
	defer release()

	controls, err := DiscoverControls(page, a.cfg.Dashboard)
	if err != nil {
		return nil, err
	}

	infos := make([]FilterInfo, 0, len(controls))
	for _, ctrl := range controls {
		info := FilterInfo{Label: ctrl.Label}
		if includeOptions {
			options, err := EnumerateOptions(page, a.cfg.Dashboard, ctrl)
			if err != nil {
				log.Printf("options for %q: %v", ctrl.Label, err)
			} else {
				info.Options = options
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Screenshot renders the dashboard and returns PNG bytes, saving a copy
// beside the traces when a recorder is wired.
func (a *Analyzer) Screenshot(ctx context.Context) ([]byte, string, error) {
	_, page, release, err := a.sessions.AcquireDashboard(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("acquire dashboard: %w", err)
	}
	defer release()

	png, err := a.sessions.Screenshot(page)
	if err != nil {
		return nil, "", err
	}

	path := a.rec.saveScreenshot(uuid.NewString(), png)
	return png, path, nil
}

func (a *Analyzer) emitDiscoveryFacts(ctx context.Context, runID string, controls []FilterControl) {
	if a.engine == nil || len(controls) == 0 {
		return
	}
	now := time.Now()
	facts := make([]mangle.Fact, 0, len(controls))
	for _, c := range controls {
		facts = append(facts, mangle.Fact{
			Predicate: "filter_discovered",
			Args:      []interface{}{runID, c.Label, c.Index, now.UnixMilli()},
			Timestamp: now,
		})
	}
	if err := a.engine.AddFacts(ctx, facts); err != nil {
		log.Printf("[analysis:%s] discovery facts: %v", runID, err)
	}
}

func (a *Analyzer) emitFilterFacts(ctx context.Context, runID string, outcomes []FilterOutcome) {
	if a.engine == nil || len(outcomes) == 0 {
		return
	}
	now := time.Now()
	facts := make([]mangle.Fact, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Applied {
			facts = append(facts, mangle.Fact{
				Predicate: "filter_applied",
				Args:      []interface{}{runID, o.Filter, o.Value, now.UnixMilli()},
				Timestamp: now,
			})
		} else {
			facts = append(facts, mangle.Fact{
				Predicate: "filter_failed",
				Args:      []interface{}{runID, o.Filter, o.FailReason, now.UnixMilli()},
				Timestamp: now,
			})
		}
	}
	if err := a.engine.AddFacts(ctx, facts); err != nil {
		log.Printf("[analysis:%s] filter facts: %v", runID, err)
	}
}

func (a *Analyzer) emitDatumFacts(ctx context.Context, runID string, data []Datum) {
	if a.engine == nil || len(data) == 0 {
		return
	}
	now := time.Now()
	facts := make([]mangle.Fact, 0, len(data))
	for _, d := range data {
		facts = append(facts, mangle.Fact{
			Predicate: "datum_extracted",
			Args:      []interface{}{runID, string(d.Kind), d.Value, now.UnixMilli()},
			Timestamp: now,
		})
	}
	if err := a.engine.AddFacts(ctx, facts); err != nil {
		log.Printf("[analysis:%s] datum facts: %v", runID, err)
	}
}
