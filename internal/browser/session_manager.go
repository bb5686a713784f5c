// Package browser owns the Chrome instance and hands out exclusive dashboard
// sessions. One question holds the dashboard at a time; a fresh incognito
// page per acquisition keeps filter state from leaking between questions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tableau-agent-mcp-server/internal/config"
	"tableau-agent-mcp-server/internal/mangle"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// Session describes one exclusive hold on the rendered dashboard.
type Session struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id,omitempty"`
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EngineSink is the minimal fact-ingestion interface the audit layer needs.
type EngineSink interface {
	AddFacts(ctx context.Context, facts []mangle.Fact) error
}

// SessionManager connects to (or launches) Chrome and serializes access to
// the dashboard page.
type SessionManager struct {
	browserCfg config.BrowserConfig
	dashCfg    config.DashboardConfig
	engine     EngineSink

	mu         sync.Mutex // guards browser/controlURL
	browser    *rod.Browser
	controlURL string

	dashMu sync.Mutex // held for the lifetime of an acquired session
}

func NewSessionManager(browserCfg config.BrowserConfig, dashCfg config.DashboardConfig, sink EngineSink) *SessionManager {
	return &SessionManager{
		browserCfg: browserCfg,
		dashCfg:    dashCfg,
		engine:     sink,
	}
}

// Start connects to an existing Chrome or launches a new one using Rod's
// launcher. Safe to call again after a crash; a dead connection is replaced.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		log.Printf("Stale browser connection detected, reconnecting...")
		_ = m.browser.Close()
		m.browser = nil
		m.controlURL = ""
	}

	controlURL := m.browserCfg.DebuggerURL
	if controlURL == "" && len(m.browserCfg.Launch) > 0 {
		bin := m.browserCfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(m.browserCfg.IsHeadless())
		for _, rawFlag := range m.browserCfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			// Fallback: let Rod pick the port and defaults.
			fallback := launcher.New().Bin(bin).Headless(m.browserCfg.IsHeadless())
			alt, altErr := fallback.Launch()
			if altErr != nil {
				return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
			}
			controlURL = alt
		} else {
			controlURL = url
		}
	}

	if controlURL == "" {
		return errors.New("no debugger_url or launch command provided")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = browser
	m.controlURL = controlURL
	log.Printf("Browser connected at %s", controlURL)
	return nil
}

// ControlURL returns the WebSocket debugger URL for the connected browser.
func (m *SessionManager) ControlURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controlURL
}

// IsConnected reports whether the browser is currently connected.
func (m *SessionManager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// Shutdown closes the underlying browser.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	m.controlURL = ""
	log.Printf("Browser shutdown complete")
	return err
}

// AcquireDashboard opens a fresh incognito page on the configured dashboard
// URL and waits for it to render. The dashboard is held exclusively until the
// returned release function runs; callers must release on every exit path.
func (m *SessionManager) AcquireDashboard(ctx context.Context) (*Session, *rod.Page, func(), error) {
	m.mu.Lock()
	browser := m.browser
	m.mu.Unlock()
	if browser == nil {
		return nil, nil, nil, errors.New("browser not connected")
	}

	m.dashMu.Lock()
	release := func() {
		m.dashMu.Unlock()
	}

	incognito, err := browser.Incognito()
	if err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Context(ctx)

	releasePage := func() {
		_ = page.Close()
		m.dashMu.Unlock()
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.browserCfg.GetViewportWidth(),
		Height:            m.browserCfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		log.Printf("warning: failed to set viewport: %v", err)
	}

	if err := page.Timeout(m.browserCfg.NavigationTimeout()).Navigate(m.dashCfg.URL); err != nil {
		releasePage()
		return nil, nil, nil, fmt.Errorf("navigate to dashboard: %w", err)
	}
	if err := page.Timeout(m.dashCfg.Reload()).WaitLoad(); err != nil {
		log.Printf("dashboard load wait: %v", err)
	}
	if err := m.waitReady(page); err != nil {
		releasePage()
		return nil, nil, nil, err
	}

	session := &Session{
		ID:        uuid.NewString(),
		TargetID:  string(page.TargetID),
		URL:       m.dashCfg.URL,
		CreatedAt: time.Now(),
	}
	if info, err := page.Info(); err == nil {
		session.Title = info.Title
	}

	m.emitNavigationFact(ctx, session)
	log.Printf("[session:%s] dashboard acquired (%s)", session.ID, session.URL)
	return session, page, releasePage, nil
}

// waitReady polls for the dashboard's ready selector so filter discovery
// doesn't race the initial render.
func (m *SessionManager) waitReady(page *rod.Page) error {
	sel := m.dashCfg.ReadySelector
	if sel == "" {
		return nil
	}
	deadline := time.Now().Add(m.dashCfg.Reload())
	for {
		res, err := page.Evaluate(&rod.EvalOptions{
			JS:           `(sel) => !!document.querySelector(sel)`,
			JSArgs:       []interface{}{sel},
			ByValue:      true,
			AwaitPromise: true,
		})
		if err == nil && res != nil && res.Value.Bool() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dashboard never rendered %q", sel)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

func (m *SessionManager) emitNavigationFact(ctx context.Context, session *Session) {
	if m.engine == nil {
		return
	}
	now := time.Now()
	if err := m.engine.AddFacts(ctx, []mangle.Fact{{
		Predicate: "navigation_event",
		Args:      []interface{}{session.ID, session.URL, now.UnixMilli()},
		Timestamp: now,
	}}); err != nil {
		log.Printf("[session:%s] navigation fact error: %v", session.ID, err)
	}
}

// Screenshot captures the current dashboard viewport as PNG bytes.
func (m *SessionManager) Screenshot(page *rod.Page) ([]byte, error) {
	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return data, nil
}
