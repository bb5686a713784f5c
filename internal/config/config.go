package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures all tunable settings for the Tableau agent MCP server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	MCP       MCPConfig       `yaml:"mcp"`
	Mangle    MangleConfig    `yaml:"mangle"`
	Recorder  RecorderConfig  `yaml:"recorder"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
}

// BrowserConfig configures how we attach to or launch Chrome for Rod.
type BrowserConfig struct {
	// Control endpoint for Rod (e.g., ws://localhost:9222). Required when launch is empty.
	DebuggerURL string `yaml:"debugger_url"`
	// Optional launch command to start Chrome in detached mode (e.g., ["chrome", "--remote-debugging-port=9222"]).
	Launch []string `yaml:"launch"`
	// Headless controls whether Chrome runs in headless mode (default: true).
	Headless *bool `yaml:"headless"`
	// Default navigation timeout (e.g., "60s"). Tableau dashboards load slowly.
	DefaultNavigationTimeout string `yaml:"default_navigation_timeout"`
	// Viewport width for new sessions (default: 1920).
	ViewportWidth int `yaml:"viewport_width"`
	// Viewport height for new sessions (default: 1080).
	ViewportHeight int `yaml:"viewport_height"`
}

// DashboardConfig points the pipeline at the report and bounds its waits.
type DashboardConfig struct {
	// URL of the Tableau view the pipeline analyzes.
	URL string `yaml:"url"`
	// Selector that signals the embedded viz container is present (e.g., "div#centeringContainer").
	ReadySelector string `yaml:"ready_selector"`
	// Selector that signals filter controls have rendered.
	FiltersSelector string `yaml:"filters_selector"`
	// How long to wait for the filter options panel to open (e.g., "10s").
	PanelOpenTimeout string `yaml:"panel_open_timeout"`
	// How long to wait for the panel to close after confirming (e.g., "5s").
	PanelCloseTimeout string `yaml:"panel_close_timeout"`
	// How long to wait for the in-panel confirm control to become enabled (e.g., "5s").
	ConfirmTimeout string `yaml:"confirm_timeout"`
	// How long to wait for the surface's load state after each applied filter (e.g., "30s").
	ReloadTimeout string `yaml:"reload_timeout"`
	// Pause after toggling an option so the panel's JS can react (e.g., "500ms").
	SettleDelay string `yaml:"settle_delay"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio-only.
	SSEPort int `yaml:"sse_port"`
}

// MangleConfig controls the embedded deductive engine used for the audit trail.
type MangleConfig struct {
	Enable          bool   `yaml:"enable"`
	SchemaPath      string `yaml:"schema_path"`
	FactBufferLimit int    `yaml:"fact_buffer_limit"`
}

// RecorderConfig controls per-analysis trace and screenshot artifacts.
type RecorderConfig struct {
	Enable bool `yaml:"enable"`
	// Directory for rotating JSONL traces and screenshots.
	TraceDir string `yaml:"trace_dir"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "tableau-agent-mcp",
			Version: "0.2.0",
			LogFile: "tableau-agent-mcp.log",
		},
		Browser: BrowserConfig{
			DefaultNavigationTimeout: "60s",
			ViewportWidth:            1920,
			ViewportHeight:           1080,
		},
		Dashboard: DashboardConfig{
			ReadySelector:     "div#centeringContainer",
			FiltersSelector:   "div.tabComboBoxNameContainer",
			PanelOpenTimeout:  "10s",
			PanelCloseTimeout: "5s",
			ConfirmTimeout:    "5s",
			ReloadTimeout:     "30s",
			SettleDelay:       "500ms",
		},
		MCP: MCPConfig{
			SSEPort: 0,
		},
		Mangle: MangleConfig{
			Enable:          true,
			SchemaPath:      "schemas/audit.mg",
			FactBufferLimit: 2048,
		},
		Recorder: RecorderConfig{
			Enable:   true,
			TraceDir: "data/traces",
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate ensures required fields exist so the server can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.Dashboard.URL == "" {
		return errors.New("dashboard.url is required")
	}
	if c.Browser.DebuggerURL == "" && len(c.Browser.Launch) == 0 {
		return errors.New("browser.debugger_url or browser.launch must be provided")
	}
	return nil
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// NavigationTimeout returns the parsed navigation timeout with a sane default.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	return parseDurationOr(b.DefaultNavigationTimeout, 60*time.Second)
}

// IsHeadless returns whether Chrome should run in headless mode (default: true).
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return true
	}
	return *b.Headless
}

// GetViewportWidth returns the viewport width with a sane default.
func (b BrowserConfig) GetViewportWidth() int {
	if b.ViewportWidth <= 0 {
		return 1920
	}
	return b.ViewportWidth
}

// GetViewportHeight returns the viewport height with a sane default.
func (b BrowserConfig) GetViewportHeight() int {
	if b.ViewportHeight <= 0 {
		return 1080
	}
	return b.ViewportHeight
}

// PanelOpen returns the parsed panel-open timeout.
func (d DashboardConfig) PanelOpen() time.Duration {
	return parseDurationOr(d.PanelOpenTimeout, 10*time.Second)
}

// PanelClose returns the parsed panel-close timeout.
func (d DashboardConfig) PanelClose() time.Duration {
	return parseDurationOr(d.PanelCloseTimeout, 5*time.Second)
}

// Confirm returns the parsed confirm-enabled timeout.
func (d DashboardConfig) Confirm() time.Duration {
	return parseDurationOr(d.ConfirmTimeout, 5*time.Second)
}

// Reload returns the parsed post-apply reload timeout.
func (d DashboardConfig) Reload() time.Duration {
	return parseDurationOr(d.ReloadTimeout, 30*time.Second)
}

// Settle returns the parsed settle delay between panel mutations.
func (d DashboardConfig) Settle() time.Duration {
	return parseDurationOr(d.SettleDelay, 500*time.Millisecond)
}
