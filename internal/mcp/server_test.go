package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"tableau-agent-mcp-server/internal/config"
	"tableau-agent-mcp-server/internal/mangle"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Name = "tableau-agent-mcp"
	cfg.Dashboard.URL = "https://example.test/dash"

	engine, err := mangle.NewEngine(config.MangleConfig{Enable: true, FactBufferLimit: 100})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	srv, err := NewServer(cfg, nil, engine)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func TestToolRegistration(t *testing.T) {
	srv := newTestServer(t)

	want := []string{
		"analyze-dashboard",
		"list-filters",
		"dashboard-screenshot",
		"read-facts",
		"query-facts",
		"query-temporal",
	}
	for _, name := range want {
		if _, ok := srv.tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(srv.tools) != len(want) {
		t.Errorf("registered %d tools, want %d", len(srv.tools), len(want))
	}
}

func TestExecuteToolUnknown(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.ExecuteTool("no-such-tool", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(err.Error(), "tool not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAnalyzeRequiresQuestion(t *testing.T) {
	srv := newTestServer(t)
	result, err := srv.ExecuteTool("analyze-dashboard", map[string]interface{}{})
	if err != nil {
		t.Fatalf("ExecuteTool: %v", err)
	}

	payload, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("result type %T", result)
	}
	if payload["error"] != "question is required" {
		t.Errorf("error = %v, want question is required", payload["error"])
	}
}

func TestMarshalToolPayloadFallback(t *testing.T) {
	payload := marshalToolPayload("broken-tool", make(chan int))

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("fallback payload not valid JSON: %v", err)
	}
	msg, _ := decoded["error"].(string)
	if !strings.Contains(msg, "broken-tool") {
		t.Errorf("fallback error = %q, want tool name mentioned", msg)
	}
}
