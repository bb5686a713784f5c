package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tableau-agent-mcp-server/internal/mangle"

	"github.com/mark3labs/mcp-go/mcp"
)

const resourceMIMEJSON = "application/json"

func (s *Server) registerAllResources() {
	if s == nil || s.mcpServer == nil {
		return
	}

	s.mcpServer.AddResource(
		mcp.NewResource(
			"tableau-agent://about",
			"Tableau Agent About",
			mcp.WithMIMEType(resourceMIMEJSON),
			mcp.WithResourceDescription("High-level server info and usage notes."),
		),
		s.handleAboutResource,
	)

	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"tableau-agent://run/{runId}/facts{?predicate,limit}",
			"Analysis Run Facts",
			mcp.WithTemplateMIMEType(resourceMIMEJSON),
			mcp.WithTemplateDescription("Read the audit facts for one analysis run (optionally filtered by predicate)."),
		),
		s.handleRunFactsResource,
	)
}

func (s *Server) handleAboutResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]interface{}{
		"name":      s.cfg.Server.Name,
		"version":   s.cfg.Server.Version,
		"dashboard": s.cfg.Dashboard.URL,
		"notes": []string{
			"Resources are read-only context endpoints; use tools for actions.",
			"analyze-dashboard answers one question per call; filters are reset between questions.",
			"Run-scoped fact reads ({runId}) are the cheapest way to audit a past analysis.",
		},
		"timestamp_ms": time.Now().UnixMilli(),
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

func (s *Server) handleRunFactsResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("mangle engine unavailable")
	}

	runID := argString(request.Params.Arguments["runId"])
	if runID == "" {
		return nil, fmt.Errorf("missing runId")
	}
	predicate := argString(request.Params.Arguments["predicate"])
	limit := argInt(request.Params.Arguments["limit"])
	if limit <= 0 {
		limit = 25
	}
	if limit > 500 {
		limit = 500
	}

	facts := selectRecentRunFacts(s.engine, runID, predicate, limit)

	payload := map[string]interface{}{
		"run_id":    runID,
		"predicate": predicate,
		"limit":     limit,
		"count":     len(facts),
		"facts":     facts,
	}
	text, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: resourceMIMEJSON,
			Text:     string(text),
		},
	}, nil
}

// selectRecentRunFacts returns the newest facts whose first argument is the
// run ID, in chronological order. Every pipeline predicate leads with the
// run ID, so a prefix match is enough.
func selectRecentRunFacts(engine *mangle.Engine, runID, predicate string, limit int) []mangle.Fact {
	if engine == nil || runID == "" || limit <= 0 {
		return []mangle.Fact{}
	}

	var source []mangle.Fact
	if predicate != "" {
		source = engine.FactsByPredicate(predicate)
	} else {
		source = engine.Facts()
	}

	out := make([]mangle.Fact, 0, limit)
	for i := len(source) - 1; i >= 0 && len(out) < limit; i-- {
		f := source[i]
		if len(f.Args) == 0 {
			continue
		}
		if fmt.Sprintf("%v", f.Args[0]) != runID {
			continue
		}
		out = append(out, f)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func argString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []string:
		if len(value) == 0 {
			return ""
		}
		return value[0]
	default:
		return fmt.Sprintf("%v", value)
	}
}

func argInt(v any) int {
	switch value := v.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case string:
		n := 0
		_, _ = fmt.Sscanf(value, "%d", &n)
		return n
	default:
		return 0
	}
}
