package mcp

import (
	"context"
	"encoding/base64"

	"tableau-agent-mcp-server/internal/dashboard"
)

// AnalyzeDashboardTool answers a natural-language question about the
// configured dashboard. Everything after dashboard acquisition degrades into
// a partial answer, so the payload only carries {"error": ...} when the
// rendered dashboard could not be reached at all.
type AnalyzeDashboardTool struct {
	analyzer *dashboard.Analyzer
}

func (t *AnalyzeDashboardTool) Name() string { return "analyze-dashboard" }

func (t *AnalyzeDashboardTool) Description() string {
	return "Answer a natural-language question about the dashboard: extracts entities, applies matching filters, and scrapes the refreshed view."
}

func (t *AnalyzeDashboardTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "The question to answer, e.g. \"how many bachelor's programs at Lehman\"",
			},
		},
		"required": []string{"question"},
	}
}

func (t *AnalyzeDashboardTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	q := getStringArg(args, "question")
	if q == "" {
		return map[string]interface{}{"error": "question is required"}, nil
	}
	if t.analyzer == nil {
		return map[string]interface{}{"error": "analyzer not configured"}, nil
	}

	result, err := t.analyzer.Analyze(ctx, q)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	return result, nil
}

// ListFiltersTool enumerates the filter controls on the dashboard.
type ListFiltersTool struct {
	analyzer *dashboard.Analyzer
}

func (t *ListFiltersTool) Name() string { return "list-filters" }

func (t *ListFiltersTool) Description() string {
	return "List the filter controls rendered on the dashboard, optionally with each control's available values."
}

func (t *ListFiltersTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"include_options": map[string]interface{}{
				"type":        "boolean",
				"description": "Open each dropdown and read its values (slower)",
			},
		},
	}
}

func (t *ListFiltersTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if t.analyzer == nil {
		return map[string]interface{}{"error": "analyzer not configured"}, nil
	}

	includeOptions := getBoolArg(args, "include_options", false)
	filters, err := t.analyzer.ListFilters(ctx, includeOptions)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}
	return map[string]interface{}{
		"count":   len(filters),
		"filters": filters,
	}, nil
}

// DashboardScreenshotTool captures the rendered dashboard as a PNG.
type DashboardScreenshotTool struct {
	analyzer *dashboard.Analyzer
}

func (t *DashboardScreenshotTool) Name() string { return "dashboard-screenshot" }

func (t *DashboardScreenshotTool) Description() string {
	return "Render the dashboard and return a PNG screenshot (base64), saving a copy beside the analysis traces."
}

func (t *DashboardScreenshotTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *DashboardScreenshotTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if t.analyzer == nil {
		return map[string]interface{}{"error": "analyzer not configured"}, nil
	}

	png, path, err := t.analyzer.Screenshot(ctx)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}, nil
	}

	payload := map[string]interface{}{
		"png_base64": base64.StdEncoding.EncodeToString(png),
		"bytes":      len(png),
	}
	if path != "" {
		payload["saved_to"] = path
	}
	return payload, nil
}
