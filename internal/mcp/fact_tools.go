package mcp

import (
	"context"
	"fmt"
	"time"

	"tableau-agent-mcp-server/internal/mangle"
)

// ReadFactsTool returns recent audit facts, optionally filtered by predicate.
type ReadFactsTool struct {
	engine *mangle.Engine
}

func (t *ReadFactsTool) Name() string { return "read-facts" }

func (t *ReadFactsTool) Description() string {
	return "Read recent audit facts from the fact buffer, newest last, optionally filtered by predicate (filter_applied, filter_failed, datum_extracted, ...)."
}

func (t *ReadFactsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"predicate": map[string]interface{}{
				"type":        "string",
				"description": "Only return facts with this predicate",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of facts to return (default 50)",
			},
		},
	}
}

func (t *ReadFactsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if t.engine == nil {
		return nil, fmt.Errorf("mangle engine unavailable")
	}

	predicate := getStringArg(args, "predicate")
	limit := getIntArg(args, "limit", 50)
	if limit <= 0 {
		limit = 50
	}

	var facts []mangle.Fact
	if predicate != "" {
		facts = t.engine.FactsByPredicate(predicate)
	} else {
		facts = t.engine.Facts()
	}
	if len(facts) > limit {
		facts = facts[len(facts)-limit:]
	}

	return map[string]interface{}{
		"count": len(facts),
		"facts": facts,
	}, nil
}

// QueryFactsTool runs a Mangle query against the audit store.
type QueryFactsTool struct {
	engine *mangle.Engine
}

func (t *QueryFactsTool) Name() string { return "query-facts" }

func (t *QueryFactsTool) Description() string {
	return "Run a Mangle query against the audit store, e.g. filter_failed(Run, Label, Reason, Ts)."
}

func (t *QueryFactsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Mangle query with variables to bind",
			},
		},
		"required": []string{"query"},
	}
}

func (t *QueryFactsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if t.engine == nil {
		return nil, fmt.Errorf("mangle engine unavailable")
	}

	query := getStringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	results, err := t.engine.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"count":   len(results),
		"results": results,
	}, nil
}

// QueryTemporalTool reads facts for a predicate within a time window.
type QueryTemporalTool struct {
	engine *mangle.Engine
}

func (t *QueryTemporalTool) Name() string { return "query-temporal" }

func (t *QueryTemporalTool) Description() string {
	return "Read audit facts for a predicate within a millisecond-epoch time window. Zero bounds are open."
}

func (t *QueryTemporalTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"predicate": map[string]interface{}{
				"type":        "string",
				"description": "Predicate to read",
			},
			"after_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Only facts after this epoch-millisecond timestamp",
			},
			"before_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Only facts before this epoch-millisecond timestamp",
			},
		},
		"required": []string{"predicate"},
	}
}

func (t *QueryTemporalTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if t.engine == nil {
		return nil, fmt.Errorf("mangle engine unavailable")
	}

	predicate := getStringArg(args, "predicate")
	if predicate == "" {
		return nil, fmt.Errorf("predicate is required")
	}

	var after, before time.Time
	if ms := getIntArg(args, "after_ms", 0); ms > 0 {
		after = time.UnixMilli(int64(ms))
	}
	if ms := getIntArg(args, "before_ms", 0); ms > 0 {
		before = time.UnixMilli(int64(ms))
	}

	facts := t.engine.QueryTemporal(predicate, after, before)
	return map[string]interface{}{
		"count": len(facts),
		"facts": facts,
	}, nil
}
