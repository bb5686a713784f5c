package mangle

import (
	"context"
	"testing"
	"time"

	"tableau-agent-mcp-server/internal/config"
)

func newTestEngine(t *testing.T, limit int) *Engine {
	t.Helper()
	e, err := NewEngine(config.MangleConfig{Enable: true, FactBufferLimit: limit})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestAddFactsAndLookup(t *testing.T) {
	e := newTestEngine(t, 100)
	ctx := context.Background()

	facts := []Fact{
		{Predicate: "filter_applied", Args: []interface{}{"run1", "Reporting College", "Lehman", int64(1)}, Timestamp: time.Now()},
		{Predicate: "filter_failed", Args: []interface{}{"run1", "Year", "value not found in options", int64(2)}, Timestamp: time.Now()},
		{Predicate: "filter_applied", Args: []interface{}{"run2", "Award Level", "Master's", int64(3)}, Timestamp: time.Now()},
	}
	if err := e.AddFacts(ctx, facts); err != nil {
		t.Fatalf("AddFacts: %v", err)
	}

	applied := e.FactsByPredicate("filter_applied")
	if len(applied) != 2 {
		t.Errorf("expected 2 filter_applied facts, got %d", len(applied))
	}
	failed := e.FactsByPredicate("filter_failed")
	if len(failed) != 1 {
		t.Errorf("expected 1 filter_failed fact, got %d", len(failed))
	}
	if len(e.FactsByPredicate("datum_extracted")) != 0 {
		t.Error("expected no datum_extracted facts")
	}
}

func TestDisabledEngineIsNoOp(t *testing.T) {
	e, err := NewEngine(config.MangleConfig{Enable: false})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := e.AddFacts(context.Background(), []Fact{
		{Predicate: "filter_applied", Args: []interface{}{"run1", "Year", "2023", int64(1)}},
	}); err != nil {
		t.Fatalf("AddFacts on disabled engine: %v", err)
	}
	if got := len(e.Facts()); got != 0 {
		t.Errorf("disabled engine buffered %d facts, want 0", got)
	}
	if !e.Ready() {
		t.Error("disabled engine should report ready")
	}
}

func TestFactBufferTrimsOldest(t *testing.T) {
	e := newTestEngine(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := e.AddFacts(ctx, []Fact{
			{Predicate: "datum_extracted", Args: []interface{}{"run1", "kpi", i, int64(i)}, Timestamp: time.Now()},
		}); err != nil {
			t.Fatalf("AddFacts: %v", err)
		}
	}

	facts := e.Facts()
	if len(facts) != 3 {
		t.Fatalf("expected buffer of 3, got %d", len(facts))
	}
	if facts[0].Args[2] != 2 {
		t.Errorf("oldest surviving fact arg = %v, want 2", facts[0].Args[2])
	}

	// Index must stay usable after the trim.
	if got := len(e.FactsByPredicate("datum_extracted")); got != 3 {
		t.Errorf("indexed facts = %d, want 3", got)
	}
}

func TestQueryTemporalWindow(t *testing.T) {
	e := newTestEngine(t, 100)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 4; i++ {
		if err := e.AddFacts(ctx, []Fact{
			{Predicate: "navigation_event", Args: []interface{}{"s1", "https://example.test", int64(i)}, Timestamp: base.Add(time.Duration(i) * time.Minute)},
		}); err != nil {
			t.Fatalf("AddFacts: %v", err)
		}
	}

	got := e.QueryTemporal("navigation_event", base.Add(30*time.Second), base.Add(150*time.Second))
	if len(got) != 2 {
		t.Errorf("expected 2 facts in window, got %d", len(got))
	}

	all := e.QueryTemporal("navigation_event", time.Time{}, time.Time{})
	if len(all) != 4 {
		t.Errorf("expected 4 facts with open window, got %d", len(all))
	}
}

func TestQueryRequiresSchema(t *testing.T) {
	e := newTestEngine(t, 100)
	if _, err := e.Query(context.Background(), "filter_applied(Run, Label, Value, Ts)."); err == nil {
		t.Error("expected error querying without a loaded schema")
	}
}

func TestLoadSchemaAndQuery(t *testing.T) {
	e, err := NewEngine(config.MangleConfig{
		Enable:          true,
		SchemaPath:      "../../schemas/audit.mg",
		FactBufferLimit: 100,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if !e.Ready() {
		t.Fatal("engine not ready after schema load")
	}

	ctx := context.Background()
	if err := e.AddFacts(ctx, []Fact{
		{Predicate: "filter_applied", Args: []interface{}{"run1", "Year", "2023", int64(9)}, Timestamp: time.Now()},
	}); err != nil {
		t.Fatalf("AddFacts: %v", err)
	}

	results, err := e.Query(ctx, "filter_applied(Run, Label, Value, Ts).")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one binding")
	}
	if results[0]["Label"] != "Year" {
		t.Errorf("Label binding = %v, want Year", results[0]["Label"])
	}
}

// A failed filter plus extracted data derives partial_answer for the run.
func TestEvaluateDerivesPartialAnswer(t *testing.T) {
	e, err := NewEngine(config.MangleConfig{
		Enable:          true,
		SchemaPath:      "../../schemas/audit.mg",
		FactBufferLimit: 100,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := context.Background()
	if err := e.AddFacts(ctx, []Fact{
		{Predicate: "filter_failed", Args: []interface{}{"run1", "Year", "value not found in options", int64(1)}, Timestamp: time.Now()},
		{Predicate: "datum_extracted", Args: []interface{}{"run1", "kpi", "42", int64(2)}, Timestamp: time.Now()},
		{Predicate: "filter_applied", Args: []interface{}{"run2", "Award Level", "Master's", int64(3)}, Timestamp: time.Now()},
	}); err != nil {
		t.Fatalf("AddFacts: %v", err)
	}

	partial, err := e.Evaluate(ctx, "partial_answer")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(partial) != 1 {
		t.Fatalf("expected 1 partial_answer fact, got %d: %v", len(partial), partial)
	}
	if partial[0].Args[0] != "run1" {
		t.Errorf("partial_answer run = %v, want run1", partial[0].Args[0])
	}

	// run2 applied cleanly and never fails over to a partial answer.
	applied, err := e.Evaluate(ctx, "run_applied")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(applied) != 1 || applied[0].Args[0] != "run2" {
		t.Errorf("run_applied facts = %v, want one for run2", applied)
	}
}

func TestEvaluateRequiresSchema(t *testing.T) {
	e := newTestEngine(t, 100)
	if _, err := e.Evaluate(context.Background(), "partial_answer"); err == nil {
		t.Error("expected error evaluating without a loaded schema")
	}
}
