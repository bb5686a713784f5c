package dashboard

import (
	"errors"
	"testing"

	"tableau-agent-mcp-server/internal/question"
)

// scriptedSurface fakes the page so the protocol can run without a browser.
type scriptedSurface struct {
	openErr        error
	panelOpen      waitResult
	clearErr       error
	valueFound     bool
	selectErr      error
	confirmEnabled waitResult
	confirmErr     error
	panelClosed    waitResult

	calls []string
}

func happySurface() *scriptedSurface {
	return &scriptedSurface{
		panelOpen:      waitMet,
		valueFound:     true,
		confirmEnabled: waitMet,
		panelClosed:    waitMet,
	}
}

func (s *scriptedSurface) OpenControl(label string) error {
	s.calls = append(s.calls, "open")
	return s.openErr
}
func (s *scriptedSurface) WaitPanelOpen() waitResult {
	s.calls = append(s.calls, "wait_open")
	return s.panelOpen
}
func (s *scriptedSurface) ClearAll() error {
	s.calls = append(s.calls, "clear_all")
	return s.clearErr
}
func (s *scriptedSurface) Settle() {
	s.calls = append(s.calls, "settle")
}
func (s *scriptedSurface) SelectValue(value string) (bool, error) {
	s.calls = append(s.calls, "select")
	return s.valueFound, s.selectErr
}
func (s *scriptedSurface) WaitConfirmEnabled() waitResult {
	s.calls = append(s.calls, "wait_confirm")
	return s.confirmEnabled
}
func (s *scriptedSurface) Confirm() error {
	s.calls = append(s.calls, "confirm")
	return s.confirmErr
}
func (s *scriptedSurface) WaitPanelClosed() waitResult {
	s.calls = append(s.calls, "wait_closed")
	return s.panelClosed
}
func (s *scriptedSurface) WaitDashboardSettled() {
	s.calls = append(s.calls, "wait_settled")
}

func testAssignment() FilterAssignment {
	return FilterAssignment{
		Kind:    question.KindLocation,
		Value:   "Lehman",
		Control: FilterControl{Label: "Reporting College", CleanLabel: "reporting college"},
	}
}

func TestApplyFilterHappyPath(t *testing.T) {
	s := happySurface()
	got := applyFilter(s, testAssignment())

	if !got.Applied {
		t.Fatalf("outcome = %+v, want applied", got)
	}
	if got.FailReason != "" {
		t.Errorf("fail reason = %q, want empty", got.FailReason)
	}

	want := []string{"open", "wait_open", "clear_all", "settle", "select", "wait_confirm", "confirm", "wait_closed", "wait_settled"}
	if len(s.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", s.calls, want)
	}
	for i := range want {
		if s.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, s.calls[i], want[i])
		}
	}
}

func TestApplyFilterControlNotFound(t *testing.T) {
	s := happySurface()
	s.openErr = errors.New("no locator strategy found control")

	got := applyFilter(s, testAssignment())
	if got.Applied {
		t.Fatal("expected failure")
	}
	if got.FailReason != reasonControlNotFound {
		t.Errorf("reason = %q, want %q", got.FailReason, reasonControlNotFound)
	}
}

func TestApplyFilterPanelNeverOpens(t *testing.T) {
	for _, r := range []waitResult{waitTimedOut, waitErrored} {
		s := happySurface()
		s.panelOpen = r

		got := applyFilter(s, testAssignment())
		if got.Applied || got.FailReason != reasonPanelNotOpened {
			t.Errorf("panelOpen=%d: outcome = %+v, want reason %q", r, got, reasonPanelNotOpened)
		}
	}
}

func TestApplyFilterValueNotInOptions(t *testing.T) {
	s := happySurface()
	s.valueFound = false

	got := applyFilter(s, testAssignment())
	if got.Applied || got.FailReason != reasonValueNotFound {
		t.Errorf("outcome = %+v, want reason %q", got, reasonValueNotFound)
	}
}

func TestApplyFilterConfirmMissing(t *testing.T) {
	s := happySurface()
	s.confirmErr = errors.New("no enabled apply button")

	got := applyFilter(s, testAssignment())
	if got.Applied || got.FailReason != reasonConfirmMissing {
		t.Errorf("outcome = %+v, want reason %q", got, reasonConfirmMissing)
	}
}

// A failed (All) deselect narrows less but doesn't fail the filter.
func TestApplyFilterClearAllFailureSurvivable(t *testing.T) {
	s := happySurface()
	s.clearErr = errors.New("(All) option not present in panel")

	got := applyFilter(s, testAssignment())
	if !got.Applied {
		t.Errorf("outcome = %+v, want applied despite clear failure", got)
	}
}

// Once confirmed, a panel that never closes still counts as applied.
func TestApplyFilterCloseTimeoutStillApplied(t *testing.T) {
	s := happySurface()
	s.panelClosed = waitTimedOut

	got := applyFilter(s, testAssignment())
	if !got.Applied {
		t.Errorf("outcome = %+v, want applied on close timeout", got)
	}
}

// Confirm is attempted even when the enabled-wait times out.
func TestApplyFilterConfirmAttemptedAfterEnableTimeout(t *testing.T) {
	s := happySurface()
	s.confirmEnabled = waitTimedOut

	got := applyFilter(s, testAssignment())
	if !got.Applied {
		t.Errorf("outcome = %+v, want applied", got)
	}
	found := false
	for _, c := range s.calls {
		if c == "confirm" {
			found = true
		}
	}
	if !found {
		t.Error("confirm was never attempted")
	}
}

// One failed assignment doesn't stop the rest.
func TestApplyAllContinuesPastFailures(t *testing.T) {
	s := happySurface()
	s.valueFound = false

	asgs := []FilterAssignment{testAssignment(), testAssignment()}
	got := applyAll(s, asgs)
	if len(got) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(got))
	}
	for i, o := range got {
		if o.Applied {
			t.Errorf("outcome %d = %+v, want failed", i, o)
		}
	}
}
