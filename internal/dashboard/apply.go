package dashboard

import "log"

// filterState tracks progress through the dropdown protocol for one control.
type filterState string

const (
	stateIdle          filterState = "idle"
	stateControlOpened filterState = "control_opened"
	stateAllCleared    filterState = "all_cleared"
	stateValueSelected filterState = "value_selected"
	stateConfirmed     filterState = "confirmed"
	stateSettled       filterState = "settled"
	stateAborted       filterState = "aborted"
)

// Abort reasons surfaced in FilterOutcome.FailReason.
const (
	reasonControlNotFound = "control not found"
	reasonPanelNotOpened  = "panel did not open"
	reasonValueNotFound   = "value not found in options"
	reasonConfirmMissing  = "confirm control missing"
)

// waitResult distinguishes a condition that was met from one that timed out
// or could not be evaluated at all.
type waitResult int

const (
	waitMet waitResult = iota
	waitTimedOut
	waitErrored
)

// filterSurface is the page-facing side of the apply protocol. The real
// implementation drives a live page; tests script one.
type filterSurface interface {
	// OpenControl finds the control by label and clicks its dropdown button.
	OpenControl(label string) error
	// WaitPanelOpen blocks until the option panel is visible.
	WaitPanelOpen() waitResult
	// ClearAll deselects the (All) option so the chosen value stands alone.
	ClearAll() error
	// Settle pauses for the panel to re-render after a checkbox change.
	Settle()
	// SelectValue checks the option matching value. Returns false when the
	// panel has no such option.
	SelectValue(value string) (bool, error)
	// WaitConfirmEnabled blocks until the panel's apply button is clickable.
	WaitConfirmEnabled() waitResult
	// Confirm clicks the apply button.
	Confirm() error
	// WaitPanelClosed blocks until the panel is gone.
	WaitPanelClosed() waitResult
	// WaitDashboardSettled blocks until the page has re-rendered with the
	// new filter in effect.
	WaitDashboardSettled()
}

// applyFilter drives one assignment through the dropdown protocol. Later
// stages are forgiving: once the value is confirmed, a panel that refuses to
// close no longer fails the filter.
func applyFilter(s filterSurface, asg FilterAssignment) FilterOutcome {
	label := asg.Control.Label
	outcome := FilterOutcome{Filter: label, Value: asg.Value}
	state := stateIdle

	abort := func(reason string) FilterOutcome {
		log.Printf("[filter:%s] aborted in state %s: %s", label, state, reason)
		outcome.Applied = false
		outcome.FailReason = reason
		return outcome
	}

	if err := s.OpenControl(label); err != nil {
		log.Printf("[filter:%s] open control: %v", label, err)
		return abort(reasonControlNotFound)
	}
	if s.WaitPanelOpen() != waitMet {
		return abort(reasonPanelNotOpened)
	}
	state = stateControlOpened

	// Losing the (All) deselect is survivable; the selected value still
	// narrows the view.
	if err := s.ClearAll(); err != nil {
		log.Printf("[filter:%s] clear (All): %v", label, err)
	}
	state = stateAllCleared
	s.Settle()

	found, err := s.SelectValue(asg.Value)
	if err != nil {
		log.Printf("[filter:%s] select %q: %v", label, asg.Value, err)
		return abort(reasonValueNotFound)
	}
	if !found {
		return abort(reasonValueNotFound)
	}
	state = stateValueSelected

	if r := s.WaitConfirmEnabled(); r != waitMet {
		log.Printf("[filter:%s] apply button never enabled, clicking anyway", label)
	}
	if err := s.Confirm(); err != nil {
		log.Printf("[filter:%s] confirm: %v", label, err)
		return abort(reasonConfirmMissing)
	}
	state = stateConfirmed

	if r := s.WaitPanelClosed(); r != waitMet {
		log.Printf("[filter:%s] panel still visible after confirm, continuing", label)
	}
	s.WaitDashboardSettled()
	state = stateSettled

	log.Printf("[filter:%s] applied %q (state %s)", label, asg.Value, state)
	outcome.Applied = true
	return outcome
}

// applyAll runs assignments in order. A failed filter is recorded and the
// rest still run; partial narrowing beats no narrowing.
func applyAll(s filterSurface, assignments []FilterAssignment) []FilterOutcome {
	outcomes := make([]FilterOutcome, 0, len(assignments))
	for _, asg := range assignments {
		outcomes = append(outcomes, applyFilter(s, asg))
	}
	return outcomes
}
