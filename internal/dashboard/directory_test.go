package dashboard

import "testing"

func TestBuildControlsDedupesAndIndexes(t *testing.T) {
	found := []discoveredControl{
		{Label: "Location", Value: "(All)"},
		{Label: "  location ", Value: "Hunter College"},
		{Label: "Award Level", Value: "Bachelor's"},
		{Label: "", Value: "ignored"},
	}

	got := buildControls(found)
	if len(got) != 2 {
		t.Fatalf("expected 2 controls, got %d: %v", len(got), got)
	}
	if got[0].Label != "Location" || got[0].CleanLabel != "location" || got[0].Index != 0 {
		t.Errorf("control 0 = %+v", got[0])
	}
	if got[1].Label != "Award Level" || got[1].Index != 1 {
		t.Errorf("control 1 = %+v", got[1])
	}
}

func TestBuildControlsCarriesCurrentValue(t *testing.T) {
	got := buildControls([]discoveredControl{
		{Label: "Location", Value: "Hunter College"},
		{Label: "Degree", Value: ""},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(got))
	}
	if got[0].CurrentValue != "Hunter College" {
		t.Errorf("current value = %q, want %q", got[0].CurrentValue, "Hunter College")
	}
	if got[1].CurrentValue != "" {
		t.Errorf("current value = %q, want empty", got[1].CurrentValue)
	}
}
