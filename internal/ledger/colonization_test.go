package ledger

import (
	"errors"
	"testing"
)

const depotLine = `{"timestamp":"2025-03-01T19:00:00Z","event":"ColonisationConstructionDepot","MarketID":3952436994,
"ConstructionProgress":0.25,"ConstructionComplete":false,"ConstructionFailed":false,"ResourcesRequired":[
{"Name":"$steel_name;","Name_Localised":"Steel","RequiredAmount":1000,"ProvidedAmount":250,"Payment":1500},
{"Name":"$aluminium_name;","Name_Localised":"Aluminium","RequiredAmount":400,"ProvidedAmount":400,"Payment":900}]}`

func TestColonization_DepotSnapshot(t *testing.T) {
	t.Parallel()

	c := NewColonizationTracker(0)
	if !c.Apply(event(t, 0, depotLine)) {
		t.Fatal("depot snapshot should change the tracker")
	}
	d, ok := c.Selected()
	if !ok {
		t.Fatal("the only depot should be selected")
	}
	if d.MarketID != 3952436994 || d.Progress != 0.25 {
		t.Errorf("depot = %+v", d)
	}
	steel, ok := d.Requirement("Steel")
	if !ok || steel.Required != 1000 || steel.Provided != 250 || steel.DisplayName != "Steel" {
		t.Errorf("steel = %+v, %v", steel, ok)
	}
	if got := d.Remaining(); got != 750 {
		t.Errorf("Remaining = %d, want 750", got)
	}
}

func TestColonization_ContributionClampsToRequired(t *testing.T) {
	t.Parallel()

	c := NewColonizationTracker(0)
	c.Apply(event(t, 0, depotLine))

	contrib := `{"timestamp":"2025-03-01T19:05:00Z","event":"ColonisationContribution","MarketID":3952436994,
"Contributions":[{"Name":"$steel_name;","Amount":900},{"Name":"$aluminium_name;","Amount":10}]}`
	if !c.Apply(event(t, 500, contrib)) {
		t.Fatal("contribution should change the tracker")
	}
	d, _ := c.Depot(3952436994)
	for _, r := range d.Resources {
		if r.Provided > r.Required {
			t.Errorf("%s provided %d exceeds required %d", r.Name, r.Provided, r.Required)
		}
	}
	if got := d.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if c.Apply(event(t, 500, contrib)) {
		t.Error("redelivered contribution must be ignored")
	}
}

func TestColonization_UnknownDepotContributionIgnored(t *testing.T) {
	t.Parallel()

	c := NewColonizationTracker(0)
	contrib := `{"event":"ColonisationContribution","MarketID":42,"Contributions":[{"Name":"steel","Amount":5}]}`
	if c.Apply(event(t, 0, contrib)) {
		t.Error("contribution to an unseen depot must be ignored")
	}
	if len(c.Depots()) != 0 {
		t.Error("no depot should be created")
	}
}

func TestColonization_SelectPinsDepot(t *testing.T) {
	t.Parallel()

	c := NewColonizationTracker(0)
	c.Apply(event(t, 0, depotLine))
	other := `{"event":"ColonisationConstructionDepot","MarketID":77,"ConstructionProgress":0.5,"ResourcesRequired":[]}`
	c.Apply(event(t, 900, other))

	if d, _ := c.Selected(); d.MarketID != 77 {
		t.Fatalf("selected = %d, want most recent 77", d.MarketID)
	}
	if err := c.Select(3952436994); err != nil {
		t.Fatalf("Select: %v", err)
	}
	c.Apply(event(t, 1800, other))
	if d, _ := c.Selected(); d.MarketID != 3952436994 {
		t.Errorf("pinned selection moved to %d", d.MarketID)
	}
	if err := c.Select(1); !errors.Is(err, ErrUnknownDepot) {
		t.Errorf("Select unknown = %v, want ErrUnknownDepot", err)
	}

	c.Reset()
	if _, ok := c.Selected(); ok {
		t.Error("Reset should clear the selection")
	}
	if len(c.Depots()) != 0 {
		t.Error("Reset should clear depots")
	}
}
