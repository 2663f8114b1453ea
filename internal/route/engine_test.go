package route

import (
	"strings"
	"testing"

	"github.com/ppiankov/fnol/internal/model"
)

func record(description string, claimType model.ClaimType, estimate float64) *model.ExtractedFields {
	f := &model.ExtractedFields{
		Policy: model.PolicyInfo{
			PolicyNumber:     model.Ptr("POL-1"),
			PolicyholderName: model.Ptr("Jane Doe"),
		},
		Incident: model.IncidentInfo{
			Date:           &model.Date{Year: 2024, Month: 1, Day: 20},
			LocationStreet: model.Ptr("100 Main St, Austin TX"),
			Description:    model.Ptr(description),
		},
		ClaimType: &claimType,
	}
	f.SetAsset(model.NewVehicleAsset(nil, nil, nil, nil, model.Ptr(estimate)))
	return f
}

func TestEngine_FastTrack(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)
	d := e.Route(record("Rear-ended at stoplight. No injuries.", model.ClaimTypeAuto, 5000), nil)

	if d.Route != model.RouteFastTrack {
		t.Fatalf("Expected %s, got %s (%s)", model.RouteFastTrack, d.Route, d.Reasoning)
	}
	if !strings.Contains(d.Reasoning, "5000.0") || !strings.Contains(d.Reasoning, "25000.0") {
		t.Errorf("Expected reasoning to state damage and threshold, got %q", d.Reasoning)
	}
	if d.Threshold != model.DefaultFastTrackThreshold {
		t.Errorf("Expected default threshold, got %v", d.Threshold)
	}
}

func TestEngine_ManualReview(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)
	f := record("Rear-ended at stoplight.", model.ClaimTypeAuto, 5000)
	d := e.Route(f, []string{"policy_number", "incident_date"})

	if d.Route != model.RouteManualReview {
		t.Fatalf("Expected %s, got %s", model.RouteManualReview, d.Route)
	}
	want := "Missing mandatory field(s): policy_number, incident_date. Cannot auto-route."
	if d.Reasoning != want {
		t.Errorf("Expected %q, got %q", want, d.Reasoning)
	}
	if len(d.Trace) != 1 {
		t.Errorf("Expected evaluation to stop at the first rule, got %d checks", len(d.Trace))
	}
}

func TestEngine_InvestigationBeforeThreshold(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)
	desc := "The story seems inconsistent and the damage looked staged. Possible fraud."
	d := e.Route(record(desc, model.ClaimTypeAuto, 22000), []string{})

	if d.Route != model.RouteInvestigation {
		t.Errorf("Expected %s, got %s", model.RouteInvestigation, d.Route)
	}
}

func TestEngine_InvestigationWholeWord(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)

	// "fraudulent" and "backstaged" are not whole-word matches
	d := e.Route(record("Not fraudulent, parked backstaged", model.ClaimTypeAuto, 1000), nil)
	if d.Route != model.RouteFastTrack {
		t.Errorf("Expected %s, got %s", model.RouteFastTrack, d.Route)
	}

	d = e.Route(record("Possible FRAUD.", model.ClaimTypeAuto, 1000), nil)
	if d.Route != model.RouteInvestigation {
		t.Errorf("Expected case-insensitive match, got %s", d.Route)
	}
}

func TestEngine_SpecialistBeforeThreshold(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)
	d := e.Route(record("Passenger was hurt.", model.ClaimType(" Injury "), 3000), nil)

	if d.Route != model.RouteSpecialist {
		t.Errorf("Expected %s, got %s", model.RouteSpecialist, d.Route)
	}
}

func TestEngine_Standard(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)
	d := e.Route(record("Tree fell on the car.", model.ClaimTypeAuto, 50000), nil)

	if d.Route != model.RouteStandard {
		t.Fatalf("Expected %s, got %s", model.RouteStandard, d.Route)
	}
	if len(d.Trace) != 5 {
		t.Errorf("Expected all five rules in trace, got %d", len(d.Trace))
	}
}

func TestEngine_ThresholdBoundary(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)

	// Strictly less than the threshold
	if d := e.Route(record("Scratch.", model.ClaimTypeAuto, 25000), nil); d.Route != model.RouteStandard {
		t.Errorf("Expected damage equal to threshold to be standard, got %s", d.Route)
	}
	if d := e.Route(record("Scratch.", model.ClaimTypeAuto, 24999.99), nil); d.Route != model.RouteFastTrack {
		t.Errorf("Expected damage below threshold to fast-track, got %s", d.Route)
	}
}

func TestEngine_CustomThreshold(t *testing.T) {
	tests := []struct {
		threshold float64
		damage    float64
		want      model.Route
	}{
		{1000, 5000, model.RouteStandard},
		{10000, 5000, model.RouteFastTrack},
		{100000, 50000, model.RouteFastTrack},
		{5000, 5000, model.RouteStandard},
		{0, 5000, model.RouteStandard},
		{0.01, 0, model.RouteFastTrack},
	}

	for _, tt := range tests {
		e := NewEngine(tt.threshold)
		d := e.Route(record("Dent.", model.ClaimTypeAuto, tt.damage), nil)
		if d.Route != tt.want {
			t.Errorf("threshold %v damage %v: expected %s, got %s", tt.threshold, tt.damage, tt.want, d.Route)
		}
	}
}

func TestEngine_NoDamageIsStandard(t *testing.T) {
	e := NewEngine(model.DefaultFastTrackThreshold)
	f := record("Dent.", model.ClaimTypeAuto, 100)
	f.Asset = nil
	f.InitialEstimate = nil

	// Missing damage normally forces manual review; without the list the
	// fast-track rule cannot match
	if d := e.Route(f, nil); d.Route != model.RouteStandard {
		t.Errorf("Expected %s, got %s", model.RouteStandard, d.Route)
	}
}

func TestEngine_NilRecord(t *testing.T) {
	d := NewEngine(model.DefaultFastTrackThreshold).Route(nil, []string{"policy_number"})
	if d.Route != model.RouteManualReview {
		t.Errorf("Expected %s, got %s", model.RouteManualReview, d.Route)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		5000:    "5000.0",
		25000:   "25000.0",
		8500.5:  "8500.5",
		1234.25: "1234.25",
	}
	for in, want := range tests {
		if got := formatAmount(in); got != want {
			t.Errorf("formatAmount(%v) = %s, expected %s", in, got, want)
		}
	}
}
