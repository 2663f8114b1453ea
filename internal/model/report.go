package model

import (
	"fmt"
	"time"
)

// Route is the recommended processing route for a claim
type Route string

const (
	RouteManualReview  Route = "Manual review"      // Mandatory data missing
	RouteInvestigation Route = "Investigation Flag" // Narrative suggests fraud or inconsistency
	RouteSpecialist    Route = "Specialist Queue"   // Injury claims
	RouteFastTrack     Route = "Fast-track"         // Complete, low-value claims
	RouteStandard      Route = "Standard"           // Everything else
)

// Routes lists every route in rule priority order
var Routes = []Route{RouteManualReview, RouteInvestigation, RouteSpecialist, RouteFastTrack, RouteStandard}

// RuleCheck records one routing rule evaluation
type RuleCheck struct {
	Rule    string `json:"rule"`
	Matched bool   `json:"matched"`
	Detail  string `json:"detail,omitempty"`
}

// Decision is the output of the routing engine
type Decision struct {
	Route     Route       `json:"route"`
	Reasoning string      `json:"reasoning"`
	Threshold float64     `json:"threshold"`
	Trace     []RuleCheck `json:"trace,omitempty"` // Rules evaluated up to and including the match
}

// Result is the API response body for one processed document
type Result struct {
	ExtractedFields  map[string]any `json:"extractedFields"`
	MissingFields    []string       `json:"missingFields"`
	RecommendedRoute Route          `json:"recommendedRoute"`
	Reasoning        string         `json:"reasoning"`
}

// Report is the complete processing record for one document
type Report struct {
	Source      string           `json:"source"`           // File name, path or URL
	Format      string           `json:"format,omitempty"` // pdf, txt, html or text
	ProcessedAt time.Time        `json:"processed_at"`
	Fields      *ExtractedFields `json:"fields"`
	Missing     []string         `json:"missing"`
	Decision    Decision         `json:"decision"`
}

// Result converts the report to the API response shape
func (r *Report) Result() Result {
	missing := r.Missing
	if missing == nil {
		missing = []string{}
	}
	return Result{
		ExtractedFields:  r.Fields.Flatten(),
		MissingFields:    missing,
		RecommendedRoute: r.Decision.Route,
		Reasoning:        r.Decision.Reasoning,
	}
}

// Flatten emits every populated leaf as "<group>_<field>". Absent fields are
// omitted, dates are ISO-8601 strings.
func (f *ExtractedFields) Flatten() map[string]any {
	out := make(map[string]any)
	if f == nil {
		return out
	}

	put := func(key string, v any) {
		switch val := v.(type) {
		case *string:
			if val != nil {
				out[key] = *val
			}
		case *Date:
			if val != nil {
				out[key] = val.String()
			}
		case *int:
			if val != nil {
				out[key] = *val
			}
		case *float64:
			if val != nil {
				out[key] = *val
			}
		}
	}

	p := f.Policy
	put("policy_policy_number", p.PolicyNumber)
	put("policy_policyholder_name", p.PolicyholderName)
	put("policy_effective_date_start", p.EffectiveDateStart)
	put("policy_effective_date_end", p.EffectiveDateEnd)

	i := f.Incident
	put("incident_date", i.Date)
	put("incident_time", i.Time)
	put("incident_location_street", i.LocationStreet)
	put("incident_location_city_state_zip", i.LocationCityStateZip)
	put("incident_location_country", i.LocationCountry)
	put("incident_description", i.Description)

	party := func(prefix string, ip *InvolvedParty) {
		if ip == nil {
			return
		}
		put(prefix+"_name", ip.Name)
		put(prefix+"_address", ip.Address)
		put(prefix+"_phone", ip.Phone)
		put(prefix+"_email", ip.Email)
		put(prefix+"_relation_to_insured", ip.RelationToInsured)
	}
	party("claimant", f.Claimant)
	for idx := range f.ThirdParties {
		party(fmt.Sprintf("third_party_%d", idx), &f.ThirdParties[idx])
	}
	party("contact", f.Contact())

	if a := f.Asset; a != nil {
		put("asset_asset_type", a.AssetType)
		put("asset_asset_id", a.AssetID)
		put("asset_make", a.Make)
		put("asset_model", a.Model)
		put("asset_year", a.Year)
		put("asset_estimated_damage", a.EstimatedDamage)
		put("asset_initial_estimate", a.InitialEstimate)
	}

	if f.ClaimType != nil {
		out["claim_type"] = string(*f.ClaimType)
	}
	if len(f.Attachments) > 0 {
		out["attachments"] = append([]string(nil), f.Attachments...)
	}
	put("initial_estimate", f.InitialEstimate)

	return out
}
