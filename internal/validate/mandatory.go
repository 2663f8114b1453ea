package validate

import (
	"strings"

	"github.com/ppiankov/fnol/internal/model"
)

// Mandatory field names, in evaluation order
const (
	FieldPolicyNumber        = "policy_number"
	FieldPolicyholderName    = "policyholder_name"
	FieldIncidentDate        = "incident_date"
	FieldIncidentLocation    = "incident_location"
	FieldIncidentDescription = "incident_description"
	FieldClaimType           = "claim_type"
	FieldDamage              = "initial_estimate_or_estimated_damage"
)

// check reports whether a mandatory field is present
type check struct {
	field   string
	present func(f *model.ExtractedFields) bool
}

var mandatory = []check{
	{FieldPolicyNumber, func(f *model.ExtractedFields) bool { return nonBlank(f.Policy.PolicyNumber) }},
	{FieldPolicyholderName, func(f *model.ExtractedFields) bool { return nonBlank(f.Policy.PolicyholderName) }},
	{FieldIncidentDate, func(f *model.ExtractedFields) bool { return f.Incident.Date != nil }},
	{FieldIncidentLocation, func(f *model.ExtractedFields) bool {
		return nonBlank(f.Incident.LocationStreet) || nonBlank(f.Incident.LocationCityStateZip)
	}},
	{FieldIncidentDescription, func(f *model.ExtractedFields) bool { return nonBlank(f.Incident.Description) }},
	{FieldClaimType, func(f *model.ExtractedFields) bool {
		return f.ClaimType != nil && strings.TrimSpace(string(*f.ClaimType)) != ""
	}},
	{FieldDamage, func(f *model.ExtractedFields) bool { return f.Damage() != nil }},
}

// MandatoryFields returns the mandatory field names in evaluation order
func MandatoryFields() []string {
	names := make([]string, len(mandatory))
	for i, c := range mandatory {
		names[i] = c.field
	}
	return names
}

// MissingFields lists absent or blank mandatory fields in evaluation order.
// An empty (non-nil) slice means the record is complete.
func MissingFields(f *model.ExtractedFields) []string {
	if f == nil {
		return MandatoryFields()
	}

	missing := []string{}
	for _, c := range mandatory {
		if !c.present(f) {
			missing = append(missing, c.field)
		}
	}
	return missing
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
