package extract

import (
	"strings"

	"github.com/ppiankov/fnol/internal/model"
)

// Extractor maps raw FNOL text onto structured fields. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	labels *LabelFilter
}

// NewExtractor creates an extractor that rejects values from the given catalog
func NewExtractor(catalog LabelCatalog) *Extractor {
	return &Extractor{labels: NewLabelFilter(catalog)}
}

// NewDefaultExtractor creates an extractor with the built-in ACORD catalog
func NewDefaultExtractor() *Extractor {
	return NewExtractor(DefaultLabelCatalog())
}

// Extract parses text into a record. It never fails; fields that cannot be
// found or parsed are left nil.
func (e *Extractor) Extract(text string) *model.ExtractedFields {
	fields, _ := e.ExtractWithSources(text)
	return fields
}

// ExtractWithSources is Extract plus the name of the rule that filled each
// field, keyed by flattened field name.
func (e *Extractor) ExtractWithSources(text string) (*model.ExtractedFields, map[string]string) {
	x := &extraction{labels: e.labels, text: text, sources: make(map[string]string)}

	fields := &model.ExtractedFields{
		ThirdParties: []model.InvolvedParty{},
		Attachments:  []string{},
	}

	fields.Policy = x.policy()
	fields.Incident = x.incident()
	fields.Claimant = x.claimant(fields.Policy.PolicyholderName)
	fields.SetAsset(x.asset())

	claimType := ClassifyClaim(fields.Incident.Description, text)
	fields.ClaimType = &claimType

	if DetectAttachments(text) {
		fields.Attachments = append(fields.Attachments, "document_attached")
	}

	return fields, x.sources
}

// extraction carries the state of one Extract call
type extraction struct {
	labels  *LabelFilter
	text    string
	sources map[string]string
}

// run evaluates a cascade and records which rule won
func (x *extraction) run(field string, c cascade) *string {
	v, name, ok := c.first(x.labels, x.text)
	if !ok {
		return nil
	}
	x.sources[field] = name
	return &v
}

func (x *extraction) policy() model.PolicyInfo {
	return model.PolicyInfo{
		PolicyNumber:     x.run("policy_policy_number", policyNumberRules),
		PolicyholderName: x.run("policy_policyholder_name", policyholderRules),
	}
}

func (x *extraction) incident() model.IncidentInfo {
	var inc model.IncidentInfo

	if m := lossDateLine.FindStringSubmatch(x.text); m != nil {
		line := m[1]
		if d := dateToken.FindString(line); d != "" {
			if inc.Date = ParseDate(d); inc.Date != nil {
				x.sources["incident_date"] = "acord_date_of_loss_and_time"
			}
		}
		if t := timeToken.FindString(line); t != "" {
			inc.Time = model.Ptr(strings.TrimSpace(t))
			x.sources["incident_time"] = "acord_date_of_loss_and_time"
		}
	}
	if inc.Date == nil {
		if m := genericLossDate.FindStringSubmatch(x.text); m != nil {
			if inc.Date = ParseDate(m[1]); inc.Date != nil {
				x.sources["incident_date"] = "generic_loss_date"
			}
		}
	}

	inc.LocationStreet = x.run("incident_location_street", streetRules)
	inc.LocationCityStateZip = x.run("incident_location_city_state_zip", cityStateZipRules)
	inc.LocationCountry = x.run("incident_location_country", countryRules)
	inc.Description = x.run("incident_description", descriptionRules)

	if inc.LocationStreet == nil && inc.LocationCityStateZip == nil {
		inc.LocationStreet = x.run("incident_location_street", locationFallbackRules)
	}

	return inc
}

// claimant resolves the driver, then the owner, then falls back to the
// policyholder. Phone and email attach only to an established claimant.
func (x *extraction) claimant(policyholder *string) *model.InvolvedParty {
	var party *model.InvolvedParty
	if name := x.run("claimant_name", claimantRules); name != nil {
		party = &model.InvolvedParty{Name: name}
	} else if policyholder != nil {
		party = &model.InvolvedParty{Name: model.Ptr(*policyholder)}
		x.sources["claimant_name"] = "policyholder"
	}
	if party == nil {
		return nil
	}

	party.Phone = x.run("claimant_phone", phoneRules)
	party.Email = x.run("claimant_email", emailRules)
	return party
}

// asset builds the vehicle record when any vehicle caption matched, even if
// every captured value was then rejected.
func (x *extraction) asset() *model.AssetDetails {
	found := false
	for _, c := range []cascade{vinRules, makeRules, modelRules, yearRules, estimateRules} {
		if c.matched(x.text) {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	vin := x.run("asset_asset_id", vinRules)
	vehicleMake := x.run("asset_make", makeRules)
	vehicleModel := x.run("asset_model", modelRules)

	var year *int
	if y := x.run("asset_year", yearRules); y != nil {
		year = ParseYear(*y)
	}

	var estimate *float64
	if raw := x.run("asset_estimated_damage", estimateRules); raw != nil {
		estimate = ParseMoney(*raw)
	}

	return model.NewVehicleAsset(vin, vehicleMake, vehicleModel, year, estimate)
}
