package model

import (
	"fmt"
	"time"
)

// ClaimType categorizes the nature of the loss
type ClaimType string

const (
	ClaimTypeInjury   ClaimType = "injury"   // Bodily injury mentioned in the loss narrative
	ClaimTypeAuto     ClaimType = "auto"     // Vehicle loss (or ACORD automobile form)
	ClaimTypeProperty ClaimType = "property" // Everything else
)

// Valid reports whether t is one of the known claim types
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeInjury, ClaimTypeAuto, ClaimTypeProperty:
		return true
	}
	return false
}

// AssetTypeVehicle is the only asset type the extractor produces
const AssetTypeVehicle = "vehicle"

// Date is a calendar date without a time zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as ISO-8601 (YYYY-MM-DD)
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse(time.DateOnly, string(b))
	if err != nil {
		return fmt.Errorf("parse date %q: %w", b, err)
	}
	*d = DateOf(t)
	return nil
}

// PolicyInfo holds policy identification from the notice
type PolicyInfo struct {
	PolicyNumber       *string `json:"policy_number,omitempty"`
	PolicyholderName   *string `json:"policyholder_name,omitempty"`
	EffectiveDateStart *Date   `json:"effective_date_start,omitempty"`
	EffectiveDateEnd   *Date   `json:"effective_date_end,omitempty"`
}

// IncidentInfo describes when, where and how the loss happened
type IncidentInfo struct {
	Date                 *Date   `json:"date,omitempty"`
	Time                 *string `json:"time,omitempty"` // Free text as written, e.g. "10:30 AM"
	LocationStreet       *string `json:"location_street,omitempty"`
	LocationCityStateZip *string `json:"location_city_state_zip,omitempty"`
	LocationCountry      *string `json:"location_country,omitempty"`
	Description          *string `json:"description,omitempty"`
}

// InvolvedParty is a single person attached to the claim
type InvolvedParty struct {
	Name              *string `json:"name,omitempty"`
	Address           *string `json:"address,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	Email             *string `json:"email,omitempty"`
	RelationToInsured *string `json:"relation_to_insured,omitempty"`
}

// AssetDetails describes the damaged asset. Both estimate fields carry the
// same value; use NewVehicleAsset to keep them in sync.
type AssetDetails struct {
	AssetType       *string  `json:"asset_type,omitempty"`
	AssetID         *string  `json:"asset_id,omitempty"` // VIN for vehicles
	Make            *string  `json:"make,omitempty"`
	Model           *string  `json:"model,omitempty"`
	Year            *int     `json:"year,omitempty"`
	EstimatedDamage *float64 `json:"estimated_damage,omitempty"`
	InitialEstimate *float64 `json:"initial_estimate,omitempty"`
}

// NewVehicleAsset builds a vehicle asset whose estimated damage and initial
// estimate are both taken from estimate.
func NewVehicleAsset(vin, vehicleMake, vehicleModel *string, year *int, estimate *float64) *AssetDetails {
	a := &AssetDetails{
		AssetType: Ptr(AssetTypeVehicle),
		AssetID:   vin,
		Make:      vehicleMake,
		Model:     vehicleModel,
		Year:      year,
	}
	if estimate != nil {
		a.EstimatedDamage = Ptr(*estimate)
		a.InitialEstimate = Ptr(*estimate)
	}
	return a
}

// ExtractedFields is the structured record produced from one FNOL document
type ExtractedFields struct {
	Policy          PolicyInfo      `json:"policy"`
	Incident        IncidentInfo    `json:"incident"`
	Claimant        *InvolvedParty  `json:"claimant,omitempty"`
	ThirdParties    []InvolvedParty `json:"third_parties"`
	Asset           *AssetDetails   `json:"asset,omitempty"`
	ClaimType       *ClaimType      `json:"claim_type,omitempty"`
	Attachments     []string        `json:"attachments"`
	InitialEstimate *float64        `json:"initial_estimate,omitempty"`
}

// Contact returns the contact party. The contact is the claimant; the two
// names refer to one entity.
func (f *ExtractedFields) Contact() *InvolvedParty {
	return f.Claimant
}

// SetAsset attaches the asset and mirrors its initial estimate at the top level
func (f *ExtractedFields) SetAsset(a *AssetDetails) {
	f.Asset = a
	if a == nil {
		return
	}
	switch {
	case a.InitialEstimate != nil:
		f.InitialEstimate = Ptr(*a.InitialEstimate)
	case a.EstimatedDamage != nil:
		f.InitialEstimate = Ptr(*a.EstimatedDamage)
	default:
		f.InitialEstimate = nil
	}
}

// Damage returns the damage amount used by the mandatory-field check and the
// routing engine: the asset's estimated damage, else the asset's initial
// estimate, with the top-level initial estimate taking precedence when set.
func (f *ExtractedFields) Damage() *float64 {
	var damage *float64
	if f.Asset != nil {
		if f.Asset.EstimatedDamage != nil {
			damage = f.Asset.EstimatedDamage
		} else {
			damage = f.Asset.InitialEstimate
		}
	}
	if f.InitialEstimate != nil {
		damage = f.InitialEstimate
	}
	return damage
}

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}

// clonePtr copies the value behind p into a new pointer
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return Ptr(*p)
}

// Clone returns a deep copy of the party
func (p *InvolvedParty) Clone() *InvolvedParty {
	if p == nil {
		return nil
	}
	return &InvolvedParty{
		Name:              clonePtr(p.Name),
		Address:           clonePtr(p.Address),
		Phone:             clonePtr(p.Phone),
		Email:             clonePtr(p.Email),
		RelationToInsured: clonePtr(p.RelationToInsured),
	}
}

// Clone returns a deep copy of the asset
func (a *AssetDetails) Clone() *AssetDetails {
	if a == nil {
		return nil
	}
	return &AssetDetails{
		AssetType:       clonePtr(a.AssetType),
		AssetID:         clonePtr(a.AssetID),
		Make:            clonePtr(a.Make),
		Model:           clonePtr(a.Model),
		Year:            clonePtr(a.Year),
		EstimatedDamage: clonePtr(a.EstimatedDamage),
		InitialEstimate: clonePtr(a.InitialEstimate),
	}
}

// Clone returns a deep copy of the record. Nil and empty slices keep their
// distinction so JSON output is unchanged.
func (f *ExtractedFields) Clone() *ExtractedFields {
	if f == nil {
		return nil
	}
	out := &ExtractedFields{
		Policy: PolicyInfo{
			PolicyNumber:       clonePtr(f.Policy.PolicyNumber),
			PolicyholderName:   clonePtr(f.Policy.PolicyholderName),
			EffectiveDateStart: clonePtr(f.Policy.EffectiveDateStart),
			EffectiveDateEnd:   clonePtr(f.Policy.EffectiveDateEnd),
		},
		Incident: IncidentInfo{
			Date:                 clonePtr(f.Incident.Date),
			Time:                 clonePtr(f.Incident.Time),
			LocationStreet:       clonePtr(f.Incident.LocationStreet),
			LocationCityStateZip: clonePtr(f.Incident.LocationCityStateZip),
			LocationCountry:      clonePtr(f.Incident.LocationCountry),
			Description:          clonePtr(f.Incident.Description),
		},
		Claimant:        f.Claimant.Clone(),
		Asset:           f.Asset.Clone(),
		ClaimType:       clonePtr(f.ClaimType),
		InitialEstimate: clonePtr(f.InitialEstimate),
	}
	if f.ThirdParties != nil {
		out.ThirdParties = make([]InvolvedParty, len(f.ThirdParties))
		for i := range f.ThirdParties {
			out.ThirdParties[i] = *f.ThirdParties[i].Clone()
		}
	}
	if f.Attachments != nil {
		out.Attachments = append([]string{}, f.Attachments...)
	}
	return out
}
