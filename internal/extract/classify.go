package extract

import (
	"strings"

	"github.com/ppiankov/fnol/internal/model"
)

var (
	injuryTerms  = []string{"injury", "injured"}
	vehicleTerms = []string{"vehicle", "automobile", "auto"}
)

// acordMarker is matched case-sensitively against the original text
const acordMarker = "ACORD"

// ClassifyClaim infers the claim type with strict priority: injury from the
// loss narrative only, then auto from anywhere in the document, then property.
// Captions such as "INJURED" in a form header never make a claim an injury.
func ClassifyClaim(description *string, text string) model.ClaimType {
	if description != nil {
		desc := strings.ToLower(*description)
		if containsAny(desc, injuryTerms) {
			return model.ClaimTypeInjury
		}
	}

	if containsAny(strings.ToLower(text), vehicleTerms) || strings.Contains(text, acordMarker) {
		return model.ClaimTypeAuto
	}

	return model.ClaimTypeProperty
}

// DetectAttachments reports whether the document mentions an attachment
func DetectAttachments(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "attachment") || strings.Contains(lower, "attached")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
