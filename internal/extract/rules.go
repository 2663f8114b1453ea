package extract

import (
	"regexp"
	"strings"
)

// capture pulls a raw candidate out of the document text
type capture func(text string) (string, bool)

// rule is one attempt at filling a field: a capture, the number of runes kept
// from the trimmed candidate, and the length bound handed to the label filter.
type rule struct {
	name     string
	capture  capture
	truncate int // 0 keeps the whole candidate
	bound    int // 0 means DefaultMaxValueLen
}

// cascade is an ordered list of rules for one field. The first candidate the
// label filter accepts wins.
type cascade []rule

// first returns the first accepted value and the rule that produced it
func (c cascade) first(f *LabelFilter, text string) (value, ruleName string, ok bool) {
	for _, r := range c {
		raw, matched := r.capture(text)
		if !matched {
			continue
		}
		v := truncate(strings.TrimSpace(raw), r.truncate)
		if f.IsPlaceholder(v, r.bound) {
			continue
		}
		return v, r.name, true
	}
	return "", "", false
}

// matched reports whether any rule captures something, accepted or not
func (c cascade) matched(text string) bool {
	for _, r := range c {
		if _, ok := r.capture(text); ok {
			return true
		}
	}
	return false
}

// pattern captures group 1 of the leftmost match of re
func pattern(re *regexp.Regexp) capture {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

// block captures the line following head plus continuation lines, up to the
// first empty line or the first line stop rejects. A nil stop continues until
// an empty line. CRLF line endings are treated as LF.
func block(head *regexp.Regexp, stop func(line string) bool) capture {
	return func(text string) (string, bool) {
		loc := head.FindStringIndex(text)
		if loc == nil {
			return "", false
		}
		rest := strings.TrimLeft(text[loc[1]:], " \t\r\n\f\v")
		if rest == "" {
			return "", false
		}

		lines := strings.Split(rest, "\n")
		kept := []string{strings.TrimSuffix(lines[0], "\r")}
		for _, line := range lines[1:] {
			line = strings.TrimSuffix(line, "\r")
			if line == "" || (stop != nil && stop(line)) {
				break
			}
			kept = append(kept, line)
		}
		return strings.Join(kept, "\n"), true
	}
}

var (
	sectionStart = regexp.MustCompile(`(?i)^(?:POLICY|INSURED|LOCATION|DATE)`)
	capsLabel    = regexp.MustCompile(`^[A-Z\s]{3,}:`)
)

var policyNumberRules = cascade{
	{name: "acord_policy_number", capture: pattern(regexp.MustCompile(`(?i)POLICY\s*NUMBER[:\s]*([A-Za-z0-9\-]+)`)), bound: 50},
	{name: "acord_naic_carrier", capture: pattern(regexp.MustCompile(`(?i)NAIC\s*CODE[:\s]*\S+\s*CARRIER[:\s]*\S+\s*POLICY\s*NUMBER[:\s]*(\S+)`)), bound: 50},
	{name: "generic_policy", capture: pattern(regexp.MustCompile(`(?i)\bpolicy(?:\s*(?:#|no\.)\s*:?|\s*(?:number|no)\s*[:\s]|\s*[:\s])\s*([A-Za-z0-9\-]+)`)), bound: 50},
}

var policyholderRules = cascade{
	{name: "acord_name_of_insured", capture: pattern(regexp.MustCompile(`(?i)NAME\s+OF\s+INSURED\s*\([^)]*\)\s*([^\n]+)`)), truncate: 200},
	{name: "generic_insured", capture: pattern(regexp.MustCompile(`(?i)(?:insured|policyholder)\s*(?:name)?\s*[:\s]*([^\n]+)`)), truncate: 200},
}

var (
	lossDateLine    = regexp.MustCompile(`(?i)DATE\s+OF\s+LOSS\s+AND\s+TIME\s*([^\n]+)`)
	dateToken       = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4})`)
	timeToken       = regexp.MustCompile(`(?i)(\d{1,2}\s*:\s*\d{2}\s*(?:AM|PM)?|\d{1,2}\s*AM|\d{1,2}\s*PM)`)
	genericLossDate = regexp.MustCompile(`(?i)(?:loss\s+date|date\s+of\s+loss|incident\s+date)\s*[:\s]*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
)

var streetRules = cascade{
	{name: "acord_location_of_loss", capture: pattern(regexp.MustCompile(`(?im)LOCATION\s+OF\s+LOSS[:\s]*(?:STREET[:\s]*)?([^\n]+?)(?:\s*CITY|$)`)), truncate: 300},
}

var cityStateZipRules = cascade{
	{name: "acord_city_state_zip", capture: pattern(regexp.MustCompile(`(?i)CITY,?\s*STATE,?\s*ZIP[:\s]*([^\n]+)`)), truncate: 100, bound: 100},
}

var countryRules = cascade{
	{name: "acord_country", capture: pattern(regexp.MustCompile(`(?i)COUNTRY[:\s]*([^\n]+)`)), truncate: 80, bound: 80},
}

// locationFallbackRules run only when neither street nor city/state/zip was found
var locationFallbackRules = cascade{
	{name: "generic_location", capture: pattern(regexp.MustCompile(`(?i)Location(?:\s+of\s+loss)?\s*[:\s]*([^\n]+)`)), truncate: 300},
}

// MaxDescriptionLen is the number of characters kept from a loss narrative
const MaxDescriptionLen = 2000

var descriptionRules = cascade{
	{
		name:     "acord_description_of_accident",
		capture:  block(regexp.MustCompile(`(?i)DESCRIPTION\s+OF\s+ACCIDENT\s*`), sectionStart.MatchString),
		truncate: MaxDescriptionLen,
		bound:    MaxDescriptionLen,
	},
	{
		name:     "generic_description_of_loss",
		capture:  block(regexp.MustCompile(`(?i)(?:description\s+of\s+(?:loss|accident)|accident\s+description)\s*[:\s]*`), capsLabel.MatchString),
		truncate: MaxDescriptionLen,
		bound:    MaxDescriptionLen,
	},
	{
		name:     "generic_description",
		capture:  block(regexp.MustCompile(`(?i)Description(?:\s+of\s+(?:loss|accident))?\s*[:\s]*`), nil),
		truncate: MaxDescriptionLen,
		bound:    MaxDescriptionLen,
	},
}

var claimantRules = cascade{
	{name: "acord_driver", capture: pattern(regexp.MustCompile(`(?i)DRIVER'S\s+NAME\s+AND\s+ADDRESS\s*([^\n]+)`))},
	{name: "acord_owner", capture: pattern(regexp.MustCompile(`(?i)OWNER'S\s+NAME\s+AND\s+ADDRESS\s*([^\n]+)`))},
}

var phoneRules = cascade{
	{name: "acord_primary_phone", capture: pattern(regexp.MustCompile(`(?i)PRIMARY\s+PHONE\s*#\s*[:\s]*([^\n]+)`)), truncate: 50, bound: 30},
}

var emailRules = cascade{
	{name: "acord_primary_email", capture: pattern(regexp.MustCompile(`(?i)PRIMARY\s+E-MAIL\s*[:\s]*([^\s@]+@\S+)`)), bound: 50},
}

var vinRules = cascade{
	{name: "vin", capture: pattern(regexp.MustCompile(`(?i:V\.?I\.?N\.?)[:\s]*([A-HJ-NPR-Z0-9]{17})`))},
}

var makeRules = cascade{
	{name: "acord_make", capture: pattern(regexp.MustCompile(`(?im)\bMAKE\b[:\s]*([^\n\t]+?)(?:\s+(?:MAKE|MODEL|YEAR|BODY|TYPE)\b|$)`)), bound: 50},
}

var modelRules = cascade{
	{name: "acord_model", capture: pattern(regexp.MustCompile(`(?im)\bMODEL\b[:\s]*([^\n\t]+?)(?:\s+(?:MAKE|MODEL|YEAR|BODY|TYPE)\b|$)`)), bound: 50},
}

var yearRules = cascade{
	{name: "acord_year", capture: pattern(regexp.MustCompile(`(?i)\bYEAR\b[:\s]*((?:19|20)\d{2})\b`))},
}

var estimateRules = cascade{
	{name: "acord_estimate_amount", capture: pattern(regexp.MustCompile(`(?i)ESTIMATE\s+AMOUNT[:\s]*([^\n]+)`))},
	{name: "generic_estimate", capture: pattern(regexp.MustCompile(`(?i)\b(?:initial\s+)?estimate(?:d(?:\s+damages?)?)?\b\s*[:\s]*([^\n]+)`))},
}
