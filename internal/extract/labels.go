package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxValueLen is the default bound above which a multi-line value is
// treated as a blob of concatenated form labels.
const DefaultMaxValueLen = 200

// LabelCatalog is the denylist of form boilerplate. Extending the catalog
// never requires touching the extraction rules.
type LabelCatalog struct {
	// Patterns must match the entire trimmed value (case-insensitive)
	Patterns []string `yaml:"patterns"`

	// Substrings reject a value containing any of them (case-insensitive)
	Substrings []string `yaml:"substrings"`

	// Placeholders reject a value equal to one of them after lower-casing
	Placeholders []string `yaml:"placeholders"`

	// Flags reject a value equal to one of them after upper-casing (checkbox answers)
	Flags []string `yaml:"flags"`
}

// DefaultLabelCatalog returns the catalog of ACORD captions and section headers
func DefaultLabelCatalog() LabelCatalog {
	return LabelCatalog{
		Patterns: []string{
			`OTHER`,
			`STREET:`,
			`CITY,?\s*STATE,?\s*ZIP:?`,
			`NAME\s+OF\s+INSURED`,
			`INSURED'S\s+MAILING`,
			`PRIMARY\s+PHONE`,
			`SECONDARY\s+E-MAIL`,
			`PRIMARY\s+E-MAIL`,
			`DRIVER'S\s+NAME`,
			`OWNER'S\s+NAME`,
			`CHECK\s+IF\s+SAME`,
			`PHONE\s*#`,
			`CELL`,
			`HOME`,
			`BUS`,
			`LOSS\s*`,
			`ACORD\s+101`,
			`ADDITIONAL\s+REMARKS`,
			`INSURED\s+VEHICLE`,
			`SECONDARY`,
			`PRIMARY`,
			`NUMBER`,
			`VEHICLE`,
		},
		Substrings: []string{
			"same as owner",
			"same as insured",
			"mailing address",
			"additional remarks",
			"may be attached",
			"if more space",
			"check if same",
			"phone #",
			"e-mail address",
			"if not at specific",
			"street address",
			"(first, middle, last)",
			"first, middle, last",
		},
		Placeholders: []string{"number", "name", "date", "address", "other"},
		Flags:        []string{"OTHER", "Y", "N"},
	}
}

var punctuationOnly = regexp.MustCompile(`^[\s.:\-]+$`)

// LabelFilter decides whether a matched string is real data or form boilerplate
type LabelFilter struct {
	patterns     []*regexp.Regexp
	substrings   []string
	placeholders map[string]bool
	flags        map[string]bool
}

// NewLabelFilter compiles a catalog. Patterns that fail to compile are skipped.
func NewLabelFilter(catalog LabelCatalog) *LabelFilter {
	f := &LabelFilter{
		placeholders: make(map[string]bool, len(catalog.Placeholders)),
		flags:        make(map[string]bool, len(catalog.Flags)),
	}

	for _, p := range catalog.Patterns {
		if re, err := regexp.Compile(`(?i)^(?:` + p + `)$`); err == nil {
			f.patterns = append(f.patterns, re)
		}
	}
	for _, s := range catalog.Substrings {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			f.substrings = append(f.substrings, s)
		}
	}
	for _, p := range catalog.Placeholders {
		f.placeholders[strings.ToLower(p)] = true
	}
	for _, fl := range catalog.Flags {
		f.flags[strings.ToUpper(fl)] = true
	}

	return f
}

// IsPlaceholder reports whether value should be treated as "no value
// extracted". maxLen bounds a reasonable answer; zero or less means
// DefaultMaxValueLen.
func (f *LabelFilter) IsPlaceholder(value string, maxLen int) bool {
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLen
	}

	s := strings.TrimSpace(value)
	if s == "" {
		return true
	}

	if s == ":" || punctuationOnly.MatchString(s) {
		return true
	}

	if utf8.RuneCountInString(s) > maxLen && strings.Count(s, "\n") > 2 {
		return true
	}

	for _, re := range f.patterns {
		if re.MatchString(s) {
			return true
		}
	}

	lower := strings.ToLower(s)
	for _, sub := range f.substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}

	if f.placeholders[lower] {
		return true
	}

	return f.flags[strings.ToUpper(s)]
}
