package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/fnol/internal/model"
)

// dateLayouts are tried in order; the first that parses wins
var dateLayouts = []string{
	"1/2/2006", // month/day/year
	"2006-1-2", // year-month-day
	"2/1/2006", // day/month/year
	"1-2-2006", // month-day-year
}

var (
	moneyStrip = regexp.MustCompile(`[^0-9.]`)
	yearToken  = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// ParseDate parses the first 10 characters of s against the known layouts.
// Returns nil when nothing matches.
func ParseDate(s string) *model.Date {
	s = truncate(strings.TrimSpace(s), 10)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := model.DateOf(t)
			return &d
		}
	}
	return nil
}

// ParseMoney keeps only digits and periods, then parses a decimal amount.
// "$8,500.00" becomes 8500. Returns nil on failure.
func ParseMoney(s string) *float64 {
	cleaned := moneyStrip.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseYear finds the first 19xx/20xx token in s
func ParseYear(s string) *int {
	tok := yearToken.FindString(s)
	if tok == "" {
		return nil
	}
	y, err := strconv.Atoi(tok)
	if err != nil {
		return nil
	}
	return &y
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
