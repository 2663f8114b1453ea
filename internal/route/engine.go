package route

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/fnol/internal/model"
)

// investigationTerms flag narratives that suggest fraud or inconsistency
var investigationTerms = regexp.MustCompile(`(?i)\b(fraud|inconsistent|staged)\b`)

// Engine applies the routing rules in priority order. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	threshold float64
}

// NewEngine creates an engine with the given fast-track threshold. The value
// is used as given; configuration is checked by model.Config.Validate.
func NewEngine(threshold float64) *Engine {
	return &Engine{threshold: threshold}
}

// Threshold returns the fast-track damage threshold
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// outcome is what a single rule decided
type outcome struct {
	matched   bool
	detail    string
	reasoning string
}

type rule struct {
	name  string
	route model.Route
	eval  func(e *Engine, f *model.ExtractedFields, missing []string) outcome
}

// rules are evaluated in order; the first match wins
var rules = []rule{
	{"mandatory_fields", model.RouteManualReview, (*Engine).checkMissing},
	{"investigation_terms", model.RouteInvestigation, (*Engine).checkInvestigation},
	{"injury_claim", model.RouteSpecialist, (*Engine).checkInjury},
	{"fast_track_threshold", model.RouteFastTrack, (*Engine).checkFastTrack},
}

// Route decides the route for a record given its missing mandatory fields
func (e *Engine) Route(f *model.ExtractedFields, missing []string) model.Decision {
	if f == nil {
		f = &model.ExtractedFields{}
	}

	var trace []model.RuleCheck
	for _, r := range rules {
		out := r.eval(e, f, missing)
		trace = append(trace, model.RuleCheck{Rule: r.name, Matched: out.matched, Detail: out.detail})
		if out.matched {
			return model.Decision{
				Route:     r.route,
				Reasoning: out.reasoning,
				Threshold: e.threshold,
				Trace:     trace,
			}
		}
	}

	trace = append(trace, model.RuleCheck{Rule: "standard", Matched: true})
	return model.Decision{
		Route:     model.RouteStandard,
		Reasoning: "All mandatory fields present; no special flags; above fast-track threshold; routed to standard workflow.",
		Threshold: e.threshold,
		Trace:     trace,
	}
}

func (e *Engine) checkMissing(_ *model.ExtractedFields, missing []string) outcome {
	if len(missing) == 0 {
		return outcome{detail: "all mandatory fields present"}
	}
	joined := strings.Join(missing, ", ")
	return outcome{
		matched:   true,
		detail:    fmt.Sprintf("%d missing", len(missing)),
		reasoning: fmt.Sprintf("Missing mandatory field(s): %s. Cannot auto-route.", joined),
	}
}

func (e *Engine) checkInvestigation(f *model.ExtractedFields, _ []string) outcome {
	var desc string
	if f.Incident.Description != nil {
		desc = strings.TrimSpace(*f.Incident.Description)
	}
	term := investigationTerms.FindString(desc)
	if term == "" {
		return outcome{}
	}
	return outcome{
		matched:   true,
		detail:    "term: " + strings.ToLower(term),
		reasoning: "Description contains terms suggesting possible fraud or inconsistency; flagged for investigation.",
	}
}

func (e *Engine) checkInjury(f *model.ExtractedFields, _ []string) outcome {
	if f.ClaimType == nil {
		return outcome{}
	}
	claimType := strings.ToLower(strings.TrimSpace(string(*f.ClaimType)))
	if claimType != string(model.ClaimTypeInjury) {
		return outcome{detail: "claim type " + claimType}
	}
	return outcome{
		matched:   true,
		reasoning: "Claim type is injury; routed to specialist queue.",
	}
}

func (e *Engine) checkFastTrack(f *model.ExtractedFields, _ []string) outcome {
	damage := f.Damage()
	if damage == nil {
		return outcome{detail: "no damage amount"}
	}
	if *damage >= e.threshold {
		return outcome{detail: fmt.Sprintf("damage %s >= %s", formatAmount(*damage), formatAmount(e.threshold))}
	}
	amount, limit := formatAmount(*damage), formatAmount(e.threshold)
	return outcome{
		matched:   true,
		detail:    fmt.Sprintf("damage %s < %s", amount, limit),
		reasoning: fmt.Sprintf("Estimated damage (%s) is below threshold (%s); eligible for fast-track.", amount, limit),
	}
}

// formatAmount prints the shortest exact decimal, keeping one fractional
// digit for whole amounts (5000 prints as "5000.0")
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
