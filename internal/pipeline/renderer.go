package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/fnol/internal/model"
	"gopkg.in/yaml.v3"
)

// Renderer writes reports as JSON, YAML, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report, including the rule trace
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderYAML writes the API result shape as YAML
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	data, err := yaml.Marshal(resultYAML(report.Result()))
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return writeFile(path, data)
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown formats the report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	result := report.Result()

	fmt.Fprintf(&b, "# FNOL Report: %s\n\n", report.Source)
	fmt.Fprintf(&b, "**Route:** %s  \n", result.RecommendedRoute)
	fmt.Fprintf(&b, "**Reasoning:** %s  \n", result.Reasoning)
	fmt.Fprintf(&b, "**Processed:** %s\n\n", report.ProcessedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Missing Fields\n\n")
	if len(result.MissingFields) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, f := range result.MissingFields {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Extracted Fields\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	for _, key := range sortedKeys(result.ExtractedFields) {
		fmt.Fprintf(&b, "| %s | %s |\n", key, markdownCell(result.ExtractedFields[key]))
	}
	b.WriteString("\n")

	if len(report.Decision.Trace) > 0 {
		b.WriteString("## Routing Trace\n\n")
		for i, check := range report.Decision.Trace {
			mark := "no match"
			if check.Matched {
				mark = "**match**"
			}
			line := fmt.Sprintf("%d. `%s`: %s", i+1, check.Rule, mark)
			if check.Detail != "" {
				line += " (" + check.Detail + ")"
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n*Fast-track threshold: %s. Generated by fnol.*\n", formatMoney(report.Decision.Threshold))
	}

	return b.String()
}

// RenderSummary prints a short summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	result := report.Result()

	_, _ = fmt.Fprintf(w, "\n%s\n", report.Source)
	_, _ = fmt.Fprintf(w, "  Route:     %s\n", result.RecommendedRoute)
	_, _ = fmt.Fprintf(w, "  Reasoning: %s\n", result.Reasoning)
	if len(result.MissingFields) > 0 {
		_, _ = fmt.Fprintf(w, "  Missing:   %s\n", strings.Join(result.MissingFields, ", "))
	}
	_, _ = fmt.Fprintf(w, "  Fields:    %d extracted\n", len(result.ExtractedFields))
}

// resultYAMLDoc keeps the camelCase keys of the JSON response
type resultYAMLDoc struct {
	ExtractedFields  map[string]any `yaml:"extractedFields"`
	MissingFields    []string       `yaml:"missingFields"`
	RecommendedRoute string         `yaml:"recommendedRoute"`
	Reasoning        string         `yaml:"reasoning"`
}

func resultYAML(r model.Result) resultYAMLDoc {
	return resultYAMLDoc{
		ExtractedFields:  r.ExtractedFields,
		MissingFields:    r.MissingFields,
		RecommendedRoute: string(r.RecommendedRoute),
		Reasoning:        r.Reasoning,
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func markdownCell(v any) string {
	var s string
	switch val := v.(type) {
	case []string:
		s = strings.Join(val, ", ")
	case float64:
		s = formatMoney(val)
	default:
		s = fmt.Sprint(val)
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
