package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/fnol/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notice(description string, estimate string) string {
	return fmt.Sprintf(`Policy Number: POL-2024-001
Policyholder: Jane Doe
Date of Loss: 01/20/2024
Location: 100 Main St, Austin TX
Description: %s

Vehicle: 2021 Honda Civic
Estimate: %s
`, description, estimate)
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.HTTP.RespectRobots = false
	return NewPipeline(cfg, nil)
}

func TestProcessText_Routes(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		route     model.Route
		reasoning string
		missing   []string
	}{
		{
			name:      "fast-track",
			text:      notice("Rear-ended at stoplight. No injuries.", "$5,000"),
			route:     model.RouteFastTrack,
			reasoning: "Estimated damage (5000.0) is below threshold (25000.0); eligible for fast-track.",
			missing:   []string{},
		},
		{
			name:      "manual review",
			text:      strings.Replace(notice("Rear-ended at stoplight. No injuries.", "$5,000"), "Policy Number: POL-2024-001\n", "", 1),
			route:     model.RouteManualReview,
			reasoning: "Missing mandatory field(s): policy_number. Cannot auto-route.",
			missing:   []string{"policy_number"},
		},
		{
			name:      "investigation before fast-track",
			text:      notice("The story seems inconsistent and the damage looked staged. Possible fraud.", "$22,000"),
			route:     model.RouteInvestigation,
			reasoning: "Description contains terms suggesting possible fraud or inconsistency; flagged for investigation.",
			missing:   []string{},
		},
		{
			name:      "specialist",
			text:      notice("Passenger was injured in the collision.", "$5,000"),
			route:     model.RouteSpecialist,
			reasoning: "Claim type is injury; routed to specialist queue.",
			missing:   []string{},
		},
		{
			name:      "standard",
			text:      notice("Rear-ended at stoplight. No injuries.", "$50,000"),
			route:     model.RouteStandard,
			reasoning: "All mandatory fields present; no special flags; above fast-track threshold; routed to standard workflow.",
			missing:   []string{},
		},
	}

	p := testPipeline(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := p.ProcessText(context.Background(), "text", tt.text)
			require.NoError(t, err)

			result := report.Result()
			assert.Equal(t, tt.route, result.RecommendedRoute)
			assert.Equal(t, tt.reasoning, result.Reasoning)
			assert.Equal(t, tt.missing, result.MissingFields)
		})
	}
}

func TestProcessText_VehicleAsset(t *testing.T) {
	text := "V.I.N.: 1HGBH41JXMN109186\nMAKE: Honda\nYEAR: 2021\nESTIMATE AMOUNT: $8,500\n"

	report, err := testPipeline(t).ProcessText(context.Background(), "text", text)
	require.NoError(t, err)

	fields := report.Result().ExtractedFields
	assert.Equal(t, "1HGBH41JXMN109186", fields["asset_asset_id"])
	assert.Equal(t, "Honda", fields["asset_make"])
	assert.Equal(t, 8500.0, fields["asset_estimated_damage"])
	assert.Equal(t, 8500.0, fields["initial_estimate"])
	assert.Equal(t, 2021, fields["asset_year"])
}

func TestProcessText_Empty(t *testing.T) {
	_, err := testPipeline(t).ProcessText(context.Background(), "text", " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestProcessText_NothingExtractable(t *testing.T) {
	report, err := testPipeline(t).ProcessText(context.Background(), "text", "hello world")
	require.NoError(t, err)

	result := report.Result()
	assert.Equal(t, model.RouteManualReview, result.RecommendedRoute)
	assert.Len(t, result.MissingFields, 6) // claim type always defaults to property
}

func TestProcessText_ThresholdOverride(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Routing.FastTrackThreshold = 60000
	p := NewPipeline(cfg, nil)

	report, err := p.ProcessText(context.Background(), "text", notice("Rear-ended at stoplight. No injuries.", "$50,000"))
	require.NoError(t, err)
	assert.Equal(t, model.RouteFastTrack, report.Decision.Route)
	assert.Equal(t, 60000.0, report.Decision.Threshold)
}

func TestAnalyze_Cache(t *testing.T) {
	p := testPipeline(t)
	text := notice("Rear-ended at stoplight. No injuries.", "$5,000")

	first, hit := p.Analyze(text)
	assert.False(t, hit)

	second, hit := p.Analyze(text)
	assert.True(t, hit)
	assert.Equal(t, first.Decision, second.Decision)

	stats := p.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	p := NewPipeline(cfg, nil)

	text := notice("Rear-ended at stoplight. No injuries.", "$5,000")
	p.Analyze(text)
	_, hit := p.Analyze(text)
	assert.False(t, hit)
	assert.Equal(t, 0, p.CacheStats().Items)
}

func TestProcessUpload(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()

	report, err := p.ProcessUpload(ctx, "CLAIM.TXT", []byte(notice("Rear-ended at stoplight. No injuries.", "$5,000")))
	require.NoError(t, err)
	assert.Equal(t, "txt", report.Format)
	assert.Equal(t, model.RouteFastTrack, report.Decision.Route)

	_, err = p.ProcessUpload(ctx, "claim.docx", []byte("data"))
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = p.ProcessUpload(ctx, "claim.html", []byte("<p>data</p>"))
	assert.ErrorIs(t, err, ErrUnsupportedMedia, "HTML is not accepted on upload")

	_, err = p.ProcessUpload(ctx, "claim.txt", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.ProcessUpload(ctx, "claim.pdf", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestProcessCRLF_SameRouteOnEveryPath(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()

	text := strings.ReplaceAll(notice("Rear-ended at stoplight. No injuries.", "$5,000"), "\n", "\r\n")
	text = strings.Replace(text, "\r\n\r\n", "\r\n\r\nAdjuster note: looks staged\r\n\r\n", 1)

	fromText, err := p.ProcessText(ctx, "text", text)
	require.NoError(t, err)
	fromUpload, err := p.ProcessUpload(ctx, "claim.txt", []byte(text))
	require.NoError(t, err)

	assert.Equal(t, model.RouteFastTrack, fromText.Decision.Route)
	assert.Equal(t, fromUpload.Decision.Route, fromText.Decision.Route)
	require.NotNil(t, fromText.Fields.Incident.Description)
	assert.Equal(t, "Rear-ended at stoplight. No injuries.", *fromText.Fields.Incident.Description)
	assert.Equal(t, fromUpload.Fields, fromText.Fields)
}

func TestProcessSource_FileAndURL(t *testing.T) {
	p := testPipeline(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "claim.txt")
	require.NoError(t, os.WriteFile(path, []byte(notice("Rear-ended at stoplight. No injuries.", "$50,000")), 0o644))

	report, err := p.ProcessSource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Source)
	assert.Equal(t, model.RouteStandard, report.Decision.Route)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		body := strings.ReplaceAll(notice("Rear-ended at stoplight. No injuries.", "$5,000"), "\n", "<br>")
		_, _ = fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", body)
	}))
	defer server.Close()

	report, err = p.ProcessSource(ctx, server.URL+"/claims/42")
	require.NoError(t, err)
	assert.Equal(t, "html", report.Format)
	assert.Equal(t, model.RouteFastTrack, report.Decision.Route)

	_, err = p.ProcessSource(ctx, filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestRenderReport(t *testing.T) {
	p := testPipeline(t)
	report, err := p.ProcessText(context.Background(), "claim.txt", notice("Rear-ended at stoplight. No injuries.", "$5,000"))
	require.NoError(t, err)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "report.md")
	require.NoError(t, p.RenderReport(report, jsonPath, mdPath, false))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"route": "Fast-track"`)
	assert.Contains(t, string(data), `"rule": "fast_track_threshold"`)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# FNOL Report: claim.txt")
	assert.Contains(t, string(md), "| policy_policy_number | POL-2024-001 |")
	assert.Contains(t, string(md), "Fast-track threshold: 25000.00")
}
