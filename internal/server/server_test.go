package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/fnol/internal/model"
	"github.com/ppiankov/fnol/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const completeNotice = `POLICY NUMBER: POL-001
NAME OF INSURED: Jane Doe
DATE OF LOSS: 01/20/2024
Location: 100 Main St, Austin TX
Description: Rear-ended at stoplight. No injuries.
ESTIMATE AMOUNT: $5,000
Claim type: auto
`

func testHandler(t *testing.T, mutate func(cfg *model.Config)) http.Handler {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.HTTP.RespectRobots = false
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, pipeline.NewPipeline(cfg, nil), nil).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func textRequest(t *testing.T, content string) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]string{"content": content})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process/text", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, testHandler(t, nil), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRootRedirects(t *testing.T) {
	rec := do(t, testHandler(t, nil), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/health", rec.Header().Get("Location"))
}

func TestProcessText_FastTrack(t *testing.T) {
	rec := do(t, testHandler(t, nil), textRequest(t, completeNotice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "Fast-track", body["recommendedRoute"])
	assert.Equal(t, []any{}, body["missingFields"])
	assert.Contains(t, body["reasoning"], "eligible for fast-track")

	fields, ok := body["extractedFields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "POL-001", fields["policy_policy_number"])
	assert.Equal(t, "2024-01-20", fields["incident_date"])
	assert.Len(t, body, 4)
}

func TestProcessText_ManualReview(t *testing.T) {
	text := "Policyholder: Only name. No policy number, no date, no location, no estimate."
	rec := do(t, testHandler(t, nil), textRequest(t, text))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Manual review", body["recommendedRoute"])
	assert.NotEmpty(t, body["missingFields"])
}

func TestProcessText_Errors(t *testing.T) {
	h := testHandler(t, nil)

	rec := do(t, h, textRequest(t, "   "))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Empty text."}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process/text", strings.NewReader("{not json"))
	assert.Equal(t, http.StatusBadRequest, do(t, h, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/process/text", strings.NewReader(`{"text":"x"}`))
	assert.Equal(t, http.StatusBadRequest, do(t, h, req).Code)
}

func TestProcessText_TooLarge(t *testing.T) {
	h := testHandler(t, func(cfg *model.Config) { cfg.Server.MaxUploadBytes = 64 })

	rec := do(t, h, textRequest(t, strings.Repeat("x", 256)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestProcessUpload(t *testing.T) {
	h := testHandler(t, nil)

	rec := do(t, h, uploadRequest(t, "fnol.txt", []byte(completeNotice)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Fast-track", decodeBody(t, rec)["recommendedRoute"])

	rec = do(t, h, uploadRequest(t, "FNOL.TXT", []byte(completeNotice)))
	assert.Equal(t, http.StatusOK, rec.Code, "extension match is case-insensitive")
}

func TestProcessUpload_Errors(t *testing.T) {
	h := testHandler(t, nil)

	rec := do(t, h, uploadRequest(t, "x.docx", []byte("binary")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.JSONEq(t, `{"detail":"Only PDF and TXT files are supported."}`, rec.Body.String())

	rec = do(t, h, uploadRequest(t, "empty.txt", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Empty file."}`, rec.Body.String())

	rec = do(t, h, uploadRequest(t, "broken.pdf", []byte("not a pdf at all")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, strings.HasPrefix(decodeBody(t, rec)["detail"].(string), "Document processing failed: "))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, do(t, h, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/process/text", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := do(t, testHandler(t, nil), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := do(t, testHandler(t, nil), req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	h := testHandler(t, func(cfg *model.Config) {
		cfg.RateLimiting.RequestsPerSecond = 0.001
		cfg.RateLimiting.BurstSize = 2
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, textRequest(t, completeNotice)).Code)
	}
	rec := do(t, h, textRequest(t, completeNotice))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Limits are per client
	req := textRequest(t, completeNotice)
	req.RemoteAddr = "203.0.113.9:4000"
	assert.Equal(t, http.StatusOK, do(t, h, req).Code)

	// A forwarded header from an untrusted peer does not pick the client
	req = textRequest(t, completeNotice)
	req.Header.Set("X-Forwarded-For", "198.51.100.200")
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, req).Code)

	// Health is not rate limited
	assert.Equal(t, http.StatusOK, do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := testHandler(t, nil)
	do(t, h, textRequest(t, completeNotice))

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fnol_documents_processed_total{route="Fast-track"} 1`)
	assert.Contains(t, string(body), `fnol_http_requests_total{method="POST",path="/api/v1/process/text",status="200"} 1`)
}

func TestRateLimitBehindTrustedProxy(t *testing.T) {
	h := testHandler(t, func(cfg *model.Config) {
		cfg.RateLimiting.RequestsPerSecond = 0.001
		cfg.RateLimiting.BurstSize = 1
		cfg.RateLimiting.TrustedProxies = []string{"192.0.2.0/24"}
	})

	forwarded := func(client string) *http.Request {
		req := textRequest(t, completeNotice)
		req.RemoteAddr = "192.0.2.10:8080"
		req.Header.Set("X-Forwarded-For", client)
		return req
	}

	assert.Equal(t, http.StatusOK, do(t, h, forwarded("203.0.113.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, forwarded("203.0.113.1")).Code)
	assert.Equal(t, http.StatusOK, do(t, h, forwarded("203.0.113.2")).Code)
}

func TestClientIP(t *testing.T) {
	proxies := newTrustedProxies([]string{"10.0.0.0/8", "192.0.2.5", "not-an-ip"}, zap.NewNop())
	require.Len(t, proxies, 2)

	tests := []struct {
		name   string
		remote string
		fwd    string
		want   string
	}{
		{"no header", "198.51.100.7:5000", "", "198.51.100.7"},
		{"untrusted peer ignores header", "198.51.100.7:5000", "203.0.113.1", "198.51.100.7"},
		{"trusted peer", "10.1.2.3:5000", "203.0.113.1", "203.0.113.1"},
		{"spoofed leftmost hop", "10.1.2.3:5000", "1.2.3.4, 203.0.113.1, 10.9.9.9", "203.0.113.1"},
		{"single trusted ip", "192.0.2.5:5000", "203.0.113.7", "203.0.113.7"},
		{"all hops trusted", "10.1.2.3:5000", "10.0.0.2", "10.1.2.3"},
		{"empty header from trusted peer", "10.1.2.3:5000", "", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			assert.Equal(t, tt.want, proxies.clientIP(req))
		})
	}
}
