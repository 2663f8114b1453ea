package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/fnol/internal/model"
	"github.com/ppiankov/fnol/internal/pipeline"
	"go.uber.org/zap"
)

// multipartMemory is the part of an upload kept in memory before spilling to temp files
const multipartMemory = 8 << 20

// Handler serves the claim processing endpoints
type Handler struct {
	pipeline  *pipeline.Pipeline
	metrics   *Metrics
	logger    *zap.Logger
	maxUpload int64
}

// NewHandler creates the endpoint handlers
func NewHandler(p *pipeline.Pipeline, metrics *Metrics, logger *zap.Logger, maxUpload int64) *Handler {
	return &Handler{
		pipeline:  p,
		metrics:   metrics,
		logger:    logger,
		maxUpload: maxUpload,
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root handles GET / by redirecting to the health check
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/health", http.StatusFound)
}

// ProcessUpload handles POST /api/v1/process (multipart field "file")
func (h *Handler) ProcessUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, http.StatusRequestEntityTooLarge, "too_large", "File too large.")
			return
		}
		h.reject(w, http.StatusBadRequest, "bad_request", "Expected a multipart form with a 'file' field.")
		return
	}
	// Spilled parts live in temp files until removed
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.reject(w, http.StatusBadRequest, "bad_request", "Missing 'file' field.")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		h.reject(w, http.StatusBadRequest, "bad_request", "Could not read uploaded file.")
		return
	}

	report, err := h.pipeline.ProcessUpload(r.Context(), header.Filename, data)
	if err != nil {
		h.fail(w, r, err, "Empty file.")
		return
	}
	h.respond(w, report)
}

// textInput is the body of POST /api/v1/process/text
type textInput struct {
	Content *string `json:"content"`
}

// ProcessText handles POST /api/v1/process/text
func (h *Handler) ProcessText(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	var in textInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, http.StatusRequestEntityTooLarge, "too_large", "Body too large.")
			return
		}
		h.reject(w, http.StatusBadRequest, "bad_request", "Expected a JSON body {\"content\": string}.")
		return
	}
	if in.Content == nil {
		h.reject(w, http.StatusBadRequest, "bad_request", "Missing 'content' field.")
		return
	}

	report, err := h.pipeline.ProcessText(r.Context(), "text", *in.Content)
	if err != nil {
		h.fail(w, r, err, "Empty text.")
		return
	}
	h.respond(w, report)
}

func (h *Handler) respond(w http.ResponseWriter, report *model.Report) {
	h.metrics.ObserveDocument(string(report.Decision.Route))
	writeJSON(w, http.StatusOK, report.Result())
}

// fail maps pipeline errors to status codes
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, emptyDetail string) {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedMedia):
		h.reject(w, http.StatusUnsupportedMediaType, "unsupported_media", "Only PDF and TXT files are supported.")
	case errors.Is(err, pipeline.ErrEmptyInput):
		h.reject(w, http.StatusBadRequest, "empty_input", emptyDetail)
	default:
		h.logger.Error("document processing failed",
			zap.Error(err),
			zap.String("request_id", RequestID(r.Context())),
		)
		h.reject(w, http.StatusUnprocessableEntity, "processing_failed", "Document processing failed: "+strings.TrimSpace(err.Error()))
	}
}

func (h *Handler) reject(w http.ResponseWriter, status int, reason string, detail string) {
	h.metrics.ObserveFailure(reason)
	writeError(w, status, detail)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
