package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ppiankov/fnol/internal/worker"
	"go.uber.org/zap"
)

// NewRouter wires the endpoints and middleware
func NewRouter(h *Handler, metrics *Metrics, limiter *worker.Limiter, proxies trustedProxies, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(logger, metrics))
	r.Use(recoverMiddleware(logger))
	r.Use(corsMiddleware)

	r.HandleFunc("/", h.Root).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(rateLimitMiddleware(limiter, proxies))

	v1.HandleFunc("/process", h.ProcessUpload).Methods("POST", "OPTIONS")
	v1.HandleFunc("/process/text", h.ProcessText).Methods("POST", "OPTIONS")

	return r
}
