package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/secmon-lab/vigia/pkg/utils/apperr"
)

// maxUploadSize bounds a multipart incident submission, attachments included
const maxUploadSize = 32 << 20

// Config holds HTTP server configuration
type Config struct {
	addr    string
	manuals *model.ManualCatalog
}

// NewConfig creates a new Config
func NewConfig(addr string, manuals *model.ManualCatalog) *Config {
	if manuals == nil {
		manuals = model.GetDefaultManuals()
	}
	return &Config{
		addr:    addr,
		manuals: manuals,
	}
}

// UseCases bundles the operations served over HTTP
type UseCases struct {
	incident  interfaces.Incident
	assistant interfaces.Assistant
	flight    interfaces.FlightLookup
}

// NewUseCases creates a new UseCases
func NewUseCases(incident interfaces.Incident, assistant interfaces.Assistant, flight interfaces.FlightLookup) *UseCases {
	return &UseCases{
		incident:  incident,
		assistant: assistant,
		flight:    flight,
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
	router chi.Router
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, cfg *Config, uc *UseCases, blobs interfaces.BlobStore) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	incidents := &incidentHandler{uc: uc.incident, manuals: cfg.manuals}
	assistant := &assistantHandler{uc: uc.assistant}
	flights := &flightHandler{uc: uc.flight}
	attachments := &attachmentHandler{blobs: blobs}

	router.Get("/health", handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", incidents.list)
			r.Post("/", incidents.create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", incidents.get)
				r.Delete("/", incidents.delete)
				r.Put("/status", incidents.updateStatus)
				r.Put("/report", incidents.updateReport)
				r.Delete("/attachments/{attachmentID}", incidents.removeAttachment)

				r.Get("/assistant/messages", assistant.history)
				r.Post("/assistant/messages", assistant.send)
			})
		})

		r.Post("/flights/lookup", flights.lookup)
		r.Get("/manuals", handleManuals(cfg.manuals))
		r.Get("/attachments/{attachmentID}", attachments.get)
	})

	return &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router: router,
	}
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vigia",
	})
}

func handleManuals(catalog *model.ManualCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, catalog.Manuals)
	}
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	var message string
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	} else {
		message = err.Error()
	}

	writeJSON(w, r, status, map[string]string{
		"error": message,
	})
}

// goerr does not export its tag type, so the slice type is inferred
var badRequestTags = tagList(
	model.ErrTagInvalidInput,
	model.ErrTagInvalidStatus,
	model.ErrTagEmptyFeedback,
	model.ErrTagInsufficientFlightData,
)

func tagList[T any](tags ...T) []T { return tags }

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrIncidentNotFound), errors.Is(err, model.ErrBlobNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrReportConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrStoreClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}

	for _, tag := range badRequestTags {
		if goerr.HasTag(err, tag) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// handleError writes the response for err, logging server side failures
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		apperr.Handle(r.Context(), err)
	}
	writeError(w, r, err, status)
}
