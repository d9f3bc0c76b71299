// Package api exposes HTTP handlers for the tracker service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/densign01/baby-tracker/internal/auth"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/service"
)

// MaxImportBytes bounds a legacy export upload, the largest body the API accepts.
const MaxImportBytes = 8 << 20

// maxJSONBytes bounds every other request body.
const maxJSONBytes = 64 << 10

// Handler coordinates HTTP requests with the tracker service.
type Handler struct {
	service *service.Service
	logger  zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(svc *service.Service, logger zerolog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)

	r.Route("/v1/subjects", func(r chi.Router) {
		r.Post("/", h.createSubject)
		r.Get("/", h.listSubjects)

		r.Route("/{subjectID}", func(r chi.Router) {
			r.Get("/", h.getSubject)
			r.Post("/caregivers", h.shareSubject)

			r.Post("/activities", h.logActivity)
			r.Get("/activities", h.listActivities)
			r.Get("/activities/{activityID}", h.getActivity)
			r.Delete("/activities/{activityID}", h.deleteActivity)
			r.Post("/imports", h.importActivities)

			r.Post("/sleep/start", h.startSleep)
			r.Post("/sleep/stop", h.stopSleep)

			r.Get("/days", h.rangeSummaries)
			r.Get("/days/{date}", h.dayReport)
			r.Get("/summaries", h.storedSummaries)
			r.Get("/status", h.status)
		})
	})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requireScope returns the caller's claims when any of scopes is granted. It writes the error
// response and returns false otherwise.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}

func readScope(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	return requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
}

func caregiver(claims *auth.Claims) service.Caregiver {
	return service.Caregiver{ID: claims.Subject, Name: claims.Name}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *domain.MalformedRecordError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "no access to subject")
	case errors.Is(err, domain.ErrSubjectNotFound):
		writeError(w, http.StatusNotFound, "not_found", "subject not found")
	case errors.Is(err, domain.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity not found")
	case errors.Is(err, domain.ErrSleepInProgress):
		writeError(w, http.StatusConflict, "sleep_in_progress", "a sleep is already in progress")
	case errors.Is(err, domain.ErrNoActiveSleep):
		writeError(w, http.StatusConflict, "no_active_sleep", "no sleep in progress")
	case errors.Is(err, service.ErrSummariesUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.As(err, &malformed):
		writeError(w, http.StatusInternalServerError, "malformed_record", malformed.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
