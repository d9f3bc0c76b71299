package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/densign01/baby-tracker/internal/auth"
	"github.com/densign01/baby-tracker/internal/domain"
	"github.com/densign01/baby-tracker/internal/legacy"
	"github.com/densign01/baby-tracker/internal/persistence"
	"github.com/densign01/baby-tracker/internal/service"
)

// LogActivityRequest is the payload for POST /v1/subjects/{subjectID}/activities.
type LogActivityRequest struct {
	Kind          string     `json:"kind"`
	OccurredAt    *time.Time `json:"occurred_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	DurationMs    *int64     `json:"duration_ms,omitempty"`
	FeedingMethod string     `json:"feeding_method,omitempty"`
	Side          string     `json:"side,omitempty"`
	AmountOz      *float64   `json:"amount_oz,omitempty"`
	DiaperKind    string     `json:"diaper_kind,omitempty"`
}

// Validate ensures request correctness. Kind specific rules are enforced by the service.
func (r LogActivityRequest) Validate() error {
	if strings.TrimSpace(r.Kind) == "" {
		return errors.New("kind is required")
	}
	return nil
}

// SleepRequest is the optional payload for the sleep start and stop endpoints.
type SleepRequest struct {
	At    *time.Time `json:"at,omitempty"`
	Notes string     `json:"notes,omitempty"`
}

// LogActivityResponse describes the response body for a logged activity.
type LogActivityResponse struct {
	Activity RecordView `json:"activity"`
	Replay   bool       `json:"idempotent_replay"`
}

// ImportResponse reports how many legacy activities were stored.
type ImportResponse struct {
	Received int `json:"received"`
	Imported int `json:"imported"`
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	var req LogActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	in := service.LogInput{
		SubjectID:      chi.URLParam(r, "subjectID"),
		Caregiver:      caregiver(claims),
		Kind:           domain.Kind(req.Kind),
		Notes:          req.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		DurationMs:     req.DurationMs,
		FeedingMethod:  domain.FeedingMethod(req.FeedingMethod),
		Side:           domain.FeedingSide(req.Side),
		AmountOz:       req.AmountOz,
		DiaperKind:     domain.DiaperKind(req.DiaperKind),
	}
	if req.OccurredAt != nil {
		in.OccurredAt = *req.OccurredAt
	}

	record, replay, err := h.service.LogActivity(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, LogActivityResponse{Activity: toRecordView(*record), Replay: replay})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.service.ListRecords(r.Context(), chi.URLParam(r, "subjectID"), claims.Subject, cursor, queryInt(r, "limit", 0))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]RecordView, 0, len(records))
	for _, rec := range records {
		items = append(items, toRecordView(rec))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	record, err := h.service.GetRecord(r.Context(), chi.URLParam(r, "subjectID"), claims.Subject, chi.URLParam(r, "activityID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(*record))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	if _, err := h.service.DeleteRecord(r.Context(), chi.URLParam(r, "subjectID"), claims.Subject, chi.URLParam(r, "activityID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) importActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	records, err := legacy.Decode(http.MaxBytesReader(w, r.Body, MaxImportBytes))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse export")
		return
	}

	imported, err := h.service.ImportRecords(r.Context(), chi.URLParam(r, "subjectID"), caregiver(claims), records)
	if err != nil {
		var malformed *domain.MalformedRecordError
		if errors.As(err, &malformed) {
			// a bad entry in an upload is the client's problem
			writeError(w, http.StatusBadRequest, "malformed_record", malformed.Error())
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Received: len(records), Imported: imported})
}

func (h *Handler) startSleep(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	req, ok := decodeSleepRequest(w, r)
	if !ok {
		return
	}
	in := service.StartSleepInput{
		SubjectID: chi.URLParam(r, "subjectID"),
		Caregiver: caregiver(claims),
		Notes:     req.Notes,
	}
	if req.At != nil {
		in.StartedAt = *req.At
	}
	record, err := h.service.StartSleep(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordView(*record))
}

func (h *Handler) stopSleep(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	req, ok := decodeSleepRequest(w, r)
	if !ok {
		return
	}
	var endedAt time.Time
	if req.At != nil {
		endedAt = *req.At
	}
	record, err := h.service.StopSleep(r.Context(), chi.URLParam(r, "subjectID"), caregiver(claims), endedAt)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(*record))
}

// decodeSleepRequest accepts an empty body.
func decodeSleepRequest(w http.ResponseWriter, r *http.Request) (SleepRequest, bool) {
	var req SleepRequest
	if r.ContentLength == 0 {
		return req, true
	}
	return req, decodeBody(w, r, &req)
}
