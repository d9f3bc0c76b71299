package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/densign01/baby-tracker/internal/auth"
	"github.com/densign01/baby-tracker/internal/service"
)

// CreateSubjectRequest is the payload for POST /v1/subjects.
type CreateSubjectRequest struct {
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

// Validate ensures request correctness.
func (r CreateSubjectRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// ShareSubjectRequest is the payload for POST /v1/subjects/{subjectID}/caregivers.
type ShareSubjectRequest struct {
	CaregiverID string `json:"caregiver_id"`
}

func (h *Handler) createSubject(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeSubjectsWrite)
	if !ok {
		return
	}
	var req CreateSubjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	subject, err := h.service.CreateSubject(r.Context(), service.CreateSubjectInput{
		Name:     req.Name,
		TimeZone: req.TimeZone,
		OwnerID:  claims.Subject,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubjectView(*subject))
}

func (h *Handler) listSubjects(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	subjects, err := h.service.ListSubjects(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]SubjectView, 0, len(subjects))
	for _, s := range subjects {
		items = append(items, toSubjectView(s))
	}
	writeJSON(w, http.StatusOK, ListSubjectsResponse{Items: items})
}

func (h *Handler) getSubject(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	subject, err := h.service.GetSubject(r.Context(), chi.URLParam(r, "subjectID"), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubjectView(*subject))
}

func (h *Handler) shareSubject(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeSubjectsWrite)
	if !ok {
		return
	}
	var req ShareSubjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	subject, err := h.service.ShareSubject(r.Context(), chi.URLParam(r, "subjectID"), claims.Subject, req.CaregiverID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubjectView(*subject))
}
