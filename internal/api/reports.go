package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/densign01/baby-tracker/internal/aggregate"
	"github.com/densign01/baby-tracker/internal/service"
)

func (h *Handler) dayReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	filter, err := aggregate.ParseCategory(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	date := chi.URLParam(r, "date")
	if date == "today" {
		date = ""
	}
	view, err := h.service.DayReport(r.Context(), service.DayQuery{
		SubjectID:   chi.URLParam(r, "subjectID"),
		CaregiverID: claims.Subject,
		Date:        date,
		TimeZone:    r.URL.Query().Get("tz"),
		Filter:      filter,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponse(*view))
}

func (h *Handler) rangeSummaries(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	summaries, err := h.service.RangeSummaries(r.Context(), rangeQuery(r, claims.Subject))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]SummaryView, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, toSummaryView(s))
	}
	writeJSON(w, http.StatusOK, RangeResponse{Days: items})
}

func (h *Handler) storedSummaries(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	stored, err := h.service.StoredSummaries(r.Context(), rangeQuery(r, claims.Subject))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]StoredSummaryView, 0, len(stored))
	for _, m := range stored {
		items = append(items, StoredSummaryView{
			SummaryView: toSummaryView(m.Summary),
			TimeZone:    m.TimeZone,
			Version:     m.Version,
			ComputedAt:  m.ComputedAt,
		})
	}
	writeJSON(w, http.StatusOK, StoredSummariesResponse{Days: items})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	claims, ok := readScope(w, r)
	if !ok {
		return
	}
	status, err := h.service.Status(r.Context(), chi.URLParam(r, "subjectID"), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(*status))
}

func rangeQuery(r *http.Request, caregiverID string) service.RangeQuery {
	q := r.URL.Query()
	return service.RangeQuery{
		SubjectID:   chi.URLParam(r, "subjectID"),
		CaregiverID: caregiverID,
		From:        q.Get("from"),
		To:          q.Get("to"),
		TimeZone:    q.Get("tz"),
	}
}
