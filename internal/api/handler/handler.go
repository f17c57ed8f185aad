// Package handler implements the HTTP handlers for the engine's status and
// manual-trigger API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Talent5/Mama-Care/internal/db"
	"github.com/Talent5/Mama-Care/internal/notify"
	"github.com/Talent5/Mama-Care/internal/schedule"
)

// Handler carries the dependencies the HTTP endpoints need.
type Handler struct {
	pool   *db.Pool
	runner *schedule.Runner
}

// New creates the handler set.
func New(pool *db.Pool, runner *schedule.Runner) *Handler {
	return &Handler{pool: pool, runner: runner}
}

// Root returns basic engine info.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "mamacare-reminder-engine",
		"status":  "ok",
	})
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckDB reports database reachability.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status returns the scheduler's introspection snapshot: initialized flag,
// per-trigger run state, and outstanding ad-hoc reminder count.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Status())
}

// scheduleReminderRequest is the body of POST /api/v1/reminders.
type scheduleReminderRequest struct {
	PatientIDs []string  `json:"patient_ids"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	SendAt     time.Time `json:"send_at"`
}

// ScheduleReminder schedules a staff-initiated one-off reminder and returns
// a cancellable handle.
func (h *Handler) ScheduleReminder(w http.ResponseWriter, r *http.Request) {
	var req scheduleReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.PatientIDs) == 0 || req.Title == "" {
		writeError(w, http.StatusBadRequest, "patient_ids and title are required")
		return
	}

	msg := notify.Message{
		Title:    req.Title,
		Body:     req.Body,
		Category: notify.CategoryGeneral,
		Data:     map[string]string{"type": "manual"},
	}
	id, err := h.runner.ScheduleAdHoc(req.PatientIDs, msg, req.SendAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// CancelReminder cancels a pending ad-hoc reminder by handle.
func (h *Handler) CancelReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.runner.CancelAdHoc(id) {
		writeError(w, http.StatusNotFound, "unknown or already fired reminder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunJob runs a registered job once, synchronously, and returns its result
// summary.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	result, ok := h.runner.RunNow(r.Context(), name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":     result.Job,
		"summary": result.Summary(),
		"errors":  result.Errors,
	})
}

// --------------------------------------------------------------------------
// Respond helpers
// --------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
