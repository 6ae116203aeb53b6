package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/natya/internal/app"
	"github.com/ayusman/natya/internal/store"
)

// SessionHandler creates and clears practice sessions and lists their evaluations.
type SessionHandler struct {
	evaluator Evaluator
	store     *store.Store
}

// NewSessionHandler creates a new SessionHandler. Without a store the
// evaluations endpoint reports 404.
func NewSessionHandler(e Evaluator, s *store.Store) *SessionHandler {
	return &SessionHandler{evaluator: e, store: s}
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

// defaultLowest is how many low-scoring frames a summary lists.
const defaultLowest = 5

type summaryResponse struct {
	*store.Summary
	Lowest []store.Evaluation `json:"lowest"`
}

type listEvaluationsResponse struct {
	SessionID   string             `json:"session_id"`
	Evaluations []store.Evaluation `json:"evaluations"`
}

// ServeHTTP routes POST /api/sessions, DELETE /api/sessions/{id},
// /api/sessions/{id}/evaluations and GET /api/sessions/{id}/summary.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{SessionID: uuid.New().String()})
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.evaluator.ClearSession(id)
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 2 && parts[1] == "evaluations":
		switch r.Method {
		case http.MethodGet:
			h.evaluations(w, r, id)
		case http.MethodDelete:
			h.deleteEvaluations(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "summary":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.summary(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// evaluations handles GET /api/sessions/{id}/evaluations.
func (h *SessionHandler) evaluations(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Evaluation log not configured")
		return
	}

	evaluations, err := h.store.Evaluations().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list evaluations")
		return
	}
	if evaluations == nil {
		evaluations = []store.Evaluation{}
	}

	writeJSON(w, http.StatusOK, listEvaluationsResponse{SessionID: id, Evaluations: evaluations})
}

// summary handles GET /api/sessions/{id}/summary. The optional lowest query
// parameter sets how many low-scoring frames are listed.
func (h *SessionHandler) summary(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Evaluation log not configured")
		return
	}

	n := defaultLowest
	if v := r.URL.Query().Get("lowest"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "lowest must be a non-negative integer")
			return
		}
		n = parsed
	}

	sum, err := h.store.Evaluations().SummaryBySession(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No evaluations for session")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to summarize session")
		return
	}

	lowest, err := h.store.Evaluations().LowestBySession(id, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list evaluations")
		return
	}
	if lowest == nil {
		lowest = []store.Evaluation{}
	}

	writeJSON(w, http.StatusOK, summaryResponse{Summary: sum, Lowest: lowest})
}

// deleteEvaluations handles DELETE /api/sessions/{id}/evaluations.
func (h *SessionHandler) deleteEvaluations(w http.ResponseWriter, r *http.Request, id string) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Evaluation log not configured")
		return
	}

	if _, err := h.store.Evaluations().DeleteBySession(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete evaluations")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetHandler clears every session and restarts the detector.
type ResetHandler struct {
	evaluator Evaluator
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(e Evaluator) *ResetHandler {
	return &ResetHandler{evaluator: e}
}

// ServeHTTP handles POST /api/reset.
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.evaluator.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PracticeHandler starts and stops camera practice.
type PracticeHandler struct {
	practicer Practicer
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(p Practicer) *PracticeHandler {
	return &PracticeHandler{practicer: p}
}

type startPracticeRequest struct {
	ChoreographyID string `json:"choreography_id"`
	SessionID      string `json:"session_id"`
}

// ServeHTTP handles GET (status), POST (start) and DELETE (stop) on /api/practice.
func (h *PracticeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.practicer.Practice())
	case http.MethodPost:
		var req startPracticeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.ChoreographyID == "" {
			writeError(w, http.StatusBadRequest, "choreography_id is required")
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.New().String()
		}

		err := h.practicer.StartPractice(req.ChoreographyID, req.SessionID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusAccepted, h.practicer.Practice())
		case errors.Is(err, app.ErrPracticeRunning):
			writeError(w, http.StatusConflict, "Practice already running")
		case errors.Is(err, app.ErrNoReference):
			writeError(w, http.StatusNotFound, "Choreography has no reference frames")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to start practice")
		}
	case http.MethodDelete:
		h.practicer.StopPractice()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
