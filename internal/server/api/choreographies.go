package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/natya/internal/pose"
	"github.com/ayusman/natya/internal/store"
)

// maxFramesBody bounds the size of an imported reference file.
const maxFramesBody = 32 << 20

// ChoreographyHandler handles HTTP requests for choreographies and their reference frames.
type ChoreographyHandler struct {
	store     *store.Store
	evaluator Evaluator
}

// NewChoreographyHandler creates a new ChoreographyHandler. The evaluator, if
// not nil, is told to drop cached references when frames change.
func NewChoreographyHandler(s *store.Store, evaluator Evaluator) *ChoreographyHandler {
	return &ChoreographyHandler{store: s, evaluator: evaluator}
}

// ServeHTTP routes /api/choreographies, /api/choreographies/{id} and
// /api/choreographies/{id}/frames.
func (h *ChoreographyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/choreographies")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "frames":
		switch r.Method {
		case http.MethodGet:
			h.frames(w, r, id)
		case http.MethodPut:
			h.putFrames(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type createChoreographyRequest struct {
	Title      string `json:"title"`
	IntervalMS int    `json:"interval_ms"`
}

type choreographyResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	IntervalMS int    `json:"interval_ms"`
	Frames     int    `json:"frames"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listChoreographiesResponse struct {
	Choreographies []choreographyResponse `json:"choreographies"`
}

type framesResponse struct {
	ChoreographyID string             `json:"choreography_id"`
	Frames         map[int]pose.Frame `json:"frames"`
}

func toChoreographyResponse(c *store.Choreography) choreographyResponse {
	return choreographyResponse{
		ID:         c.ID,
		Title:      c.Title,
		IntervalMS: c.IntervalMS,
		Frames:     c.Frames,
		CreatedAt:  c.CreatedAt.Format(timeFormat),
		UpdatedAt:  c.UpdatedAt.Format(timeFormat),
	}
}

// list handles GET /api/choreographies.
func (h *ChoreographyHandler) list(w http.ResponseWriter, r *http.Request) {
	choreographies, err := h.store.Choreographies().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list choreographies")
		return
	}

	response := listChoreographiesResponse{
		Choreographies: make([]choreographyResponse, 0, len(choreographies)),
	}
	for _, c := range choreographies {
		response.Choreographies = append(response.Choreographies, toChoreographyResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/choreographies/{id}.
func (h *ChoreographyHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Choreographies().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Choreography not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get choreography")
		return
	}

	writeJSON(w, http.StatusOK, toChoreographyResponse(c))
}

// create handles POST /api/choreographies.
func (h *ChoreographyHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createChoreographyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.IntervalMS < 0 {
		writeError(w, http.StatusBadRequest, "Interval must be positive")
		return
	}

	if _, err := h.store.Choreographies().GetByTitle(req.Title); err == nil {
		writeError(w, http.StatusConflict, "Title already exists")
		return
	}

	c := &store.Choreography{
		ID:         uuid.New().String(),
		Title:      req.Title,
		IntervalMS: req.IntervalMS,
	}
	if err := h.store.Choreographies().Create(c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create choreography")
		return
	}

	writeJSON(w, http.StatusCreated, toChoreographyResponse(c))
}

// update handles PUT /api/choreographies/{id}.
func (h *ChoreographyHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Choreographies().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Choreography not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get choreography")
		return
	}

	var req createChoreographyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title != "" {
		c.Title = req.Title
	}
	if req.IntervalMS > 0 {
		c.IntervalMS = req.IntervalMS
	}

	if err := h.store.Choreographies().Update(c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update choreography")
		return
	}

	writeJSON(w, http.StatusOK, toChoreographyResponse(c))
}

// delete handles DELETE /api/choreographies/{id}.
func (h *ChoreographyHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Choreographies().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Choreography not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete choreography")
		return
	}

	h.invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

// frames handles GET /api/choreographies/{id}/frames.
func (h *ChoreographyHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Choreographies().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Choreography not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get choreography")
		return
	}

	frames, err := h.store.References().Load(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load frames")
		return
	}

	writeJSON(w, http.StatusOK, framesResponse{ChoreographyID: id, Frames: frames})
}

// putFrames handles PUT /api/choreographies/{id}/frames with a body in the
// reference import format.
func (h *ChoreographyHandler) putFrames(w http.ResponseWriter, r *http.Request, id string) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxFramesBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	frames, err := store.ParseFrames(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.References().PutFrames(id, frames); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Choreography not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save frames")
		return
	}
	h.invalidate(id)

	c, err := h.store.Choreographies().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get choreography")
		return
	}
	writeJSON(w, http.StatusOK, toChoreographyResponse(c))
}

func (h *ChoreographyHandler) invalidate(id string) {
	if h.evaluator != nil {
		h.evaluator.InvalidateReference(id)
	}
}
