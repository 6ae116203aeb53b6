// Package api provides HTTP API handlers for the natya practice server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/app"
	"github.com/ayusman/natya/internal/pose"
)

// Evaluator scores frames and manages session state. *app.App implements it.
type Evaluator interface {
	EvaluateFrame(req app.Request, frame *gocv.Mat) (app.Evaluation, error)
	EvaluatePose(req app.Request, raw pose.Frame) (app.Evaluation, error)
	ClearSession(sessionID string)
	InvalidateReference(choreographyID string)
	Reset() error
}

// Practicer runs camera practice sessions. *app.App implements it.
type Practicer interface {
	StartPractice(choreographyID, sessionID string) error
	StopPractice()
	Practice() app.PracticeStatus
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON decodes a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeEvaluation writes an evaluation result, mapping a missing reference to 404.
func writeEvaluation(w http.ResponseWriter, e app.Evaluation, err error) {
	if err != nil {
		if errors.Is(err, app.ErrNoReference) {
			writeError(w, http.StatusNotFound, "Reference pose not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to evaluate frame")
		return
	}
	writeJSON(w, http.StatusOK, e)
}
