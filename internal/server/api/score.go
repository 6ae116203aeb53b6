package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/app"
	"github.com/ayusman/natya/internal/pose"
)

// maxUploadSize bounds an uploaded video frame.
const maxUploadSize = 10 << 20

// AnalyzeHandler scores an uploaded video frame.
type AnalyzeHandler struct {
	evaluator Evaluator
}

// NewAnalyzeHandler creates a new AnalyzeHandler.
func NewAnalyzeHandler(e Evaluator) *AnalyzeHandler {
	return &AnalyzeHandler{evaluator: e}
}

// ServeHTTP handles POST /api/analyze. The multipart form carries the image in
// "frame" and the choreography_id, session_id and frame_index fields.
func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	req, ok := parseRequestFields(w, r.FormValue("choreography_id"), r.FormValue("session_id"), r.FormValue("frame_index"))
	if !ok {
		return
	}

	file, _, err := r.FormFile("frame")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Frame image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Failed to read frame image")
		return
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image")
		return
	}
	defer img.Close()
	if img.Empty() {
		writeError(w, http.StatusBadRequest, "Invalid image")
		return
	}

	e, err := h.evaluator.EvaluateFrame(req, &img)
	writeEvaluation(w, e, err)
}

func parseRequestFields(w http.ResponseWriter, choreographyID, sessionID, frameIndex string) (app.Request, bool) {
	if choreographyID == "" {
		writeError(w, http.StatusBadRequest, "choreography_id is required")
		return app.Request{}, false
	}

	index := 0
	if frameIndex != "" {
		n, err := strconv.Atoi(frameIndex)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "frame_index must be a non-negative integer")
			return app.Request{}, false
		}
		index = n
	}

	return app.Request{SessionID: sessionID, ChoreographyID: choreographyID, FrameIndex: index}, true
}

// ScoreHandler scores a pose detected by the client.
type ScoreHandler struct {
	evaluator Evaluator
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(e Evaluator) *ScoreHandler {
	return &ScoreHandler{evaluator: e}
}

type scoreRequest struct {
	SessionID      string     `json:"session_id"`
	ChoreographyID string     `json:"choreography_id"`
	FrameIndex     int        `json:"frame_index"`
	Pose           pose.Frame `json:"pose"`
}

// ServeHTTP handles POST /api/score. A missing or null pose scores as no pose.
func (h *ScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if body.ChoreographyID == "" {
		writeError(w, http.StatusBadRequest, "choreography_id is required")
		return
	}
	if body.FrameIndex < 0 {
		writeError(w, http.StatusBadRequest, "frame_index must be a non-negative integer")
		return
	}

	req := app.Request{SessionID: body.SessionID, ChoreographyID: body.ChoreographyID, FrameIndex: body.FrameIndex}
	e, err := h.evaluator.EvaluatePose(req, body.Pose)
	writeEvaluation(w, e, err)
}
