package server

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/app"
	"github.com/ayusman/natya/internal/capture"
	"github.com/ayusman/natya/internal/pose"
)

// frameInterval paces the preview at about 15 fps.
const frameInterval = 66 * time.Millisecond

// ScoreSource provides the latest evaluation for the preview overlay.
type ScoreSource interface {
	LastEvaluation() (app.Evaluation, bool)
}

// StreamHandler serves MJPEG frames from the camera with the latest score drawn on top.
type StreamHandler struct {
	camera capture.Camera
	scores ScoreSource
}

// NewStreamHandler creates a new StreamHandler. scores may be nil.
func NewStreamHandler(camera capture.Camera, scores ScoreSource) *StreamHandler {
	return &StreamHandler{camera: camera, scores: scores}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			// Practice runs close the camera when they end.
			if errors.Is(err, capture.ErrCameraNotOpen) {
				h.camera.Open()
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if h.scores != nil {
			if e, ok := h.scores.LastEvaluation(); ok {
				drawScore(frame, e)
			}
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
		frame.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(frameInterval)
	}
}

// drawScore writes the score and feedback label in the top-left corner of frame.
func drawScore(frame *gocv.Mat, e app.Evaluation) {
	gocv.PutText(frame, overlayText(e), image.Pt(16, 40), gocv.FontHersheySimplex, 1.0, feedbackColor(e.Feedback), 2)
}

func overlayText(e app.Evaluation) string {
	if !e.Detected {
		return "no pose"
	}
	return fmt.Sprintf("%.1f %s", e.Score, e.Feedback)
}

// feedbackColor returns the overlay colour for a feedback label.
func feedbackColor(f pose.Feedback) color.RGBA {
	switch f {
	case pose.Perfect:
		return color.RGBA{R: 0, G: 200, B: 0, A: 0}
	case pose.Good:
		return color.RGBA{R: 120, G: 200, B: 80, A: 0}
	case pose.Normal:
		return color.RGBA{R: 220, G: 220, B: 0, A: 0}
	case pose.Bad:
		return color.RGBA{R: 255, G: 140, B: 0, A: 0}
	default:
		return color.RGBA{R: 230, G: 0, B: 0, A: 0}
	}
}
