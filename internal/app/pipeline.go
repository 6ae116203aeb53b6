package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/natya/internal/capture"
)

// ErrPracticeRunning is returned when a practice run is already in progress.
var ErrPracticeRunning = errors.New("practice already running")

// PracticeStatus describes the current practice run.
type PracticeStatus struct {
	Running        bool   `json:"running"`
	SessionID      string `json:"session_id,omitempty"`
	ChoreographyID string `json:"choreography_id,omitempty"`
	FrameIndex     int    `json:"frame_index"`
}

type practice struct {
	status PracticeStatus
	stopCh chan struct{}
	done   chan struct{}
}

// StartPractice opens the camera and scores one frame every SampleInterval
// against the choreography. The frame index is the number of elapsed samples,
// and the run ends by itself after the last reference frame.
func (a *App) StartPractice(choreographyID, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	if _, ok := a.lastReferenceIndex(choreographyID); !ok {
		return fmt.Errorf("%w: choreography %q has no frames", ErrNoReference, choreographyID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.practice != nil {
		return ErrPracticeRunning
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(capture.FPSForInterval(a.config.SampleInterval))

	// A new run starts from an empty window.
	a.sessions.Clear(sessionID)

	p := &practice{
		status: PracticeStatus{Running: true, SessionID: sessionID, ChoreographyID: choreographyID},
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	a.practice = p
	go a.runPractice(p, a.camera)

	log.Printf("practice started: choreography %s, session %s", choreographyID, sessionID)
	return nil
}

// StopPractice halts the practice run, if any, and closes the camera.
func (a *App) StopPractice() {
	a.mu.Lock()
	p := a.practice
	if p != nil {
		close(p.stopCh)
	}
	a.mu.Unlock()

	if p == nil {
		return
	}
	<-p.done
}

// Practice returns the status of the current practice run.
func (a *App) Practice() PracticeStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.practice == nil {
		return PracticeStatus{}
	}
	return a.practice.status
}

// runPractice is the sampling loop of one practice run.
func (a *App) runPractice(p *practice, camera capture.Camera) {
	defer func() {
		if err := camera.Close(); err != nil {
			log.Printf("error closing camera: %v", err)
		}
		a.mu.Lock()
		if a.practice == p {
			a.practice = nil
		}
		a.mu.Unlock()
		close(p.done)
		log.Printf("practice stopped: choreography %s", p.status.ChoreographyID)
	}()

	ticker := time.NewTicker(a.config.SampleInterval)
	defer ticker.Stop()

	req := Request{SessionID: p.status.SessionID, ChoreographyID: p.status.ChoreographyID}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
		}

		last, ok := a.lastReferenceIndex(req.ChoreographyID)
		if !ok || req.FrameIndex > last {
			return
		}

		a.sample(camera, req)

		req.FrameIndex++
		a.mu.Lock()
		p.status.FrameIndex = req.FrameIndex
		a.mu.Unlock()
	}
}

// sample scores one camera frame. Frames the camera cannot deliver are skipped
// so the frame index stays aligned with elapsed time.
func (a *App) sample(camera capture.Camera, req Request) {
	frame, err := camera.ReadFrame()
	if err != nil {
		log.Printf("error reading frame %d: %v", req.FrameIndex, err)
		return
	}
	defer frame.Close()

	if _, err := a.EvaluateFrame(req, frame); err != nil && !errors.Is(err, ErrNoReference) {
		log.Printf("error evaluating frame %d: %v", req.FrameIndex, err)
	}
}
