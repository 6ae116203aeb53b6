// Package app ties pose detection, reference lookup, session windows and scoring
// together for the natya practice server.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/natya/internal/capture"
	"github.com/ayusman/natya/internal/detector"
	"github.com/ayusman/natya/internal/pose"
	"github.com/ayusman/natya/internal/session"
	"github.com/ayusman/natya/internal/store"
)

// DefaultSessionID is used for requests that do not name a session.
const DefaultSessionID = "default"

// ErrNoReference is returned when a choreography has no reference pose for a frame index.
var ErrNoReference = errors.New("no reference pose")

// Config holds configuration options for the application.
type Config struct {
	// Store holds reference poses and the evaluation log. Without a store no
	// reference is available.
	Store *store.Store
	// CameraID is the device used by the practice pipeline.
	CameraID int
	// Sessions configures scoring parameters and session expiry.
	Sessions session.Config
	// SampleInterval is the time between scored camera frames during practice.
	SampleInterval time.Duration
}

// DefaultConfig returns a Config sampling every 500ms with the default session settings.
func DefaultConfig() Config {
	return Config{
		Sessions:       session.DefaultConfig(),
		SampleInterval: 500 * time.Millisecond,
	}
}

// Request identifies the frame being scored.
type Request struct {
	SessionID      string `json:"session_id"`
	ChoreographyID string `json:"choreography_id"`
	FrameIndex     int    `json:"frame_index"`
}

// Evaluation is the outcome of scoring one frame.
type Evaluation struct {
	SessionID      string        `json:"session_id"`
	ChoreographyID string        `json:"choreography_id"`
	FrameIndex     int           `json:"frame_index"`
	Score          float64       `json:"score"`
	Feedback       pose.Feedback `json:"feedback"`
	Mode           session.Mode  `json:"mode"`
	Detected       bool          `json:"detected"`
	Time           time.Time     `json:"time"`
}

// App is the main application that orchestrates pose scoring.
type App struct {
	config   Config
	camera   capture.Camera
	detector *detector.Guard
	sessions *session.Manager

	refMu sync.Mutex
	refs  map[string]map[int]*pose.Canonical

	mu        sync.RWMutex
	listeners []func(Evaluation)
	last      Evaluation
	hasLast   bool
	practice  *practice
}

// New creates a new App with the given configuration.
func New(config Config) *App {
	if config.SampleInterval <= 0 {
		config.SampleInterval = DefaultConfig().SampleInterval
	}
	if config.Sessions == (session.Config{}) {
		config.Sessions = session.DefaultConfig()
	}

	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.CameraID),
		sessions: session.NewManager(config.Sessions),
		refs:     make(map[string]map[int]*pose.Canonical),
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = detector.NewGuard(mp)
		log.Println("using mediapipe pose detection")
	} else {
		log.Printf("mediapipe not available (%v), using mock detector", err)
		a.detector = detector.NewGuard(detector.NewMockDetector())
	}

	return a
}

// SetDetector replaces the pose detector and returns the previous one.
func (a *App) SetDetector(d detector.Detector) detector.Detector {
	return a.detector.Swap(d)
}

// SetCamera replaces the camera used by the practice pipeline.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the guarded pose detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// OnEvaluation registers fn to be called after every evaluation.
// Listeners run on the evaluating goroutine and must not block.
func (a *App) OnEvaluation(fn func(Evaluation)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// LastEvaluation returns the most recent evaluation, if any.
func (a *App) LastEvaluation() (Evaluation, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.hasLast
}

// EvaluateFrame detects the pose in frame and scores it against the reference
// pose of the requested frame. A failed detection scores as no pose.
func (a *App) EvaluateFrame(req Request, frame *gocv.Mat) (Evaluation, error) {
	req = withDefaults(req)

	ref, err := a.reference(req.ChoreographyID, req.FrameIndex)
	if err != nil {
		return Evaluation{}, err
	}

	raw, err := a.detector.Detect(frame)
	if err != nil {
		log.Printf("pose detection failed for session %s frame %d: %v", req.SessionID, req.FrameIndex, err)
		return a.finish(req, pose.NoPose(), session.ModeSingle), nil
	}

	return a.score(req, raw, ref), nil
}

// EvaluatePose scores an already detected raw pose. A nil pose, or one
// missing a hip, scores as no pose.
func (a *App) EvaluatePose(req Request, raw pose.Frame) (Evaluation, error) {
	req = withDefaults(req)

	ref, err := a.reference(req.ChoreographyID, req.FrameIndex)
	if err != nil {
		return Evaluation{}, err
	}

	return a.score(req, raw, ref), nil
}

func (a *App) score(req Request, raw pose.Frame, ref *pose.Canonical) Evaluation {
	if raw == nil {
		return a.finish(req, pose.NoPose(), session.ModeSingle)
	}

	user, err := pose.Normalize(raw)
	if err != nil {
		log.Printf("session %s frame %d: %v", req.SessionID, req.FrameIndex, err)
		return a.finish(req, pose.NoPose(), session.ModeSingle)
	}

	score, mode := a.sessions.Observe(req.SessionID, user, ref)
	return a.finish(req, pose.Evaluate(score), mode)
}

// finish records and publishes a result.
func (a *App) finish(req Request, result pose.Result, mode session.Mode) Evaluation {
	e := Evaluation{
		SessionID:      req.SessionID,
		ChoreographyID: req.ChoreographyID,
		FrameIndex:     req.FrameIndex,
		Score:          result.Score,
		Feedback:       result.Feedback,
		Mode:           mode,
		Detected:       result.Detected,
		Time:           time.Now(),
	}

	if a.config.Store != nil {
		record := &store.Evaluation{
			SessionID:      e.SessionID,
			ChoreographyID: e.ChoreographyID,
			FrameIndex:     e.FrameIndex,
			Score:          e.Score,
			Feedback:       string(e.Feedback),
			Mode:           string(e.Mode),
			Detected:       e.Detected,
		}
		if err := a.config.Store.Evaluations().Create(record); err != nil {
			log.Printf("failed to record evaluation: %v", err)
		}
	}

	a.mu.Lock()
	a.last = e
	a.hasLast = true
	listeners := make([]func(Evaluation), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
	return e
}

// reference returns the normalised reference pose for a frame, loading the
// whole choreography on first use.
func (a *App) reference(choreographyID string, index int) (*pose.Canonical, error) {
	frames, err := a.referenceFrames(choreographyID)
	if err != nil {
		return nil, err
	}

	ref, ok := frames[index]
	if !ok {
		return nil, fmt.Errorf("%w: choreography %q frame %d", ErrNoReference, choreographyID, index)
	}
	return ref, nil
}

func (a *App) referenceFrames(choreographyID string) (map[int]*pose.Canonical, error) {
	a.refMu.Lock()
	defer a.refMu.Unlock()

	if frames, ok := a.refs[choreographyID]; ok {
		return frames, nil
	}

	if a.config.Store == nil {
		return nil, fmt.Errorf("%w: no reference store configured", ErrNoReference)
	}

	raw, err := a.config.Store.References().Load(choreographyID)
	if err != nil {
		return nil, fmt.Errorf("load references for %q: %w", choreographyID, err)
	}

	frames := make(map[int]*pose.Canonical, len(raw))
	for index, f := range raw {
		c, err := pose.Normalize(f)
		if err != nil {
			log.Printf("skipping reference frame %d of %s: %v", index, choreographyID, err)
			continue
		}
		frames[index] = c
	}

	a.refs[choreographyID] = frames
	if len(frames) > 0 {
		log.Printf("loaded %d reference frames for %s", len(frames), choreographyID)
	}
	return frames, nil
}

// lastReferenceIndex returns the highest frame index with a reference pose.
func (a *App) lastReferenceIndex(choreographyID string) (int, bool) {
	frames, err := a.referenceFrames(choreographyID)
	if err != nil || len(frames) == 0 {
		return 0, false
	}
	last := -1
	for index := range frames {
		if index > last {
			last = index
		}
	}
	return last, true
}

// InvalidateReference drops the cached reference poses of a choreography so
// the next evaluation reloads them from the store.
func (a *App) InvalidateReference(choreographyID string) {
	a.refMu.Lock()
	defer a.refMu.Unlock()
	delete(a.refs, choreographyID)
}

// ClearSession drops the pose history of a session.
func (a *App) ClearSession(sessionID string) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	a.sessions.Clear(sessionID)
}

// Reset clears every session and closes the detector, which restarts on the
// next detection.
func (a *App) Reset() error {
	a.sessions.ClearAll()
	if err := a.detector.Close(); err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}

// Close stops practice and releases the detector.
func (a *App) Close() error {
	a.StopPractice()
	return a.detector.Close()
}

func withDefaults(req Request) Request {
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	return req
}
