// Package session keeps the short per-session pose history used by the
// motion-aware scorer.
package session

import "github.com/ayusman/natya/internal/pose"

// WindowSize is the number of frames kept per stream.
const WindowSize = 2

// Stream identifies one of the two pose streams of a session.
type Stream int

const (
	// User is the dancer's pose stream.
	User Stream = iota
	// Reference is the choreography's pose stream.
	Reference
)

func (s Stream) String() string {
	switch s {
	case User:
		return "user"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// State is the fill level of a Window.
type State int

const (
	// Empty holds no frames.
	Empty State = iota
	// OneFrame holds a single frame.
	OneFrame
	// Full holds WindowSize frames and evicts the oldest on append.
	Full
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case OneFrame:
		return "one_frame"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Window is a bounded FIFO of the most recent canonical poses of one stream.
// It is not safe for concurrent use; Manager serializes access.
type Window struct {
	frames []*pose.Canonical
}

// Append adds p as the newest frame, evicting the oldest when the window is full.
func (w *Window) Append(p *pose.Canonical) {
	if len(w.frames) == WindowSize {
		copy(w.frames, w.frames[1:])
		w.frames = w.frames[:WindowSize-1]
	}
	w.frames = append(w.frames, p)
}

// Len returns the number of buffered frames.
func (w *Window) Len() int {
	return len(w.frames)
}

// State returns the window's fill state.
func (w *Window) State() State {
	switch len(w.frames) {
	case 0:
		return Empty
	case WindowSize:
		return Full
	default:
		return OneFrame
	}
}

// Latest returns the newest frame, or nil if the window is empty.
func (w *Window) Latest() *pose.Canonical {
	if len(w.frames) == 0 {
		return nil
	}
	return w.frames[len(w.frames)-1]
}

// Previous returns the frame before the newest, or nil if there is none.
func (w *Window) Previous() *pose.Canonical {
	if len(w.frames) < 2 {
		return nil
	}
	return w.frames[len(w.frames)-2]
}

// Frames returns the buffered frames, oldest first.
func (w *Window) Frames() []*pose.Canonical {
	out := make([]*pose.Canonical, len(w.frames))
	copy(out, w.frames)
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	w.frames = w.frames[:0]
}
