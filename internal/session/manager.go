package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ayusman/natya/internal/pose"
)

// Mode tells which scorer produced a dispatched score.
type Mode string

const (
	// ModeSingle scores only the current frames.
	ModeSingle Mode = "single"
	// ModeDouble blends in the motion between the last two frames of each stream.
	ModeDouble Mode = "double"
)

// Config holds session manager options.
type Config struct {
	// Params are the scorer parameters, including the blend coefficient Beta.
	Params pose.Params
	// IdleTTL is how long an untouched session is kept. Zero disables expiry.
	IdleTTL time.Duration
}

// DefaultConfig returns a Config with the live scoring parameters and a 10 minute TTL.
func DefaultConfig() Config {
	return Config{
		Params:  pose.DefaultParams(),
		IdleTTL: 10 * time.Minute,
	}
}

// entry is the state of one session. Its mutex serializes requests for the session.
type entry struct {
	mu       sync.Mutex
	user     Window
	ref      Window
	lastSeen time.Time
}

func (e *entry) window(s Stream) *Window {
	if s == Reference {
		return &e.ref
	}
	return &e.user
}

// Manager owns the pose windows of all sessions.
// Requests for the same session are serialized; different sessions proceed in parallel.
type Manager struct {
	config   Config
	scorer   *pose.Scorer
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewManager creates a Manager with the given configuration.
func NewManager(config Config) *Manager {
	return &Manager{
		config:   config,
		scorer:   pose.NewScorer(config.Params),
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// acquire returns the locked entry for id, creating it when create is set.
// The caller must unlock the returned entry. An entry removed by Clear or
// Sweep before its lock was taken is never returned.
func (m *Manager) acquire(id string, create bool) *entry {
	for {
		m.mu.Lock()
		e, ok := m.sessions[id]
		if !ok {
			if !create {
				m.mu.Unlock()
				return nil
			}
			e = &entry{}
			m.sessions[id] = e
		}
		m.mu.Unlock()

		e.mu.Lock()
		if m.live(id, e) {
			e.lastSeen = m.now()
			return e
		}
		e.mu.Unlock()
	}
}

// live reports whether e is still the entry of session id.
// Sweep only try-locks entries, so taking m.mu while holding e.mu cannot deadlock.
func (m *Manager) live(id string, e *entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id] == e
}

// Append buffers p as the newest frame of the given stream of session id.
// Nil poses are not buffered.
func (m *Manager) Append(id string, stream Stream, p *pose.Canonical) {
	if p == nil {
		return
	}
	e := m.acquire(id, true)
	defer e.mu.Unlock()

	e.window(stream).Append(p)
}

// Dispatch scores the buffered frames of session id.
// When both streams are full it uses the double-frame scorer; otherwise it
// scores the latest frame of each stream, which is 0 if a stream is empty.
func (m *Manager) Dispatch(id string) (float64, Mode) {
	e := m.acquire(id, false)
	if e == nil {
		return 0, ModeSingle
	}
	defer e.mu.Unlock()

	return m.dispatch(e)
}

// Observe appends a user and a reference pose to session id and scores the
// result in one step, so concurrent requests cannot interleave between the two.
func (m *Manager) Observe(id string, user, ref *pose.Canonical) (float64, Mode) {
	e := m.acquire(id, true)
	defer e.mu.Unlock()

	if user != nil {
		e.user.Append(user)
	}
	if ref != nil {
		e.ref.Append(ref)
	}
	return m.dispatch(e)
}

func (m *Manager) dispatch(e *entry) (float64, Mode) {
	if e.user.State() == Full && e.ref.State() == Full {
		score := m.scorer.Double(e.user.Latest(), e.user.Previous(), e.ref.Latest(), e.ref.Previous())
		return score, ModeDouble
	}
	return m.scorer.Single(e.user.Latest(), e.ref.Latest()), ModeSingle
}

// State returns the fill state of one stream of session id.
func (m *Manager) State(id string, stream Stream) State {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return Empty
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window(stream).State()
}

// Frames returns the buffered frames of one stream of session id, oldest first.
func (m *Manager) Frames(id string, stream Stream) []*pose.Canonical {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window(stream).Frames()
}

// Clear drops the history of session id, returning both streams to Empty.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// ClearAll drops every session.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*entry)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the configured TTL and returns
// how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.config.IdleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		// Sessions busy with a request are not idle.
		if !e.mu.TryLock() {
			continue
		}
		idle := now.Sub(e.lastSeen) > m.config.IdleTTL
		e.mu.Unlock()

		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.now()); n > 0 {
				log.Printf("expired %d idle sessions", n)
			}
		}
	}
}
