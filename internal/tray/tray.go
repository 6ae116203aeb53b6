// Package tray provides a system tray interface for the natya practice server.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onPractice func(running bool) bool
	onClear    func()
	onSettings func()
	onQuit     func()
	practicing bool
	last       string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuPractice *systray.MenuItem
	menuLast     *systray.MenuItem
}

// New creates a new Tray with no practice running.
func New() *Tray {
	return &Tray{}
}

// OnPractice sets the callback called when practice is started or stopped
// from the menu. The callback returns whether practice is running afterwards.
func (t *Tray) OnPractice(fn func(running bool) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPractice = fn
}

// OnClear sets the callback called when the clear sessions item is clicked.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("Natya")
	systray.SetTooltip("Natya dance practice")

	t.mu.Lock()
	t.menuPractice = systray.AddMenuItem(practiceTitle(t.practicing), "Start or stop camera practice")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(t.lastTitle(), "Last evaluation")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuClear := systray.AddMenuItem("Clear Sessions", "Forget the pose history of every session")
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Natya")

	go func() {
		for {
			select {
			case <-t.menuPractice.ClickedCh:
				t.handlePractice()
			case <-menuClear.ClickedCh:
				t.callback(func() func() { return t.onClear })()
			case <-menuSettings.ClickedCh:
				t.callback(func() func() { return t.onSettings })()
			case <-menuQuit.ClickedCh:
				t.callback(func() func() { return t.onQuit })()
				systray.Quit()
				return
			}
		}
	}()
}

// handlePractice flips the practice state through the callback.
func (t *Tray) handlePractice() {
	t.mu.RLock()
	want := !t.practicing
	callback := t.onPractice
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	running := want
	if callback != nil {
		running = callback(want)
	}
	t.SetPracticing(running)
}

// callback reads a handler under the lock and returns a no-op when unset.
func (t *Tray) callback(get func() func()) func() {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()
	if fn == nil {
		return func() {}
	}
	return fn
}

// SetPracticing updates the practice menu item, e.g. when a run ends by itself.
func (t *Tray) SetPracticing(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.practicing = running
	if t.menuPractice != nil {
		t.menuPractice.SetTitle(practiceTitle(running))
	}
}

// IsPracticing reports whether the tray shows a running practice.
func (t *Tray) IsPracticing() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.practicing
}

// SetLastFeedback updates the last evaluation shown in the menu. A negative
// score means no pose was detected.
func (t *Tray) SetLastFeedback(feedback string, score float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case feedback == "":
		t.last = ""
	case score < 0:
		t.last = "no pose"
	default:
		t.last = fmt.Sprintf("%s (%.1f)", feedback, score)
	}
	if t.menuLast != nil {
		t.menuLast.SetTitle(t.lastTitle())
	}
}

// LastFeedback returns the text shown for the last evaluation.
func (t *Tray) LastFeedback() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastTitle()
}

func (t *Tray) lastTitle() string {
	if t.last == "" {
		return "Last: none"
	}
	return "Last: " + t.last
}

func practiceTitle(running bool) string {
	if running {
		return "■ Stop Practice"
	}
	return "▶ Start Practice"
}

// Quit stops a running tray.
func Quit() {
	systray.Quit()
}
