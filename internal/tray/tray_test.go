package tray

import "testing"

func TestTray_HandlePractice(t *testing.T) {
	tr := New()
	var requested []bool
	tr.OnPractice(func(running bool) bool {
		requested = append(requested, running)
		return running
	})

	tr.handlePractice()
	if !tr.IsPracticing() {
		t.Error("expected practice to be running after first click")
	}

	tr.handlePractice()
	if tr.IsPracticing() {
		t.Error("expected practice to be stopped after second click")
	}

	if len(requested) != 2 || !requested[0] || requested[1] {
		t.Errorf("requested = %v, want [true false]", requested)
	}
}

func TestTray_HandlePractice_Refused(t *testing.T) {
	tr := New()
	tr.OnPractice(func(bool) bool { return false })

	tr.handlePractice()

	if tr.IsPracticing() {
		t.Error("practice should stay stopped when the callback refuses")
	}
}

func TestTray_SetLastFeedback(t *testing.T) {
	tr := New()

	tests := []struct {
		feedback string
		score    float64
		want     string
	}{
		{"", 0, "Last: none"},
		{"Perfect", 97.24, "Last: Perfect (97.2)"},
		{"Worst", -1, "Last: no pose"},
	}
	for _, tt := range tests {
		tr.SetLastFeedback(tt.feedback, tt.score)
		if got := tr.LastFeedback(); got != tt.want {
			t.Errorf("SetLastFeedback(%q, %v) shows %q, want %q", tt.feedback, tt.score, got, tt.want)
		}
	}
}

func TestTray_Callback(t *testing.T) {
	tr := New()

	// unset handlers are no-ops
	tr.callback(func() func() { return tr.onClear })()

	called := false
	tr.OnClear(func() { called = true })
	tr.callback(func() func() { return tr.onClear })()
	if !called {
		t.Error("expected clear handler to be called")
	}
}
