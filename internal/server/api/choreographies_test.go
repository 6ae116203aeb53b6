package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/natya/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "natya-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChoreographyHandler_Create(t *testing.T) {
	s := newTestStore(t)
	handler := NewChoreographyHandler(s, nil)

	rec := do(t, handler, http.MethodPost, "/api/choreographies", `{"title": "alarippu", "interval_ms": 250}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var response choreographyResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ID == "" {
		t.Error("expected generated ID")
	}
	if response.IntervalMS != 250 {
		t.Errorf("IntervalMS = %d, want 250", response.IntervalMS)
	}

	stored, err := s.Choreographies().GetByID(response.ID)
	if err != nil {
		t.Fatalf("choreography not stored: %v", err)
	}
	if stored.Title != "alarippu" {
		t.Errorf("stored title = %q", stored.Title)
	}
}

func TestChoreographyHandler_Create_Invalid(t *testing.T) {
	s := newTestStore(t)
	handler := NewChoreographyHandler(s, nil)
	s.Choreographies().Create(&store.Choreography{ID: "c1", Title: "taken"})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing title", `{"interval_ms": 500}`, http.StatusBadRequest},
		{"negative interval", `{"title": "x", "interval_ms": -1}`, http.StatusBadRequest},
		{"duplicate title", `{"title": "taken"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, http.MethodPost, "/api/choreographies", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			var response errorResponse
			json.NewDecoder(rec.Body).Decode(&response)
			if response.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestChoreographyHandler_ListGetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	inv := &fakeEvaluator{}
	handler := NewChoreographyHandler(s, inv)
	s.Choreographies().Create(&store.Choreography{ID: "c1", Title: "tillana"})

	rec := do(t, handler, http.MethodGet, "/api/choreographies", "")
	var listed listChoreographiesResponse
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Choreographies) != 1 {
		t.Fatalf("expected 1 choreography, got %d", len(listed.Choreographies))
	}

	if rec := do(t, handler, http.MethodGet, "/api/choreographies/c1", ""); rec.Code != http.StatusOK {
		t.Errorf("GET status = %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodGet, "/api/choreographies/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET missing status = %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPut, "/api/choreographies/c1", `{"title": "varnam"}`)
	var updated choreographyResponse
	json.NewDecoder(rec.Body).Decode(&updated)
	if updated.Title != "varnam" || updated.IntervalMS != store.DefaultIntervalMS {
		t.Errorf("updated = %+v", updated)
	}

	if rec := do(t, handler, http.MethodDelete, "/api/choreographies/c1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	if len(inv.invalidated) != 1 || inv.invalidated[0] != "c1" {
		t.Errorf("invalidated = %v, want [c1]", inv.invalidated)
	}
	if rec := do(t, handler, http.MethodDelete, "/api/choreographies/c1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d", rec.Code)
	}
}

func TestChoreographyHandler_Frames(t *testing.T) {
	s := newTestStore(t)
	inv := &fakeEvaluator{}
	handler := NewChoreographyHandler(s, inv)
	s.Choreographies().Create(&store.Choreography{ID: "c1", Title: "jatiswaram"})

	body := `{
		"0": {"left_hip": {"x": 0.56, "y": 0.6, "z": 0}, "right_hip": {"x": 0.44, "y": 0.6, "z": 0}},
		"1": {"left_hip": {"x": 0.55, "y": 0.6, "z": 0}, "right_hip": {"x": 0.45, "y": 0.6, "z": 0}}
	}`

	rec := do(t, handler, http.MethodPut, "/api/choreographies/c1/frames", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT frames status = %d: %s", rec.Code, rec.Body.String())
	}
	var response choreographyResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Frames != 2 {
		t.Errorf("Frames = %d, want 2", response.Frames)
	}
	if len(inv.invalidated) != 1 {
		t.Errorf("references should be invalidated after import")
	}

	rec = do(t, handler, http.MethodGet, "/api/choreographies/c1/frames", "")
	var frames framesResponse
	if err := json.NewDecoder(rec.Body).Decode(&frames); err != nil {
		t.Fatalf("failed to decode frames: %v", err)
	}
	if len(frames.Frames) != 2 {
		t.Errorf("got %d frames, want 2", len(frames.Frames))
	}

	t.Run("invalid body", func(t *testing.T) {
		rec := do(t, handler, http.MethodPut, "/api/choreographies/c1/frames", `{"x": {}}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown choreography", func(t *testing.T) {
		rec := do(t, handler, http.MethodPut, "/api/choreographies/missing/frames", body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
		rec = do(t, handler, http.MethodGet, "/api/choreographies/missing/frames", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("unknown sub-resource", func(t *testing.T) {
		rec := do(t, handler, http.MethodGet, "/api/choreographies/c1/poses", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestChoreographyHandler_MethodNotAllowed(t *testing.T) {
	handler := NewChoreographyHandler(newTestStore(t), nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/choreographies"},
		{http.MethodPost, "/api/choreographies/c1"},
		{http.MethodPost, "/api/choreographies/c1/frames"},
	}
	for _, tt := range tests {
		rec := do(t, handler, tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}
