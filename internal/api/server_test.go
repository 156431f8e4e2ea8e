package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rutago/pkg/tracker"
)

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest("GET", "/health", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("health: got %d, want 200", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("health body: got %q, want OK", w.Body.String())
	}
}

func TestHandleVersion(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest("GET", "/api/version", http.NoBody))
	var resp map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp["version"] == "" {
		t.Error("version should not be empty")
	}
}

func TestHandleShutdown(t *testing.T) {
	called := make(chan struct{})
	tr := tracker.New()
	srv := NewServer("localhost:0",
		nil, nil, nil, nil, nil,
		NewStatsHandler(tr, time.Now()),
		func() { close(called) },
	)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/shutdown", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("shutdown: got %d, want 200", w.Code)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown func was not called")
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.tr.TrackRouteImported()
	env.tr.TrackWaypointSaved()

	w := env.do(httptest.NewRequest("GET", "/api/stats", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("stats: got %d, want 200", w.Code)
	}
	var resp StatsResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Engine.RoutesImported != 1 || resp.Engine.WaypointsSaved != 1 {
		t.Errorf("engine counters: got %+v", resp.Engine)
	}
	if resp.Goroutines <= 0 {
		t.Error("goroutine count should be positive")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest("DELETE", "/api/session", http.NoBody))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: got %d, want 405", w.Code)
	}
}
