package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rutago/pkg/model"
)

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Fresh daemon: idle, empty track.
	w := env.do(httptest.NewRequest("GET", "/api/session", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("GET session: got %d, want 200", w.Code)
	}
	var sess sessionResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if sess.State != "idle" {
		t.Errorf("initial state: got %q, want idle", sess.State)
	}
	if len(sess.Track) != 0 {
		t.Errorf("initial track: got %d points, want 0", len(sess.Track))
	}

	w = env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("start: got %d, want 200", w.Code)
	}
	var snap model.SessionSnapshot
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.State != "recording" {
		t.Errorf("state after start: got %q, want recording", snap.State)
	}
	if snap.RouteID == 0 {
		t.Error("expected a route id after start")
	}

	env.loc.deliver(model.Sample{Lat: 40.0, Lng: -3.0, Timestamp: time.Now()})
	env.loc.deliver(model.Sample{Lat: 40.001, Lng: -3.0, Timestamp: time.Now()})

	w = env.do(httptest.NewRequest("GET", "/api/session", http.NoBody))
	sess = sessionResponse{}
	if err := json.NewDecoder(w.Result().Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if sess.Points != 2 || len(sess.Track) != 2 {
		t.Errorf("after samples: got points=%d track=%d, want 2/2", sess.Points, len(sess.Track))
	}
	if sess.Track[1][0] != 40.001 {
		t.Errorf("track[1] lat: got %v, want 40.001", sess.Track[1][0])
	}

	w = env.do(httptest.NewRequest("POST", "/api/recording/stop", http.NoBody))
	snap = model.SessionSnapshot{}
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.State != "awaiting_save" {
		t.Errorf("state after stop: got %q, want awaiting_save", snap.State)
	}
	if !strings.HasPrefix(snap.SuggestedName, "Ruta ") {
		t.Errorf("suggested name: got %q, want Ruta prefix", snap.SuggestedName)
	}

	body := strings.NewReader(`{"name": "Camino de prueba"}`)
	w = env.do(httptest.NewRequest("POST", "/api/recording/save", body))
	snap = model.SessionSnapshot{}
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.State != "idle" {
		t.Errorf("state after save: got %q, want idle", snap.State)
	}

	env.flush(t)
	routes, _ := env.st.ListRoutes(context.Background())
	if len(routes) != 1 {
		t.Fatalf("stored routes: got %d, want 1", len(routes))
	}
	if routes[0].Name != "Camino de prueba" {
		t.Errorf("stored name: got %q, want Camino de prueba", routes[0].Name)
	}
	points, _ := env.st.GetTrackPoints(context.Background(), routes[0].ID)
	if len(points) != 2 {
		t.Errorf("stored points: got %d, want 2", len(points))
	}
}

func TestSessionDiscard(t *testing.T) {
	env := newTestEnv(t)

	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))
	env.do(httptest.NewRequest("POST", "/api/recording/stop", http.NoBody))

	w := env.do(httptest.NewRequest("POST", "/api/recording/discard", http.NoBody))
	var snap model.SessionSnapshot
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.State != "idle" {
		t.Errorf("state after discard: got %q, want idle", snap.State)
	}

	env.flush(t)
	routes, _ := env.st.ListRoutes(context.Background())
	if len(routes) != 0 {
		t.Errorf("stored routes after discard: got %d, want 0", len(routes))
	}
}

func TestSessionSaveInvalidBody(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))
	env.do(httptest.NewRequest("POST", "/api/recording/stop", http.NoBody))

	w := env.do(httptest.NewRequest("POST", "/api/recording/save", strings.NewReader("{")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed save body: got %d, want 400", w.Code)
	}
}

func TestWaypointFlow(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))

	env.loc.mu.Lock()
	env.loc.current = model.Sample{Lat: 41.0, Lng: -4.0, Timestamp: time.Now()}
	env.loc.currentOK = true
	env.loc.mu.Unlock()

	w := env.do(httptest.NewRequest("POST", "/api/recording/waypoint", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("waypoint request: got %d, want 200", w.Code)
	}
	var snap model.SessionSnapshot
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.PendingWaypoint == nil || snap.PendingWaypoint.Lat != 41.0 {
		t.Fatalf("pending waypoint: got %+v, want lat 41.0", snap.PendingWaypoint)
	}

	body := strings.NewReader(`{"description": "Mirador"}`)
	w = env.do(httptest.NewRequest("PUT", "/api/recording/waypoint", body))
	snap = model.SessionSnapshot{}
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.Waypoints != 1 {
		t.Errorf("waypoint count: got %d, want 1", snap.Waypoints)
	}
	if snap.PendingWaypoint != nil {
		t.Error("pending waypoint should clear after confirm")
	}

	env.flush(t)
	env.st.mu.Lock()
	var stored *model.Waypoint
	for _, wps := range env.st.waypoints {
		if len(wps) > 0 {
			stored = wps[0]
		}
	}
	env.st.mu.Unlock()
	if stored == nil || stored.Description != "Mirador" {
		t.Fatalf("stored waypoint: got %+v, want description Mirador", stored)
	}
}

func TestWaypointExplicitCoords(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))

	body := strings.NewReader(`{"lat": 42.5, "lng": -8.1}`)
	w := env.do(httptest.NewRequest("POST", "/api/recording/waypoint", body))
	if w.Code != http.StatusOK {
		t.Fatalf("waypoint request: got %d, want 200", w.Code)
	}
	var snap model.SessionSnapshot
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.PendingWaypoint == nil || snap.PendingWaypoint.Lng != -8.1 {
		t.Fatalf("pending waypoint: got %+v, want lng -8.1", snap.PendingWaypoint)
	}
}

func TestWaypointUnavailableLocation(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))

	// No live fix and the one-shot lookup fails.
	w := env.do(httptest.NewRequest("POST", "/api/recording/waypoint", http.NoBody))
	if w.Code != http.StatusConflict {
		t.Errorf("waypoint without location: got %d, want 409", w.Code)
	}
}

func TestWaypointCancel(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))

	body := strings.NewReader(`{"lat": 42.5, "lng": -8.1}`)
	env.do(httptest.NewRequest("POST", "/api/recording/waypoint", body))

	w := env.do(httptest.NewRequest("DELETE", "/api/recording/waypoint", http.NoBody))
	var snap model.SessionSnapshot
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.PendingWaypoint != nil {
		t.Error("pending waypoint should clear after cancel")
	}
	if snap.Waypoints != 0 {
		t.Errorf("waypoint count after cancel: got %d, want 0", snap.Waypoints)
	}
}

func TestPauseResume(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest("POST", "/api/recording/start", http.NoBody))

	w := env.do(httptest.NewRequest("POST", "/api/recording/pause", http.NoBody))
	var snap model.SessionSnapshot
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.State != "paused" {
		t.Errorf("state after pause: got %q, want paused", snap.State)
	}

	w = env.do(httptest.NewRequest("POST", "/api/recording/resume", http.NoBody))
	snap = model.SessionSnapshot{}
	if err := json.NewDecoder(w.Result().Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.State != "recording" {
		t.Errorf("state after resume: got %q, want recording", snap.State)
	}
}
