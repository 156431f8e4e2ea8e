package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"rutago/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, session *SessionHandler, live *LiveHandler, routes *RoutesHandler, markers *MarkerHandler, settings *SettingsHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and Diagnostics
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.Handle("GET /api/stats", stats)

	// 2. Recording Session
	mux.HandleFunc("GET /api/session", session.HandleSession)
	mux.Handle("GET /api/session/live", live)
	mux.HandleFunc("POST /api/recording/start", session.HandleStart)
	mux.HandleFunc("POST /api/recording/pause", session.HandlePause)
	mux.HandleFunc("POST /api/recording/resume", session.HandleResume)
	mux.HandleFunc("POST /api/recording/stop", session.HandleStop)
	mux.HandleFunc("POST /api/recording/save", session.HandleSave)
	mux.HandleFunc("POST /api/recording/discard", session.HandleDiscard)

	// 3. Waypoint Capture
	mux.HandleFunc("POST /api/recording/waypoint", session.HandleWaypointRequest)
	mux.HandleFunc("PUT /api/recording/waypoint", session.HandleWaypointConfirm)
	mux.HandleFunc("DELETE /api/recording/waypoint", session.HandleWaypointCancel)

	// 4. Stored Routes
	mux.HandleFunc("GET /api/routes", routes.HandleList)
	mux.HandleFunc("GET /api/routes/{id}", routes.HandleGet)
	mux.HandleFunc("DELETE /api/routes/{id}", routes.HandleDelete)
	mux.HandleFunc("GET /api/routes/{id}/geojson", routes.HandleGeoJSON)
	mux.HandleFunc("POST /api/routes/import", routes.HandleImport)
	mux.HandleFunc("GET /api/routes/{id}/export", routes.HandleExport)

	// 5. Markers
	mux.HandleFunc("GET /api/markers", markers.HandleList)
	mux.HandleFunc("POST /api/markers", markers.HandleCreate)
	mux.HandleFunc("PUT /api/markers/{id}", markers.HandleRename)
	mux.HandleFunc("DELETE /api/markers/{id}", markers.HandleDelete)

	// 6. Settings
	mux.HandleFunc("GET /api/settings/interval", settings.HandleGet)
	mux.HandleFunc("PUT /api/settings/interval", settings.HandlePut)

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
