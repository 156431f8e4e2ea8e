package api

import (
	"encoding/json"
	"net/http"

	"rutago/pkg/model"
	"rutago/pkg/recorder"
	"rutago/pkg/watcher"
)

// SessionHandler exposes the recording session over HTTP.
type SessionHandler struct {
	rec    *recorder.Recorder
	photos *watcher.Service // nil when photo attachment is disabled
}

// NewSessionHandler creates a session handler. photos may be nil.
func NewSessionHandler(rec *recorder.Recorder, photos *watcher.Service) *SessionHandler {
	return &SessionHandler{rec: rec, photos: photos}
}

type sessionResponse struct {
	model.SessionSnapshot
	Track [][2]float64 `json:"track"`
}

// HandleSession returns the current session snapshot plus the live track.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	snap := h.rec.Snapshot()
	points := h.rec.Track()
	track := make([][2]float64, len(points))
	for i, p := range points {
		track[i] = [2]float64{p.Lat, p.Lng}
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionSnapshot: snap, Track: track})
}

func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.rec.Start()
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

func (h *SessionHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.rec.Pause()
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

func (h *SessionHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.rec.Resume()
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

func (h *SessionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.rec.Stop()
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

// HandleSave finalizes the stopped recording under the given name. A blank
// name falls back to the suggested date-based name.
func (h *SessionHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.rec.ConfirmSave(req.Name)
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

func (h *SessionHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	h.rec.CancelSave()
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

// HandleWaypointRequest captures the location for a new waypoint. An optional
// body pins explicit coordinates instead of the live fix.
func (h *SessionHandler) HandleWaypointRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	if req.Lat != nil && req.Lng != nil {
		h.rec.RequestWaypointAt(*req.Lat, *req.Lng)
	} else {
		h.rec.RequestWaypoint(r.Context())
	}

	snap := h.rec.Snapshot()
	if snap.PendingWaypoint == nil {
		writeError(w, http.StatusConflict, "no location available for waypoint")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleWaypointConfirm saves the pending waypoint. When the request carries
// no photo path, the newest photo seen by the watcher is attached.
func (h *SessionHandler) HandleWaypointConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		PhotoPath   string `json:"photo_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.PhotoPath == "" && h.photos != nil {
		if path, ok := h.photos.CheckNew(); ok {
			req.PhotoPath = path
		}
	}

	h.rec.ConfirmWaypoint(req.Description, req.PhotoPath)
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}

func (h *SessionHandler) HandleWaypointCancel(w http.ResponseWriter, r *http.Request) {
	h.rec.CancelWaypoint()
	writeJSON(w, http.StatusOK, h.rec.Snapshot())
}
