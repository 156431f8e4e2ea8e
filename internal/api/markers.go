package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"rutago/pkg/model"
	"rutago/pkg/store"
)

// MarkerHandler serves the standalone map-pin endpoints.
type MarkerHandler struct {
	st store.MarkerStore
}

// NewMarkerHandler creates a handler for the marker endpoints.
func NewMarkerHandler(st store.MarkerStore) *MarkerHandler {
	return &MarkerHandler{st: st}
}

func (h *MarkerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	markers, err := h.st.ListMarkers(r.Context())
	if err != nil {
		slog.Error("Failed to list markers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list markers")
		return
	}
	if markers == nil {
		markers = []*model.Marker{}
	}
	writeJSON(w, http.StatusOK, markers)
}

func (h *MarkerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "marker name is required")
		return
	}

	m := &model.Marker{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.st.SaveMarker(r.Context(), m); err != nil {
		slog.Error("Failed to save marker", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save marker")
		return
	}

	slog.Info("Marker created", "id", m.ID, "name", m.Name)
	writeJSON(w, http.StatusCreated, m)
}

func (h *MarkerHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "marker name is required")
		return
	}

	if err := h.st.RenameMarker(r.Context(), id, req.Name); err != nil {
		slog.Error("Failed to rename marker", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename marker")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarkerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.st.DeleteMarker(r.Context(), id); err != nil {
		slog.Error("Failed to delete marker", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete marker")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
