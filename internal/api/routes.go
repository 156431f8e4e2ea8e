package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"rutago/pkg/gpx"
	"rutago/pkg/model"
	"rutago/pkg/store"
)

// routesStore is the persistence surface the route endpoints read from.
type routesStore interface {
	store.RouteStore
	store.TrackPointStore
	store.WaypointStore
}

// RoutesHandler serves the stored-route endpoints: listing, detail, GeoJSON
// rendering, GPX import and export.
type RoutesHandler struct {
	st       routesStore
	importer *gpx.Importer
	exporter *gpx.Exporter
}

// NewRoutesHandler creates a handler for the stored-route endpoints.
func NewRoutesHandler(st routesStore, importer *gpx.Importer, exporter *gpx.Exporter) *RoutesHandler {
	return &RoutesHandler{st: st, importer: importer, exporter: exporter}
}

func (h *RoutesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	routes, err := h.st.ListRoutes(r.Context())
	if err != nil {
		slog.Error("Failed to list routes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list routes")
		return
	}
	if routes == nil {
		routes = []*model.Route{}
	}
	writeJSON(w, http.StatusOK, routes)
}

type routeDetail struct {
	*model.Route
	Points    []*model.TrackPoint `json:"points"`
	Waypoints []*model.Waypoint   `json:"waypoints"`
}

func (h *RoutesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	route, ok := h.loadRoute(w, r)
	if !ok {
		return
	}

	points, err := h.st.GetTrackPoints(r.Context(), route.ID)
	if err != nil {
		slog.Error("Failed to load track points", "route", route.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load route")
		return
	}
	waypoints, err := h.st.GetWaypoints(r.Context(), route.ID)
	if err != nil {
		slog.Error("Failed to load waypoints", "route", route.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load route")
		return
	}

	writeJSON(w, http.StatusOK, routeDetail{Route: route, Points: points, Waypoints: waypoints})
}

func (h *RoutesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	route, ok := h.loadRoute(w, r)
	if !ok {
		return
	}
	if err := h.st.DeleteRoute(r.Context(), route.ID); err != nil {
		slog.Error("Failed to delete route", "route", route.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete route")
		return
	}
	slog.Info("Route deleted", "id", route.ID, "name", route.Name)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGeoJSON renders a stored route as a FeatureCollection: one LineString
// for the track and one Point feature per waypoint.
func (h *RoutesHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	route, ok := h.loadRoute(w, r)
	if !ok {
		return
	}

	points, err := h.st.GetTrackPoints(r.Context(), route.ID)
	if err != nil {
		slog.Error("Failed to load track points", "route", route.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load route")
		return
	}
	waypoints, err := h.st.GetWaypoints(r.Context(), route.ID)
	if err != nil {
		slog.Error("Failed to load waypoints", "route", route.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load route")
		return
	}

	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, len(points))
	for i, p := range points {
		line[i] = orb.Point{p.Lng, p.Lat}
	}
	track := geojson.NewFeature(line)
	track.Properties["name"] = route.Name
	track.Properties["distance_m"] = route.DistanceM
	track.Properties["duration_ms"] = route.DurationMs
	track.Properties["avg_speed_kmh"] = route.AvgSpeedKmh
	fc.Append(track)

	for _, wp := range waypoints {
		f := geojson.NewFeature(orb.Point{wp.Lng, wp.Lat})
		f.Properties["description"] = wp.Description
		if wp.PhotoPath != "" {
			f.Properties["photo_path"] = wp.PhotoPath
		}
		fc.Append(f)
	}

	writeJSON(w, http.StatusOK, fc)
}

// HandleImport ingests a GPX document from the request body. The original
// file name, used for the route-name fallback, comes from the "filename"
// query parameter.
func (h *RoutesHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("filename")

	route, err := h.importer.Import(r.Context(), r.Body, fileName)
	if err != nil {
		if errors.Is(err, gpx.ErrNoTrackPoints) {
			writeError(w, http.StatusUnprocessableEntity, "gpx document contains no track points")
			return
		}
		slog.Error("GPX import failed", "file", fileName, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("import failed: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, route)
}

// HandleExport writes the route's GPX file to the export directory and serves
// it as a download.
func (h *RoutesHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid route id")
		return
	}

	path, err := h.exporter.Export(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, gpx.ErrRouteNotFound):
			writeError(w, http.StatusNotFound, "route not found")
		case errors.Is(err, gpx.ErrRouteHasNoPoints):
			writeError(w, http.StatusConflict, "route has no track points")
		default:
			slog.Error("GPX export failed", "route", id, "error", err)
			writeError(w, http.StatusInternalServerError, "export failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// loadRoute resolves the {id} path value to a stored route, writing the
// error response itself when resolution fails.
func (h *RoutesHandler) loadRoute(w http.ResponseWriter, r *http.Request) (*model.Route, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid route id")
		return nil, false
	}

	route, err := h.st.GetRoute(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load route", "route", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load route")
		return nil, false
	}
	if route == nil {
		writeError(w, http.StatusNotFound, "route not found")
		return nil, false
	}
	return route, true
}
