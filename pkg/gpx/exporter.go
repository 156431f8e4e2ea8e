package gpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"rutago/pkg/model"
	"rutago/pkg/tracker"
)

var (
	// ErrRouteNotFound is returned when the requested route does not exist.
	ErrRouteNotFound = errors.New("gpx: route not found")
	// ErrRouteHasNoPoints is returned when the route exists but recorded no
	// track points. Such a route cannot produce a meaningful GPX file.
	ErrRouteHasNoPoints = errors.New("gpx: route has no points")
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportStore is the persistence surface the exporter reads from.
type ExportStore interface {
	GetRoute(ctx context.Context, id int64) (*model.Route, error)
	GetTrackPoints(ctx context.Context, routeID int64) ([]*model.TrackPoint, error)
	GetWaypoints(ctx context.Context, routeID int64) ([]*model.Waypoint, error)
}

// Exporter writes stored routes out as GPX files.
type Exporter struct {
	store ExportStore
	dir   string
	tr    *tracker.Tracker
}

// NewExporter returns an exporter writing into dir. The directory is created
// lazily on first export.
func NewExporter(store ExportStore, dir string, tr *tracker.Tracker) *Exporter {
	return &Exporter{store: store, dir: dir, tr: tr}
}

// Export renders the route as GPX and writes it to the export directory.
// Returns the full path of the written file.
func (ex *Exporter) Export(ctx context.Context, routeID int64) (string, error) {
	doc, fileName, err := ex.Render(ctx, routeID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(ex.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(ex.dir, fileName)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("writing gpx file: %w", err)
	}

	ex.tr.TrackRouteExported()
	slog.Info("route exported", "id", routeID, "file", path)
	return path, nil
}

// Render produces the GPX document and its file name without touching disk.
func (ex *Exporter) Render(ctx context.Context, routeID int64) (doc, fileName string, err error) {
	route, err := ex.store.GetRoute(ctx, routeID)
	if err != nil {
		return "", "", fmt.Errorf("loading route: %w", err)
	}
	if route == nil {
		return "", "", ErrRouteNotFound
	}

	points, err := ex.store.GetTrackPoints(ctx, routeID)
	if err != nil {
		return "", "", fmt.Errorf("loading track points: %w", err)
	}
	if len(points) == 0 {
		return "", "", ErrRouteHasNoPoints
	}

	waypoints, err := ex.store.GetWaypoints(ctx, routeID)
	if err != nil {
		return "", "", fmt.Errorf("loading waypoints: %w", err)
	}

	pts := make([]model.TrackPoint, len(points))
	for i, p := range points {
		pts[i] = *p
	}
	wps := make([]model.Waypoint, len(waypoints))
	for i, wp := range waypoints {
		wps[i] = *wp
	}

	return Encode(route, pts, wps), FileName(route), nil
}

// FileName derives a filesystem-safe .gpx name from the route name. Unsafe
// characters collapse to underscores; a name that sanitizes away entirely
// falls back to "ruta-{id}.gpx".
func FileName(route *model.Route) string {
	base := route.Name
	if strings.TrimSpace(base) == "" {
		base = fmt.Sprintf("ruta-%d", route.ID)
	}
	safe := strings.Trim(unsafeFileChars.ReplaceAllString(base, "_"), "_")
	if safe == "" {
		safe = fmt.Sprintf("ruta-%d", route.ID)
	}
	return safe + ".gpx"
}
