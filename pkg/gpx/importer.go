package gpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"rutago/pkg/geo"
	"rutago/pkg/model"
	"rutago/pkg/tracker"
)

// ErrNoTrackPoints is returned when an imported document carries no usable
// track points. Waypoint-only files are rejected too.
var ErrNoTrackPoints = errors.New("gpx: document contains no track points")

// ImportStore is the persistence surface the importer needs.
type ImportStore interface {
	SaveRoute(ctx context.Context, route *model.Route) error
	AppendTrackPoint(ctx context.Context, p *model.TrackPoint) error
	AppendWaypoint(ctx context.Context, wp *model.Waypoint) error
}

// Importer turns GPX documents into fully persisted routes.
type Importer struct {
	store ImportStore
	tr    *tracker.Tracker
	now   func() time.Time
}

func NewImporter(store ImportStore, tr *tracker.Tracker) *Importer {
	return &Importer{store: store, tr: tr, now: time.Now}
}

// Import decodes a GPX document and persists it as a new route. The route id
// doubles as creation timestamp (epoch ms). Points without a timestamp get a
// synthetic one: import time plus one second per index. fileName, when
// non-empty, provides the fallback route name (extension stripped).
func (im *Importer) Import(ctx context.Context, r io.Reader, fileName string) (*model.Route, error) {
	parsed, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if len(parsed.Points) == 0 {
		return nil, ErrNoTrackPoints
	}

	name := importName(parsed.Name, fileName)
	routeID := im.now().UnixMilli()
	baseTS := routeID

	points := make([]*model.TrackPoint, 0, len(parsed.Points))
	coords := make([]geo.Point, 0, len(parsed.Points))
	for i, p := range parsed.Points {
		ts := baseTS + int64(i)*1000
		if p.TimestampMs != nil {
			ts = *p.TimestampMs
		}
		points = append(points, &model.TrackPoint{
			ID:        routeID + int64(i),
			RouteID:   routeID,
			Lat:       p.Lat,
			Lng:       p.Lng,
			Timestamp: ts,
		})
		coords = append(coords, geo.Point{Lat: p.Lat, Lng: p.Lng})
	}

	distance := geo.PathDistance(coords)
	duration := pointSpanMs(points)
	route := &model.Route{
		ID:          routeID,
		Name:        name,
		DistanceM:   distance,
		DurationMs:  duration,
		AvgSpeedKmh: geo.AverageSpeedKmh(distance, duration),
	}

	if err := im.store.SaveRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("importing route: %w", err)
	}
	for _, p := range points {
		if err := im.store.AppendTrackPoint(ctx, p); err != nil {
			return nil, fmt.Errorf("importing track point: %w", err)
		}
	}

	// Waypoint ids live in a disjoint band above the point ids.
	wpBase := routeID + 100000
	for i, wp := range parsed.Waypoints {
		err := im.store.AppendWaypoint(ctx, &model.Waypoint{
			ID:          wpBase + int64(i),
			RouteID:     routeID,
			Lat:         wp.Lat,
			Lng:         wp.Lng,
			Description: wp.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("importing waypoint: %w", err)
		}
	}

	im.tr.TrackRouteImported()
	slog.Info("route imported", "id", routeID, "name", name,
		"points", len(points), "waypoints", len(parsed.Waypoints),
		"distance_m", int64(distance))
	return route, nil
}

// importName picks the route name: document name, then file name without
// extension, then "Ruta importada".
func importName(parsedName, fileName string) string {
	if strings.TrimSpace(parsedName) != "" {
		return parsedName
	}
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if strings.TrimSpace(base) != "" {
		return base
	}
	return "Ruta importada"
}

// pointSpanMs returns the time span covered by the points, never negative.
func pointSpanMs(points []*model.TrackPoint) int64 {
	if len(points) == 0 {
		return 0
	}
	min, max := points[0].Timestamp, points[0].Timestamp
	for _, p := range points[1:] {
		if p.Timestamp < min {
			min = p.Timestamp
		}
		if p.Timestamp > max {
			max = p.Timestamp
		}
	}
	return max - min
}
