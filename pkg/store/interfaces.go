package store

import (
	"context"

	"rutago/pkg/model"
)

// RouteStore handles route persistence.
type RouteStore interface {
	// SaveRoute inserts or replaces a route under its id.
	SaveRoute(ctx context.Context, route *model.Route) error
	// GetRoute returns nil, nil when no route exists under the id.
	GetRoute(ctx context.Context, id int64) (*model.Route, error)
	// DeleteRoute removes a route; its points and waypoints cascade.
	DeleteRoute(ctx context.Context, id int64) error
	// ListRoutes returns all routes, newest first.
	ListRoutes(ctx context.Context) ([]*model.Route, error)
}

// TrackPointStore handles track point persistence.
type TrackPointStore interface {
	AppendTrackPoint(ctx context.Context, p *model.TrackPoint) error
	// GetTrackPoints returns a route's points ordered by timestamp.
	GetTrackPoints(ctx context.Context, routeID int64) ([]*model.TrackPoint, error)
}

// WaypointStore handles waypoint persistence. Waypoints are append-only.
type WaypointStore interface {
	AppendWaypoint(ctx context.Context, wp *model.Waypoint) error
	// GetWaypoints returns a route's waypoints ordered by id.
	GetWaypoints(ctx context.Context, routeID int64) ([]*model.Waypoint, error)
}

// MarkerStore handles standalone map pins.
type MarkerStore interface {
	SaveMarker(ctx context.Context, m *model.Marker) error
	RenameMarker(ctx context.Context, id, name string) error
	DeleteMarker(ctx context.Context, id string) error
	ListMarkers(ctx context.Context) ([]*model.Marker, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	RouteStore
	TrackPointStore
	WaypointStore
	MarkerStore
	StateStore

	// Close closes the store connection.
	Close() error
}
