package model

import "time"

// Route is a recorded (or imported) path. The id doubles as the creation
// order key: it is the epoch-millisecond timestamp of the moment the route
// was started or imported.
type Route struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DistanceM   float64 `json:"distance_m"`
	DurationMs  int64   `json:"duration_ms"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

// TrackPoint is one timestamped coordinate sample belonging to a route.
type TrackPoint struct {
	ID      int64   `json:"id"`
	RouteID int64   `json:"route_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	// Epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Waypoint is a user annotation tied to a route. PhotoPath is an opaque
// reference understood by the surrounding app, not by this engine.
// Waypoints are immutable once created.
type Waypoint struct {
	ID          int64   `json:"id"`
	RouteID     int64   `json:"route_id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
	PhotoPath   string  `json:"photo_path,omitempty"`
}

// Marker is a standalone named map pin, independent of any route.
type Marker struct {
	ID        string  `json:"id"` // UUID
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Sample is a normalized location fix delivered by a location source.
type Sample struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	// Horizontal accuracy in meters, 0 if the source does not report it.
	Accuracy float64 `json:"accuracy"`
}

// SessionSnapshot is a point-in-time view of the recording session,
// published to observers on every state change.
type SessionSnapshot struct {
	State       string  `json:"state"`
	RouteID     int64   `json:"route_id,omitempty"`
	ElapsedMs   int64   `json:"elapsed_ms"`
	DistanceM   float64 `json:"distance_m"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
	Points      int     `json:"points"`
	Waypoints   int     `json:"waypoints"`
	// SuggestedName is set while a save decision is pending.
	SuggestedName string `json:"suggested_name,omitempty"`
	// PendingWaypoint is the captured location awaiting a description.
	PendingWaypoint *Sample `json:"pending_waypoint,omitempty"`
	// LastFix is the most recent live position, kept fresh for display even
	// when its sample was not accepted into the recording.
	LastFix *Sample `json:"last_fix,omitempty"`
}

// ParsedPoint is one decoded <trkpt>. TimestampMs is nil when the point
// carried no parseable <time> element.
type ParsedPoint struct {
	Lat         float64
	Lng         float64
	TimestampMs *int64
}

// ParsedWaypoint is one decoded <wpt>.
type ParsedWaypoint struct {
	Lat         float64
	Lng         float64
	Description string
}

// ParsedGpx is the transient result of decoding a GPX document.
type ParsedGpx struct {
	Name      string // empty when the document has no usable name
	Points    []ParsedPoint
	Waypoints []ParsedWaypoint
}
