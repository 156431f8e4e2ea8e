package tracker

import "sync/atomic"

// Tracker tracks engine counters for the stats endpoint.
// Fields are accessed atomically.
type Tracker struct {
	samplesDelivered int64
	samplesAccepted  int64
	pointsPersisted  int64
	writeFailures    int64
	waypointsSaved   int64
	routesImported   int64
	routesExported   int64
}

// Stats is a snapshot of the counters.
type Stats struct {
	SamplesDelivered int64 `json:"samples_delivered"`
	SamplesAccepted  int64 `json:"samples_accepted"`
	PointsPersisted  int64 `json:"points_persisted"`
	WriteFailures    int64 `json:"write_failures"`
	WaypointsSaved   int64 `json:"waypoints_saved"`
	RoutesImported   int64 `json:"routes_imported"`
	RoutesExported   int64 `json:"routes_exported"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{}
}

// TrackSampleDelivered increments the delivered-sample counter.
func (t *Tracker) TrackSampleDelivered() {
	atomic.AddInt64(&t.samplesDelivered, 1)
}

func (t *Tracker) TrackSampleAccepted() {
	atomic.AddInt64(&t.samplesAccepted, 1)
}

func (t *Tracker) TrackPointPersisted() {
	atomic.AddInt64(&t.pointsPersisted, 1)
}

func (t *Tracker) TrackWriteFailure() {
	atomic.AddInt64(&t.writeFailures, 1)
}

func (t *Tracker) TrackWaypointSaved() {
	atomic.AddInt64(&t.waypointsSaved, 1)
}

func (t *Tracker) TrackRouteImported() {
	atomic.AddInt64(&t.routesImported, 1)
}

func (t *Tracker) TrackRouteExported() {
	atomic.AddInt64(&t.routesExported, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() Stats {
	return Stats{
		SamplesDelivered: atomic.LoadInt64(&t.samplesDelivered),
		SamplesAccepted:  atomic.LoadInt64(&t.samplesAccepted),
		PointsPersisted:  atomic.LoadInt64(&t.pointsPersisted),
		WriteFailures:    atomic.LoadInt64(&t.writeFailures),
		WaypointsSaved:   atomic.LoadInt64(&t.waypointsSaved),
		RoutesImported:   atomic.LoadInt64(&t.routesImported),
		RoutesExported:   atomic.LoadInt64(&t.routesExported),
	}
}
