// Package recorder holds the recording session state machine: the single
// owner of in-progress route state. All lifecycle transitions and sample
// ingestion are serialized through one mutex; the periodic tick and the
// sampler callback are the only asynchronous producers, and both are stopped
// together on pause/stop.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rutago/pkg/config"
	"rutago/pkg/geo"
	"rutago/pkg/location"
	"rutago/pkg/model"
	"rutago/pkg/store"
	"rutago/pkg/tracker"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	// StateAwaitingSave holds the finished draft until the user names it
	// or discards it.
	StateAwaitingSave State = "awaiting_save"
)

// Store is the persistence surface the recorder writes through.
type Store interface {
	SaveRoute(ctx context.Context, route *model.Route) error
	DeleteRoute(ctx context.Context, id int64) error
	AppendTrackPoint(ctx context.Context, p *model.TrackPoint) error
	AppendWaypoint(ctx context.Context, wp *model.Waypoint) error
}

// LocationPort is the sampler surface the recorder drives.
type LocationPort interface {
	Start(interval time.Duration, fn func(model.Sample)) error
	Stop()
	CurrentOnce(ctx context.Context) (model.Sample, bool)
}

// Recorder is the recording state machine. Lifecycle operations invoked from
// an invalid state are silent no-ops: callers gate their affordances on the
// published snapshot, and racy input must not corrupt the session.
type Recorder struct {
	mu sync.Mutex

	st     Store
	writer *store.Writer
	loc    LocationPort
	tr     *tracker.Tracker

	tick     time.Duration
	interval time.Duration
	now      func() time.Time

	state         State
	routeID       int64
	baseMs        int64 // elapsed-time origin, epoch ms
	elapsedMs     int64
	distanceM     float64
	avgKmh        float64
	lastSample    *model.Sample
	lastFix       *model.Sample
	pendingWP     *model.Sample
	suggestedName string
	waypoints     int
	track         *geo.TrackBuffer

	tickStop chan struct{}

	obsMu     sync.Mutex
	observers map[int]func(model.SessionSnapshot)
	nextObsID int
}

// New wires a recorder. Points, waypoints and route updates flow through w
// so that ingestion never blocks on the database and writes for a route are
// applied in issue order.
func New(st Store, loc LocationPort, w *store.Writer, tr *tracker.Tracker, cfg *config.RecorderConfig) *Recorder {
	tick := cfg.Tick.Duration()
	if tick <= 0 {
		tick = time.Second
	}
	return &Recorder{
		st:        st,
		writer:    w,
		loc:       loc,
		tr:        tr,
		tick:      tick,
		interval:  location.IntervalFromSetting(cfg.IntervalSetting),
		now:       time.Now,
		state:     StateIdle,
		track:     geo.NewTrackBuffer(),
		observers: make(map[int]func(model.SessionSnapshot)),
	}
}

// Start begins a new recording session. No-op unless idle: a running
// session is never silently overwritten.
func (r *Recorder) Start() {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		slog.Debug("start ignored", "state", r.state)
		return
	}

	routeID := r.now().UnixMilli()
	r.state = StateRecording
	r.routeID = routeID
	r.baseMs = routeID
	r.elapsedMs = 0
	r.distanceM = 0
	r.avgKmh = 0
	r.lastSample = nil
	r.pendingWP = nil
	r.suggestedName = ""
	r.waypoints = 0
	r.track.Reset()

	// Draft row first so point writes never orphan.
	r.enqueue(func(ctx context.Context) error {
		return r.st.SaveRoute(ctx, &model.Route{ID: routeID})
	})
	r.startTickLocked()
	r.mu.Unlock()

	r.startSampler()
	slog.Info("recording started", "route_id", routeID)
	r.notify()
}

// Pause suspends accumulation, stopping the tick and the sampler while
// preserving all statistics. No-op unless recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.state = StatePaused
	routeID := r.routeID
	r.stopTickLocked()
	r.mu.Unlock()

	r.loc.Stop()
	slog.Info("recording paused", "route_id", routeID)
	r.notify()
}

// Resume re-bases the elapsed-time origin so the displayed elapsed time
// continues where it left off. No-op unless paused.
func (r *Recorder) Resume() {
	r.mu.Lock()
	if r.state != StatePaused {
		r.mu.Unlock()
		return
	}
	r.state = StateRecording
	r.baseMs = r.now().UnixMilli() - r.elapsedMs
	routeID := r.routeID
	r.startTickLocked()
	r.mu.Unlock()

	r.startSampler()
	slog.Info("recording resumed", "route_id", routeID)
	r.notify()
}

// Stop ends accumulation and parks the session behind a save decision with
// a date-derived suggested name. No-op unless recording or paused.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.state != StateRecording && r.state != StatePaused {
		r.mu.Unlock()
		return
	}
	if r.state == StateRecording {
		r.elapsedMs = r.now().UnixMilli() - r.baseMs
	}
	r.state = StateAwaitingSave
	r.suggestedName = "Ruta " + r.now().Format("2006-01-02 15:04")
	r.avgKmh = geo.AverageSpeedKmh(r.distanceM, r.elapsedMs)
	routeID, suggested := r.routeID, r.suggestedName
	r.stopTickLocked()
	r.mu.Unlock()

	r.loc.Stop()
	slog.Info("recording stopped", "route_id", routeID, "suggested_name", suggested)
	r.notify()
}

// ConfirmSave finalizes the draft route under the given name (falling back
// to the suggested name when blank) and returns to idle. No-op unless a
// save decision is pending.
func (r *Recorder) ConfirmSave(name string) {
	r.mu.Lock()
	if r.state != StateAwaitingSave {
		r.mu.Unlock()
		return
	}
	if name == "" {
		name = r.suggestedName
	}
	route := &model.Route{
		ID:          r.routeID,
		Name:        name,
		DistanceM:   r.distanceM,
		DurationMs:  r.elapsedMs,
		AvgSpeedKmh: geo.AverageSpeedKmh(r.distanceM, r.elapsedMs),
	}
	r.enqueue(func(ctx context.Context) error {
		return r.st.SaveRoute(ctx, route)
	})
	r.resetLocked()
	r.mu.Unlock()

	slog.Info("route saved", "route_id", route.ID, "name", name,
		"distance_m", int64(route.DistanceM), "duration_ms", route.DurationMs)
	r.notify()
}

// CancelSave discards the draft route, cascading its points and waypoints,
// and returns to idle. No-op unless a save decision is pending.
func (r *Recorder) CancelSave() {
	r.mu.Lock()
	if r.state != StateAwaitingSave {
		r.mu.Unlock()
		return
	}
	routeID := r.routeID
	r.enqueue(func(ctx context.Context) error {
		return r.st.DeleteRoute(ctx, routeID)
	})
	r.resetLocked()
	r.mu.Unlock()

	slog.Info("route discarded", "route_id", routeID)
	r.notify()
}

// OnSample ingests a location sample. The live fix is always refreshed for
// display; accumulation happens only while recording: incremental haversine
// distance, a fire-and-forget point write, and an average-speed update.
func (r *Recorder) OnSample(s model.Sample) {
	r.mu.Lock()
	fix := s
	r.lastFix = &fix

	if r.state != StateRecording {
		r.mu.Unlock()
		r.notify()
		return
	}

	if r.lastSample != nil {
		r.distanceM += geo.Distance(
			geo.Point{Lat: r.lastSample.Lat, Lng: r.lastSample.Lng},
			geo.Point{Lat: s.Lat, Lng: s.Lng},
		)
	}
	prev := s
	r.lastSample = &prev
	r.track.Push(geo.Point{Lat: s.Lat, Lng: s.Lng}, 0)
	r.avgKmh = geo.AverageSpeedKmh(r.distanceM, r.elapsedMs)
	r.tr.TrackSampleAccepted()

	routeID := r.routeID
	point := &model.TrackPoint{
		RouteID:   routeID,
		Lat:       s.Lat,
		Lng:       s.Lng,
		Timestamp: s.Timestamp.UnixMilli(),
	}
	r.enqueue(func(ctx context.Context) error {
		if err := r.st.AppendTrackPoint(ctx, point); err != nil {
			return err
		}
		r.tr.TrackPointPersisted()
		return nil
	})
	r.mu.Unlock()

	r.notify()
}

// RequestWaypoint captures a location for a pending waypoint: the live
// tracked position when one exists, otherwise a one-shot fix. When neither
// resolves, no pending waypoint is left behind. No-op unless recording.
func (r *Recorder) RequestWaypoint(ctx context.Context) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	if r.lastFix != nil {
		fix := *r.lastFix
		r.pendingWP = &fix
		r.mu.Unlock()
		r.notify()
		return
	}
	r.mu.Unlock()

	s, ok := r.loc.CurrentOnce(ctx)
	if !ok {
		slog.Warn("waypoint request: no fix available")
		return
	}

	r.mu.Lock()
	if r.state == StateRecording {
		r.pendingWP = &s
	}
	r.mu.Unlock()
	r.notify()
}

// RequestWaypointAt places the pending waypoint at an explicit position
// (map long-press). No-op unless recording.
func (r *Recorder) RequestWaypointAt(lat, lng float64) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.pendingWP = &model.Sample{Lat: lat, Lng: lng, Timestamp: r.now()}
	r.mu.Unlock()
	r.notify()
}

// ConfirmWaypoint persists the pending waypoint under the active route with
// the given description and optional photo reference. No-op without both a
// pending location and an owning route.
func (r *Recorder) ConfirmWaypoint(description, photoPath string) {
	r.mu.Lock()
	if r.pendingWP == nil || r.routeID == 0 {
		r.mu.Unlock()
		return
	}
	wp := &model.Waypoint{
		RouteID:     r.routeID,
		Lat:         r.pendingWP.Lat,
		Lng:         r.pendingWP.Lng,
		Description: description,
		PhotoPath:   photoPath,
	}
	r.pendingWP = nil
	r.waypoints++
	r.enqueue(func(ctx context.Context) error {
		if err := r.st.AppendWaypoint(ctx, wp); err != nil {
			return err
		}
		r.tr.TrackWaypointSaved()
		return nil
	})
	r.mu.Unlock()

	slog.Info("waypoint saved", "route_id", wp.RouteID, "description", description)
	r.notify()
}

// CancelWaypoint clears the pending location without persisting anything.
func (r *Recorder) CancelWaypoint() {
	r.mu.Lock()
	r.pendingWP = nil
	r.mu.Unlock()
	r.notify()
}

// SetInterval changes the sampling cadence, applied immediately when a
// recording is live.
func (r *Recorder) SetInterval(d time.Duration) {
	r.mu.Lock()
	r.interval = d
	active := r.state == StateRecording
	r.mu.Unlock()

	if active {
		r.startSampler()
	}
}

// Snapshot returns the current observable session state.
func (r *Recorder) Snapshot() model.SessionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Track returns a copy of the live track polyline.
func (r *Recorder) Track() []geo.Point {
	return r.track.Points()
}

// Observe registers fn to receive every snapshot change. The returned
// function removes the registration.
func (r *Recorder) Observe(fn func(model.SessionSnapshot)) func() {
	r.obsMu.Lock()
	id := r.nextObsID
	r.nextObsID++
	r.observers[id] = fn
	r.obsMu.Unlock()
	return func() {
		r.obsMu.Lock()
		delete(r.observers, id)
		r.obsMu.Unlock()
	}
}

// Close stops the tick and the sampler without touching session state.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.stopTickLocked()
	r.mu.Unlock()
	r.loc.Stop()
}

func (r *Recorder) snapshotLocked() model.SessionSnapshot {
	snap := model.SessionSnapshot{
		State:         string(r.state),
		ElapsedMs:     r.elapsedMs,
		DistanceM:     r.distanceM,
		AvgSpeedKmh:   r.avgKmh,
		Points:        r.track.Len(),
		Waypoints:     r.waypoints,
		SuggestedName: r.suggestedName,
	}
	if r.state != StateIdle {
		snap.RouteID = r.routeID
	}
	if r.pendingWP != nil {
		wp := *r.pendingWP
		snap.PendingWaypoint = &wp
	}
	if r.lastFix != nil {
		fix := *r.lastFix
		snap.LastFix = &fix
	}
	return snap
}

func (r *Recorder) notify() {
	snap := r.Snapshot()
	r.obsMu.Lock()
	fns := make([]func(model.SessionSnapshot), 0, len(r.observers))
	for _, fn := range r.observers {
		fns = append(fns, fn)
	}
	r.obsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (r *Recorder) enqueue(op store.Op) {
	if !r.writer.Enqueue(op) {
		slog.Warn("store writer backlog full, caller blocked")
	}
}

func (r *Recorder) startSampler() {
	r.mu.Lock()
	interval := r.interval
	r.mu.Unlock()
	if err := r.loc.Start(interval, r.OnSample); err != nil {
		slog.Error("sampler start failed", "error", err)
	}
}

func (r *Recorder) startTickLocked() {
	r.stopTickLocked()
	stop := make(chan struct{})
	r.tickStop = stop
	go func() {
		ticker := time.NewTicker(r.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.onTick()
			}
		}
	}()
}

func (r *Recorder) stopTickLocked() {
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
}

// onTick refreshes elapsed time and the derived average speed. Distance is
// untouched: it only moves on accepted samples.
func (r *Recorder) onTick() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.elapsedMs = r.now().UnixMilli() - r.baseMs
	r.avgKmh = geo.AverageSpeedKmh(r.distanceM, r.elapsedMs)
	r.mu.Unlock()

	r.notify()
}

func (r *Recorder) resetLocked() {
	r.state = StateIdle
	r.routeID = 0
	r.baseMs = 0
	r.elapsedMs = 0
	r.distanceM = 0
	r.avgKmh = 0
	r.lastSample = nil
	r.pendingWP = nil
	r.suggestedName = ""
	r.waypoints = 0
	r.track.Reset()
}
