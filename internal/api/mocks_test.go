package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"rutago/pkg/config"
	"rutago/pkg/gpx"
	"rutago/pkg/model"
	"rutago/pkg/recorder"
	"rutago/pkg/store"
	"rutago/pkg/tracker"
)

// apiStore is an in-memory store covering every persistence surface the
// handlers touch.
type apiStore struct {
	mu        sync.Mutex
	routes    map[int64]*model.Route
	points    map[int64][]*model.TrackPoint
	waypoints map[int64][]*model.Waypoint
	markers   map[string]*model.Marker
	state     map[string]string
}

func newAPIStore() *apiStore {
	return &apiStore{
		routes:    make(map[int64]*model.Route),
		points:    make(map[int64][]*model.TrackPoint),
		waypoints: make(map[int64][]*model.Waypoint),
		markers:   make(map[string]*model.Marker),
		state:     make(map[string]string),
	}
}

func (s *apiStore) SaveRoute(ctx context.Context, r *model.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.routes[r.ID] = &cp
	return nil
}

func (s *apiStore) GetRoute(ctx context.Context, id int64) (*model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *apiStore) DeleteRoute(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.routes, id)
	delete(s.points, id)
	delete(s.waypoints, id)
	return nil
}

func (s *apiStore) ListRoutes(ctx context.Context) ([]*model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Route
	for _, r := range s.routes {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *apiStore) AppendTrackPoint(ctx context.Context, p *model.TrackPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.points[p.RouteID] = append(s.points[p.RouteID], &cp)
	return nil
}

func (s *apiStore) GetTrackPoints(ctx context.Context, routeID int64) ([]*model.TrackPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.TrackPoint, len(s.points[routeID]))
	for i, p := range s.points[routeID] {
		cp := *p
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (s *apiStore) AppendWaypoint(ctx context.Context, wp *model.Waypoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *wp
	s.waypoints[wp.RouteID] = append(s.waypoints[wp.RouteID], &cp)
	return nil
}

func (s *apiStore) GetWaypoints(ctx context.Context, routeID int64) ([]*model.Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Waypoint, len(s.waypoints[routeID]))
	for i, wp := range s.waypoints[routeID] {
		cp := *wp
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *apiStore) SaveMarker(ctx context.Context, m *model.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.markers[m.ID] = &cp
	return nil
}

func (s *apiStore) RenameMarker(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.markers[id]; ok {
		m.Name = name
	}
	return nil
}

func (s *apiStore) DeleteMarker(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
	return nil
}

func (s *apiStore) ListMarkers(ctx context.Context) ([]*model.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Marker
	for _, m := range s.markers {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *apiStore) GetState(ctx context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok
}

func (s *apiStore) SetState(ctx context.Context, key, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = val
	return nil
}

func (s *apiStore) DeleteState(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
	return nil
}

// fakeLoc is a deterministic location port.
type fakeLoc struct {
	mu        sync.Mutex
	fn        func(model.Sample)
	current   model.Sample
	currentOK bool
}

func (l *fakeLoc) Start(interval time.Duration, fn func(model.Sample)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fn = fn
	return nil
}

func (l *fakeLoc) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fn = nil
}

func (l *fakeLoc) CurrentOnce(ctx context.Context) (model.Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.currentOK
}

func (l *fakeLoc) deliver(s model.Sample) {
	l.mu.Lock()
	fn := l.fn
	l.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// testEnv bundles a fully wired API server over in-memory fakes.
type testEnv struct {
	st  *apiStore
	loc *fakeLoc
	rec *recorder.Recorder
	tr  *tracker.Tracker
	w   *store.Writer
	srv *http.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := newAPIStore()
	loc := &fakeLoc{}
	tr := tracker.New()

	ctx, cancel := context.WithCancel(context.Background())
	w := store.NewWriter(ctx, 64, nil)
	t.Cleanup(func() {
		w.Close()
		cancel()
	})

	rec := recorder.New(st, loc, w, tr, &config.RecorderConfig{
		Tick:            config.Duration(time.Second),
		IntervalSetting: 10,
	})
	t.Cleanup(rec.Close)

	importer := gpx.NewImporter(st, tr)
	exporter := gpx.NewExporter(st, t.TempDir(), tr)

	srv := NewServer("localhost:0",
		NewSessionHandler(rec, nil),
		NewLiveHandler(rec),
		NewRoutesHandler(st, importer, exporter),
		NewMarkerHandler(st),
		NewSettingsHandler(st, rec, 10),
		NewStatsHandler(tr, time.Now()),
		func() {},
	)

	return &testEnv{st: st, loc: loc, rec: rec, tr: tr, w: w, srv: srv}
}

// do routes a request through the real mux so path patterns are exercised.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(w, req)
	return w
}

// flush waits for every previously enqueued store write to apply. The writer
// drains in FIFO order, so a barrier op suffices.
func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	e.w.Enqueue(func(ctx context.Context) error {
		close(done)
		return nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("store writer did not apply queued writes in time")
	}
}
