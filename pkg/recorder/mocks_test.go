package recorder

import (
	"context"
	"sync"
	"time"

	"rutago/pkg/model"
)

type fakeStore struct {
	mu        sync.Mutex
	routes    map[int64]*model.Route
	deleted   []int64
	points    []*model.TrackPoint
	waypoints []*model.Waypoint
}

func newFakeStore() *fakeStore {
	return &fakeStore{routes: make(map[int64]*model.Route)}
}

func (s *fakeStore) SaveRoute(_ context.Context, route *model.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *route
	s.routes[route.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteRoute(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.routes, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) AppendTrackPoint(_ context.Context, p *model.TrackPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.points = append(s.points, &cp)
	return nil
}

func (s *fakeStore) AppendWaypoint(_ context.Context, wp *model.Waypoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *wp
	s.waypoints = append(s.waypoints, &cp)
	return nil
}

func (s *fakeStore) route(id int64) *model.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routes[id]
}

func (s *fakeStore) pointCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

type fakeLoc struct {
	mu        sync.Mutex
	starts    []time.Duration
	stops     int
	fn        func(model.Sample)
	current   model.Sample
	currentOK bool
}

func (f *fakeLoc) Start(interval time.Duration, fn func(model.Sample)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, interval)
	f.fn = fn
	return nil
}

func (f *fakeLoc) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeLoc) CurrentOnce(ctx context.Context) (model.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.currentOK
}

func (f *fakeLoc) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func (f *fakeLoc) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// fakeClock steps time manually for deterministic elapsed-time tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
