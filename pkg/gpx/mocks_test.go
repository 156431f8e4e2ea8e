package gpx

import (
	"context"
	"sort"

	"rutago/pkg/model"
)

// memStore is an in-memory ImportStore + ExportStore.
type memStore struct {
	routes    map[int64]*model.Route
	points    map[int64][]*model.TrackPoint
	waypoints map[int64][]*model.Waypoint

	saveRouteErr error
}

func newMemStore() *memStore {
	return &memStore{
		routes:    make(map[int64]*model.Route),
		points:    make(map[int64][]*model.TrackPoint),
		waypoints: make(map[int64][]*model.Waypoint),
	}
}

func (s *memStore) SaveRoute(_ context.Context, route *model.Route) error {
	if s.saveRouteErr != nil {
		return s.saveRouteErr
	}
	cp := *route
	s.routes[route.ID] = &cp
	return nil
}

func (s *memStore) GetRoute(_ context.Context, id int64) (*model.Route, error) {
	return s.routes[id], nil
}

func (s *memStore) AppendTrackPoint(_ context.Context, p *model.TrackPoint) error {
	cp := *p
	s.points[p.RouteID] = append(s.points[p.RouteID], &cp)
	return nil
}

func (s *memStore) GetTrackPoints(_ context.Context, routeID int64) ([]*model.TrackPoint, error) {
	pts := s.points[routeID]
	sort.Slice(pts, func(i, j int) bool { return pts[i].Timestamp < pts[j].Timestamp })
	return pts, nil
}

func (s *memStore) AppendWaypoint(_ context.Context, wp *model.Waypoint) error {
	cp := *wp
	s.waypoints[wp.RouteID] = append(s.waypoints[wp.RouteID], &cp)
	return nil
}

func (s *memStore) GetWaypoints(_ context.Context, routeID int64) ([]*model.Waypoint, error) {
	wps := s.waypoints[routeID]
	sort.Slice(wps, func(i, j int) bool { return wps[i].ID < wps[j].ID })
	return wps, nil
}
