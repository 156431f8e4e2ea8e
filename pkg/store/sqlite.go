package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rutago/pkg/db"
	"rutago/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Routes ---

func (s *SQLiteStore) SaveRoute(ctx context.Context, r *model.Route) error {
	query := `INSERT OR REPLACE INTO route (id, name, distance_m, duration_ms, avg_speed_kmh)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.Name, r.DistanceM, r.DurationMs, r.AvgSpeedKmh)
	return err
}

func (s *SQLiteStore) GetRoute(ctx context.Context, id int64) (*model.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, distance_m, duration_ms, avg_speed_kmh FROM route WHERE id = ?`, id)

	var r model.Route
	err := row.Scan(&r.ID, &r.Name, &r.DistanceM, &r.DurationMs, &r.AvgSpeedKmh)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) DeleteRoute(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM route WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]*model.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, distance_m, duration_ms, avg_speed_kmh FROM route ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.Route
	for rows.Next() {
		var r model.Route
		if err := rows.Scan(&r.ID, &r.Name, &r.DistanceM, &r.DurationMs, &r.AvgSpeedKmh); err != nil {
			return nil, err
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// --- Track Points ---

func (s *SQLiteStore) AppendTrackPoint(ctx context.Context, p *model.TrackPoint) error {
	id := p.ID
	if id == 0 {
		id = time.Now().UnixMilli()
	}
	query := `INSERT OR REPLACE INTO route_point (id, route_id, lat, lng, timestamp)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, id, p.RouteID, p.Lat, p.Lng, p.Timestamp)
	if err == nil {
		p.ID = id
	}
	return err
}

func (s *SQLiteStore) GetTrackPoints(ctx context.Context, routeID int64) ([]*model.TrackPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, route_id, lat, lng, timestamp FROM route_point
		 WHERE route_id = ? ORDER BY timestamp ASC`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.TrackPoint
	for rows.Next() {
		var p model.TrackPoint
		if err := rows.Scan(&p.ID, &p.RouteID, &p.Lat, &p.Lng, &p.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, &p)
	}
	return results, rows.Err()
}

// --- Waypoints ---

func (s *SQLiteStore) AppendWaypoint(ctx context.Context, wp *model.Waypoint) error {
	id := wp.ID
	if id == 0 {
		id = time.Now().UnixMilli()
	}
	var photo sql.NullString
	if wp.PhotoPath != "" {
		photo = sql.NullString{String: wp.PhotoPath, Valid: true}
	}
	query := `INSERT OR REPLACE INTO waypoint (id, route_id, lat, lng, description, photo_path)
	          VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, id, wp.RouteID, wp.Lat, wp.Lng, wp.Description, photo)
	if err == nil {
		wp.ID = id
	}
	return err
}

func (s *SQLiteStore) GetWaypoints(ctx context.Context, routeID int64) ([]*model.Waypoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, route_id, lat, lng, description, photo_path FROM waypoint
		 WHERE route_id = ? ORDER BY id ASC`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.Waypoint
	for rows.Next() {
		var wp model.Waypoint
		var photo sql.NullString
		if err := rows.Scan(&wp.ID, &wp.RouteID, &wp.Lat, &wp.Lng, &wp.Description, &photo); err != nil {
			return nil, err
		}
		if photo.Valid {
			wp.PhotoPath = photo.String
		}
		results = append(results, &wp)
	}
	return results, rows.Err()
}

// --- Markers ---

func (s *SQLiteStore) SaveMarker(ctx context.Context, m *model.Marker) error {
	query := `INSERT OR REPLACE INTO marker (id, name, latitude, longitude) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, m.ID, m.Name, m.Latitude, m.Longitude)
	return err
}

func (s *SQLiteStore) RenameMarker(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE marker SET name = ? WHERE id = ?", name, id)
	return err
}

func (s *SQLiteStore) DeleteMarker(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM marker WHERE id = ?", id)
	return err
}

func (s *SQLiteStore) ListMarkers(ctx context.Context) ([]*model.Marker, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, latitude, longitude FROM marker")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.Marker
	for rows.Next() {
		var m model.Marker
		if err := rows.Scan(&m.ID, &m.Name, &m.Latitude, &m.Longitude); err != nil {
			return nil, err
		}
		results = append(results, &m)
	}
	return results, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
