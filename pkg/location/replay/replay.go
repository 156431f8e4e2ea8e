// Package replay provides a location source that plays a recorded GPX track
// back in real time (optionally scaled), interpolating between track points.
// Useful for reproducing a field session on a desk.
package replay

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"rutago/pkg/gpx"
	"rutago/pkg/model"
)

const tickRateMs = 100

type trackPoint struct {
	lat, lng float64
	offsetMs int64 // milliseconds from track start
}

// Source implements location.Source by replaying a GPX file. When the
// playhead passes the last point the track loops.
type Source struct {
	points []trackPoint
	speed  float64

	mu    sync.Mutex
	start time.Time

	stopCh chan struct{}

	subMu   sync.Mutex
	subStop chan struct{}
	subWg   sync.WaitGroup
}

// New loads the GPX file and starts the playhead. Points without timestamps
// get one second of spacing, matching the import pipeline.
func New(path string, speed float64) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening replay track: %w", err)
	}
	defer f.Close()

	parsed, err := gpx.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding replay track: %w", err)
	}
	if len(parsed.Points) == 0 {
		return nil, fmt.Errorf("replay track %s: %w", path, gpx.ErrNoTrackPoints)
	}

	if speed <= 0 {
		speed = 1.0
	}

	s := &Source{
		speed:  speed,
		stopCh: make(chan struct{}),
		start:  time.Now(),
	}

	var baseMs int64
	for i, p := range parsed.Points {
		offset := int64(i) * 1000
		if p.TimestampMs != nil {
			if i == 0 {
				baseMs = *p.TimestampMs
			}
			offset = *p.TimestampMs - baseMs
		}
		if offset < 0 {
			offset = 0
		}
		s.points = append(s.points, trackPoint{lat: p.Lat, lng: p.Lng, offsetMs: offset})
	}

	return s, nil
}

// position returns the interpolated track position for the current playhead.
func (s *Source) position(now time.Time) model.Sample {
	s.mu.Lock()
	elapsed := int64(float64(now.Sub(s.start).Milliseconds()) * s.speed)
	s.mu.Unlock()

	last := s.points[len(s.points)-1]
	if last.offsetMs > 0 {
		elapsed %= last.offsetMs
	}

	// Find the segment containing the playhead.
	i := 0
	for i < len(s.points)-1 && s.points[i+1].offsetMs <= elapsed {
		i++
	}
	cur := s.points[i]
	if i == len(s.points)-1 {
		return model.Sample{Lat: cur.lat, Lng: cur.lng, Timestamp: now}
	}

	next := s.points[i+1]
	span := next.offsetMs - cur.offsetMs
	frac := 0.0
	if span > 0 {
		frac = float64(elapsed-cur.offsetMs) / float64(span)
	}
	return model.Sample{
		Lat:       cur.lat + (next.lat-cur.lat)*frac,
		Lng:       cur.lng + (next.lng-cur.lng)*frac,
		Timestamp: now,
	}
}

// Subscribe delivers the interpolated playhead position at the given
// cadence. Replaces any previous subscription.
func (s *Source) Subscribe(interval time.Duration, fn func(model.Sample)) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.unsubscribeLocked()

	stop := make(chan struct{})
	s.subStop = stop
	s.subWg.Add(1)
	go func() {
		defer s.subWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				fn(s.position(time.Now()))
			}
		}
	}()
	return nil
}

// Unsubscribe stops delivery. Safe when not subscribed.
func (s *Source) Unsubscribe() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.unsubscribeLocked()
}

func (s *Source) unsubscribeLocked() {
	if s.subStop != nil {
		close(s.subStop)
		s.subStop = nil
		s.subWg.Wait()
	}
}

// CurrentOnce returns the playhead position immediately.
func (s *Source) CurrentOnce(ctx context.Context) (model.Sample, bool) {
	select {
	case <-ctx.Done():
		return model.Sample{}, false
	default:
		return s.position(time.Now()), true
	}
}

// Close stops the source and any active subscription.
func (s *Source) Close() error {
	s.Unsubscribe()
	close(s.stopCh)
	return nil
}
