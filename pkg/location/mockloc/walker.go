// Package mockloc provides a simulated walker location source for
// development and tests: a point that strolls from a start position at a
// configured speed, drifting its heading over time.
package mockloc

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"rutago/pkg/config"
	"rutago/pkg/geo"
	"rutago/pkg/model"
)

const tickRateMs = 100

// Walker implements location.Source with a synthetic pedestrian.
type Walker struct {
	mu      sync.Mutex
	lat     float64
	lng     float64
	heading float64
	speed   float64 // km/h

	stopCh chan struct{}
	wg     sync.WaitGroup

	subMu    sync.Mutex
	subStop  chan struct{}
	subWg    sync.WaitGroup
	interval time.Duration
}

// NewWalker starts the physics loop immediately.
func NewWalker(cfg config.MockLocConfig) *Walker {
	w := &Walker{
		lat:     cfg.StartLat,
		lng:     cfg.StartLng,
		heading: cfg.HeadingDeg,
		speed:   cfg.SpeedKmh,
		stopCh:  make(chan struct{}),
	}
	if w.speed <= 0 {
		w.speed = 5.0 // brisk walk
	}

	w.wg.Add(1)
	go w.walkLoop()
	return w
}

func (w *Walker) walkLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(tickRateMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.step()
		}
	}
}

func (w *Walker) step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	dt := float64(tickRateMs) / 1000.0
	meters := w.speed / 3.6 * dt
	next := geo.DestinationPoint(geo.Point{Lat: w.lat, Lng: w.lng}, meters, w.heading)
	w.lat = next.Lat
	w.lng = next.Lng

	// Wander a little so recorded tracks are not dead straight.
	w.heading += (rand.Float64() - 0.5) * 6.0
	if w.heading < 0 {
		w.heading += 360
	}
	if w.heading >= 360 {
		w.heading -= 360
	}
}

func (w *Walker) sample() model.Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return model.Sample{
		Lat:       w.lat,
		Lng:       w.lng,
		Timestamp: time.Now(),
		Accuracy:  5.0,
	}
}

// Subscribe starts a delivery goroutine pushing the walker's position at the
// given cadence. Replaces any previous subscription.
func (w *Walker) Subscribe(interval time.Duration, fn func(model.Sample)) error {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	w.unsubscribeLocked()

	stop := make(chan struct{})
	w.subStop = stop
	w.interval = interval
	w.subWg.Add(1)
	go func() {
		defer w.subWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn(w.sample())
			}
		}
	}()
	return nil
}

// Unsubscribe stops delivery. Safe when not subscribed.
func (w *Walker) Unsubscribe() {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	w.unsubscribeLocked()
}

func (w *Walker) unsubscribeLocked() {
	if w.subStop != nil {
		close(w.subStop)
		w.subStop = nil
		w.subWg.Wait()
	}
}

// CurrentOnce returns the walker's position immediately.
func (w *Walker) CurrentOnce(ctx context.Context) (model.Sample, bool) {
	select {
	case <-ctx.Done():
		return model.Sample{}, false
	default:
		return w.sample(), true
	}
}

// Close stops the walker and any active subscription.
func (w *Walker) Close() error {
	w.Unsubscribe()
	close(w.stopCh)
	w.wg.Wait()
	return nil
}
