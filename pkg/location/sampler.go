package location

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rutago/pkg/model"
	"rutago/pkg/tracker"
)

// Sampler regulates a Source subscription for the recorder. It enforces the
// sampling floor, makes restarts with an unchanged cadence no-ops, and
// forwards every delivered sample verbatim — no filtering, smoothing or
// deduplication happens here.
type Sampler struct {
	mu       sync.Mutex
	src      Source
	tr       *tracker.Tracker
	active   bool
	interval time.Duration
}

func NewSampler(src Source, tr *tracker.Tracker) *Sampler {
	return &Sampler{src: src, tr: tr}
}

// Start subscribes to the source at the given cadence, clamped to the
// sampling floor. Starting again with the same effective cadence keeps the
// existing subscription; a different cadence replaces it.
func (s *Sampler) Start(interval time.Duration, fn func(model.Sample)) error {
	if interval < MinInterval {
		interval = MinInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active && s.interval == interval {
		return nil
	}
	if s.active {
		s.src.Unsubscribe()
	}

	err := s.src.Subscribe(interval, func(sample model.Sample) {
		s.tr.TrackSampleDelivered()
		fn(sample)
	})
	if err != nil {
		s.active = false
		return err
	}

	s.active = true
	s.interval = interval
	slog.Debug("sampler started", "interval", interval)
	return nil
}

// Stop unconditionally releases any active subscription.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.src.Unsubscribe()
		s.active = false
		slog.Debug("sampler stopped")
	}
}

// Active reports whether a subscription is live.
func (s *Sampler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CurrentOnce resolves a single fix from the source, independent of any
// subscription. Used for waypoint capture and map centering.
func (s *Sampler) CurrentOnce(ctx context.Context) (model.Sample, bool) {
	return s.src.CurrentOnce(ctx)
}
