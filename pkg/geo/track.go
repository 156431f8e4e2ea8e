package geo

import "sync"

// TrackBuffer accumulates the live track polyline of an in-progress recording
// and derives the current ground heading from the newest points. It is safe
// for concurrent use by the sampler callback and display readers.
type TrackBuffer struct {
	mu     sync.RWMutex
	points []Point
}

// NewTrackBuffer creates an empty buffer.
func NewTrackBuffer() *TrackBuffer {
	return &TrackBuffer{}
}

// Push appends a point and returns the bearing from the previous point to it.
// With fewer than 2 points it returns the provided default heading.
func (b *TrackBuffer) Push(p Point, defaultHeading float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points = append(b.points, p)
	if len(b.points) < 2 {
		return defaultHeading
	}
	return Bearing(b.points[len(b.points)-2], b.points[len(b.points)-1])
}

// Points returns a copy of the accumulated polyline in insertion order.
func (b *TrackBuffer) Points() []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Point, len(b.points))
	copy(out, b.points)
	return out
}

// Len returns the number of accumulated points.
func (b *TrackBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}

// Reset clears the buffer.
func (b *TrackBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = nil
}
