package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 40.0, Lng: -3.0},
			p2:   Point{Lat: 40.0, Lng: -3.0},
			want: 0,
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lng: 0},
			p2:   Point{Lat: 0, Lng: 1},
			want: 111195, // 2*pi*R/360
		},
		{
			name: "Madrid 100m",
			p1:   Point{Lat: 40.0, Lng: -3.0},
			p2:   Point{Lat: 40.0009, Lng: -3.0},
			want: 100,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lng: -0.1278},
			p2:   Point{Lat: 48.8566, Lng: 2.3522},
			want: 344000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			// Allow 1% margin of error
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
			if got != 0 && tt.want == 0 {
				t.Errorf("Distance() = %v, want exactly 0", got)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := []struct{ p1, p2 Point }{
		{Point{Lat: 40.4167, Lng: -3.7033}, Point{Lat: 41.3874, Lng: 2.1686}},
		{Point{Lat: -33.8688, Lng: 151.2093}, Point{Lat: 51.5074, Lng: -0.1278}},
		{Point{Lat: 0, Lng: 179.9}, Point{Lat: 0, Lng: -179.9}},
	}
	for _, pair := range pairs {
		if d1, d2 := Distance(pair.p1, pair.p2), Distance(pair.p2, pair.p1); d1 != d2 {
			t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
		}
	}
}

func TestPathDistance(t *testing.T) {
	points := []Point{
		{Lat: 40.0, Lng: -3.0},
		{Lat: 40.0009, Lng: -3.0},
		{Lat: 40.0018, Lng: -3.0},
	}
	got := PathDistance(points)
	if math.Abs(got-200) > 2 {
		t.Errorf("PathDistance() = %v, want ~200", got)
	}
	if PathDistance(nil) != 0 {
		t.Error("PathDistance(nil) should be 0")
	}
	if PathDistance(points[:1]) != 0 {
		t.Error("PathDistance of a single point should be 0")
	}
}

func TestAverageSpeedKmh(t *testing.T) {
	tests := []struct {
		name       string
		distance   float64
		durationMs int64
		want       float64
	}{
		{"Zero duration", 5000, 0, 0},
		{"Negative duration", 5000, -100, 0},
		{"Zero distance", 0, 60000, 0},
		{"100m in 10s", 100, 10000, 36},
		{"1km in 1h", 1000, 3600000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AverageSpeedKmh(tt.distance, tt.durationMs)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AverageSpeedKmh(%v, %v) = %v, want %v", tt.distance, tt.durationMs, got, tt.want)
			}
		})
	}
}

func TestDestinationPoint(t *testing.T) {
	start := Point{Lat: 40.0, Lng: -3.0}

	// 100m due north, then back again.
	north := DestinationPoint(start, 100, 0)
	if math.Abs(Distance(start, north)-100) > 1 {
		t.Errorf("distance to destination = %v, want ~100", Distance(start, north))
	}
	if north.Lat <= start.Lat {
		t.Error("northbound destination should increase latitude")
	}
	back := DestinationPoint(north, 100, 180)
	if Distance(start, back) > 1 {
		t.Errorf("round trip drifted %vm from start", Distance(start, back))
	}

	// Zero distance stays put.
	if same := DestinationPoint(start, 0, 90); Distance(start, same) != 0 {
		t.Error("zero distance should not move the point")
	}
}

func TestTrackBuffer(t *testing.T) {
	b := NewTrackBuffer()

	if h := b.Push(Point{Lat: 40.0, Lng: -3.0}, 123); h != 123 {
		t.Errorf("first Push should return default heading, got %v", h)
	}
	// Due north
	if h := b.Push(Point{Lat: 40.0009, Lng: -3.0}, 0); math.Abs(h) > 0.5 {
		t.Errorf("heading = %v, want ~0 (north)", h)
	}

	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}

	pts := b.Points()
	pts[0] = Point{} // must not alias internal storage
	if b.Points()[0].Lat != 40.0 {
		t.Error("Points() must return a copy")
	}

	b.Reset()
	if b.Len() != 0 {
		t.Error("Reset should clear the buffer")
	}
}
