// Package location defines the push-based location port and the sampler
// that regulates delivery cadence for the recorder.
package location

import (
	"context"
	"time"

	"rutago/pkg/model"
)

const (
	// MinInterval is the hard floor below which sampling makes no physical
	// sense for a handheld fix source.
	MinInterval = 200 * time.Millisecond
	// FastInterval is the cadence selected by the fast sentinel setting.
	FastInterval = 500 * time.Millisecond

	// FastSetting is the persisted settings value selecting FastInterval.
	// All other settings values are whole seconds in [1, 30].
	FastSetting = 0

	minSettingSec = 1
	maxSettingSec = 30
)

// Source is a raw push-based location provider. Implementations deliver
// fixes on their own goroutine at roughly the requested cadence.
type Source interface {
	// Subscribe begins delivering samples to fn. A second Subscribe
	// replaces the previous delivery.
	Subscribe(interval time.Duration, fn func(model.Sample)) error

	// Unsubscribe stops delivery. Safe to call when not subscribed.
	Unsubscribe()

	// CurrentOnce resolves a single fix without an active subscription.
	// Returns ok=false when no fix is available or ctx is done; it never
	// blocks past ctx.
	CurrentOnce(ctx context.Context) (model.Sample, bool)

	// Close releases the provider entirely.
	Close() error
}

// IntervalFromSetting maps the persisted interval setting to a real
// duration. The sentinel 0 selects the fast cadence; everything else is
// whole seconds clamped to [1, 30].
func IntervalFromSetting(v int) time.Duration {
	if v == FastSetting {
		return FastInterval
	}
	if v < minSettingSec {
		v = minSettingSec
	}
	if v > maxSettingSec {
		v = maxSettingSec
	}
	return time.Duration(v) * time.Second
}

// ValidSetting reports whether v is an acceptable persisted interval value.
func ValidSetting(v int) bool {
	return v == FastSetting || (v >= minSettingSec && v <= maxSettingSec)
}
