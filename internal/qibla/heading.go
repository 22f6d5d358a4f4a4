package qibla

import (
	"context"
	"fmt"
	"sync"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// OrientationEvent is one reading from the device orientation sensor.
// CompassHeading is set by platforms that report a north-relative heading
// directly; otherwise only Alpha, the raw rotation around the vertical axis,
// is available.
type OrientationEvent struct {
	CompassHeading *float64 `json:"compass_heading,omitempty"`
	Alpha          *float64 `json:"alpha,omitempty"`
}

// PermissionRequester asks the platform for orientation access. Some
// platforms silently deny requests that do not originate from a user gesture,
// so it must only be invoked from Enable.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// AlwaysGranted is used on platforms without an orientation permission gate.
type AlwaysGranted struct{}

func (AlwaysGranted) RequestPermission(context.Context) (bool, error) { return true, nil }

// HeadingTracker unifies platform heading conventions into a single
// clockwise-from-north value. It does not correct for device tilt.
type HeadingTracker struct {
	mu        sync.Mutex
	requester PermissionRequester
	enabled   bool
	heading   float64
	known     bool
}

// NewHeadingTracker creates a tracker. Nothing is requested until Enable.
func NewHeadingTracker(r PermissionRequester) *HeadingTracker {
	if r == nil {
		r = AlwaysGranted{}
	}
	return &HeadingTracker{requester: r}
}

// Enable requests orientation access. Call it from a user gesture.
func (t *HeadingTracker) Enable(ctx context.Context) error {
	t.mu.Lock()
	if t.enabled {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	ok, err := t.requester.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("orientation permission: %w", err)
	}
	if !ok {
		return fmt.Errorf("orientation: %w", model.ErrPermissionDenied)
	}

	t.mu.Lock()
	t.enabled = true
	t.mu.Unlock()
	return nil
}

// Enabled reports whether events are being consumed.
func (t *HeadingTracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Observe consumes an orientation event. Events arriving before Enable, or
// carrying neither field, leave the heading unchanged.
func (t *HeadingTracker) Observe(ev OrientationEvent) {
	h, ok := HeadingFromEvent(ev)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.heading = h
	t.known = true
}

// Heading returns the last known heading, or false if none was observed.
func (t *HeadingTracker) Heading() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heading, t.known
}

// Reset forgets the last heading, e.g. when the compass view is torn down.
func (t *HeadingTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.known = false
	t.heading = 0
}

// HeadingFromEvent applies the platform conventions to a single event.
func HeadingFromEvent(ev OrientationEvent) (float64, bool) {
	switch {
	case ev.CompassHeading != nil:
		return normalize(*ev.CompassHeading), true
	case ev.Alpha != nil:
		return normalize(360 - *ev.Alpha), true
	}
	return 0, false
}
