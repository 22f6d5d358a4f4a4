package prayer

import (
	"context"
	"sync"
	"time"

	"github.com/smokyabdulrahman/namaz/internal/schedule"
)

// NowLabel is shown in place of a duration when a prayer time is reached.
const NowLabel = "Now"

// DaySource returns the five daily prayer events for the calendar day
// containing now.
type DaySource func(ctx context.Context, now time.Time) ([]Event, error)

// State is one countdown reading.
type State struct {
	Next      Next          `json:"next"`
	Target    time.Time     `json:"target"`
	Remaining time.Duration `json:"remaining"`
	Label     string        `json:"label"`
	// Arrived is set on the tick where Next's time was reached.
	Arrived bool `json:"arrived"`
}

// Countdown tracks the time left until the next prayer. It keeps the last
// derived prayer between ticks and derives it again from fresh timings once
// its time has been reached, so a stale value after sleep or a day change
// corrects itself.
type Countdown struct {
	source DaySource

	mu   sync.Mutex
	next *Next
}

func NewCountdown(source DaySource) *Countdown {
	return &Countdown{source: source}
}

// Tick computes the reading for now.
func (c *Countdown) Tick(ctx context.Context, now time.Time) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next == nil {
		if err := c.derive(ctx, now); err != nil {
			return State{}, err
		}
	}

	current := *c.next
	target := CountdownTarget(current, now)
	remaining := target.Sub(now)

	if remaining <= 0 {
		c.next = nil
		// A failed refresh is retried on the next tick.
		_ = c.derive(ctx, now)
		return State{Next: current, Target: target, Label: NowLabel, Arrived: true}, nil
	}

	return State{
		Next:      current,
		Target:    target,
		Remaining: remaining,
		Label:     FormatRemaining(remaining),
	}, nil
}

// Reset forgets the derived prayer, e.g. after the location changed.
func (c *Countdown) Reset() {
	c.mu.Lock()
	c.next = nil
	c.mu.Unlock()
}

func (c *Countdown) derive(ctx context.Context, now time.Time) error {
	events, err := c.source(ctx, now)
	if err != nil {
		return err
	}
	n, err := NextPrayer(events, now)
	if err != nil {
		return err
	}
	c.next = &n
	return nil
}

// Run ticks every interval, starting immediately, and hands each reading to
// fn. The returned task is already started; stop it to tear the countdown down.
func (c *Countdown) Run(ctx context.Context, interval time.Duration, fn func(State, error)) *schedule.Task {
	task := schedule.New(interval, func(ctx context.Context, now time.Time) {
		fn(c.Tick(ctx, now))
	}, schedule.Immediately())
	task.Start(ctx)
	return task
}
