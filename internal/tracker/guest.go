package tracker

import (
	"context"
	"fmt"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// GuestStore keeps records on the device for users who are not signed in.
type GuestStore interface {
	GuestRecord(date string) (model.PrayerRecord, error)
	SaveGuestRecord(rec model.PrayerRecord) error
}

// GuestTracker toggles device-local records. Guests have no profile, so
// there are no counters or achievements.
type GuestTracker struct {
	store GuestStore
}

func NewGuest(store GuestStore) *GuestTracker {
	return &GuestTracker{store: store}
}

func (g *GuestTracker) Toggle(ctx context.Context, date string, p model.Prayer) (*ToggleResult, error) {
	if !p.Daily() {
		return nil, fmt.Errorf("%w: %s cannot be checked off", model.ErrInvalidPrayer, p)
	}
	rec, err := g.store.GuestRecord(date)
	if err != nil {
		return nil, err
	}
	list := NewChecklist(rec)
	cmd := &ToggleCommand{
		List:   list,
		Prayer: p,
		Save: func(_ context.Context, r model.PrayerRecord) error {
			return g.store.SaveGuestRecord(r)
		},
	}
	if err := Execute(ctx, cmd); err != nil {
		return nil, fmt.Errorf("toggle %s on %s: %w", p, date, err)
	}
	snap := list.Snapshot()
	return &ToggleResult{Record: snap, Prayer: p, Checked: cmd.Checked, PerfectDay: snap.Perfect()}, nil
}
