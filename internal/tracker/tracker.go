package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/db"
	"github.com/smokyabdulrahman/namaz/internal/model"
	"github.com/smokyabdulrahman/namaz/internal/stats"
)

// ToggleResult is the confirmed outcome of a toggle.
type ToggleResult struct {
	Record     model.PrayerRecord `json:"record"`
	Prayer     model.Prayer       `json:"prayer"`
	Checked    bool               `json:"checked"`
	Total      int                `json:"total_prayers"`
	Streak     int                `json:"current_streak"`
	PerfectDay bool               `json:"perfect_day"`
	Unlocked   []string           `json:"unlocked,omitempty"`
}

// Tracker is the signed-in flavour backed by the relational store.
type Tracker struct {
	store db.Store
	rules []Rule
	now   func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithRules(rules []Rule) Option { return func(t *Tracker) { t.rules = rules } }

func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

func New(store db.Store, opts ...Option) *Tracker {
	t := &Tracker{store: store, rules: DefaultRules, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Toggle flips one prayer on date for the user. The record write is the
// commit point: if it fails the local flip is compensated and the error is
// returned. Counter and achievement updates that fail afterwards are logged
// and do not undo the toggle.
func (t *Tracker) Toggle(ctx context.Context, userID, date string, p model.Prayer) (*ToggleResult, error) {
	if !p.Daily() {
		return nil, fmt.Errorf("%w: %s cannot be checked off", model.ErrInvalidPrayer, p)
	}
	day, err := time.ParseInLocation(model.DateLayout, date, t.now().Location())
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", model.ErrInvalidRecord, date)
	}
	if _, err := t.store.EnsureProfile(ctx, userID, ""); err != nil {
		return nil, err
	}

	rec, err := t.store.GetRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	list := NewChecklist(*rec)
	cmd := &ToggleCommand{
		List:   list,
		Prayer: p,
		Save: func(ctx context.Context, r model.PrayerRecord) error {
			return t.store.UpsertRecord(ctx, &r)
		},
	}
	if err := Execute(ctx, cmd); err != nil {
		return nil, fmt.Errorf("toggle %s on %s: %w", p, date, err)
	}

	res := &ToggleResult{Record: list.Snapshot(), Prayer: p, Checked: cmd.Checked}
	res.PerfectDay = res.Record.Perfect()

	if cmd.Checked {
		res.Total, err = t.store.IncrementTotal(ctx, userID)
	} else {
		res.Total, err = t.store.DecrementTotal(ctx, userID)
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("toggle saved but total not updated")
	}

	res.Streak, err = t.RefreshStreak(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("toggle saved but streak not updated")
	}

	if cmd.Checked {
		res.Unlocked = t.unlock(ctx, userID, Event{
			Prayer: p,
			Day:    day,
			Record: res.Record,
			Streak: res.Streak,
			Total:  res.Total,
		})
	}
	return res, nil
}

// RefreshStreak recomputes the current streak from the trailing year of
// records and stores it on the profile.
func (t *Tracker) RefreshStreak(ctx context.Context, userID string) (int, error) {
	records, err := t.History(ctx, userID, stats.HistoryDays)
	if err != nil {
		return 0, err
	}
	streak := stats.CurrentStreak(records, t.now())
	if err := t.store.SetStreak(ctx, userID, streak); err != nil {
		return streak, err
	}
	return streak, nil
}

// History returns the stored records for the last days, today included.
func (t *Tracker) History(ctx context.Context, userID string, days int) ([]model.PrayerRecord, error) {
	today := t.now()
	from := today.AddDate(0, 0, -(days - 1)).Format(model.DateLayout)
	return t.store.ListRecords(ctx, userID, from, today.Format(model.DateLayout))
}

// Summary computes the stats screen for the user.
func (t *Tracker) Summary(ctx context.Context, userID string) (*stats.Summary, error) {
	records, err := t.History(ctx, userID, stats.HistoryDays)
	if err != nil {
		return nil, err
	}
	s := stats.Summarize(records, t.now())
	return &s, nil
}

// AdjustQada changes one missed-prayer counter by delta, flooring at zero.
func (t *Tracker) AdjustQada(ctx context.Context, userID string, p model.Prayer, delta int) (*model.QadaCounts, error) {
	if _, err := t.store.EnsureProfile(ctx, userID, ""); err != nil {
		return nil, err
	}
	q, err := t.store.GetQada(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := q.Adjust(p, delta); err != nil {
		return nil, err
	}
	if err := t.store.SaveQada(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (t *Tracker) unlock(ctx context.Context, userID string, ev Event) []string {
	var unlocked []string
	for _, r := range t.rules {
		if !r.Met(ev) {
			continue
		}
		ok, err := t.store.Unlock(ctx, userID, r.ID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("achievement", r.ID).Msg("achievement not recorded")
			continue
		}
		if ok {
			unlocked = append(unlocked, r.ID)
		}
	}
	return unlocked
}
