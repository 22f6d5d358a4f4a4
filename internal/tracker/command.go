// Package tracker applies prayer check-offs optimistically, confirms them
// against a store and rolls back the exact field on failure. It also keeps
// the profile counters and achievement unlocks in step with each toggle.
package tracker

import (
	"context"
	"sync"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Command is an optimistic mutation: Apply changes local state at once,
// Confirm persists it, and Compensate undoes Apply if Confirm failed.
type Command interface {
	Apply()
	Confirm(ctx context.Context) error
	Compensate()
}

// Execute runs cmd and compensates on failure. The confirmation error is
// returned unchanged.
func Execute(ctx context.Context, cmd Command) error {
	cmd.Apply()
	if err := cmd.Confirm(ctx); err != nil {
		cmd.Compensate()
		return err
	}
	return nil
}

// Checklist is the local view of one day's five flags.
type Checklist struct {
	mu  sync.Mutex
	rec model.PrayerRecord
}

func NewChecklist(rec model.PrayerRecord) *Checklist {
	return &Checklist{rec: copyRecord(rec)}
}

// Snapshot returns a copy of the current state.
func (c *Checklist) Snapshot() model.PrayerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyRecord(c.rec)
}

// Get reports the flag for p.
func (c *Checklist) Get(p model.Prayer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec.Get(p)
}

func (c *Checklist) flip(p model.Prayer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := !c.rec.Get(p)
	_ = c.rec.Set(p, v)
	return v
}

func (c *Checklist) set(p model.Prayer, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.rec.Set(p, v)
}

func copyRecord(r model.PrayerRecord) model.PrayerRecord {
	out := r
	if r.Proofs != nil {
		out.Proofs = make(model.Proofs, len(r.Proofs))
		for k, v := range r.Proofs {
			out.Proofs[k] = v
		}
	}
	return out
}

// SaveFunc persists a full record.
type SaveFunc func(ctx context.Context, rec model.PrayerRecord) error

// ToggleCommand flips one prayer in a checklist.
type ToggleCommand struct {
	List   *Checklist
	Prayer model.Prayer
	Save   SaveFunc

	// Checked is the value written by Apply.
	Checked bool
}

func (c *ToggleCommand) Apply() {
	c.Checked = c.List.flip(c.Prayer)
}

func (c *ToggleCommand) Confirm(ctx context.Context) error {
	return c.Save(ctx, c.List.Snapshot())
}

// Compensate restores only the toggled field; other fields changed in the
// meantime are left alone.
func (c *ToggleCommand) Compensate() {
	c.List.set(c.Prayer, !c.Checked)
}
