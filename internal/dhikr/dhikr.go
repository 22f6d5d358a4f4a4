// Package dhikr implements the remembrance counter.
package dhikr

import (
	"fmt"
	"slices"
)

// Phrase is one remembrance with its transliteration and meaning.
type Phrase struct {
	Arabic   string `json:"arabic"`
	Translit string `json:"translit"`
	Meaning  string `json:"meaning"`
}

// Phrases are the selectable remembrances, in display order.
var Phrases = []Phrase{
	{"سُبْحَانَ ٱللَّٰهِ", "SubhanAllah", "Glory be to Allah"},
	{"ٱلْحَمْدُ لِلَّٰهِ", "Alhamdulillah", "Praise be to Allah"},
	{"ٱللَّٰهُ أَكْبَرُ", "Allahu Akbar", "Allah is the Greatest"},
	{"أَسْتَغْفِرُ ٱللَّٰهَ", "Astaghfirullah", "I seek forgiveness from Allah"},
	{"لَا إِلَٰهَ إِلَّا ٱللَّٰهُ", "La ilaha illallah", "There is no god but Allah"},
}

// DefaultGoal is one round of tasbih.
const DefaultGoal = 33

// Goals are the supported round sizes.
var Goals = []int{33, 100, 1000}

// Counter is the persisted counter state.
type Counter struct {
	Count int `json:"count"`
	Index int `json:"index"`
	Goal  int `json:"goal,omitempty"`
}

// Phrase returns the selected phrase. An out-of-range index selects the first.
func (c *Counter) Phrase() Phrase {
	if c.Index < 0 || c.Index >= len(Phrases) {
		return Phrases[0]
	}
	return Phrases[c.Index]
}

func (c *Counter) goal() int {
	if c.Goal <= 0 {
		return DefaultGoal
	}
	return c.Goal
}

// Increment counts one remembrance and reports whether a round just
// completed.
func (c *Counter) Increment() bool {
	c.Count++
	return c.Count%c.goal() == 0
}

// Rounds is the number of completed rounds.
func (c *Counter) Rounds() int {
	return c.Count / c.goal()
}

func (c *Counter) Reset() {
	c.Count = 0
}

// Select switches phrase and starts counting again.
func (c *Counter) Select(i int) error {
	if i < 0 || i >= len(Phrases) {
		return fmt.Errorf("dhikr %d out of range 0-%d", i, len(Phrases)-1)
	}
	c.Index = i
	c.Count = 0
	return nil
}

// SetGoal changes the round size without touching the count.
func (c *Counter) SetGoal(g int) error {
	if !slices.Contains(Goals, g) {
		return fmt.Errorf("goal %d not one of %v", g, Goals)
	}
	c.Goal = g
	return nil
}
