// Package model holds the typed records shared by the store, the services
// and the HTTP layer. Rows coming back from the database or request bodies
// coming in from clients are converted into these types and validated once,
// at the boundary.
package model

import (
	"fmt"
	"strings"
)

// Prayer names one of the tracked prayers.
type Prayer string

const (
	Fajr    Prayer = "Fajr"
	Dhuhr   Prayer = "Dhuhr"
	Asr     Prayer = "Asr"
	Maghrib Prayer = "Maghrib"
	Isha    Prayer = "Isha"

	// Witr is only tracked as a Qada category.
	Witr Prayer = "Witr"
)

// DailyPrayers lists the five obligatory prayers in canonical daily order.
var DailyPrayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}

// QadaPrayers lists every category that can carry a missed-prayer debt.
var QadaPrayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha, Witr}

// ParsePrayer resolves a user supplied name. It is case-insensitive and
// accepts "zuhr", the column spelling used by the records table.
func ParsePrayer(s string) (Prayer, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "fajr":
		return Fajr, nil
	case "dhuhr", "zuhr", "duhr":
		return Dhuhr, nil
	case "asr":
		return Asr, nil
	case "maghrib":
		return Maghrib, nil
	case "isha":
		return Isha, nil
	case "witr":
		return Witr, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPrayer, s)
}

// Daily reports whether p is one of the five daily prayers.
func (p Prayer) Daily() bool {
	for _, d := range DailyPrayers {
		if d == p {
			return true
		}
	}
	return false
}

// Key is the lower-case storage key of the prayer ("zuhr" for Dhuhr).
func (p Prayer) Key() string {
	if p == Dhuhr {
		return "zuhr"
	}
	return strings.ToLower(string(p))
}

func (p Prayer) String() string { return string(p) }
