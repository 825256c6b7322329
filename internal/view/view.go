// Package view projects the full appointment list into the subset a
// user is currently looking at. Everything here is pure.
package view

import (
	"fmt"
	"time"

	"costy-calendar/internal/model"
)

// Mode selects which appointments are visible.
type Mode int

const (
	// All shows every appointment.
	All Mode = iota
	// Mine shows appointments the user participates in.
	Mine
	// Shared shows appointments the user participates in together
	// with someone else.
	Shared
	// Available shows appointments the user could still join.
	Available
)

func (m Mode) String() string {
	switch m {
	case Mine:
		return "mine"
	case Shared:
		return "others"
	case Available:
		return "available"
	default:
		return "all"
	}
}

// ParseMode maps the wire names used by the filter buttons. An empty
// string means All.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "all":
		return All, nil
	case "mine":
		return Mine, nil
	case "others":
		return Shared, nil
	case "available":
		return Available, nil
	}
	return All, fmt.Errorf("unknown view mode %q", s)
}

// Select returns the appointments visible to user under mode,
// preserving input order.
func Select(all []model.Appointment, user string, mode Mode) []model.Appointment {
	if mode == All {
		return all
	}
	out := make([]model.Appointment, 0, len(all))
	for _, a := range all {
		switch mode {
		case Mine:
			if a.HasParticipant(user) {
				out = append(out, a)
			}
		case Shared:
			if a.HasParticipant(user) && len(a.Participants) > 1 {
				out = append(out, a)
			}
		case Available:
			if !a.HasParticipant(user) && !a.Full() {
				out = append(out, a)
			}
		}
	}
	return out
}

// ForDate keeps the appointments whose start time falls on day's civil
// date in the local timezone. Input order (ascending start time) is
// preserved.
func ForDate(appts []model.Appointment, day time.Time) []model.Appointment {
	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if SameDay(a.StartTime, day) {
			out = append(out, a)
		}
	}
	return out
}

// SameDay reports whether a and b share a civil date in local time.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}
