// Package calendar turns a month and a set of visible appointments
// into a grid of day cells. Weeks start on Monday.
package calendar

import (
	"time"

	"costy-calendar/internal/model"
	"costy-calendar/internal/view"
)

// Cell is one slot of the month grid. Leading cells before day 1 have
// Empty set and Day zero.
type Cell struct {
	Day            int  `json:"day"`
	Empty          bool `json:"empty,omitempty"`
	Today          bool `json:"today,omitempty"`
	Selected       bool `json:"selected,omitempty"`
	HasAppointment bool `json:"has_appointment,omitempty"`
}

// BuildMonthGrid lays out year/month as a Monday-first grid: leading
// empty cells up to the weekday of day 1, then one cell per day with
// today/selected highlighting and an appointment marker.
func BuildMonthGrid(year int, month time.Month, appts []model.Appointment, today, selected time.Time) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	leading := (int(first.Weekday()) + 6) % 7 // Monday = 0

	marked := map[int]bool{}
	for _, a := range appts {
		st := a.StartTime.Local()
		if st.Year() == year && st.Month() == month {
			marked[st.Day()] = true
		}
	}

	cells := make([]Cell, 0, leading+31)
	for i := 0; i < leading; i++ {
		cells = append(cells, Cell{Empty: true})
	}
	for day := 1; day <= DaysIn(year, month); day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		cells = append(cells, Cell{
			Day:            day,
			Today:          view.SameDay(date, today),
			Selected:       view.SameDay(date, selected),
			HasAppointment: marked[day],
		})
	}
	return cells
}

// DaysIn returns the number of days in year/month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// Next advances one month, wrapping December into January of the next
// year. Navigation is unbounded in both directions.
func Next(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// Prev goes back one month, wrapping January into December of the
// previous year.
func Prev(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
