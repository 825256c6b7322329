package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"costy-calendar/internal/calendar"
	"costy-calendar/internal/session"
)

func newCalendarCmd(serverURL *string, sessions *session.Store) *cobra.Command {
	c := &apiClient{serverURL: serverURL, sessions: sessions}

	var year, month int
	var viewMode, selected string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Render a month grid with appointment markers",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be 1-12")
			}

			sel := now
			if selected != "" {
				d, err := time.ParseInLocation("2006-01-02", selected, time.Local)
				if err != nil {
					return fmt.Errorf("bad --selected date: %w", err)
				}
				sel = d
			}

			appts, err := c.fetchAppointments(viewMode, "")
			if err != nil {
				return err
			}

			cells := calendar.BuildMonthGrid(year, time.Month(month), appts, now, sel)
			renderGrid(cmd.OutOrStdout(), year, time.Month(month), cells)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default: current)")
	cmd.Flags().StringVar(&viewMode, "view", "all", "Filter: all, mine, others, available")
	cmd.Flags().StringVar(&selected, "selected", "", "Highlight this day (YYYY-MM-DD)")
	return cmd
}

// renderGrid prints a Monday-first month. Days with appointments get a
// dot, today is wrapped in brackets, the selected day in angle marks.
func renderGrid(w io.Writer, year int, month time.Month, cells []calendar.Cell) {
	fmt.Fprintf(w, "     %s %d\n", month, year)
	fmt.Fprintln(w, " Mon  Tue  Wed  Thu  Fri  Sat  Sun")
	col := 0
	for _, c := range cells {
		switch {
		case c.Empty:
			fmt.Fprint(w, "     ")
		case c.Today:
			fmt.Fprintf(w, "[%2d]%s", c.Day, dot(c))
		case c.Selected:
			fmt.Fprintf(w, "<%2d>%s", c.Day, dot(c))
		default:
			fmt.Fprintf(w, " %2d %s", c.Day, dot(c))
		}
		col++
		if col == 7 {
			fmt.Fprintln(w)
			col = 0
		}
	}
	if col != 0 {
		fmt.Fprintln(w)
	}
}

func dot(c calendar.Cell) string {
	if c.HasAppointment {
		return "."
	}
	return " "
}
