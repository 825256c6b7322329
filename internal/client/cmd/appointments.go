package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"costy-calendar/internal/booking"
	"costy-calendar/internal/model"
	"costy-calendar/internal/session"
)

type apiClient struct {
	serverURL *string
	sessions  *session.Store
}

func (c *apiClient) do(method, path string, body any, out any) error {
	sess, ok := c.sessions.Current()
	if !ok {
		return fmt.Errorf("no session, please login")
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, *c.serverURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *apiClient) fetchAppointments(viewMode, date string) ([]model.Appointment, error) {
	q := url.Values{}
	if viewMode != "" {
		q.Set("view", viewMode)
	}
	if date != "" {
		q.Set("date", date)
	}
	path := "/api/v1/appointments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var appts []model.Appointment
	if err := c.do(http.MethodGet, path, nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func newAppointmentCmds(serverURL *string, sessions *session.Store) []*cobra.Command {
	c := &apiClient{serverURL: serverURL, sessions: sessions}

	var listView, listDate string
	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			appts, err := c.fetchAppointments(listView, listDate)
			if err != nil {
				return err
			}
			if len(appts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No appointments")
				return nil
			}
			for _, a := range appts {
				printAppointment(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}
	list.Flags().StringVar(&listView, "view", "all", "Filter: all, mine, others, available")
	list.Flags().StringVar(&listDate, "date", "", "Only this day (YYYY-MM-DD)")

	var in booking.SlotInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Start == "" || in.End == "" {
				// fall back to the last-used time window
				d := sessions.LastTimes()
				if in.Start == "" {
					in.Start = d.Start
				}
				if in.End == "" {
					in.End = d.End
				}
			}
			var a model.Appointment
			if err := c.do(http.MethodPost, "/api/v1/appointments", in, &a); err != nil {
				return err
			}
			_ = sessions.SaveLastTimes(session.TimeDefaults{Start: in.Start, End: in.End})
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", a.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "Title (required)")
	create.Flags().StringVar(&in.Description, "desc", "", "Description")
	create.Flags().StringVar(&in.Date, "date", "", "Day (YYYY-MM-DD, required)")
	create.Flags().StringVar(&in.Start, "start", "", "Start time (HH:MM)")
	create.Flags().StringVar(&in.End, "end", "", "End time (HH:MM)")

	var editIn booking.SlotInput
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an appointment you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var a model.Appointment
			if err := c.do(http.MethodPut, "/api/v1/appointments/"+args[0], editIn, &a); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated")
			return nil
		},
	}
	edit.Flags().StringVar(&editIn.Title, "title", "", "Title")
	edit.Flags().StringVar(&editIn.Description, "desc", "", "Description")
	edit.Flags().StringVar(&editIn.Date, "date", "", "Day (YYYY-MM-DD)")
	edit.Flags().StringVar(&editIn.Start, "start", "", "Start time (HH:MM)")
	edit.Flags().StringVar(&editIn.End, "end", "", "End time (HH:MM)")

	join := &cobra.Command{
		Use:   "join <id>",
		Short: "Join a free slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do(http.MethodPost, "/api/v1/appointments/"+args[0]+"/join", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Joined")
			return nil
		},
	}

	leave := &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do(http.MethodPost, "/api/v1/appointments/"+args[0]+"/leave", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Left")
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an appointment you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do(http.MethodDelete, "/api/v1/appointments/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
			return nil
		},
	}

	return []*cobra.Command{list, create, edit, join, leave, rm}
}

func printAppointment(w io.Writer, a model.Appointment) {
	creator := a.CreatorName
	if creator == "" {
		creator = a.CreatedBy
	}
	fmt.Fprintf(w, "%s  %s %s-%s  %-20s by %s [%d/%d]\n",
		a.ID,
		a.StartTime.Local().Format("2006-01-02"),
		a.StartTime.Local().Format("15:04"),
		a.EndTime.Local().Format("15:04"),
		a.Title, creator, len(a.Participants), model.Capacity)
}
