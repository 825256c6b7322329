package cmd

import (
	"github.com/spf13/cobra"

	"costy-calendar/internal/session"
)

func NewRootCmd(version, buildDate string) *cobra.Command {
	var serverURL string
	sessions := session.NewStore(session.DefaultDir())

	root := &cobra.Command{
		Use:   "costycal",
		Short: "CostyCalendar CLI",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server base URL")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newAuthCmd(&serverURL, sessions))
	root.AddCommand(newAppointmentCmds(&serverURL, sessions)...)
	root.AddCommand(newCalendarCmd(&serverURL, sessions))
	return root
}
