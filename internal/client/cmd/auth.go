package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"costy-calendar/internal/model"
	"costy-calendar/internal/session"
)

type authClient struct {
	serverURL *string
	sessions  *session.Store
}

func newAuthCmd(serverURL *string, sessions *session.Store) *cobra.Command {
	a := &authClient{serverURL: serverURL, sessions: sessions}
	cmd := &cobra.Command{Use: "auth", Short: "Session commands"}
	cmd.AddCommand(&cobra.Command{Use: "login", Short: "Login with name and email", RunE: a.login})
	cmd.AddCommand(&cobra.Command{Use: "logout", Short: "Forget the stored session", RunE: a.logout})
	cmd.AddCommand(&cobra.Command{Use: "whoami", Short: "Show the acting user", RunE: a.whoami})
	return cmd
}

func (a *authClient) login(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(cmd.OutOrStdout(), "Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	fmt.Fprint(cmd.OutOrStdout(), "Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	body := map[string]string{"name": name, "email": email}
	b, _ := json.Marshal(body)
	resp, err := http.Post(*a.serverURL+"/api/v1/auth/login", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("login failed: %s", resp.Status)
	}

	var result struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if err := a.sessions.Save(result.User, result.Token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", result.User.Name, result.User.Email)
	return nil
}

func (a *authClient) logout(cmd *cobra.Command, args []string) error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func (a *authClient) whoami(cmd *cobra.Command, args []string) error {
	sess, ok := a.sessions.Current()
	if !ok {
		return fmt.Errorf("no session, please login")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", sess.User.Name, sess.User.Email)
	return nil
}
