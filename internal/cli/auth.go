package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/kanban/internal/auth"
	"github.com/idilsaglam/kanban/internal/ui"
)

func newAuthCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign up and manage the session",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.refuseWhenLoggedIn(); err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			email = promptIfEmpty(cmd.ErrOrStderr(), in, "Email", email)
			password = promptIfEmpty(cmd.ErrOrStderr(), in, "Password", password)

			token, err := a.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			sess, err := a.Sessions.Set(token)
			if err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			a.Log.WithField("expires", sess.ExpiresAt).Info("logged in")
			ui.OK(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	login.Flags().StringVarP(&email, "email", "e", "", "account email")
	login.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")

	var reg auth.Registration
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.refuseWhenLoggedIn(); err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			reg.Password = promptIfEmpty(cmd.ErrOrStderr(), in, "Password", reg.Password)
			if err := a.Auth.Register(cmd.Context(), reg); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "account created")
			ui.Hint(cmd.OutOrStdout(), "sign in with `kanban auth login`")
			return nil
		},
	}
	register.Flags().StringVarP(&reg.Username, "username", "u", "", "username, at least 3 characters")
	register.Flags().StringVar(&reg.FullName, "full-name", "", "full name")
	register.Flags().StringVarP(&reg.Email, "email", "e", "", "email")
	register.Flags().StringVarP(&reg.Password, "password", "p", "", "password, at least 6 characters (prompted when empty)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.Sessions.Delete(); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is active",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.Sessions.Current()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if sess == nil {
				fmt.Fprintln(w, "logged out")
				return nil
			}
			fmt.Fprintf(w, "logged in (source: %s)\n", sess.Source)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(w, "expires %s\n", sess.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Print the claims of the session token",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.Sessions.Current()
			if err != nil {
				return err
			}
			if sess == nil {
				return usagef("run `kanban auth login` first", "not logged in")
			}
			claims, err := auth.Claims(sess.Token)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "logged in with an opaque token")
				return nil
			}
			keys := make([]string, 0, len(claims))
			for k := range claims {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, claims[k])
			}
			return nil
		},
	}

	cmd.AddCommand(login, register, logout, status, whoami)
	return cmd
}

// refuseWhenLoggedIn keeps signed-in users off the login and register forms.
func (a *App) refuseWhenLoggedIn() error {
	sess, err := a.Sessions.Current()
	if err != nil {
		return err
	}
	if sess != nil {
		return usagef("run `kanban auth logout` first", "already logged in")
	}
	return nil
}

func promptIfEmpty(w io.Writer, in *bufio.Reader, label, v string) string {
	if v != "" {
		return v
	}
	fmt.Fprintf(w, "%s: ", label)
	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
