package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with an email or username. Missing values are prompted for.
The token is kept in the OS keyring; TODOSYNC_TOKEN overrides it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" || password == "" {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Email or username").Value(&login),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				))
				if err := form.Run(); err != nil {
					return err
				}
			}

			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.session.Login(commandContext(cmd), login, password)
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Logged in as "+user.Username+".", user)
		},
	}

	cmd.Flags().StringVarP(&login, "user", "u", "", "email or username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	var email, username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || username == "" || password == "" {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Email").Value(&email),
					huh.NewInput().Title("Username").Value(&username),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				))
				if err := form.Run(); err != nil {
					return err
				}
			}

			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.session.Register(commandContext(cmd), email, username, password)
			if err != nil {
				return friendly(err)
			}
			return newPrinter(cmd, opts).message("Registered and logged in as "+user.Username+".", user)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.Logout(); err != nil {
				return err
			}
			return newPrinter(cmd, opts).message("Logged out.", map[string]bool{"loggedOut": true})
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.requireSession(); err != nil {
				return err
			}
			user := e.session.User()
			text := strings.TrimSpace(fmt.Sprintf("%s <%s>", user.Username, user.Email))
			if user.Username == "" {
				text = "logged in (token carries no profile)"
			}
			return newPrinter(cmd, opts).message(text, user)
		},
	}
}

// commandContext returns cmd's context, which cobra leaves nil when the
// command is run without ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
