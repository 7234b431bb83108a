package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/app"
	"bookshelf/internal/models"

	"github.com/spf13/cobra"
)

type registerOptions struct {
	*rootOptions
	Name     string
	Email    string
	Password string
}

func newRegisterCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &registerOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account in the user directory.

The password is prompted twice when --password is omitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (optional, will prompt if omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runRegister(cmd *cobra.Command, opts *registerOptions) error {
	password, confirm := opts.Password, opts.Password
	if password == "" {
		var err error
		if password, err = opts.password(cmd, "", "Password: "); err != nil {
			return err
		}
		if confirm, err = opts.password(cmd, "", "Confirm password: "); err != nil {
			return err
		}
	}

	sh, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer sh.Close()

	res := sh.app.Dispatch(app.Register{Name: opts.Name, Email: opts.Email, Password: password, ConfirmPassword: confirm})
	if res.Err != nil {
		return res.Err
	}
	return sh.out.value(models.SessionFor(*res.User), fmt.Sprintf("User %s registered with ID %s", res.User.Email, res.User.ID))
}

type loginOptions struct {
	*rootOptions
	Email    string
	Password string
}

func newLoginCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &loginOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a registered user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := opts.password(cmd, opts.Password, "Password: ")
			if err != nil {
				return err
			}
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			res := sh.app.Dispatch(app.Login{Email: opts.Email, Password: password})
			if res.Err != nil {
				return res.Err
			}
			return sh.out.value(res.Session, "Welcome, "+res.Session.Name)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (optional, will prompt if omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session after confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if !yes {
				ok, err := opts.confirm(cmd.OutOrStdout(), "Are you sure you want to log out?")
				if err != nil {
					return err
				}
				if !ok {
					return sh.out.value(map[string]bool{"loggedOut": false}, "Still logged in")
				}
			}
			return sh.app.Dispatch(app.Logout{}).Err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			sess, err := sh.sessions.CurrentSession()
			if err != nil {
				return err
			}
			if sess == nil {
				return errors.New("not logged in")
			}
			return sh.out.value(sess, fmt.Sprintf("%s <%s>", sess.Name, sess.Email))
		},
	}
}

// userRow is a user as listed by the users command, without the password.
type userRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUsersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			users, err := sh.sessions.Users()
			if err != nil {
				return err
			}
			rows := make([]userRow, 0, len(users))
			var sb strings.Builder
			fmt.Fprintf(&sb, "%d users", len(users))
			for _, u := range users {
				rows = append(rows, userRow{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
				fmt.Fprintf(&sb, "\n%s <%s> registered %s", u.Name, u.Email, u.CreatedAt.Format(time.DateOnly))
			}
			return sh.out.value(rows, sb.String())
		},
	}
}
