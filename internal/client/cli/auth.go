package cli

import (
	"bytes"
	"errors"
	"time"

	"github.com/dmitrijs2005/conduit/internal/client/session"
	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/spf13/cobra"
)

// Prompts, replaced in tests.
var (
	promptLine   = PromptLine
	promptSecret = PromptSecret
)

var errPasswordMismatch = errors.New("passwords do not match")

// promptIfEmpty returns value, or asks for it when it was not given as a flag.
func (a *App) promptIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return promptLine(a.reader, a.out, prompt)
}

// newPassword reads a password twice. The returned slice must be wiped.
func (a *App) newPassword(prompt string) ([]byte, error) {
	pw, err := promptSecret(a.reader, a.out, prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := promptSecret(a.reader, a.out, "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

func (r *root) newRegisterCmd() *cobra.Command {
	var email, username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.promptIfEmpty(email, "Enter email"); err != nil {
				return err
			}
			if username, err = a.promptIfEmpty(username, "Enter username"); err != nil {
				return err
			}
			password, err := a.newPassword("Enter password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			p, err := a.client.Register(ctx, email, username, password)
			if err != nil {
				return err
			}
			return a.printLine("Registered %s, now run 'conduit login'", p.Username)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&username, "username", "", "account username")
	return cmd
}

func (r *root) newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.promptIfEmpty(email, "Enter email"); err != nil {
				return err
			}
			password, err := promptSecret(a.reader, a.out, "Enter password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			resp, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}

			if err := a.sessions.Save(&session.Session{
				Email:     resp.Profile.Email,
				Username:  resp.Profile.Username,
				Token:     resp.Token,
				ExpiresAt: resp.ExpiresAt,
			}); err != nil {
				return err
			}
			return a.printLine("Logged in as %s until %s", resp.Profile.Username,
				resp.ExpiresAt.Local().Format(time.DateTime))
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (r *root) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, _ *cobra.Command, _ []string) error {
			if err := a.sessions.Clear(); err != nil {
				return err
			}
			return a.printLine("Logged out")
		}),
	}
}

func (r *root) newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			if _, err := a.authorize(); err != nil {
				return err
			}

			current, err := promptSecret(a.reader, a.out, "Current password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(current)

			next, err := a.newPassword("New password")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(next)

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			// A wrong current password is also Unauthenticated, so the
			// session is kept here.
			if err := a.client.ChangePassword(ctx, current, next); err != nil {
				return err
			}
			return a.printLine("Password changed")
		}),
	}
}
