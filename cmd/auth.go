package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) credentials(cmd *cli.Command) (models.Credentials, error) {
	email, err := r.flagOrPrompt(cmd, "email", "Email: ")
	if err != nil {
		return models.Credentials{}, err
	}
	password, err := r.flagOrPrompt(cmd, "password", "Password: ")
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{Email: email, Password: password}, nil
}

func (r *Runner) saveSession(session *models.Session) error {
	if session == nil || session.Token == "" {
		return fmt.Errorf("%w: server returned no token", shared.ErrAuthFailed)
	}
	if r.tokens == nil {
		r.logger.Warn("no database configured, token will not be saved")
		return nil
	}
	if err := r.tokens.Set(session.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	r.library.ClearAll()
	return nil
}

// AuthLogin signs in with email and password and stores the session token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", creds.Email)
	session, err := r.client.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := r.saveSession(session); err != nil {
		return err
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Signed in as %s\n", session.User.Name)
}

// AuthRegister creates an account and signs in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}
	if creds.Name, err = r.flagOrPrompt(cmd, "name", "Name: "); err != nil {
		return err
	}

	session, err := r.client.Register(ctx, creds)
	if err != nil {
		return err
	}
	if err := r.saveSession(session); err != nil {
		return err
	}
	return r.writePlain("✓ Account created for %s\n", creds.Email)
}

// AuthForgot requests a password reset email.
func (r *Runner) AuthForgot(ctx context.Context, cmd *cli.Command) error {
	email, err := r.flagOrPrompt(cmd, "email", "Email: ")
	if err != nil {
		return err
	}
	if err := r.client.ForgotPassword(ctx, email); err != nil {
		return err
	}
	return r.writePlain("✓ Reset instructions sent to %s\n", email)
}

// AuthLogout ends the session on the server (best effort) and forgets the token locally.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	token := r.token()
	if token == "" {
		return r.writePlain("Not signed in.\n")
	}

	if err := r.api(token).Logout(ctx); err != nil {
		r.logger.Warn("server logout failed", "error", err)
	}
	if err := r.tokens.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	r.library.ClearAll()

	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	Authenticated bool         `json:"authenticated"`
	SavedAt       *time.Time   `json:"saved_at,omitempty"`
	User          *models.User `json:"user,omitempty"`
}

// AuthStatus reports whether a token is stored and which account it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	status := authStatus{}
	token := r.token()
	if token != "" {
		status.Authenticated = true
		if saved, err := r.tokens.SavedAt(); err == nil {
			status.SavedAt = &saved
		}

		user, err := r.api(token).User(ctx)
		switch {
		case err == nil:
			status.User = user
		case errors.Is(err, shared.ErrNotAuthenticated):
			status.Authenticated = false
		default:
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		return r.writePlain("✗ Not signed in\n")
	}
	r.writePlainHeader("Account")
	if status.User != nil {
		r.writePlain("Name:   %s\n", status.User.Name)
		r.writePlain("Email:  %s\n", status.User.Email)
		if status.User.Subscription != "" {
			r.writePlain("Plan:   %s\n", status.User.Subscription)
		}
	}
	if status.SavedAt != nil {
		r.writePlain("Since:  %s\n", status.SavedAt.Local().Format(time.DateTime))
	}
	return nil
}

// AuthDelete removes the account after explicit confirmation.
func (r *Runner) AuthDelete(ctx context.Context, cmd *cli.Command) error {
	token, err := r.requireToken()
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to confirm account deletion", shared.ErrMissingArgument)
	}

	if err := r.api(token).DeleteAccount(ctx); err != nil {
		return err
	}
	if err := r.tokens.Delete(); err != nil {
		r.logger.Warn("failed to delete token", "error", err)
	}
	r.library.ClearAll()
	return r.writePlain("✓ Account deleted\n")
}
