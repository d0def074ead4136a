package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password", shared.ErrMissingArgument)
	}

	var session models.Session
	err := c.doRequest(ctx, request{method: http.MethodPost, path: "/api/login", body: creds}, &session)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if session.Token == "" {
		return nil, fmt.Errorf("%w: response carried no token", shared.ErrAuthFailed)
	}
	return &session, nil
}

// Register creates an account and returns its session.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if strings.TrimSpace(creds.Name) == "" || strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password", shared.ErrMissingArgument)
	}

	var session models.Session
	if err := c.doRequest(ctx, request{method: http.MethodPost, path: "/api/register", body: creds}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ForgotPassword asks the backend to send a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}
	body := map[string]string{"email": email}
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/forgot-password", body: body}, nil)
}

// User returns the account behind the current token.
func (c *Client) User(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/user", auth: true}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the current token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/logout", auth: true}, nil)
}

// DeleteAccount permanently removes the account.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.doRequest(ctx, request{method: http.MethodDelete, path: "/api/account", auth: true}, nil)
}
