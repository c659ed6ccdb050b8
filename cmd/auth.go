package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/session"
)

type authStatus struct {
	LoggedIn        bool   `json:"logged_in"`
	Username        string `json:"username,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	HasAccessToken  bool   `json:"has_access_token"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	BaseURL         string `json:"base_url"`
}

// AuthStatus reports what the stored session holds without calling the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	acc, err := r.accessor()
	if err != nil {
		return err
	}

	status := authStatus{
		LoggedIn:        acc.IsLoggedIn(),
		Username:        acc.Username(),
		SessionID:       mask(acc.SessionID()),
		HasAccessToken:  acc.Cookie(session.CookieAccessToken) != "",
		HasRefreshToken: acc.Cookie(session.CookieRefreshToken) != "",
		BaseURL:         r.config.API.BaseURL,
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Session")
	if status.LoggedIn {
		r.writePlain("✓ Logged in as %s\n", status.Username)
	} else {
		r.writePlain("✗ Not logged in\n")
	}
	r.writePlain("Backend: %s\n", status.BaseURL)
	if status.SessionID != "" {
		r.writePlain("Session: %s\n", status.SessionID)
	}
	r.writePlain("Access token: %s\n", yesNo(status.HasAccessToken))
	return r.writePlain("Refresh token: %s\n", yesNo(status.HasRefreshToken))
}

// AuthLogout erases the stored session identifier.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	acc, err := r.accessor()
	if err != nil {
		return err
	}
	if err := acc.Logout(); err != nil {
		return err
	}
	r.logger.Info("session cleared")
	return r.writePlain("✓ Logged out\n")
}

// mask keeps the first four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[:4] + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
