package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/repositories"
	"github.com/desertthunder/ssx/internal/session"
	"github.com/desertthunder/ssx/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if n, err := repositories.NewCookieRepository(db).PurgeExpired(); err != nil {
		r.logger.Warn("failed to purge expired cookies", "error", err)
	} else if n > 0 {
		r.logger.Info("purged expired cookies", "count", n)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupConfig writes the embedded default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	return r.writePlain("Set session.username, then run 'ssx setup session --open'\n")
}

// SetupSession imports the backend session cookies from a browser "Copy as cURL" command.
//
// With --open the backend login page is opened first; the command still needs --curl or
// --curl-file once the login is done.
func (r *Runner) SetupSession(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if cmd.Bool("open") {
		loginURL := strings.TrimRight(r.config.API.BaseURL, "/") + "/login"
		if err := shared.OpenBrowser(loginURL); err != nil {
			return err
		}
		r.writePlain("Opened %s\n", loginURL)
		if curlCmd == "" && curlFile == "" {
			return r.writePlain("After logging in, copy any backend request as cURL and run 'ssx setup session --curl-file <file>'\n")
		}
	}

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	data := []byte(curlCmd)
	if curlFile != "" {
		var err error
		if data, err = os.ReadFile(curlFile); err != nil {
			return fmt.Errorf("failed to read curl file: %w", err)
		}
	}

	acc, err := r.accessor()
	if err != nil {
		return err
	}

	count, err := acc.ImportCurl(data)
	if err != nil {
		return fmt.Errorf("failed to import session: %w", err)
	}

	if username := cmd.String("username"); username != "" {
		if err := acc.SetCookie(session.CookieUsername, username, r.config.Session.CookieDays); err != nil {
			return err
		}
	}

	r.writePlain("✓ Imported %d cookies\n", count)
	if acc.Username() == "" {
		r.writePlain("No username yet: pass --username or set session.username in %s\n", r.configPath)
	}
	return nil
}
