// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown, csv or json",
			Value:   "text",
		},
	}
}

func timestampArgument() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{Name: "timestamp", UsageText: "snapshot timestamp (unix seconds)"},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "File format: json, csv, markdown or text",
			Value:   "json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory (default: ssx_export_{epoch})",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent workers (max 10)",
			Value: 4,
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Snapshot fetches per second",
			Value: 5,
		},
		&cli.StringSliceFlag{
			Name:    "timestamp",
			Aliases: []string{"t"},
			Usage:   "Export only these snapshots (repeatable)",
		},
	}
}

// setupCommand handles setup operations for the database, config file and session.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:  "session",
				Usage: "Import the backend session from a browser request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Username shown by the backend after login",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the backend login page in a browser first",
					},
				},
				Action: r.SetupSession,
			},
		},
	}
}

// authCommand handles the stored session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend session",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show whether a session is stored",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the session identifier",
				Action: r.AuthLogout,
			},
		},
	}
}

// tracksCommand handles favorite tracks snapshots
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"favtracks"},
		Usage:   "Favorite tracks snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorite tracks snapshots",
				Flags: append(outputFlags(), &cli.BoolFlag{
					Name:  "full",
					Usage: "Download every snapshot with its tracks",
				}),
				Action: r.TracksList,
			},
			{
				Name:      "show",
				Usage:     "Show the tracks of one snapshot",
				Arguments: timestampArgument(),
				Flags:     outputFlags(),
				Action:    r.TracksShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a favorite tracks snapshot",
				Arguments: timestampArgument(),
				Action:    r.TracksDelete,
			},
			{
				Name:      "diff",
				Usage:     "Compare a snapshot with the current favorites",
				Arguments: timestampArgument(),
				Flags:     outputFlags(),
				Action:    r.TracksDiff,
			},
			{
				Name:   "save",
				Usage:  "Save the current favorites as a new snapshot",
				Action: r.TracksSave,
			},
			{
				Name:   "export",
				Usage:  "Write snapshots to files",
				Flags:  exportFlags(),
				Action: r.TracksExport,
			},
		},
	}
}

// playlistsCommand handles playlists snapshots
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlists snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists snapshots",
				Flags: append(outputFlags(), &cli.BoolFlag{
					Name:  "full",
					Usage: "Download every snapshot with its tracks",
				}),
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Show the playlists of one snapshot",
				Arguments: timestampArgument(),
				Flags:     outputFlags(),
				Action:    r.PlaylistsShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlists snapshot",
				Arguments: timestampArgument(),
				Action:    r.PlaylistsDelete,
			},
			{
				Name:   "save",
				Usage:  "Save the current playlists as a new snapshot",
				Action: r.PlaylistsSave,
			},
			{
				Name:   "export",
				Usage:  "Write snapshots to files",
				Flags:  exportFlags(),
				Action: r.PlaylistsExport,
			},
		},
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Download both snapshot lists",
		Action: r.Refresh,
	}
}

func debugCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "debug",
		Usage:  "Call the backend debug endpoint",
		Action: r.Debug,
	}
}

// spotifyCommand handles read-only Spotify Web API calls with the session token
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify Web API calls with the session token",
		Commands: []*cli.Command{
			{
				Name:  "me",
				Usage: "Show the current user's profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
				},
				Action: r.SpotifyMe,
			},
			{
				Name:  "get",
				Usage: "GET an API path or URL and print the response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SpotifyGet,
			},
			{
				Name:  "saved",
				Usage: "Show a page of the live saved tracks library",
				Flags: append(outputFlags(),
					&cli.IntFlag{Name: "limit", Usage: "Tracks per page (max 50)", Value: 50},
					&cli.IntFlag{Name: "offset", Usage: "Index of the first track"},
				),
				Action: r.SpotifySaved,
			},
		},
	}
}

// serveCommand starts the offline mirror
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve cached snapshots over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive snapshot browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI",
		Action:  r.TUI,
	}
}
