package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/session"
	"github.com/desertthunder/ssx/internal/shared"
	tu "github.com/desertthunder/ssx/internal/testing"
)

type harness struct {
	runner  *Runner
	backend *tu.FakeBackend
	output  *bytes.Buffer
}

func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	backend := tu.NewFakeBackend(t)
	config := shared.DefaultConfig()
	config.API.BaseURL = backend.URL
	config.API.RequestsPerSecond = 0
	config.Session.Username = "serj"
	config.Refresh.TracksDelayMS = 1
	config.Refresh.PlaylistsDelayMS = 1

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		DB:         db,
		HTTPClient: backend.Client(),
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})

	if loggedIn {
		acc, err := runner.accessor()
		if err != nil {
			t.Fatalf("accessor() error = %v", err)
		}
		acc.SetCookie(session.CookieSessionID, "sid-12345", 1)
		acc.SetCookie(session.CookieAccessToken, "token", 1)
	}

	return &harness{runner: runner, backend: backend, output: output}
}

// run executes args as a command line without the config-resolving Before hook.
func (h *harness) run(ctx context.Context, args ...string) error {
	app := &cli.Command{
		Name: "ssx",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.toml"},
			&cli.BoolFlag{Name: "verbose"},
		},
		Commands: h.runner.register(),
	}
	return app.Run(ctx, append([]string{"ssx"}, args...))
}

func seed(b *tu.FakeBackend) {
	b.SetTracks(
		models.TracksSnapshot{Timestamp: 1000, Tracks: []models.AddedTrack{
			{AddedAt: models.NewTimestamp(10), Track: models.Track{Name: "Song A", Artists: []models.Artist{{Name: "Artist A"}}}},
			{AddedAt: models.NewTimestamp(20), Track: models.Track{Name: "Song B", Artists: []models.Artist{{Name: "Artist B"}}}},
		}},
	)
	b.SetPlaylists(
		models.PlaylistsSnapshot{Timestamp: 2000, Playlists: []models.Playlist{{Name: "Road Trip", Tracks: []models.Track{{Name: "Song C"}}}}},
	)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("injected database is not closed", func(t *testing.T) {
			db, err := shared.NewDatabase(":memory:")
			if err != nil {
				t.Fatal(err)
			}
			defer db.Close()

			runner := NewRunner(RunnerOpts{DB: db})
			runner.Close()
			if err := db.Ping(); err != nil {
				t.Errorf("expected injected database to stay open, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writeRendered", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeRendered([]byte("no newline"), nil); err != nil {
			t.Fatal(err)
		}
		if err := runner.writeRendered(nil, shared.ErrInvalidArgument); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected render error passed through, got %v", err)
		}
		if output.String() != "no newline\n" {
			t.Errorf("expected trailing newline added, got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "tracks", "playlists", "refresh", "debug", "spotify", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command", want)
			}
		}
	})
}

func TestSnapshotCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("tracks list", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "tracks", "list"); err != nil {
			t.Fatalf("tracks list error = %v", err)
		}
		if out := h.output.String(); !strings.Contains(out, "1000  1970-01-01 00:16:40  2 tracks") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("tracks list --json", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "tracks", "list", "--json"); err != nil {
			t.Fatalf("tracks list error = %v", err)
		}
		var snaps []models.TracksSnapshot
		if err := json.Unmarshal(h.output.Bytes(), &snaps); err != nil || len(snaps) != 1 {
			t.Errorf("expected one snapshot as JSON, got %q (%v)", h.output.String(), err)
		}
	})

	t.Run("tracks list --full fills the cache", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "tracks", "list", "--full"); err != nil {
			t.Fatal(err)
		}
		if err := h.run(ctx, "tracks", "show", "1000"); err != nil {
			t.Fatal(err)
		}
		if h.backend.Hits("GET /api/ssfavtracks/1000") != 0 {
			t.Error("expected show to be served from the cache")
		}
	})

	t.Run("tracks show", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "tracks", "show", "1000", "--format", "markdown"); err != nil {
			t.Fatalf("tracks show error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "# Favorite tracks at 1970-01-01 00:16:40") || !strings.Contains(out, "Song B") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("tracks show rejects bad timestamps", func(t *testing.T) {
		h := newHarness(t, true)
		for _, args := range [][]string{{"tracks", "show", "abc"}, {"tracks", "show", "-5"}} {
			if err := h.run(ctx, args...); !errors.Is(err, shared.ErrInvalidTimestamp) {
				t.Errorf("%v: expected ErrInvalidTimestamp, got %v", args, err)
			}
		}
		if err := h.run(ctx, "tracks", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		h := newHarness(t, true)
		if err := h.run(ctx, "tracks", "list", "--format", "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("tracks diff", func(t *testing.T) {
		h := newHarness(t, true)
		h.backend.SetDiff(1000, `{"newTracks":null,"removedTracks":[{"added_at":null,"track":{"name":"Gone","artists":[{"name":"Someone"}]}}]}`)

		if err := h.run(ctx, "tracks", "diff", "1000"); err != nil {
			t.Fatalf("tracks diff error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "New tracks: 0") || !strings.Contains(out, "- Someone - Gone") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("tracks delete", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "tracks", "delete", "1000"); err != nil {
			t.Fatalf("tracks delete error = %v", err)
		}
		if h.backend.Hits("DELETE /api/ssfavtracks/1000") != 1 {
			t.Error("expected one delete request")
		}
		if !strings.Contains(h.output.String(), "✓ Deleted favtracks snapshot") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("save", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run(ctx, "tracks", "save"); err != nil {
			t.Fatalf("tracks save error = %v", err)
		}
		if err := h.run(ctx, "playlists", "save"); err != nil {
			t.Fatalf("playlists save error = %v", err)
		}
		if h.backend.Hits("POST /save_current_tracks") != 1 || h.backend.Hits("POST /save_current_playlists") != 1 {
			t.Error("expected one request per save")
		}
	})

	t.Run("save retries after token refresh", func(t *testing.T) {
		h := newHarness(t, true)
		h.backend.QueueSaveTracks(tu.ExpiredTokenBody)

		if err := h.run(ctx, "tracks", "save"); err != nil {
			t.Fatalf("tracks save error = %v", err)
		}
		if h.backend.Hits("POST /save_current_tracks") != 2 || h.backend.Hits("POST /refresh_token") != 1 {
			t.Errorf("expected refresh then one replay, hits=%d", h.backend.TotalHits())
		}
	})

	t.Run("playlists list and show", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "playlists", "list", "--format", "csv"); err != nil {
			t.Fatal(err)
		}
		if err := h.run(ctx, "playlists", "show", "2000"); err != nil {
			t.Fatal(err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Timestamp,Taken At,Playlists") || !strings.Contains(out, "Road Trip (1 tracks)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("playlists delete", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "playlists", "delete", "2000"); err != nil {
			t.Fatal(err)
		}
		if h.backend.Hits("DELETE /api/ssplaylists/2000") != 1 {
			t.Error("expected one delete request")
		}
	})

	t.Run("export", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)
		dir := t.TempDir()

		if err := h.run(ctx, "tracks", "export", "--output", dir, "--format", "csv", "--rate", "1000"); err != nil {
			t.Fatalf("tracks export error = %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "favtracks_1000.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(h.output.String(), "✓ Exported 1/1 favtracks snapshots") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("export rejects bad timestamps", func(t *testing.T) {
		h := newHarness(t, true)
		if err := h.run(ctx, "playlists", "export", "-t", "x"); !errors.Is(err, shared.ErrInvalidTimestamp) {
			t.Errorf("expected ErrInvalidTimestamp, got %v", err)
		}
	})

	t.Run("refresh", func(t *testing.T) {
		h := newHarness(t, true)
		seed(h.backend)

		if err := h.run(ctx, "refresh"); err != nil {
			t.Fatalf("refresh error = %v", err)
		}
		if !strings.Contains(h.output.String(), "✓ 1 favorite tracks snapshots, 1 playlists snapshots") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("debug", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.run(ctx, "debug"); err != nil {
			t.Fatalf("debug error = %v", err)
		}
		if !strings.Contains(h.output.String(), "debug ok") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("not logged in", func(t *testing.T) {
		h := newHarness(t, false)
		for _, args := range [][]string{{"tracks", "list"}, {"tracks", "save"}, {"playlists", "show", "2000"}} {
			if err := h.run(ctx, args...); !errors.Is(err, shared.ErrNotLoggedIn) {
				t.Errorf("%v: expected ErrNotLoggedIn, got %v", args, err)
			}
		}
		if h.backend.TotalHits() != 0 {
			t.Errorf("expected no requests, got %d", h.backend.TotalHits())
		}
	})
}

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()
	curl := `curl 'http://localhost/api/ssfavtracks' -H 'Cookie: spotilizer-user-id=abcdef123; accessToken=tok; refreshToken=ref'`

	t.Run("setup session from curl", func(t *testing.T) {
		h := newHarness(t, false)
		h.runner.config.Session.Username = ""

		if err := h.run(ctx, "setup", "session", "--curl", curl, "--username", "serj"); err != nil {
			t.Fatalf("setup session error = %v", err)
		}
		acc, _ := h.runner.accessor()
		if !acc.IsLoggedIn() || acc.Username() != "serj" || acc.Cookie(session.CookieRefreshToken) != "ref" {
			t.Errorf("expected imported session, got sid=%q user=%q", acc.SessionID(), acc.Username())
		}
		if !strings.Contains(h.output.String(), "✓ Imported 3 cookies") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("setup session from file", func(t *testing.T) {
		h := newHarness(t, false)
		path := filepath.Join(t.TempDir(), "login.sh")
		if err := os.WriteFile(path, []byte(curl), 0644); err != nil {
			t.Fatal(err)
		}

		if err := h.run(ctx, "setup", "session", "--curl-file", path); err != nil {
			t.Fatalf("setup session error = %v", err)
		}
		acc, _ := h.runner.accessor()
		if !acc.IsLoggedIn() {
			t.Error("expected session imported from file")
		}
	})

	t.Run("setup session argument errors", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.run(ctx, "setup", "session"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := h.run(ctx, "setup", "session", "--curl", curl, "--curl-file", "x.sh"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := h.run(ctx, "setup", "session", "--curl", "curl 'http://localhost/' -H 'Cookie: other=1'"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput without a session cookie, got %v", err)
		}
	})

	t.Run("setup config", func(t *testing.T) {
		h := newHarness(t, false)
		h.runner.configPath = filepath.Join(t.TempDir(), "config.toml")

		if err := h.run(ctx, "setup", "config"); err != nil {
			t.Fatalf("setup config error = %v", err)
		}
		tu.AssertFileExists(t, h.runner.configPath)
		if err := h.run(ctx, "setup", "config"); err == nil {
			t.Error("expected error when the config already exists")
		}
	})

	t.Run("setup database", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.run(ctx, "setup", "database"); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		if !strings.Contains(h.output.String(), "✓ Database ready") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("auth status", func(t *testing.T) {
		h := newHarness(t, true)
		if err := h.run(ctx, "auth", "status"); err != nil {
			t.Fatal(err)
		}
		out := h.output.String()
		if !strings.Contains(out, "✓ Logged in as serj") || !strings.Contains(out, "Session: sid-…") || strings.Contains(out, "sid-12345") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("auth status --json", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.run(ctx, "auth", "status", "--json"); err != nil {
			t.Fatal(err)
		}
		var status authStatus
		if err := json.Unmarshal(h.output.Bytes(), &status); err != nil {
			t.Fatal(err)
		}
		if status.LoggedIn || status.BaseURL != h.backend.URL {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("auth logout", func(t *testing.T) {
		h := newHarness(t, true)
		if err := h.run(ctx, "auth", "logout"); err != nil {
			t.Fatal(err)
		}
		acc, _ := h.runner.accessor()
		if acc.IsLoggedIn() {
			t.Error("expected session cleared")
		}
	})
}

func TestSpotifyCommands(t *testing.T) {
	ctx := context.Background()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/me/tracks" {
			w.Write([]byte(`{"items":[{"added_at":"2024-01-02T03:04:05Z","track":{"name":"Live Song","artists":[{"name":"Band"}]}}],"total":1,"limit":50,"offset":0}`))
			return
		}
		w.Write([]byte(`{"id":"u1","display_name":"Serj","country":"RS","followers":{"total":3}}`))
	}))
	defer api.Close()

	t.Run("me", func(t *testing.T) {
		h := newHarness(t, true)
		h.runner.config.Spotify.APIURL = api.URL

		if err := h.run(ctx, "spotify", "me"); err != nil {
			t.Fatalf("spotify me error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Name: Serj") || !strings.Contains(out, "Followers: 3") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("get", func(t *testing.T) {
		h := newHarness(t, true)
		h.runner.config.Spotify.APIURL = api.URL

		if err := h.run(ctx, "spotify", "get", "/me"); err != nil {
			t.Fatalf("spotify get error = %v", err)
		}
		if !strings.Contains(h.output.String(), `"display_name": "Serj"`) {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("saved", func(t *testing.T) {
		h := newHarness(t, true)
		h.runner.config.Spotify.APIURL = api.URL

		if err := h.run(ctx, "spotify", "saved", "--limit", "10"); err != nil {
			t.Fatalf("spotify saved error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Tracks: 1") || !strings.Contains(out, "1. Band - Live Song") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("requires session", func(t *testing.T) {
		h := newHarness(t, false)
		if err := h.run(ctx, "spotify", "me"); !errors.Is(err, shared.ErrNotLoggedIn) {
			t.Errorf("expected ErrNotLoggedIn, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	h := newHarness(t, true)
	h.runner.config.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.run(ctx, "serve", "--host", "127.0.0.1"); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("expected clean shutdown, got %v", err)
	}
	if !strings.Contains(h.output.String(), "Serving 0 favorite tracks") {
		t.Errorf("unexpected output %q", h.output.String())
	}
}
