package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ssx/internal/cache"
	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/repositories"
	"github.com/desertthunder/ssx/internal/retry"
	"github.com/desertthunder/ssx/internal/services"
	"github.com/desertthunder/ssx/internal/session"
	"github.com/desertthunder/ssx/internal/shared"
	tu "github.com/desertthunder/ssx/internal/testing"
)

type fixture struct {
	backend *tu.FakeBackend
	session *session.Accessor
	notes   *tu.RecordingNotifier
	storage *repositories.LocalStorageRepository
	sync    *SnapshotSync
}

func newFixture(t *testing.T, loggedIn bool, opts ...Option) *fixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	logger := shared.NewLogger(io.Discard)
	backend := tu.NewFakeBackend(t)
	acc := session.NewAccessor(repositories.NewCookieRepository(db), logger,
		session.WithUsername("serj"), session.WithBaseURL(backend.URL))
	if loggedIn {
		if err := acc.SetCookie(session.CookieSessionID, "sid-1", 1); err != nil {
			t.Fatalf("SetCookie() error = %v", err)
		}
		if err := acc.SetCookie(session.CookieAccessToken, "old-token", 1); err != nil {
			t.Fatalf("SetCookie() error = %v", err)
		}
	}

	client := services.NewClient(backend.URL, &http.Client{Jar: acc}, services.WithTokenSource(acc), services.WithLogger(logger))
	storage := repositories.NewLocalStorageRepository(db)
	notes := &tu.RecordingNotifier{}

	base := []Option{WithMirror(cache.NewMirror(storage)), WithNotifier(notes), WithLogger(logger)}
	return &fixture{
		backend: backend,
		session: acc,
		notes:   notes,
		storage: storage,
		sync:    NewSnapshotSync(client, acc, append(base, opts...)...),
	}
}

func addedTrack(name string, addedAt int64) models.AddedTrack {
	return models.AddedTrack{AddedAt: models.NewTimestamp(addedAt), Track: models.Track{Name: name, Artists: []models.Artist{{Name: name + " artist"}}}}
}

func trackNames(tracks []models.AddedTrack) []string {
	names := make([]string, 0, len(tracks))
	for _, t := range tracks {
		names = append(names, t.Track.Name)
	}
	return names
}

func equalNames(got []models.AddedTrack, want ...string) bool {
	names := trackNames(got)
	if len(names) != len(want) {
		return false
	}
	for i := range names {
		if names[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSessionGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	ops := map[string]func() error{
		"DownloadFavTracksSummaries": func() error { return f.sync.DownloadFavTracksSummaries(ctx) },
		"DownloadPlaylistSummaries":  func() error { return f.sync.DownloadPlaylistSummaries(ctx) },
		"FavTracksSnapshot":          func() error { _, err := f.sync.FavTracksSnapshot(ctx, 1000); return err },
		"PlaylistsSnapshot":          func() error { _, err := f.sync.PlaylistsSnapshot(ctx, 1000); return err },
		"DeleteSnapshot":             func() error { return f.sync.DeleteSnapshot(ctx, 1000, models.KindFavTracks) },
		"FetchFavTracksDiff":         func() error { _, err := f.sync.FetchFavTracksDiff(ctx, 1000); return err },
		"SaveCurrentFavTracks":       func() error { return f.sync.SaveCurrentFavTracks(ctx) },
		"SaveCurrentPlaylists":       func() error { return f.sync.SaveCurrentPlaylists(ctx) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			before := f.notes.Count(models.NotifyError)
			if err := op(); !errors.Is(err, shared.ErrNotLoggedIn) {
				t.Errorf("expected ErrNotLoggedIn, got %v", err)
			}
			if f.notes.Count(models.NotifyError) != before+1 {
				t.Error("expected an error notification")
			}
		})
	}

	if f.backend.TotalHits() != 0 {
		t.Errorf("expected no network calls without a session, got %d", f.backend.TotalHits())
	}
}

func TestDownloads(t *testing.T) {
	ctx := context.Background()

	t.Run("Full Download Persists And Indexes", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetTracks(models.TracksSnapshot{Timestamp: 1000, Tracks: []models.AddedTrack{addedTrack("t1", 900), addedTrack("t2", 950)}})

		if err := f.sync.DownloadFullFavTracks(ctx); err != nil {
			t.Fatalf("DownloadFullFavTracks() error = %v", err)
		}

		got, ok := f.sync.CachedFavTracks(1000)
		if !ok || !equalNames(got, "t1", "t2") {
			t.Errorf("Lookup(1000) = %v, %v", trackNames(got), ok)
		}

		persisted, err := cache.NewMirror(f.storage).LoadTracks()
		if err != nil {
			t.Fatalf("LoadTracks() error = %v", err)
		}
		if len(persisted) != 1 || persisted[0].Timestamp != 1000 || persisted[0].TracksCount != 2 || !equalNames(persisted[0].Tracks, "t1", "t2") {
			t.Errorf("unexpected persisted snapshots %+v", persisted)
		}
		if f.notes.Count(models.NotifyUpdated) != 1 || f.notes.Last().Kind != models.KindFavTracks {
			t.Errorf("expected one update notification, got %+v", f.notes.All())
		}
	})

	t.Run("Summaries Replace List", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetPlaylists(
			models.PlaylistsSnapshot{Timestamp: 1000, Playlists: []models.Playlist{{Name: "a", Tracks: []models.Track{{Name: "x"}}}}},
			models.PlaylistsSnapshot{Timestamp: 2000},
		)

		if err := f.sync.DownloadPlaylistSummaries(ctx); err != nil {
			t.Fatalf("DownloadPlaylistSummaries() error = %v", err)
		}
		if got := f.sync.PlaylistsSnapshots(); len(got) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(got))
		}

		f.backend.SetPlaylists(models.PlaylistsSnapshot{Timestamp: 3000})
		_ = f.sync.DownloadPlaylistSummaries(ctx)

		got := f.sync.PlaylistsSnapshots()
		if len(got) != 1 || got[0].Timestamp != 3000 {
			t.Errorf("expected list to be replaced, got %+v", got)
		}
		if _, ok := f.sync.CachedPlaylists(1000); ok {
			t.Error("expected index to be rebuilt from scratch")
		}
	})

	t.Run("Transport Error Is Logged Only", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.Fail("GET /api/ssfavtracks", http.StatusBadGateway)

		if err := f.sync.DownloadFavTracksSummaries(ctx); err != nil {
			t.Errorf("expected transport error to be swallowed, got %v", err)
		}
		if len(f.sync.FavTracksSnapshots()) != 0 || len(f.notes.All()) != 0 {
			t.Error("expected no state change and no notification")
		}
	})

	t.Run("Server Error Is Surfaced", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.Error("GET /api/ssplaylists", http.StatusInternalServerError, "db down")

		err := f.sync.DownloadPlaylistSummaries(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		last := f.notes.Last()
		if last.Type != models.NotifyError || last.Message != "db down" {
			t.Errorf("unexpected notification %+v", last)
		}
	})
}

func TestSnapshotDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("Fresh Cache Skips Network", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetTracks(models.TracksSnapshot{Timestamp: 1000, Tracks: []models.AddedTrack{addedTrack("t1", 1)}})
		_ = f.sync.DownloadFullFavTracks(ctx)

		got, err := f.sync.FavTracksSnapshot(ctx, 1000)
		if err != nil || !equalNames(got, "t1") {
			t.Fatalf("FavTracksSnapshot() = %v, %v", trackNames(got), err)
		}
		if f.backend.Hits("GET /api/ssfavtracks/1000") != 0 {
			t.Error("expected no detail request for a fresh cached payload")
		}
	})

	t.Run("Miss Fetches Once Then Caches", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetPlaylists(models.PlaylistsSnapshot{Timestamp: 1000, Playlists: []models.Playlist{{Name: "a", Tracks: []models.Track{{Name: "x"}}}}})
		_ = f.sync.DownloadPlaylistSummaries(ctx)

		for range 2 {
			got, err := f.sync.PlaylistsSnapshot(ctx, 1000)
			if err != nil || len(got) != 1 || len(got[0].Tracks) != 1 {
				t.Fatalf("PlaylistsSnapshot() = %+v, %v", got, err)
			}
		}
		if f.backend.Hits("GET /api/ssplaylists/1000") != 1 {
			t.Errorf("expected one detail request, got %d", f.backend.Hits("GET /api/ssplaylists/1000"))
		}
	})

	t.Run("Track-less Playlists Are Refetched", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetPlaylists(models.PlaylistsSnapshot{Timestamp: 1000, Playlists: []models.Playlist{{Name: "empty"}}})

		for range 2 {
			if _, err := f.sync.PlaylistsSnapshot(ctx, 1000); err != nil {
				t.Fatalf("PlaylistsSnapshot() error = %v", err)
			}
		}
		if f.backend.Hits("GET /api/ssplaylists/1000") != 2 {
			t.Error("expected empty playlists payload to count as a miss")
		}
	})

	t.Run("Stale Value On Error", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetTracks(models.TracksSnapshot{Timestamp: 1000, Tracks: []models.AddedTrack{addedTrack("t1", 1)}})
		_ = f.sync.DownloadFavTracksSummaries(ctx)
		f.backend.Fail("GET /api/ssfavtracks/1000", http.StatusServiceUnavailable)

		got, err := f.sync.FavTracksSnapshot(ctx, 1000)
		if !services.IsTransportError(err) {
			t.Errorf("expected transport error, got %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected the cached summary payload, got %v", got)
		}
	})

	t.Run("Server Error Notifies", func(t *testing.T) {
		f := newFixture(t, true)

		got, err := f.sync.FavTracksSnapshot(ctx, 42)
		if !errors.Is(err, shared.ErrAPIRequest) || got != nil {
			t.Errorf("FavTracksSnapshot() = %v, %v", got, err)
		}
		if f.notes.Last().Type != models.NotifyError {
			t.Error("expected error notification")
		}
	})
}

func TestDeleteSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Redownloads Summaries", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetTracks(models.TracksSnapshot{Timestamp: 1000}, models.TracksSnapshot{Timestamp: 2000})
		_ = f.sync.DownloadFavTracksSummaries(ctx)

		if err := f.sync.DeleteSnapshot(ctx, 1000, models.KindFavTracks); err != nil {
			t.Fatalf("DeleteSnapshot() error = %v", err)
		}

		got := f.sync.FavTracksSnapshots()
		if len(got) != 1 || got[0].Timestamp != 2000 {
			t.Errorf("expected list without 1000, got %+v", got)
		}
		if f.backend.Hits("GET /api/ssfavtracks") != 2 {
			t.Error("expected summaries to be downloaded again")
		}
		if last := f.notes.Last(); last.Type != models.NotifySuccess {
			t.Errorf("expected success notification, got %+v", last)
		}
		if f.notes.Count(models.NotifyUpdated) != 2 {
			t.Error("expected renderer to be told about the new list")
		}
	})

	t.Run("Playlists", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetPlaylists(models.PlaylistsSnapshot{Timestamp: 1000})

		if err := f.sync.DeleteSnapshot(ctx, 1000, models.KindPlaylists); err != nil {
			t.Fatalf("DeleteSnapshot() error = %v", err)
		}
		if len(f.sync.PlaylistsSnapshots()) != 0 {
			t.Error("expected empty playlists list")
		}
	})

	t.Run("Unknown Snapshot", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.sync.DeleteSnapshot(ctx, 7, models.KindFavTracks); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if f.backend.Hits("GET /api/ssfavtracks") != 0 {
			t.Error("expected no re-download after a failed delete")
		}
	})

	t.Run("Invalid Kind", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.sync.DeleteSnapshot(ctx, 1000, models.Kind("albums")); !errors.Is(err, shared.ErrInvalidKind) {
			t.Errorf("expected ErrInvalidKind, got %v", err)
		}
	})
}

func TestFetchFavTracksDiff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.backend.SetDiff(1000, `{"newTracks":null,"removedTracks":[{"added_at":"2024-01-01T00:00:00Z","track":{"name":"t3","artists":[]}}]}`)

	d, err := f.sync.FetchFavTracksDiff(ctx, 1000)
	if err != nil {
		t.Fatalf("FetchFavTracksDiff() error = %v", err)
	}
	if d.NewTracks == nil || len(d.NewTracks) != 0 {
		t.Errorf("expected empty new tracks, got %v", d.NewTracks)
	}
	if !equalNames(d.RemovedTracks, "t3") {
		t.Errorf("expected removed [t3], got %v", trackNames(d.RemovedTracks))
	}

	t.Run("Server Error", func(t *testing.T) {
		f.backend.Error("GET /api/ssfavtracks/diff/2000", http.StatusNotFound, "snapshot 2000 not found")
		if _, err := f.sync.FetchFavTracksDiff(ctx, 2000); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("Expiry Refreshes And Replays Once", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.QueueSaveTracks(tu.ExpiredTokenBody)

		if err := f.sync.SaveCurrentFavTracks(ctx); err != nil {
			t.Fatalf("SaveCurrentFavTracks() error = %v", err)
		}
		if got := f.backend.Hits("POST /save_current_tracks"); got != 2 {
			t.Errorf("expected original call plus one replay, got %d", got)
		}
		if got := f.backend.Hits("POST /refresh_token"); got != 1 {
			t.Errorf("expected one refresh, got %d", got)
		}
		if _, pending := f.sync.Coordinator().Pending(); pending {
			t.Error("expected retry slot to be empty")
		}

		auth := f.backend.Authorizations()
		if auth[len(auth)-1] != "Bearer refreshed-token" {
			t.Errorf("expected replay with refreshed token, got %q", auth[len(auth)-1])
		}
		if f.session.Cookie(session.CookieAccessToken) != "refreshed-token" {
			t.Error("expected session to hold refreshed token")
		}
		if f.notes.Last().Type != models.NotifySuccess {
			t.Errorf("expected success notification, got %+v", f.notes.Last())
		}
	})

	t.Run("Second Expiry Does Not Loop", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.QueueSaveTracks(tu.ExpiredTokenBody, tu.ExpiredTokenBody)

		err := f.sync.SaveCurrentFavTracks(ctx)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if f.backend.Hits("POST /save_current_tracks") != 2 || f.backend.Hits("POST /refresh_token") != 1 {
			t.Error("expected exactly one refresh and one replay")
		}
		if f.notes.Count(models.NotifyError) != 1 {
			t.Errorf("expected a single error notification, got %d", f.notes.Count(models.NotifyError))
		}
	})

	t.Run("Refresh Failure", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.QueueSavePlaylists(tu.ExpiredTokenBody)
		f.backend.SetRefresh(http.StatusInternalServerError, "oops")

		err := f.sync.SaveCurrentPlaylists(ctx)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if f.backend.Hits("POST /save_current_playlists") != 1 {
			t.Error("expected no replay after a failed refresh")
		}
		if _, pending := f.sync.Coordinator().Pending(); pending {
			t.Error("expected retry slot to be cleared")
		}
	})

	t.Run("Tracks Server Error Refreshes List", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.Error("POST /save_current_tracks", http.StatusInternalServerError, "spotify down")

		if err := f.sync.SaveCurrentFavTracks(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if f.backend.Hits("GET /api/ssfavtracks") != 1 {
			t.Error("expected tracks summaries to be downloaded after a save error")
		}
	})

	t.Run("Playlists Success Refreshes List", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetPlaylists(models.PlaylistsSnapshot{Timestamp: 1000})

		if err := f.sync.SaveCurrentPlaylists(ctx); err != nil {
			t.Fatalf("SaveCurrentPlaylists() error = %v", err)
		}
		if f.backend.Hits("GET /api/ssplaylists") != 1 || len(f.sync.PlaylistsSnapshots()) != 1 {
			t.Error("expected playlists summaries to be downloaded after a save")
		}
		if f.notes.Count(models.NotifySuccess) != 1 {
			t.Error("expected success notification")
		}
	})

	t.Run("Transport Error Is Surfaced", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.Fail("POST /save_current_playlists", http.StatusBadGateway)

		if err := f.sync.SaveCurrentPlaylists(ctx); !services.IsTransportError(err) {
			t.Errorf("expected transport error, got %v", err)
		}
		if f.notes.Last().Type != models.NotifyError {
			t.Error("expected error notification")
		}
	})
}

func TestLoadFromStorage(t *testing.T) {
	f := newFixture(t, false)
	mirror := cache.NewMirror(f.storage)
	if err := mirror.SaveTracks([]models.TracksSnapshot{{Timestamp: 1000, Tracks: []models.AddedTrack{addedTrack("t1", 1)}, TracksCount: 1}}); err != nil {
		t.Fatalf("SaveTracks() error = %v", err)
	}
	if err := mirror.SavePlaylists([]models.PlaylistsSnapshot{{Timestamp: 2000}}); err != nil {
		t.Fatalf("SavePlaylists() error = %v", err)
	}

	if err := f.sync.LoadFromStorage(); err != nil {
		t.Fatalf("LoadFromStorage() error = %v", err)
	}
	if len(f.sync.FavTracksSnapshots()) != 1 || len(f.sync.PlaylistsSnapshots()) != 1 {
		t.Error("expected both lists to be loaded")
	}
	if got, ok := f.sync.CachedFavTracks(1000); !ok || !equalNames(got, "t1") {
		t.Errorf("expected index rebuilt from storage, got %v", trackNames(got))
	}
	if f.notes.Count(models.NotifyUpdated) != 2 {
		t.Error("expected one update per kind")
	}
	if f.backend.TotalHits() != 0 {
		t.Error("loading from storage must not touch the network")
	}

	t.Run("Without Mirror", func(t *testing.T) {
		s := NewSnapshotSync(nil, nil, WithLogger(shared.NewLogger(io.Discard)))
		if err := s.LoadFromStorage(); err != nil {
			t.Errorf("expected nil without a mirror, got %v", err)
		}
	})
}

func TestRefreshData(t *testing.T) {
	delays := WithRefreshDelays(time.Millisecond, 2*time.Millisecond)

	t.Run("Downloads Both Kinds", func(t *testing.T) {
		f := newFixture(t, true, delays)
		f.backend.SetTracks(models.TracksSnapshot{Timestamp: 1000})
		f.backend.SetPlaylists(models.PlaylistsSnapshot{Timestamp: 2000})

		if err := f.sync.RefreshData(context.Background()); err != nil {
			t.Fatalf("RefreshData() error = %v", err)
		}
		if f.backend.Hits("GET /api/ssfavtracks") != 1 || f.backend.Hits("GET /api/ssplaylists") != 1 {
			t.Error("expected one download per kind")
		}
		if len(f.sync.FavTracksSnapshots()) != 1 || len(f.sync.PlaylistsSnapshots()) != 1 {
			t.Error("expected both lists to be filled")
		}
	})

	t.Run("Skipped When Logged Out", func(t *testing.T) {
		f := newFixture(t, false, delays)
		if err := f.sync.RefreshData(context.Background()); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
		if f.backend.TotalHits() != 0 || len(f.notes.All()) != 0 {
			t.Error("expected a silent no-op")
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		f := newFixture(t, true, WithRefreshDelays(time.Hour, time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := f.sync.RefreshData(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestDebugAndReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.backend.SetTracks(models.TracksSnapshot{Timestamp: 1000, Tracks: []models.AddedTrack{addedTrack("t1", 1)}})

	body, err := f.sync.Debug(ctx)
	if err != nil || body != "debug ok" {
		t.Errorf("Debug() = %q, %v", body, err)
	}

	_ = f.sync.DownloadFullFavTracks(ctx)
	f.sync.Coordinator().Register(ctx, retry.Operation{Name: "pending", Run: func(context.Context) error { return nil }})
	f.sync.Reset()

	if len(f.sync.FavTracksSnapshots()) != 0 {
		t.Error("expected empty list after reset")
	}
	if _, ok := f.sync.CachedFavTracks(1000); ok {
		t.Error("expected empty index after reset")
	}
	if _, pending := f.sync.Coordinator().Pending(); pending {
		t.Error("expected empty retry slot after reset")
	}
}

func TestNotifiers(t *testing.T) {
	t.Run("ChannelNotifier Never Blocks", func(t *testing.T) {
		ch := make(chan models.Notification, 1)
		n := NewChannelNotifier(ch)
		n.Notify(models.Notification{Type: models.NotifyInfo, Message: "first"})
		n.Notify(models.Notification{Type: models.NotifyInfo, Message: "dropped"})

		if got := <-ch; got.Message != "first" {
			t.Errorf("unexpected notification %+v", got)
		}
		if len(ch) != 0 {
			t.Error("expected second notification to be dropped")
		}

		NewChannelNotifier(nil).Notify(models.Notification{})
	})

	t.Run("LogNotifier", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewLogNotifier(shared.NewLogger(&buf))
		n.Notify(models.Notification{Type: models.NotifyError, Title: "Save", Message: "boom"})
		n.Notify(models.Notification{Type: models.NotifySuccess, Title: "Save", Message: "done"})

		out := buf.String()
		if !strings.Contains(out, "Save: boom") || !strings.Contains(out, "Save: done") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("NopNotifier", func(t *testing.T) {
		NopNotifier{}.Notify(models.Notification{})
	})
}
