package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ssx/internal/cache"
	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/retry"
	"github.com/desertthunder/ssx/internal/services"
	"github.com/desertthunder/ssx/internal/shared"
)

const (
	DefaultTracksDelay    = 400 * time.Millisecond
	DefaultPlaylistsDelay = 650 * time.Millisecond
)

// Session is the login state the controller checks before every network call.
//
// [*session.Accessor] implements it.
type Session interface {
	IsLoggedIn() bool
	UpdateTokens(access, refresh string) error
}

// SnapshotSync mediates between the snapshot backend and the local cache.
//
// It owns the snapshot lists and their timestamp indices, persists lists to the
// storage mirror, routes expired-token errors through the retry coordinator and
// reports every outcome to a [Notifier]. It is safe for concurrent use.
type SnapshotSync struct {
	api         services.SnapshotAPI
	session     Session
	mirror      *cache.Mirror
	coordinator *retry.Coordinator
	notifier    Notifier
	logger      *log.Logger

	tracksDelay    time.Duration
	playlistsDelay time.Duration

	mu           sync.RWMutex
	tracks       []models.TracksSnapshot
	playlists    []models.PlaylistsSnapshot
	tracksIdx    *cache.Index[[]models.AddedTrack]
	playlistsIdx *cache.Index[[]models.Playlist]
}

type Option func(*SnapshotSync)

// WithMirror persists snapshot lists through m.
func WithMirror(m *cache.Mirror) Option {
	return func(s *SnapshotSync) { s.mirror = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *SnapshotSync) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *SnapshotSync) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRefreshDelays sets the staggered start delays used by [SnapshotSync.RefreshData].
func WithRefreshDelays(tracks, playlists time.Duration) Option {
	return func(s *SnapshotSync) {
		s.tracksDelay = tracks
		s.playlistsDelay = playlists
	}
}

// NewSnapshotSync creates a controller with empty state.
func NewSnapshotSync(api services.SnapshotAPI, sess Session, opts ...Option) *SnapshotSync {
	s := &SnapshotSync{
		api:            api,
		session:        sess,
		notifier:       NopNotifier{},
		logger:         shared.NewLogger(os.Stderr),
		tracksDelay:    DefaultTracksDelay,
		playlistsDelay: DefaultPlaylistsDelay,
		tracksIdx:      cache.NewIndex[[]models.AddedTrack](),
		playlistsIdx:   cache.NewIndex[[]models.Playlist](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = shared.WithLogger(s.logger, "component", "sync")
	s.coordinator = retry.NewCoordinator(s.refreshTokens, s.logger)
	return s
}

// Coordinator exposes the retry coordinator, mostly for inspection.
func (s *SnapshotSync) Coordinator() *retry.Coordinator {
	return s.coordinator
}

// FavTracksSnapshots returns a copy of the current tracks snapshot list.
func (s *SnapshotSync) FavTracksSnapshots() []models.TracksSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// PlaylistsSnapshots returns a copy of the current playlists snapshot list.
func (s *SnapshotSync) PlaylistsSnapshots() []models.PlaylistsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.playlists)
}

// CachedFavTracks returns the indexed tracks for ts without touching the network.
func (s *SnapshotSync) CachedFavTracks(ts int64) ([]models.AddedTrack, bool) {
	return s.tracksIdx.Lookup(ts)
}

// CachedPlaylists returns the indexed playlists for ts without touching the network.
func (s *SnapshotSync) CachedPlaylists(ts int64) ([]models.Playlist, bool) {
	return s.playlistsIdx.Lookup(ts)
}

// Reset drops all snapshot state and any pending retry.
func (s *SnapshotSync) Reset() {
	s.mu.Lock()
	s.tracks = nil
	s.playlists = nil
	s.tracksIdx.Clear()
	s.playlistsIdx.Clear()
	s.mu.Unlock()
	s.coordinator.Clear()
}

func (s *SnapshotSync) setTracks(snaps []models.TracksSnapshot) {
	s.mu.Lock()
	s.tracks = snaps
	s.tracksIdx.RebuildIndex(cache.TracksEntries(snaps))
	s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.SaveTracks(snaps); err != nil {
			s.logger.Error("failed to persist tracks snapshots", "error", err)
		}
	}
	s.notifier.Notify(notifyUpdated(models.KindFavTracks))
}

func (s *SnapshotSync) setPlaylists(snaps []models.PlaylistsSnapshot) {
	s.mu.Lock()
	s.playlists = snaps
	s.playlistsIdx.RebuildIndex(cache.PlaylistsEntries(snaps))
	s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.SavePlaylists(snaps); err != nil {
			s.logger.Error("failed to persist playlists snapshots", "error", err)
		}
	}
	s.notifier.Notify(notifyUpdated(models.KindPlaylists))
}

// requireLogin short-circuits a network operation when there is no session.
func (s *SnapshotSync) requireLogin(kind models.Kind, action string) error {
	if s.session != nil && s.session.IsLoggedIn() {
		return nil
	}
	s.notifier.Notify(notifyError(kind, action, shared.ErrNotLoggedIn))
	return shared.ErrNotLoggedIn
}

// serverError notifies the renderer of an error envelope and returns it as an error.
func (s *SnapshotSync) serverError(kind models.Kind, action, path string, env *models.Envelope) error {
	s.notifier.Notify(models.Notification{Type: models.NotifyError, Kind: kind, Title: action, Message: env.Error.Message})
	return services.EnvelopeError(path, env)
}

// DownloadFavTracksSummaries replaces the tracks snapshot list with the backend's summaries.
//
// Transport failures are logged and swallowed; server-reported errors are notified and returned.
func (s *SnapshotSync) DownloadFavTracksSummaries(ctx context.Context) error {
	return s.downloadTracks(ctx, false)
}

// DownloadFullFavTracks is [SnapshotSync.DownloadFavTracksSummaries] with every snapshot's
// tracks included, which warms the detail cache.
func (s *SnapshotSync) DownloadFullFavTracks(ctx context.Context) error {
	return s.downloadTracks(ctx, true)
}

// DownloadPlaylistSummaries replaces the playlists snapshot list with the backend's summaries.
func (s *SnapshotSync) DownloadPlaylistSummaries(ctx context.Context) error {
	return s.downloadPlaylists(ctx, false)
}

// DownloadFullPlaylists downloads playlists snapshots with their tracks.
func (s *SnapshotSync) DownloadFullPlaylists(ctx context.Context) error {
	return s.downloadPlaylists(ctx, true)
}

func (s *SnapshotSync) downloadTracks(ctx context.Context, full bool) error {
	const action = "Favorite tracks"
	if err := s.requireLogin(models.KindFavTracks, action); err != nil {
		return err
	}

	env, err := s.api.FavTracksSnapshots(ctx, full)
	if err != nil {
		s.logger.Error("failed to download tracks snapshots", "error", err)
		return nil
	}
	if env.Error != nil {
		return s.serverError(models.KindFavTracks, action, services.SnapshotPath(models.KindFavTracks, ""), env)
	}

	var snaps []models.TracksSnapshot
	if err := env.DecodeData(&snaps); err != nil {
		s.logger.Error("failed to decode tracks snapshots", "error", err)
		return nil
	}
	s.setTracks(snaps)
	s.logger.Debug("downloaded tracks snapshots", "count", len(snaps), "full", full)
	return nil
}

func (s *SnapshotSync) downloadPlaylists(ctx context.Context, full bool) error {
	const action = "Playlists"
	if err := s.requireLogin(models.KindPlaylists, action); err != nil {
		return err
	}

	env, err := s.api.PlaylistsSnapshots(ctx, full)
	if err != nil {
		s.logger.Error("failed to download playlists snapshots", "error", err)
		return nil
	}
	if env.Error != nil {
		return s.serverError(models.KindPlaylists, action, services.SnapshotPath(models.KindPlaylists, ""), env)
	}

	var snaps []models.PlaylistsSnapshot
	if err := env.DecodeData(&snaps); err != nil {
		s.logger.Error("failed to decode playlists snapshots", "error", err)
		return nil
	}
	s.setPlaylists(snaps)
	s.logger.Debug("downloaded playlists snapshots", "count", len(snaps), "full", full)
	return nil
}

// FavTracksSnapshot returns the tracks of the snapshot taken at ts.
//
// A fresh cached payload is returned without a network call. Otherwise the detail
// is fetched and cached; on failure the stale cached value (possibly nil) is
// returned together with the error.
func (s *SnapshotSync) FavTracksSnapshot(ctx context.Context, ts int64) ([]models.AddedTrack, error) {
	cached, _ := s.tracksIdx.Lookup(ts)
	if cache.IsCachedAndFresh(models.KindFavTracks, cached) {
		return cached, nil
	}

	const action = "Favorite tracks snapshot"
	if err := s.requireLogin(models.KindFavTracks, action); err != nil {
		return cached, err
	}

	env, err := s.api.FavTracksSnapshot(ctx, ts)
	if err != nil {
		s.logger.Error("failed to fetch tracks snapshot", "timestamp", ts, "error", err)
		return cached, err
	}
	if env.Error != nil {
		return cached, s.serverError(models.KindFavTracks, action, services.SnapshotPath(models.KindFavTracks, fmt.Sprint(ts)), env)
	}

	var snap models.TracksSnapshot
	if err := env.DecodeData(&snap); err != nil {
		return cached, err
	}
	tracks := snap.Tracks
	if tracks == nil {
		tracks = []models.AddedTrack{}
	}
	s.tracksIdx.Store(ts, tracks)
	return tracks, nil
}

// PlaylistsSnapshot returns the playlists of the snapshot taken at ts, cache first.
//
// A cached payload whose playlists carry no tracks is treated as a miss.
func (s *SnapshotSync) PlaylistsSnapshot(ctx context.Context, ts int64) ([]models.Playlist, error) {
	cached, _ := s.playlistsIdx.Lookup(ts)
	if cache.IsCachedAndFresh(models.KindPlaylists, cached) {
		return cached, nil
	}

	const action = "Playlists snapshot"
	if err := s.requireLogin(models.KindPlaylists, action); err != nil {
		return cached, err
	}

	env, err := s.api.PlaylistsSnapshot(ctx, ts)
	if err != nil {
		s.logger.Error("failed to fetch playlists snapshot", "timestamp", ts, "error", err)
		return cached, err
	}
	if env.Error != nil {
		return cached, s.serverError(models.KindPlaylists, action, services.SnapshotPath(models.KindPlaylists, fmt.Sprint(ts)), env)
	}

	var snap models.PlaylistsSnapshot
	if err := env.DecodeData(&snap); err != nil {
		return cached, err
	}
	playlists := snap.Playlists
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	s.playlistsIdx.Store(ts, playlists)
	return playlists, nil
}

// DeleteSnapshot deletes the snapshot of kind taken at ts, then re-downloads that
// kind's summaries so the renderer sees the list without it.
func (s *SnapshotSync) DeleteSnapshot(ctx context.Context, ts int64, kind models.Kind) error {
	const action = "Delete snapshot"

	var del func(context.Context, int64) (*models.Envelope, error)
	var reload func(context.Context) error
	switch kind {
	case models.KindFavTracks:
		del, reload = s.api.DeleteFavTracksSnapshot, s.DownloadFavTracksSummaries
	case models.KindPlaylists:
		del, reload = s.api.DeletePlaylistsSnapshot, s.DownloadPlaylistSummaries
	default:
		return fmt.Errorf("%w: %q", shared.ErrInvalidKind, kind)
	}

	if err := s.requireLogin(kind, action); err != nil {
		return err
	}

	env, err := del(ctx, ts)
	if err != nil {
		s.logger.Error("failed to delete snapshot", "kind", kind, "timestamp", ts, "error", err)
		return err
	}
	if env.Error != nil {
		return s.serverError(kind, action, services.SnapshotPath(kind, fmt.Sprint(ts)), env)
	}

	if err := reload(ctx); err != nil {
		return err
	}
	s.notifier.Notify(notifySuccess(kind, action, fmt.Sprintf("Snapshot from %s deleted", shared.FormatTimestamp(ts))))
	return nil
}

// FetchFavTracksDiff diffs the current favorites against the snapshot taken at ts.
// Absent lists in the response come back as empty slices.
func (s *SnapshotSync) FetchFavTracksDiff(ctx context.Context, ts int64) (*models.Diff, error) {
	const action = "Diff"
	if err := s.requireLogin(models.KindFavTracks, action); err != nil {
		return nil, err
	}

	env, err := s.api.FavTracksDiff(ctx, ts)
	if err != nil {
		s.logger.Error("failed to fetch diff", "timestamp", ts, "error", err)
		return nil, err
	}
	if env.Error != nil {
		return nil, s.serverError(models.KindFavTracks, action, services.SnapshotPath(models.KindFavTracks, fmt.Sprintf("diff/%d", ts)), env)
	}

	var d models.Diff
	if err := env.DecodeData(&d); err != nil {
		return nil, err
	}
	d.Normalize()
	return &d, nil
}

// SaveCurrentFavTracks asks the backend to snapshot the current favorites.
//
// The call is registered for replay; an expired token triggers one refresh and
// replay. Other server errors are notified and the tracks list is re-downloaded.
func (s *SnapshotSync) SaveCurrentFavTracks(ctx context.Context) error {
	const action = "Save favorite tracks"
	if err := s.requireLogin(models.KindFavTracks, action); err != nil {
		return err
	}
	s.coordinator.Register(ctx, retry.Operation{Name: "save_current_tracks", Run: s.SaveCurrentFavTracks})

	env, err := s.api.SaveCurrentTracks(ctx)
	if err != nil {
		s.notifier.Notify(notifyError(models.KindFavTracks, action, err))
		return err
	}
	if env.Error != nil {
		if handled, err := s.coordinator.Handle(ctx, env); handled {
			return s.afterRetry(ctx, models.KindFavTracks, action, err)
		}
		err := s.serverError(models.KindFavTracks, action, "/save_current_tracks", env)
		if dlErr := s.DownloadFavTracksSummaries(ctx); dlErr != nil {
			s.logger.Warn("failed to refresh tracks after save error", "error", dlErr)
		}
		return err
	}

	s.notifier.Notify(notifySuccess(models.KindFavTracks, action, messageOr(env, "Saved current favorite tracks")))
	return nil
}

// SaveCurrentPlaylists asks the backend to snapshot the current playlists and
// re-downloads the playlists list on success.
func (s *SnapshotSync) SaveCurrentPlaylists(ctx context.Context) error {
	const action = "Save playlists"
	if err := s.requireLogin(models.KindPlaylists, action); err != nil {
		return err
	}
	s.coordinator.Register(ctx, retry.Operation{Name: "save_current_playlists", Run: s.SaveCurrentPlaylists})

	env, err := s.api.SaveCurrentPlaylists(ctx)
	if err != nil {
		s.notifier.Notify(notifyError(models.KindPlaylists, action, err))
		return err
	}
	if env.Error != nil {
		if handled, err := s.coordinator.Handle(ctx, env); handled {
			return s.afterRetry(ctx, models.KindPlaylists, action, err)
		}
		return s.serverError(models.KindPlaylists, action, "/save_current_playlists", env)
	}

	s.notifier.Notify(notifySuccess(models.KindPlaylists, action, messageOr(env, "Saved current playlists")))
	return s.DownloadPlaylistSummaries(ctx)
}

// afterRetry reports coordinator failures once, from the outermost call. A successful
// replay has already notified.
func (s *SnapshotSync) afterRetry(ctx context.Context, kind models.Kind, action string, err error) error {
	if err == nil || retry.IsReplay(ctx) {
		return err
	}
	if errors.Is(err, shared.ErrRefreshFailed) || errors.Is(err, shared.ErrTokenExpired) {
		s.notifier.Notify(notifyError(kind, action, err))
	}
	return err
}

// refreshTokens is the coordinator's refresher. Cookies rotated by the backend reach
// the session through the HTTP client's jar; tokens in the JSON body are applied here.
func (s *SnapshotSync) refreshTokens(ctx context.Context) error {
	env, err := s.api.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if env.Error != nil {
		return services.EnvelopeError("/refresh_token", env)
	}

	var tr services.TokenRefresh
	if err := env.DecodeData(&tr); err != nil {
		s.logger.Warn("ignoring undecodable refresh payload", "error", err)
		return nil
	}
	if tr.AccessToken != "" && s.session != nil {
		return s.session.UpdateTokens(tr.AccessToken, tr.RefreshToken)
	}
	return nil
}

// LoadFromStorage fills the snapshot lists and indices from the storage mirror.
func (s *SnapshotSync) LoadFromStorage() error {
	if s.mirror == nil {
		return nil
	}

	tracks, err := s.mirror.LoadTracks()
	if err != nil {
		return err
	}
	playlists, err := s.mirror.LoadPlaylists()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tracks = tracks
	s.playlists = playlists
	s.tracksIdx.RebuildIndex(cache.TracksEntries(tracks))
	s.playlistsIdx.RebuildIndex(cache.PlaylistsEntries(playlists))
	s.mu.Unlock()

	s.notifier.Notify(notifyUpdated(models.KindFavTracks))
	s.notifier.Notify(notifyUpdated(models.KindPlaylists))
	s.logger.Debug("loaded snapshots from storage", "tracks", len(tracks), "playlists", len(playlists))
	return nil
}

// RefreshData downloads tracks and playlists summaries after their staggered delays.
//
// Each download re-checks the login state when its delay elapses and is skipped
// when logged out. RefreshData waits for both.
func (s *SnapshotSync) RefreshData(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)

	run := func(i int, delay time.Duration, download func(context.Context) error) {
		defer wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			return
		case <-timer.C:
		}

		if s.session == nil || !s.session.IsLoggedIn() {
			return
		}
		errs[i] = download(ctx)
	}

	wg.Add(2)
	go run(0, s.tracksDelay, s.DownloadFavTracksSummaries)
	go run(1, s.playlistsDelay, s.DownloadPlaylistSummaries)
	wg.Wait()

	return errors.Join(errs...)
}

// Debug calls the backend's diagnostic endpoint and returns its body.
func (s *SnapshotSync) Debug(ctx context.Context) (string, error) {
	resp, err := s.api.Debug(ctx)
	if err != nil {
		s.logger.Error("debug call failed", "error", err)
		return "", err
	}
	body := string(resp.Body)
	s.logger.Info("debug", "status", resp.StatusCode, "body", body)
	return body, nil
}

func messageOr(env *models.Envelope, fallback string) string {
	if env.Message != "" {
		return env.Message
	}
	return fallback
}
