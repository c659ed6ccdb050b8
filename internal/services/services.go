// package services defines the HTTP clients for the snapshot backend and the upstream Spotify API
package services

import (
	"context"

	"github.com/desertthunder/ssx/internal/models"
)

// SnapshotAPI is the backend surface the sync controller depends on. [*Client] implements it.
//
// Every method returns the decoded envelope when the backend answered with one,
// including envelopes that carry an error; transport failures are returned as
// [*TransportError].
type SnapshotAPI interface {
	FavTracksSnapshots(ctx context.Context, full bool) (*models.Envelope, error)
	FavTracksSnapshot(ctx context.Context, ts int64) (*models.Envelope, error)
	DeleteFavTracksSnapshot(ctx context.Context, ts int64) (*models.Envelope, error)
	FavTracksDiff(ctx context.Context, ts int64) (*models.Envelope, error)

	PlaylistsSnapshots(ctx context.Context, full bool) (*models.Envelope, error)
	PlaylistsSnapshot(ctx context.Context, ts int64) (*models.Envelope, error)
	DeletePlaylistsSnapshot(ctx context.Context, ts int64) (*models.Envelope, error)

	SaveCurrentTracks(ctx context.Context) (*models.Envelope, error)
	SaveCurrentPlaylists(ctx context.Context) (*models.Envelope, error)
	RefreshToken(ctx context.Context) (*models.Envelope, error)

	Debug(ctx context.Context) (*APIResponse, error)
}

var _ SnapshotAPI = (*Client)(nil)
