package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/ssx/internal/models"
)

// TokenRefresh is the optional JSON payload of a /refresh_token response.
//
// The backend may instead (or also) rotate the tokens through Set-Cookie.
type TokenRefresh struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SnapshotPath returns /api/ss{kind}, /api/ss{kind}/full or /api/ss{kind}/{ts}.
func SnapshotPath(kind models.Kind, suffix string) string {
	base := "/api/ss" + kind.String()
	if suffix == "" {
		return base
	}
	return base + "/" + suffix
}

func summariesPath(kind models.Kind, full bool) string {
	if full {
		return SnapshotPath(kind, "full")
	}
	return SnapshotPath(kind, "")
}

func detailPath(kind models.Kind, ts int64) string {
	return SnapshotPath(kind, fmt.Sprint(ts))
}

// FavTracksSnapshots lists tracks-snapshot summaries, or complete snapshots when full is set.
func (c *Client) FavTracksSnapshots(ctx context.Context, full bool) (*models.Envelope, error) {
	return c.call(ctx, http.MethodGet, summariesPath(models.KindFavTracks, full))
}

// FavTracksSnapshot fetches one tracks snapshot with its tracks.
func (c *Client) FavTracksSnapshot(ctx context.Context, ts int64) (*models.Envelope, error) {
	return c.call(ctx, http.MethodGet, detailPath(models.KindFavTracks, ts))
}

// DeleteFavTracksSnapshot deletes one tracks snapshot.
func (c *Client) DeleteFavTracksSnapshot(ctx context.Context, ts int64) (*models.Envelope, error) {
	return c.call(ctx, http.MethodDelete, detailPath(models.KindFavTracks, ts))
}

// FavTracksDiff diffs the current favorites against the snapshot taken at ts.
func (c *Client) FavTracksDiff(ctx context.Context, ts int64) (*models.Envelope, error) {
	return c.call(ctx, http.MethodGet, SnapshotPath(models.KindFavTracks, fmt.Sprintf("diff/%d", ts)))
}

// PlaylistsSnapshots lists playlist-snapshot summaries, or complete snapshots when full is set.
func (c *Client) PlaylistsSnapshots(ctx context.Context, full bool) (*models.Envelope, error) {
	return c.call(ctx, http.MethodGet, summariesPath(models.KindPlaylists, full))
}

// PlaylistsSnapshot fetches one playlists snapshot with its tracks.
func (c *Client) PlaylistsSnapshot(ctx context.Context, ts int64) (*models.Envelope, error) {
	return c.call(ctx, http.MethodGet, detailPath(models.KindPlaylists, ts))
}

// DeletePlaylistsSnapshot deletes one playlists snapshot.
func (c *Client) DeletePlaylistsSnapshot(ctx context.Context, ts int64) (*models.Envelope, error) {
	return c.call(ctx, http.MethodDelete, detailPath(models.KindPlaylists, ts))
}

// SaveCurrentTracks asks the backend to capture the current favorites.
func (c *Client) SaveCurrentTracks(ctx context.Context) (*models.Envelope, error) {
	return c.call(ctx, http.MethodPost, "/save_current_tracks")
}

// SaveCurrentPlaylists asks the backend to capture the current playlists.
func (c *Client) SaveCurrentPlaylists(ctx context.Context) (*models.Envelope, error) {
	return c.call(ctx, http.MethodPost, "/save_current_playlists")
}

// RefreshToken exchanges the refresh token for a new access token.
//
// The backend may answer with an HTML page; any 2xx response without a JSON body
// is treated as success with an empty envelope.
func (c *Client) RefreshToken(ctx context.Context) (*models.Envelope, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/refresh_token")
	if err != nil {
		return nil, err
	}

	env, decodeErr := DecodeEnvelope(resp.Body)
	switch {
	case decodeErr == nil && (resp.OK() || env.Error != nil):
		return env, nil
	case resp.OK():
		return &models.Envelope{Status: resp.StatusCode}, nil
	default:
		return nil, &TransportError{StatusCode: resp.StatusCode, Text: statusText(resp)}
	}
}

// Debug calls the backend's diagnostic endpoint and returns the raw response.
func (c *Client) Debug(ctx context.Context) (*APIResponse, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/debug")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, &TransportError{StatusCode: resp.StatusCode, Text: statusText(resp)}
	}
	return resp, nil
}
