// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	DurationMS  int             `json:"duration_ms"`
	TrackNumber int             `json:"track_number"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt models.Timestamp `json:"added_at"`
	Track   SpotifyTrack     `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifyService reads from the Spotify Web API with the bearer token held by the session.
type SpotifyService struct {
	client *Client
}

// NewSpotifyService wraps client, whose base URL should point at the Spotify API root.
// A nil client targets the public API with [http.DefaultClient] and no token.
func NewSpotifyService(client *Client) *SpotifyService {
	if client == nil {
		client = NewClient(spotifyBaseURL, nil)
	}
	return &SpotifyService{client: client}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET and decodes a 2xx JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	resp, err := s.client.Do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrTokenExpired, resp.StatusCode)
	case !resp.OK():
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Get passes an arbitrary GET through with the session's bearer token. Relative
// paths are resolved against the API root.
func (s *SpotifyService) Get(ctx context.Context, target string) (*APIResponse, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: empty query URL", shared.ErrMissingArgument)
	}
	return s.client.Do(ctx, http.MethodGet, target)
}

// ToAddedTracks converts saved tracks to the snapshot representation.
func ToAddedTracks(items []SpotifySavedTrack) []models.AddedTrack {
	tracks := make([]models.AddedTrack, 0, len(items))
	for _, item := range items {
		artists := make([]models.Artist, 0, len(item.Track.Artists))
		for _, a := range item.Track.Artists {
			artists = append(artists, models.Artist{Name: a.Name})
		}
		tracks = append(tracks, models.AddedTrack{
			AddedAt: item.AddedAt,
			Track: models.Track{
				ID:          item.Track.ID,
				URI:         item.Track.URI,
				Name:        item.Track.Name,
				Artists:     artists,
				TrackNumber: item.Track.TrackNumber,
				DurationMS:  item.Track.DurationMS,
			},
		})
	}
	return tracks
}
