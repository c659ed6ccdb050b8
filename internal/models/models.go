// package models defines the data model for the snapshot client
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ssx/internal/shared"
)

// Kind names a snapshot collection as it appears in backend paths (/api/ss{kind}).
type Kind string

const (
	KindFavTracks Kind = "favtracks"
	KindPlaylists Kind = "playlists"
)

// ParseKind accepts the path segment or the shorthand used on the command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "favtracks", "tracks", "ssfavtracks":
		return KindFavTracks, nil
	case "playlists", "ssplaylists":
		return KindPlaylists, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidKind, s)
	}
}

// StorageKey returns the local storage key mirroring snapshots of this kind.
func (k Kind) StorageKey() string {
	switch k {
	case KindFavTracks:
		return "ssTracks"
	case KindPlaylists:
		return "ssPlaylists"
	default:
		return ""
	}
}

func (k Kind) String() string { return string(k) }

// Artist is the only artist field the snapshot views need.
type Artist struct {
	Name string `json:"name"`
}

// Track is a track as stored in a snapshot.
type Track struct {
	ID          string   `json:"id,omitempty"`
	URI         string   `json:"uri,omitempty"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	TrackNumber int      `json:"track_number,omitempty"`
	DurationMS  int      `json:"duration_ms,omitempty"`
}

// ArtistNames returns the artist names in order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// AddedTrack pairs a favorite track with the time it was saved.
type AddedTrack struct {
	AddedAt Timestamp `json:"added_at"`
	Track   Track     `json:"track"`
}

// TracksSnapshot is the user's favorite tracks captured at Timestamp (unix seconds).
//
// Summary listings leave Tracks empty and only fill TracksCount.
type TracksSnapshot struct {
	Timestamp   int64        `json:"timestamp"`
	Tracks      []AddedTrack `json:"tracks"`
	TracksCount int          `json:"tracks_count"`
}

// Playlist is a playlist captured in a snapshot.
type Playlist struct {
	ID         string  `json:"id,omitempty"`
	URI        string  `json:"uri,omitempty"`
	Name       string  `json:"name"`
	TracksHref string  `json:"tracksHref,omitempty"`
	Tracks     []Track `json:"tracks"`
}

// PlaylistsSnapshot is the user's playlists captured at Timestamp (unix seconds).
type PlaylistsSnapshot struct {
	Timestamp int64      `json:"timestamp"`
	Playlists []Playlist `json:"playlists"`
}

// TrackCount sums the tracks across all playlists.
func (s PlaylistsSnapshot) TrackCount() int {
	n := 0
	for _, p := range s.Playlists {
		n += len(p.Tracks)
	}
	return n
}

// Diff is the difference between a past snapshot and the current favorites.
type Diff struct {
	NewTracks     []AddedTrack `json:"newTracks"`
	RemovedTracks []AddedTrack `json:"removedTracks"`
}

// Normalize replaces absent lists with empty ones.
func (d *Diff) Normalize() {
	if d.NewTracks == nil {
		d.NewTracks = []AddedTrack{}
	}
	if d.RemovedTracks == nil {
		d.RemovedTracks = []AddedTrack{}
	}
}

// APIError is the error shape reported by the backend: {"error": {"status": 401, "message": "..."}}.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// TokenExpired reports the backend's expired-access-token shape: status 401 with a
// message containing "access token expired".
func (e *APIError) TokenExpired() bool {
	return e != nil && e.Status == 401 && strings.Contains(e.Message, "access token expired")
}

// Envelope is the JSON body every backend endpoint responds with.
type Envelope struct {
	Status  int             `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// HasData reports whether the envelope carries a non-null data payload.
func (e *Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// DecodeData unmarshals the data payload into v. A missing payload leaves v untouched.
func (e *Envelope) DecodeData(v any) error {
	if !e.HasData() {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode envelope data: %w", err)
	}
	return nil
}

// Timestamp is a point in time decoded from either an ISO-8601 string or unix seconds.
//
// It always encodes as RFC 3339 with fractional seconds when present; the zero value encodes as null.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts unix seconds to a UTC [Timestamp].
func NewTimestamp(unix int64) Timestamp {
	return Timestamp{time.Unix(unix, 0).UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = NewTimestamp(secs)
			return nil
		}
		return fmt.Errorf("invalid timestamp %q", s)
	}

	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	*t = NewTimestamp(int64(secs))
	return nil
}

// NotificationType says how a [Notification] should be presented.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	// NotifyUpdated tells the renderer the snapshot list of Kind changed and should be redrawn.
	NotifyUpdated NotificationType = "updated"
)

// Notification is what the sync controller tells the renderer: a toast-style message
// or a list update.
type Notification struct {
	Type    NotificationType `json:"type"`
	Kind    Kind             `json:"kind,omitempty"`
	Title   string           `json:"title,omitempty"`
	Message string           `json:"message,omitempty"`
}

func (n Notification) String() string {
	switch {
	case n.Title != "" && n.Message != "":
		return n.Title + ": " + n.Message
	case n.Title != "":
		return n.Title
	default:
		return n.Message
	}
}
