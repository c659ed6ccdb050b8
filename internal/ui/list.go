package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ssx/internal/formatter"
	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

var (
	_ list.Item = tracksSnapshotItem{}
	_ list.Item = playlistsSnapshotItem{}
	_ list.Item = trackItem{}
	_ list.Item = playlistItem{}
)

// tracksSnapshotItem wraps [models.TracksSnapshot] to implement [list.Item].
type tracksSnapshotItem struct {
	snap models.TracksSnapshot
}

func (i tracksSnapshotItem) FilterValue() string { return i.Title() }
func (i tracksSnapshotItem) Title() string       { return shared.FormatTimestamp(i.snap.Timestamp) }
func (i tracksSnapshotItem) Description() string {
	count := i.snap.TracksCount
	if count == 0 {
		count = len(i.snap.Tracks)
	}
	return fmt.Sprintf("%d tracks", count)
}

// playlistsSnapshotItem wraps [models.PlaylistsSnapshot] to implement [list.Item].
type playlistsSnapshotItem struct {
	snap models.PlaylistsSnapshot
}

func (i playlistsSnapshotItem) FilterValue() string { return i.Title() }
func (i playlistsSnapshotItem) Title() string       { return shared.FormatTimestamp(i.snap.Timestamp) }
func (i playlistsSnapshotItem) Description() string {
	return fmt.Sprintf("%d playlists", len(i.snap.Playlists))
}

// trackItem wraps [models.AddedTrack] to implement [list.Item].
type trackItem struct {
	track models.AddedTrack
}

func (i trackItem) FilterValue() string { return i.track.Track.Name }
func (i trackItem) Title() string       { return i.track.Track.Name }
func (i trackItem) Description() string {
	desc := formatter.Artists(i.track.Track)
	if added := shared.FormatTime(i.track.AddedAt.Time); added != "" {
		desc = fmt.Sprintf("%s • added %s", desc, added)
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
}

func tracksSnapshotItems(snaps []models.TracksSnapshot) []list.Item {
	items := make([]list.Item, len(snaps))
	for i, s := range snaps {
		items[i] = tracksSnapshotItem{snap: s}
	}
	return items
}

func playlistsSnapshotItems(snaps []models.PlaylistsSnapshot) []list.Item {
	items := make([]list.Item, len(snaps))
	for i, s := range snaps {
		items[i] = playlistsSnapshotItem{snap: s}
	}
	return items
}

func trackItems(tracks []models.AddedTrack) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}
