package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ssx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgNotification MsgKind = iota
	MsgTracksDetail
	MsgPlaylistsDetail
	MsgDiffFetched
	MsgActionDone
)

type tracksDetail struct {
	ts     int64
	tracks []models.AddedTrack
	err    error
}

type playlistsDetail struct {
	ts        int64
	playlists []models.Playlist
	err       error
}

type diffResult struct {
	ts   int64
	diff *models.Diff
	err  error
}

type actionResult struct {
	action string
	err    error
}

// notificationMsg is the constructor for [MsgNotification]
func notificationMsg(n models.Notification) Msg {
	return Msg{kind: MsgNotification, data: n}
}

// tracksDetailMsg is the constructor for [MsgTracksDetail]
func tracksDetailMsg(ts int64, tracks []models.AddedTrack, err error) Msg {
	return Msg{kind: MsgTracksDetail, data: tracksDetail{ts, tracks, err}}
}

// playlistsDetailMsg is the constructor for [MsgPlaylistsDetail]
func playlistsDetailMsg(ts int64, playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsDetail, data: playlistsDetail{ts, playlists, err}}
}

// diffFetchedMsg is the constructor for [MsgDiffFetched]
func diffFetchedMsg(ts int64, diff *models.Diff, err error) Msg {
	return Msg{kind: MsgDiffFetched, data: diffResult{ts, diff, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action, err}}
}
