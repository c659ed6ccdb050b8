// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the snapshot cache in two tabs, favorite tracks and playlists:
//  1. [SnapshotListView] : Snapshot summaries of the active tab
//  2. [DetailView] : Tracks or playlists of one snapshot, loaded cache first
//  3. [DiffView] : Tracks added and removed since a favorites snapshot
//  4. [ConfirmDeleteView] : Confirm deleting a snapshot
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Notifications from the sync controller arrive on a channel; list updates redraw the active tab and
// everything else becomes the status line.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, enter, esc, d, f, s, r, y/n, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
