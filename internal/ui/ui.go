package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ssx/internal/formatter"
	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SnapshotListView ViewState = iota
	DetailView
	DiffView
	ConfirmDeleteView
)

// Controller is the part of the sync controller the TUI drives.
type Controller interface {
	FavTracksSnapshots() []models.TracksSnapshot
	PlaylistsSnapshots() []models.PlaylistsSnapshot
	FavTracksSnapshot(ctx context.Context, ts int64) ([]models.AddedTrack, error)
	PlaylistsSnapshot(ctx context.Context, ts int64) ([]models.Playlist, error)
	DeleteSnapshot(ctx context.Context, ts int64, kind models.Kind) error
	FetchFavTracksDiff(ctx context.Context, ts int64) (*models.Diff, error)
	SaveCurrentFavTracks(ctx context.Context) error
	SaveCurrentPlaylists(ctx context.Context) error
	RefreshData(ctx context.Context) error
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	notes     <-chan models.Notification
	view      ViewState
	kind      models.Kind
	width     int
	height    int
	snapshots list.Model
	detail    list.Model
	selected  int64
	diff      *models.Diff
	status    string
	busy      string
	help      help.Model
	keys      keyMap
}

// NewModel creates a TUI over ctrl. notes is the channel a ChannelNotifier attached to ctrl writes to.
func NewModel(ctx context.Context, ctrl Controller, notes <-chan models.Notification) *Model {
	m := &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		notes:     notes,
		view:      SnapshotListView,
		kind:      models.KindFavTracks,
		snapshots: newList(nil, ""),
		detail:    newList(nil, ""),
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.reloadSnapshots()
	return m
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

// Init refreshes both snapshot lists and starts listening for notifications.
func (m *Model) Init() tea.Cmd {
	m.busy = "Refreshing snapshots..."
	return tea.Batch(m.waitForNotification(), m.run("refresh", m.ctrl.RefreshData))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.snapshots.SetSize(msg.Width-4, msg.Height-10)
		m.detail.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SnapshotListView:
			return m.handleListKeys(msg)
		case DetailView, DiffView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgNotification:
		n := msg.data.(models.Notification)
		if n.Type == models.NotifyUpdated {
			if n.Kind == m.kind {
				m.reloadSnapshots()
			}
		} else {
			m.status = styles.Notice(n)
		}
		return m, m.waitForNotification()

	case MsgTracksDetail:
		d := msg.data.(tracksDetail)
		m.busy = ""
		m.setError(d.err)
		if len(d.tracks) > 0 {
			m.selected = d.ts
			m.detail = m.resized(newList(trackItems(d.tracks), fmt.Sprintf("Favorite tracks at %s", shared.FormatTimestamp(d.ts))))
			m.view = DetailView
		}

	case MsgPlaylistsDetail:
		d := msg.data.(playlistsDetail)
		m.busy = ""
		m.setError(d.err)
		if len(d.playlists) > 0 {
			m.selected = d.ts
			m.detail = m.resized(newList(playlistItems(d.playlists), fmt.Sprintf("Playlists at %s", shared.FormatTimestamp(d.ts))))
			m.view = DetailView
		}

	case MsgDiffFetched:
		d := msg.data.(diffResult)
		m.busy = ""
		m.setError(d.err)
		if d.err == nil && d.diff != nil {
			m.selected = d.ts
			m.diff = d.diff
			m.view = DiffView
		}

	case MsgActionDone:
		r := msg.data.(actionResult)
		m.busy = ""
		m.setError(r.err)
		m.reloadSnapshots()
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		if m.kind == models.KindFavTracks {
			m.kind = models.KindPlaylists
		} else {
			m.kind = models.KindFavTracks
		}
		m.status = ""
		m.reloadSnapshots()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if ts, ok := m.selectedTimestamp(); ok {
			m.busy = "Loading snapshot..."
			return m, m.fetchDetail(ts)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if ts, ok := m.selectedTimestamp(); ok {
			m.selected = ts
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.diff):
		if ts, ok := m.selectedTimestamp(); ok && m.kind == models.KindFavTracks {
			m.busy = "Comparing with current favorites..."
			return m, m.fetchDiff(ts)
		}
		return m, nil
	case key.Matches(msg, m.keys.save):
		m.busy = "Saving current " + m.kindLabel() + "..."
		if m.kind == models.KindFavTracks {
			return m, m.run("save", m.ctrl.SaveCurrentFavTracks)
		}
		return m, m.run("save", m.ctrl.SaveCurrentPlaylists)
	case key.Matches(msg, m.keys.refresh):
		m.busy = "Refreshing snapshots..."
		return m, m.run("refresh", m.ctrl.RefreshData)
	}

	var cmd tea.Cmd
	m.snapshots, cmd = m.snapshots.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SnapshotListView
		m.diff = nil
		return m, nil
	}

	if m.view != DetailView {
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = SnapshotListView
		m.busy = "Deleting snapshot..."
		ts, kind := m.selected, m.kind
		return m, m.run("delete", func(ctx context.Context) error {
			return m.ctrl.DeleteSnapshot(ctx, ts, kind)
		})
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = SnapshotListView
	}
	return m, nil
}

// reloadSnapshots rebuilds the snapshot list of the active kind from the controller,
// keeping the cursor where possible.
func (m *Model) reloadSnapshots() {
	var items []list.Item
	title := "Favorite tracks snapshots"
	if m.kind == models.KindFavTracks {
		items = tracksSnapshotItems(m.ctrl.FavTracksSnapshots())
	} else {
		items = playlistsSnapshotItems(m.ctrl.PlaylistsSnapshots())
		title = "Playlists snapshots"
	}

	cursor := m.snapshots.Index()
	m.snapshots.Title = title
	m.snapshots.SetItems(items)
	if cursor >= len(items) {
		cursor = len(items) - 1
	}
	if cursor >= 0 {
		m.snapshots.Select(cursor)
	}
}

func (m *Model) resized(l list.Model) list.Model {
	if m.width > 0 {
		l.SetSize(m.width-4, m.height-8)
	}
	return l
}

func (m *Model) selectedTimestamp() (int64, bool) {
	switch item := m.snapshots.SelectedItem().(type) {
	case tracksSnapshotItem:
		return item.snap.Timestamp, true
	case playlistsSnapshotItem:
		return item.snap.Timestamp, true
	default:
		return 0, false
	}
}

func (m *Model) setError(err error) {
	if err != nil {
		m.status = styles.err.Render("✗ " + err.Error())
	}
}

func (m *Model) kindLabel() string {
	if m.kind == models.KindFavTracks {
		return "favorite tracks"
	}
	return "playlists"
}

func (m *Model) waitForNotification() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-m.notes
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func (m *Model) fetchDetail(ts int64) tea.Cmd {
	if m.kind == models.KindFavTracks {
		return func() tea.Msg {
			tracks, err := m.ctrl.FavTracksSnapshot(m.ctx, ts)
			return tracksDetailMsg(ts, tracks, err)
		}
	}
	return func() tea.Msg {
		playlists, err := m.ctrl.PlaylistsSnapshot(m.ctx, ts)
		return playlistsDetailMsg(ts, playlists, err)
	}
}

func (m *Model) fetchDiff(ts int64) tea.Cmd {
	return func() tea.Msg {
		diff, err := m.ctrl.FetchFavTracksDiff(m.ctx, ts)
		return diffFetchedMsg(ts, diff, err)
	}
}

func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg(action, fn(m.ctx))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SnapshotListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case DiffView:
		return m.renderDiff()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) renderTabs() string {
	tracks, playlists := styles.inactive, styles.inactive
	if m.kind == models.KindFavTracks {
		tracks = styles.tab
	} else {
		playlists = styles.tab
	}
	return tracks.Render("Favorite tracks") + playlists.Render("Playlists")
}

func (m *Model) renderFooter(keys ...key.Binding) string {
	var b strings.Builder
	if m.busy != "" {
		b.WriteString(styles.warn.Render(m.busy))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderList() string {
	keys := []key.Binding{m.keys.tab, m.keys.enter, m.keys.delete}
	if m.kind == models.KindFavTracks {
		keys = append(keys, m.keys.diff)
	}
	keys = append(keys, m.keys.save, m.keys.refresh, m.keys.quit)

	body := m.snapshots.View()
	if len(m.snapshots.Items()) == 0 {
		body = styles.help.Render("No " + m.kindLabel() + " snapshots yet. Press s to save one.")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderTabs(), body, m.renderFooter(keys...))
}

func (m *Model) renderDetail() string {
	return fmt.Sprintf("%s\n\n%s", m.detail.View(), m.renderFooter(m.keys.back, m.keys.quit))
}

func (m *Model) renderDiff() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Changes since " + shared.FormatTimestamp(m.selected)))
	b.WriteString("\n")

	section := func(label, marker string, tracks []models.AddedTrack, style func(...string) string) {
		b.WriteString(fmt.Sprintf("%s (%d)\n", label, len(tracks)))
		for _, t := range tracks {
			b.WriteString(style(fmt.Sprintf("  %s %s - %s", marker, formatter.Artists(t.Track), t.Track.Name)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.diff != nil {
		section("Added", "+", m.diff.NewTracks, styles.ok.Render)
		section("Removed", "-", m.diff.RemovedTracks, styles.err.Render)
	}

	b.WriteString(m.renderFooter(m.keys.back, m.keys.quit))
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Delete %s snapshot from %s?", m.kindLabel(), shared.FormatTimestamp(m.selected)))
	return fmt.Sprintf("%s\n\n%s", title, m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
}
