// package formatter renders snapshot listings, snapshot contents and diffs as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

// Format is an output format selectable on the command line.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its common alias. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension used when exporting in this format.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Artists joins the track's artist names with ", ".
func Artists(t models.Track) string {
	return strings.Join(t.ArtistNames(), ", ")
}

// RenderTracksSummaries renders a tracks snapshot listing.
func RenderTracksSummaries(f Format, snaps []models.TracksSnapshot) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(snaps, true)
	case FormatCSV:
		rows := make([][]string, 0, len(snaps))
		for _, s := range snaps {
			rows = append(rows, []string{strconv.FormatInt(s.Timestamp, 10), shared.FormatTimestamp(s.Timestamp), strconv.Itoa(trackCount(s))})
		}
		return writeCSV([]string{"Timestamp", "Taken At", "Tracks"}, rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		buf.WriteString("# Favorite tracks snapshots\n\n")
		buf.WriteString("| Timestamp | Taken At | Tracks |\n|---|---|---|\n")
		for _, s := range snaps {
			fmt.Fprintf(&buf, "| %d | %s | %d |\n", s.Timestamp, shared.FormatTimestamp(s.Timestamp), trackCount(s))
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		if len(snaps) == 0 {
			buf.WriteString("No favorite tracks snapshots.\n")
			return buf.Bytes(), nil
		}
		for _, s := range snaps {
			fmt.Fprintf(&buf, "%d  %s  %d tracks\n", s.Timestamp, shared.FormatTimestamp(s.Timestamp), trackCount(s))
		}
		return buf.Bytes(), nil
	}
}

// RenderPlaylistsSummaries renders a playlists snapshot listing.
func RenderPlaylistsSummaries(f Format, snaps []models.PlaylistsSnapshot) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(snaps, true)
	case FormatCSV:
		rows := make([][]string, 0, len(snaps))
		for _, s := range snaps {
			rows = append(rows, []string{strconv.FormatInt(s.Timestamp, 10), shared.FormatTimestamp(s.Timestamp), strconv.Itoa(len(s.Playlists))})
		}
		return writeCSV([]string{"Timestamp", "Taken At", "Playlists"}, rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		buf.WriteString("# Playlists snapshots\n\n")
		buf.WriteString("| Timestamp | Taken At | Playlists |\n|---|---|---|\n")
		for _, s := range snaps {
			fmt.Fprintf(&buf, "| %d | %s | %d |\n", s.Timestamp, shared.FormatTimestamp(s.Timestamp), len(s.Playlists))
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		if len(snaps) == 0 {
			buf.WriteString("No playlists snapshots.\n")
			return buf.Bytes(), nil
		}
		for _, s := range snaps {
			fmt.Fprintf(&buf, "%d  %s  %d playlists\n", s.Timestamp, shared.FormatTimestamp(s.Timestamp), len(s.Playlists))
		}
		return buf.Bytes(), nil
	}
}

// RenderTracks renders the contents of the tracks snapshot taken at ts.
func RenderTracks(f Format, ts int64, tracks []models.AddedTrack) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(models.TracksSnapshot{Timestamp: ts, Tracks: tracks, TracksCount: len(tracks)}, true)
	case FormatCSV:
		return tracksCSV(tracks)
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# Favorite tracks at %s\n\n", shared.FormatTimestamp(ts))
		fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))
		writeMarkdownTracks(&buf, tracks)
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Snapshot: %s\nTracks: %d\n\n", shared.FormatTimestamp(ts), len(tracks))
		for i, t := range tracks {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, Artists(t.Track), t.Track.Name)
		}
		return buf.Bytes(), nil
	}
}

// RenderPlaylists renders the contents of the playlists snapshot taken at ts.
func RenderPlaylists(f Format, ts int64, playlists []models.Playlist) ([]byte, error) {
	switch f {
	case FormatJSON:
		return shared.MarshalJSON(models.PlaylistsSnapshot{Timestamp: ts, Playlists: playlists}, true)
	case FormatCSV:
		var rows [][]string
		for _, p := range playlists {
			if len(p.Tracks) == 0 {
				rows = append(rows, []string{p.Name, "", "", "", ""})
				continue
			}
			for _, t := range p.Tracks {
				rows = append(rows, []string{p.Name, t.Name, Artists(t), shared.FormatDuration(t.DurationMS), t.URI})
			}
		}
		return writeCSV([]string{"Playlist", "Track", "Artists", "Duration", "URI"}, rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# Playlists at %s\n\n", shared.FormatTimestamp(ts))
		for _, p := range playlists {
			fmt.Fprintf(&buf, "## %s\n\n", p.Name)
			if len(p.Tracks) == 0 {
				buf.WriteString("_No tracks_\n\n")
				continue
			}
			for i, t := range p.Tracks {
				fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, Artists(t), t.Name, shared.FormatDuration(t.DurationMS))
			}
			buf.WriteString("\n")
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Snapshot: %s\nPlaylists: %d\n", shared.FormatTimestamp(ts), len(playlists))
		for _, p := range playlists {
			fmt.Fprintf(&buf, "\n%s (%d tracks)\n", p.Name, len(p.Tracks))
			for i, t := range p.Tracks {
				fmt.Fprintf(&buf, "  %d. %s - %s\n", i+1, Artists(t), t.Name)
			}
		}
		return buf.Bytes(), nil
	}
}

// RenderDiff renders a diff against the snapshot taken at ts.
func RenderDiff(f Format, ts int64, d models.Diff) ([]byte, error) {
	d.Normalize()

	switch f {
	case FormatJSON:
		return shared.MarshalJSON(d, true)
	case FormatCSV:
		rows := make([][]string, 0, len(d.NewTracks)+len(d.RemovedTracks))
		for _, t := range d.NewTracks {
			rows = append(rows, []string{"added", shared.FormatTime(t.AddedAt.Time), t.Track.Name, Artists(t.Track)})
		}
		for _, t := range d.RemovedTracks {
			rows = append(rows, []string{"removed", shared.FormatTime(t.AddedAt.Time), t.Track.Name, Artists(t.Track)})
		}
		return writeCSV([]string{"Change", "Added At", "Name", "Artists"}, rows)
	case FormatMarkdown:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# Changes since %s\n\n", shared.FormatTimestamp(ts))
		fmt.Fprintf(&buf, "## New tracks (%d)\n\n", len(d.NewTracks))
		writeMarkdownTracks(&buf, d.NewTracks)
		fmt.Fprintf(&buf, "\n## Removed tracks (%d)\n\n", len(d.RemovedTracks))
		writeMarkdownTracks(&buf, d.RemovedTracks)
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Changes since %s\n", shared.FormatTimestamp(ts))
		fmt.Fprintf(&buf, "\nNew tracks: %d\n", len(d.NewTracks))
		for _, t := range d.NewTracks {
			fmt.Fprintf(&buf, "  + %s - %s\n", Artists(t.Track), t.Track.Name)
		}
		fmt.Fprintf(&buf, "\nRemoved tracks: %d\n", len(d.RemovedTracks))
		for _, t := range d.RemovedTracks {
			fmt.Fprintf(&buf, "  - %s - %s\n", Artists(t.Track), t.Track.Name)
		}
		return buf.Bytes(), nil
	}
}

func tracksCSV(tracks []models.AddedTrack) ([]byte, error) {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			shared.FormatTime(t.AddedAt.Time),
			t.Track.Name,
			Artists(t.Track),
			strconv.Itoa(t.Track.TrackNumber),
			shared.FormatDuration(t.Track.DurationMS),
			t.Track.URI,
		})
	}
	return writeCSV([]string{"Added At", "Name", "Artists", "Track Number", "Duration", "URI"}, rows)
}

func writeMarkdownTracks(buf *bytes.Buffer, tracks []models.AddedTrack) {
	if len(tracks) == 0 {
		buf.WriteString("_None_\n")
		return
	}
	for i, t := range tracks {
		fmt.Fprintf(buf, "%d. %s - %s [%s]", i+1, Artists(t.Track), t.Track.Name, shared.FormatDuration(t.Track.DurationMS))
		if added := shared.FormatTime(t.AddedAt.Time); added != "" {
			fmt.Fprintf(buf, " (added %s)", added)
		}
		buf.WriteString("\n")
	}
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// trackCount prefers the loaded tracks and falls back to the count reported by summaries.
func trackCount(s models.TracksSnapshot) int {
	if len(s.Tracks) > 0 {
		return len(s.Tracks)
	}
	return s.TracksCount
}
