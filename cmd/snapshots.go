package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/formatter"
	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
	"github.com/desertthunder/ssx/internal/tasks"
)

// TracksList downloads and prints the favorite tracks snapshot list.
//
// Transport failures are only logged by the sync controller, so an unreachable backend
// prints whatever the storage mirror holds.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, err := r.snapshots()
	if err != nil {
		return err
	}

	if cmd.Bool("full") {
		err = s.DownloadFullFavTracks(ctx)
	} else {
		err = s.DownloadFavTracksSummaries(ctx)
	}
	if err != nil {
		return err
	}
	return r.writeRendered(formatter.RenderTracksSummaries(f, s.FavTracksSnapshots()))
}

// TracksShow prints one favorite tracks snapshot, cache first.
func (r *Runner) TracksShow(ctx context.Context, cmd *cli.Command) error {
	ts, err := timestampArg(cmd)
	if err != nil {
		return err
	}
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, err := r.snapshots()
	if err != nil {
		return err
	}

	tracks, err := s.FavTracksSnapshot(ctx, ts)
	if err != nil {
		if len(tracks) == 0 {
			return err
		}
		r.logger.Warn("showing cached snapshot", "timestamp", ts, "error", err)
	}
	return r.writeRendered(formatter.RenderTracks(f, ts, tracks))
}

func (r *Runner) TracksDelete(ctx context.Context, cmd *cli.Command) error {
	return r.deleteSnapshot(ctx, cmd, models.KindFavTracks)
}

// TracksDiff prints the tracks added and removed since a snapshot.
func (r *Runner) TracksDiff(ctx context.Context, cmd *cli.Command) error {
	ts, err := timestampArg(cmd)
	if err != nil {
		return err
	}
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, err := r.snapshots()
	if err != nil {
		return err
	}

	diff, err := s.FetchFavTracksDiff(ctx, ts)
	if err != nil {
		return err
	}
	return r.writeRendered(formatter.RenderDiff(f, ts, *diff))
}

func (r *Runner) TracksSave(ctx context.Context, cmd *cli.Command) error {
	s, err := r.snapshots()
	if err != nil {
		return err
	}
	if err := s.SaveCurrentFavTracks(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Saved current favorite tracks\n")
}

func (r *Runner) TracksExport(ctx context.Context, cmd *cli.Command) error {
	return r.export(ctx, cmd, models.KindFavTracks)
}

// PlaylistsList downloads and prints the playlists snapshot list.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, err := r.snapshots()
	if err != nil {
		return err
	}

	if cmd.Bool("full") {
		err = s.DownloadFullPlaylists(ctx)
	} else {
		err = s.DownloadPlaylistSummaries(ctx)
	}
	if err != nil {
		return err
	}
	return r.writeRendered(formatter.RenderPlaylistsSummaries(f, s.PlaylistsSnapshots()))
}

// PlaylistsShow prints one playlists snapshot, cache first.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	ts, err := timestampArg(cmd)
	if err != nil {
		return err
	}
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	s, err := r.snapshots()
	if err != nil {
		return err
	}

	playlists, err := s.PlaylistsSnapshot(ctx, ts)
	if err != nil {
		if len(playlists) == 0 {
			return err
		}
		r.logger.Warn("showing cached snapshot", "timestamp", ts, "error", err)
	}
	return r.writeRendered(formatter.RenderPlaylists(f, ts, playlists))
}

func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	return r.deleteSnapshot(ctx, cmd, models.KindPlaylists)
}

func (r *Runner) PlaylistsSave(ctx context.Context, cmd *cli.Command) error {
	s, err := r.snapshots()
	if err != nil {
		return err
	}
	if err := s.SaveCurrentPlaylists(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Saved current playlists\n")
}

func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	return r.export(ctx, cmd, models.KindPlaylists)
}

// Refresh downloads both snapshot lists with the configured stagger.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	s, err := r.snapshots()
	if err != nil {
		return err
	}
	if err := s.RefreshData(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ %d favorite tracks snapshots, %d playlists snapshots\n",
		len(s.FavTracksSnapshots()), len(s.PlaylistsSnapshots()))
}

// Debug prints the raw response of the backend debug endpoint.
func (r *Runner) Debug(ctx context.Context, cmd *cli.Command) error {
	s, err := r.snapshots()
	if err != nil {
		return err
	}
	body, err := s.Debug(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", body)
}

func (r *Runner) deleteSnapshot(ctx context.Context, cmd *cli.Command, kind models.Kind) error {
	ts, err := timestampArg(cmd)
	if err != nil {
		return err
	}
	s, err := r.snapshots()
	if err != nil {
		return err
	}
	if err := s.DeleteSnapshot(ctx, ts, kind); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s snapshot from %s\n", kind, shared.FormatTimestamp(ts))
}

// export runs a bulk export and streams progress lines while it runs.
func (r *Runner) export(ctx context.Context, cmd *cli.Command, kind models.Kind) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var timestamps []int64
	for _, raw := range cmd.StringSlice("timestamp") {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ts <= 0 {
			return fmt.Errorf("%w: %q", shared.ErrInvalidTimestamp, raw)
		}
		timestamps = append(timestamps, ts)
	}

	s, err := r.snapshots()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			switch update.Phase {
			case tasks.ExportCompleted, tasks.ExportFailed:
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			default:
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()

	result, err := s.ExportSnapshots(ctx, progress, kind, tasks.ExportOpts{
		Format:     f,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Timestamps: timestamps,
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d/%d %s snapshots to %s", result.Successful, result.TotalSnapshots, kind, result.OutputDirectory)
	if result.Failed > 0 {
		r.writePlain("✗ %d failed, see %s\n", result.Failed, result.ManifestPath)
	}
	return nil
}
