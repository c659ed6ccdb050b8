package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/server"
	"github.com/desertthunder/ssx/internal/shared"
	"github.com/desertthunder/ssx/internal/tasks"
)

var _ server.Source = (*tasks.SnapshotSync)(nil)

// Serve runs the offline mirror over the cached snapshots until interrupted.
//
// Nothing is downloaded first; run 'ssx refresh' or 'ssx tracks list --full' to fill the cache.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	s, err := r.snapshots()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Addr(), s, shared.WithLogger(r.logger, "component", "mirror"))
	r.writePlain("Serving %d favorite tracks and %d playlists snapshots on http://%s\n",
		len(s.FavTracksSnapshots()), len(s.PlaylistsSnapshots()), cfg.Addr())

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}
