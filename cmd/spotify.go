package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ssx/internal/formatter"
	"github.com/desertthunder/ssx/internal/services"
	"github.com/desertthunder/ssx/internal/shared"
)

// SpotifyMe prints the profile of the user the session token belongs to.
func (r *Runner) SpotifyMe(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	user, err := spotify.UserProfile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlainHeader("Spotify profile")
	r.writePlain("Name: %s\n", user.DisplayName)
	r.writePlain("ID: %s\n", user.ID)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}
	return r.writePlain("Followers: %d\n", user.Followers.Total)
}

// SpotifyGet passes a GET through with the session token and prints the body.
func (r *Runner) SpotifyGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: API path or URL", shared.ErrMissingArgument)
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	resp, err := spotify.Get(ctx, path)
	if err != nil {
		return err
	}
	if !resp.OK() {
		r.logger.Warn("spotify returned an error", "status", resp.StatusCode, "path", path)
	}

	if resp.IsJSON {
		var data any
		if err := json.Unmarshal(resp.Body, &data); err == nil {
			return r.writeJSON(data, cmd.Bool("pretty"))
		}
	}
	return r.writePlain("%s\n", resp.Body)
}

// SpotifySaved renders one page of the live library in the snapshot track format,
// so it can be compared with a stored snapshot.
func (r *Runner) SpotifySaved(ctx context.Context, cmd *cli.Command) error {
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	page, err := spotify.SavedTracks(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	r.logger.Debug("fetched saved tracks", "count", len(page.Items), "total", page.Total, "offset", page.Offset)
	return r.writeRendered(formatter.RenderTracks(f, time.Now().Unix(), services.ToAddedTracks(page.Items)))
}
