package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ssx/internal/formatter"
	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

// ExportOpts contains configuration for bulk snapshot exports.
type ExportOpts struct {
	Format     formatter.Format // Output format (default: json)
	OutputDir  string           // Base output directory (default: ssx_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max 10)
	RateLimit  float64          // Detail fetches per second (default: 5)
	Timestamps []int64          // Snapshots to export; empty means every listed snapshot
}

// SnapshotExportResult is the outcome for a single snapshot.
type SnapshotExportResult struct {
	Kind         models.Kind `json:"kind"`
	Timestamp    int64       `json:"timestamp"`
	File         string      `json:"file,omitempty"`
	Success      bool        `json:"success"`
	Error        error       `json:"-"`
	ErrorMessage string      `json:"error,omitempty"`
}

// ExportResult summarizes a bulk export and is written as its manifest.
type ExportResult struct {
	Kind            models.Kind            `json:"kind"`
	Format          formatter.Format       `json:"format"`
	TotalSnapshots  int                    `json:"total_snapshots"`
	Successful      int                    `json:"successful"`
	Failed          int                    `json:"failed"`
	OutputDirectory string                 `json:"output_directory"`
	ManifestPath    string                 `json:"-"`
	Results         []SnapshotExportResult `json:"results"`
}

// ExportSnapshots writes every requested snapshot of kind to its own file using a
// rate-limited worker pool.
//
// Details are fetched cache first, so snapshots already downloaded in full are not
// requested again. Individual failures are recorded in the result; an error is
// returned only when the export cannot run at all or the manifest cannot be written.
func (s *SnapshotSync) ExportSnapshots(ctx context.Context, progress chan<- ProgressUpdate, kind models.Kind, opts ExportOpts) (*ExportResult, error) {
	if kind != models.KindFavTracks && kind != models.KindPlaylists {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidKind, kind)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ssx_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	timestamps := opts.Timestamps
	if len(timestamps) == 0 {
		sendProgress(progress, fetchingSummariesUpdate(kind))
		var err error
		if timestamps, err = s.listedTimestamps(ctx, kind); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Kind:            kind,
		Format:          opts.Format,
		TotalSnapshots:  len(timestamps),
		OutputDirectory: opts.OutputDir,
		Results:         make([]SnapshotExportResult, 0, len(timestamps)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan int64, len(timestamps))
	results := make(chan SnapshotExportResult, len(timestamps))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go s.exportWorker(ctx, &wg, limiter, kind, opts, jobs, results)
	}

	for i, ts := range timestamps {
		sendProgress(progress, fetchingSnapshotUpdate(i+1, len(timestamps), ts))
		jobs <- ts
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
			sendProgress(progress, exportCompletedUpdate(completed, len(timestamps), res))
		} else {
			result.Failed++
			sendProgress(progress, exportFailedUpdate(completed, len(timestamps), res))
		}
	}
	slices.SortFunc(result.Results, func(a, b SnapshotExportResult) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// listedTimestamps returns the timestamps of the current list of kind, downloading
// summaries first when nothing is loaded.
func (s *SnapshotSync) listedTimestamps(ctx context.Context, kind models.Kind) ([]int64, error) {
	collect := func() []int64 {
		var out []int64
		if kind == models.KindFavTracks {
			for _, snap := range s.FavTracksSnapshots() {
				out = append(out, snap.Timestamp)
			}
		} else {
			for _, snap := range s.PlaylistsSnapshots() {
				out = append(out, snap.Timestamp)
			}
		}
		return out
	}

	if ts := collect(); len(ts) > 0 {
		return ts, nil
	}

	var err error
	if kind == models.KindFavTracks {
		err = s.DownloadFavTracksSummaries(ctx)
	} else {
		err = s.DownloadPlaylistSummaries(ctx)
	}
	if err != nil {
		return nil, err
	}
	return collect(), nil
}

func (s *SnapshotSync) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	kind models.Kind,
	opts ExportOpts,
	jobs <-chan int64,
	results chan<- SnapshotExportResult,
) {
	defer wg.Done()

	for ts := range jobs {
		res := SnapshotExportResult{Kind: kind, Timestamp: ts}
		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
		} else {
			res.File, res.Error = s.exportSnapshot(ctx, kind, ts, opts)
		}

		res.Success = res.Error == nil
		if res.Error != nil {
			res.ErrorMessage = res.Error.Error()
		}
		results <- res
	}
}

func (s *SnapshotSync) exportSnapshot(ctx context.Context, kind models.Kind, ts int64, opts ExportOpts) (string, error) {
	var data []byte
	var err error

	switch kind {
	case models.KindFavTracks:
		tracks, fetchErr := s.FavTracksSnapshot(ctx, ts)
		if fetchErr != nil {
			return "", fmt.Errorf("failed to fetch snapshot: %w", fetchErr)
		}
		data, err = formatter.RenderTracks(opts.Format, ts, tracks)
	default:
		playlists, fetchErr := s.PlaylistsSnapshot(ctx, ts)
		if fetchErr != nil {
			return "", fmt.Errorf("failed to fetch snapshot: %w", fetchErr)
		}
		data, err = formatter.RenderPlaylists(opts.Format, ts, playlists)
	}
	if err != nil {
		return "", fmt.Errorf("%s render failed: %w", opts.Format, err)
	}

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%d%s", kind, ts, opts.Format.Ext()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
