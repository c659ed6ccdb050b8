package tasks

import (
	"fmt"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

// ProgressUpdate represents a progress event during a long-running export.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSummaries Phase = iota
	FetchSnapshot
	ExportCompleted
	ExportFailed
)

func (p Phase) String() string {
	switch p {
	case FetchSummaries:
		return "fetch_summaries"
	case FetchSnapshot:
		return "fetch_snapshot"
	case ExportCompleted:
		return "export_completed"
	case ExportFailed:
		return "export_failed"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking; updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingSummariesUpdate(kind models.Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSummaries,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s snapshots...", kind),
	}
}

func fetchingSnapshotUpdate(step, total int, ts int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching snapshot from %s (%d/%d)", shared.FormatTimestamp(ts), step, total),
		Data:    ts,
	}
}

func exportCompletedUpdate(step, total int, res SnapshotExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCompleted,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exported snapshot from %s to %s", shared.FormatTimestamp(res.Timestamp), res.File),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res SnapshotExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed to export snapshot from %s: %v", shared.FormatTimestamp(res.Timestamp), res.Error),
		Data:    res,
	}
}
