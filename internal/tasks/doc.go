// Package tasks keeps the local snapshot cache in step with the snapshot backend.
//
// # Core Operations
//
// [SnapshotSync] owns the tracks and playlists snapshot lists and their timestamp indices:
//
//  1. Summaries : [SnapshotSync.DownloadFavTracksSummaries] and [SnapshotSync.DownloadPlaylistSummaries]
//     - Replace the list, persist it to the storage mirror, rebuild the index
//     - Transport failures are logged only; server errors are notified and returned
//
//  2. Details : [SnapshotSync.FavTracksSnapshot] and [SnapshotSync.PlaylistsSnapshot]
//     - Cache first; a fresh payload never reaches the network
//     - On failure the stale cached value is returned with the error
//
//  3. Mutations : [SnapshotSync.DeleteSnapshot], [SnapshotSync.SaveCurrentFavTracks], [SnapshotSync.SaveCurrentPlaylists]
//     - Saves are registered with the retry coordinator and replayed once after a token refresh
//
//  4. Startup : [SnapshotSync.LoadFromStorage] then [SnapshotSync.RefreshData]
//     - RefreshData staggers the two downloads and re-checks the session before each
//
// # Notifications
//
// Every outcome the user should see is sent to a [Notifier]. [ChannelNotifier] never
// blocks, so the TUI can drain it at its own pace.
//
// # Export
//
// [SnapshotSync.ExportSnapshots] writes snapshots to files with a rate-limited worker pool
// and reports [ProgressUpdate] events on a non-blocking channel.
//
// All network operations require a session and return [shared.ErrNotLoggedIn] without a
// request when there is none.
package tasks
