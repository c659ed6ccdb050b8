// package cache holds the timestamp-keyed snapshot index and its local storage mirror
package cache

import (
	"sync"

	"github.com/desertthunder/ssx/internal/models"
)

// Entry is one snapshot's payload keyed by its timestamp.
type Entry[T any] struct {
	Timestamp int64
	Payload   T
}

// Index maps snapshot timestamps to payloads. It is safe for concurrent use.
//
// Entries are never partially overwritten: [Index.RebuildIndex] always clears the
// whole map before repopulating it.
type Index[T any] struct {
	mu      sync.RWMutex
	entries map[int64]T
}

func NewIndex[T any]() *Index[T] {
	return &Index[T]{entries: make(map[int64]T)}
}

// RebuildIndex clears the index and inserts every entry keyed by timestamp. A later entry
// with a duplicate timestamp wins.
func (i *Index[T]) RebuildIndex(entries []Entry[T]) {
	next := make(map[int64]T, len(entries))
	for _, e := range entries {
		next[e.Timestamp] = e.Payload
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = next
}

// Lookup returns the payload stored for ts.
func (i *Index[T]) Lookup(ts int64) (T, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	p, ok := i.entries[ts]
	return p, ok
}

// Store sets the payload for a single timestamp, as after a detail fetch.
func (i *Index[T]) Store(ts int64, payload T) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[ts] = payload
}

// Len returns the number of indexed timestamps.
func (i *Index[T]) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Clear empties the index.
func (i *Index[T]) Clear() {
	i.RebuildIndex(nil)
}

// TracksEntries converts tracks snapshots into index entries.
func TracksEntries(snaps []models.TracksSnapshot) []Entry[[]models.AddedTrack] {
	entries := make([]Entry[[]models.AddedTrack], 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, Entry[[]models.AddedTrack]{Timestamp: s.Timestamp, Payload: s.Tracks})
	}
	return entries
}

// PlaylistsEntries converts playlists snapshots into index entries.
func PlaylistsEntries(snaps []models.PlaylistsSnapshot) []Entry[[]models.Playlist] {
	entries := make([]Entry[[]models.Playlist], 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, Entry[[]models.Playlist]{Timestamp: s.Timestamp, Payload: s.Playlists})
	}
	return entries
}

// IsEmptyPlaylistsPayload reports whether a playlists payload cannot be trusted as a
// cache hit: it is nil, empty, or none of its playlists has any tracks.
//
// Summary listings embed playlists without tracks, so mere presence is not enough.
func IsEmptyPlaylistsPayload(p []models.Playlist) bool {
	for _, pl := range p {
		if len(pl.Tracks) > 0 {
			return false
		}
	}
	return true
}

// IsCachedAndFresh decides whether a cached payload of kind can be served without a
// network fetch.
//
//   - favtracks: the payload is a non-empty []models.AddedTrack
//   - playlists: the payload is a []models.Playlist that is not [IsEmptyPlaylistsPayload]
//
// Any other payload type or kind is never fresh.
func IsCachedAndFresh(kind models.Kind, payload any) bool {
	switch kind {
	case models.KindFavTracks:
		tracks, ok := payload.([]models.AddedTrack)
		return ok && len(tracks) > 0
	case models.KindPlaylists:
		playlists, ok := payload.([]models.Playlist)
		return ok && !IsEmptyPlaylistsPayload(playlists)
	default:
		return false
	}
}
