package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/repositories"
	"github.com/desertthunder/ssx/internal/shared"
)

func track(name string, addedAt int64) models.AddedTrack {
	return models.AddedTrack{
		AddedAt: models.NewTimestamp(addedAt),
		Track:   models.Track{Name: name, Artists: []models.Artist{{Name: name + "-artist"}}},
	}
}

type memoryStorage struct {
	mu    sync.Mutex
	items map[string]string
	err   error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{items: make(map[string]string)}
}

func (m *memoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *memoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[key] = value
	return nil
}

func (m *memoryStorage) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func TestIndex(t *testing.T) {
	t.Run("RebuildIndex And Lookup", func(t *testing.T) {
		t1, t2 := track("t1", 1), track("t2", 2)
		snaps := []models.TracksSnapshot{
			{Timestamp: 1000, Tracks: []models.AddedTrack{t1, t2}, TracksCount: 2},
			{Timestamp: 2000, Tracks: []models.AddedTrack{t2}, TracksCount: 1},
		}

		idx := NewIndex[[]models.AddedTrack]()
		idx.RebuildIndex(TracksEntries(snaps))

		for _, s := range snaps {
			got, ok := idx.Lookup(s.Timestamp)
			require.True(t, ok, "timestamp %d should be indexed", s.Timestamp)
			assert.Equal(t, s.Tracks, got)
		}
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("Rebuild Clears Previous Entries", func(t *testing.T) {
		idx := NewIndex[[]models.AddedTrack]()
		idx.Store(1000, []models.AddedTrack{track("old", 1)})

		idx.RebuildIndex([]Entry[[]models.AddedTrack]{{Timestamp: 2000, Payload: []models.AddedTrack{track("new", 2)}}})

		_, ok := idx.Lookup(1000)
		assert.False(t, ok, "rebuild must drop entries missing from the new list")
		got, ok := idx.Lookup(2000)
		require.True(t, ok)
		assert.Equal(t, "new", got[0].Track.Name)
	})

	t.Run("Store Adds Single Entry", func(t *testing.T) {
		idx := NewIndex[[]models.Playlist]()
		idx.RebuildIndex(PlaylistsEntries([]models.PlaylistsSnapshot{{Timestamp: 1}}))
		idx.Store(2, []models.Playlist{{Name: "p"}})

		assert.Equal(t, 2, idx.Len())
		_, ok := idx.Lookup(1)
		assert.True(t, ok, "store must not disturb other entries")
	})

	t.Run("Clear", func(t *testing.T) {
		idx := NewIndex[int]()
		idx.Store(1, 1)
		idx.Clear()
		assert.Zero(t, idx.Len())
	})

	t.Run("Concurrent Access", func(t *testing.T) {
		idx := NewIndex[int]()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(2)
			go func(n int) {
				defer wg.Done()
				idx.Store(int64(n), n)
			}(i)
			go func(n int) {
				defer wg.Done()
				idx.Lookup(int64(n))
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 50, idx.Len())
	})
}

func TestIsEmptyPlaylistsPayload(t *testing.T) {
	tc := []struct {
		name    string
		payload []models.Playlist
		want    bool
	}{
		{name: "nil", payload: nil, want: true},
		{name: "empty", payload: []models.Playlist{}, want: true},
		{name: "playlist without tracks", payload: []models.Playlist{{Name: "x", Tracks: []models.Track{}}}, want: true},
		{name: "all playlists without tracks", payload: []models.Playlist{{Name: "x"}, {Name: "y"}}, want: true},
		{name: "playlist with a track", payload: []models.Playlist{{Name: "x", Tracks: []models.Track{{Name: "1"}}}}, want: false},
		{name: "one of many with a track", payload: []models.Playlist{{Name: "x"}, {Name: "y", Tracks: []models.Track{{Name: "1"}}}}, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmptyPlaylistsPayload(tt.payload))
		})
	}
}

func TestIsCachedAndFresh(t *testing.T) {
	tc := []struct {
		name    string
		kind    models.Kind
		payload any
		want    bool
	}{
		{name: "tracks present", kind: models.KindFavTracks, payload: []models.AddedTrack{track("t", 1)}, want: true},
		{name: "tracks empty", kind: models.KindFavTracks, payload: []models.AddedTrack{}, want: false},
		{name: "tracks nil", kind: models.KindFavTracks, payload: []models.AddedTrack(nil), want: false},
		{name: "playlists with tracks", kind: models.KindPlaylists, payload: []models.Playlist{{Tracks: []models.Track{{Name: "1"}}}}, want: true},
		{name: "playlists track-less", kind: models.KindPlaylists, payload: []models.Playlist{{Name: "x"}}, want: false},
		{name: "wrong payload type", kind: models.KindPlaylists, payload: []models.AddedTrack{track("t", 1)}, want: false},
		{name: "unknown kind", kind: models.Kind("albums"), payload: []models.AddedTrack{track("t", 1)}, want: false},
		{name: "nil payload", kind: models.KindFavTracks, payload: nil, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCachedAndFresh(tt.kind, tt.payload))
		})
	}
}

func TestMirror(t *testing.T) {
	t.Run("Round Trip Is Lossless", func(t *testing.T) {
		storage := newMemoryStorage()
		mirror := NewMirror(storage)

		subsecond := track("t3", 0)
		subsecond.AddedAt = models.Timestamp{Time: time.Date(2020, 1, 2, 3, 4, 5, 500_000_000, time.UTC)}

		snaps := []models.TracksSnapshot{
			{Timestamp: 1000, Tracks: []models.AddedTrack{track("t1", 900), track("t2", 950), subsecond}, TracksCount: 3},
		}
		require.NoError(t, mirror.SaveTracks(snaps))

		loaded, err := mirror.LoadTracks()
		require.NoError(t, err)
		assert.Equal(t, snaps, loaded)

		idx := NewIndex[[]models.AddedTrack]()
		idx.RebuildIndex(TracksEntries(loaded))
		got, ok := idx.Lookup(1000)
		require.True(t, ok)
		assert.Equal(t, snaps[0].Tracks, got)
	})

	t.Run("Stores JSON Under Storage Key", func(t *testing.T) {
		storage := newMemoryStorage()
		mirror := NewMirror(storage)

		snaps := []models.PlaylistsSnapshot{{Timestamp: 5, Playlists: []models.Playlist{{Name: "p", Tracks: []models.Track{}}}}}
		require.NoError(t, mirror.SavePlaylists(snaps))

		raw, ok, _ := storage.GetItem("ssPlaylists")
		require.True(t, ok)

		var decoded []models.PlaylistsSnapshot
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
		assert.Equal(t, snaps, decoded)
	})

	t.Run("Missing Key Loads Nil", func(t *testing.T) {
		mirror := NewMirror(newMemoryStorage())
		tracks, err := mirror.LoadTracks()
		require.NoError(t, err)
		assert.Nil(t, tracks)

		playlists, err := mirror.LoadPlaylists()
		require.NoError(t, err)
		assert.Nil(t, playlists)
	})

	t.Run("Corrupt JSON", func(t *testing.T) {
		storage := newMemoryStorage()
		storage.items["ssTracks"] = "{not json"
		_, err := NewMirror(storage).LoadTracks()
		assert.Error(t, err)
	})

	t.Run("Storage Errors", func(t *testing.T) {
		storage := newMemoryStorage()
		storage.err = errors.New("disk full")
		mirror := NewMirror(storage)

		assert.Error(t, mirror.SaveTracks(nil))
		_, err := mirror.LoadPlaylists()
		assert.Error(t, err)
	})

	t.Run("Remove", func(t *testing.T) {
		storage := newMemoryStorage()
		mirror := NewMirror(storage)
		require.NoError(t, mirror.SaveTracks([]models.TracksSnapshot{{Timestamp: 1}}))
		require.NoError(t, mirror.Remove(models.KindFavTracks))

		_, ok, _ := storage.GetItem("ssTracks")
		assert.False(t, ok)
	})

	t.Run("SQLite Backed", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		require.NoError(t, err)
		defer db.Close()
		require.NoError(t, shared.RunMigrations(db))

		mirror := NewMirror(repositories.NewLocalStorageRepository(db))
		snaps := []models.TracksSnapshot{{Timestamp: 1000, Tracks: []models.AddedTrack{track("t1", 1)}, TracksCount: 1}}
		require.NoError(t, mirror.SaveTracks(snaps))

		loaded, err := mirror.LoadTracks()
		require.NoError(t, err)
		assert.Equal(t, snaps, loaded)
	})
}
