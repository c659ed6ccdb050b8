package cache

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/ssx/internal/models"
)

// LocalStorage is a string key/value store with the browser localStorage API.
type LocalStorage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Mirror persists snapshot lists as JSON under [models.Kind.StorageKey].
type Mirror struct {
	storage LocalStorage
}

func NewMirror(storage LocalStorage) *Mirror {
	return &Mirror{storage: storage}
}

// SaveTracks writes the tracks snapshot list.
func (m *Mirror) SaveTracks(snaps []models.TracksSnapshot) error {
	return m.save(models.KindFavTracks, snaps)
}

// SavePlaylists writes the playlists snapshot list.
func (m *Mirror) SavePlaylists(snaps []models.PlaylistsSnapshot) error {
	return m.save(models.KindPlaylists, snaps)
}

// LoadTracks reads the tracks snapshot list. A missing key yields nil.
func (m *Mirror) LoadTracks() ([]models.TracksSnapshot, error) {
	var snaps []models.TracksSnapshot
	if err := m.load(models.KindFavTracks, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// LoadPlaylists reads the playlists snapshot list. A missing key yields nil.
func (m *Mirror) LoadPlaylists() ([]models.PlaylistsSnapshot, error) {
	var snaps []models.PlaylistsSnapshot
	if err := m.load(models.KindPlaylists, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Remove drops the stored list for kind.
func (m *Mirror) Remove(kind models.Kind) error {
	return m.storage.RemoveItem(kind.StorageKey())
}

func (m *Mirror) save(kind models.Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind.StorageKey(), err)
	}
	if err := m.storage.SetItem(kind.StorageKey(), string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", kind.StorageKey(), err)
	}
	return nil
}

func (m *Mirror) load(kind models.Kind, v any) error {
	raw, ok, err := m.storage.GetItem(kind.StorageKey())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", kind.StorageKey(), err)
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", kind.StorageKey(), err)
	}
	return nil
}
