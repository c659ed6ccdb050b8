package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/ssx/internal/cache"
	"github.com/desertthunder/ssx/internal/models"
)

// MirrorHandler answers the backend's read paths from a [Source].
//
// Summary listings strip track lists the way the backend does; the /full variants keep them.
// A detail is served only when its payload is cached and fresh; playlists whose every
// playlist lacks tracks are summary entries and answer 404.
type MirrorHandler struct {
	src Source
	mux *http.ServeMux
}

var mirrorRoutes = []string{
	"GET /api/ssfavtracks",
	"GET /api/ssfavtracks/full",
	"GET /api/ssfavtracks/{ts}",
	"GET /api/ssplaylists",
	"GET /api/ssplaylists/full",
	"GET /api/ssplaylists/{ts}",
	"GET /debug",
}

// NewMirrorHandler creates a [MirrorHandler] over src.
func NewMirrorHandler(src Source) *MirrorHandler {
	h := &MirrorHandler{src: src, mux: http.NewServeMux()}
	h.mux.HandleFunc(mirrorRoutes[0], h.listTracks(false))
	h.mux.HandleFunc(mirrorRoutes[1], h.listTracks(true))
	h.mux.HandleFunc(mirrorRoutes[2], h.tracksDetail)
	h.mux.HandleFunc(mirrorRoutes[3], h.listPlaylists(false))
	h.mux.HandleFunc(mirrorRoutes[4], h.listPlaylists(true))
	h.mux.HandleFunc(mirrorRoutes[5], h.playlistsDetail)
	h.mux.HandleFunc(mirrorRoutes[6], h.debug)
	return h
}

func (h *MirrorHandler) Routes() []string {
	return mirrorRoutes
}

func (h *MirrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *MirrorHandler) listTracks(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps := h.src.FavTracksSnapshots()
		out := make([]models.TracksSnapshot, 0, len(snaps))
		for _, s := range snaps {
			if len(s.Tracks) > 0 {
				s.TracksCount = len(s.Tracks)
			}
			if !full {
				s.Tracks = []models.AddedTrack{}
			}
			out = append(out, s)
		}
		writeData(w, "fav tracks snapshots", out)
	}
}

func (h *MirrorHandler) listPlaylists(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps := h.src.PlaylistsSnapshots()
		out := make([]models.PlaylistsSnapshot, 0, len(snaps))
		for _, s := range snaps {
			playlists := make([]models.Playlist, 0, len(s.Playlists))
			for _, p := range s.Playlists {
				if !full {
					p.Tracks = []models.Track{}
				}
				playlists = append(playlists, p)
			}
			out = append(out, models.PlaylistsSnapshot{Timestamp: s.Timestamp, Playlists: playlists})
		}
		writeData(w, "playlists snapshots", out)
	}
}

func (h *MirrorHandler) tracksDetail(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	tracks, ok := h.src.CachedFavTracks(ts)
	if !ok || !cache.IsCachedAndFresh(models.KindFavTracks, tracks) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("snapshot %d not cached", ts))
		return
	}
	writeData(w, "fav tracks snapshot", models.TracksSnapshot{Timestamp: ts, Tracks: tracks, TracksCount: len(tracks)})
}

func (h *MirrorHandler) playlistsDetail(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	playlists, ok := h.src.CachedPlaylists(ts)
	if !ok || !cache.IsCachedAndFresh(models.KindPlaylists, playlists) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("snapshot %d not cached", ts))
		return
	}
	writeData(w, "playlists snapshot", models.PlaylistsSnapshot{Timestamp: ts, Playlists: playlists})
}

func (h *MirrorHandler) debug(w http.ResponseWriter, r *http.Request) {
	writeData(w, "mirror", map[string]int{
		"favtracks_snapshots": len(h.src.FavTracksSnapshots()),
		"playlists_snapshots": len(h.src.PlaylistsSnapshots()),
	})
}

func pathTimestamp(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ts, err := strconv.ParseInt(r.PathValue("ts"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid timestamp %q", r.PathValue("ts")))
		return 0, false
	}
	return ts, true
}

func writeData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"status": http.StatusOK, "message": message, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": models.APIError{Status: status, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
