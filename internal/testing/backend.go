package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/ssx/internal/models"
)

// ExpiredTokenBody is the envelope the backend sends when the access token has expired.
const ExpiredTokenBody = `{"error":{"status":401,"message":"The access token expired"}}`

// FakeBackend is an in-process snapshot backend.
//
// Summaries strip tracks the way the real list endpoints do; detail endpoints
// return full snapshots. Responses for the save and refresh endpoints can be
// scripted, and any "METHOD /path" can be forced to fail.
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	tracks    []models.TracksSnapshot
	playlists []models.PlaylistsSnapshot
	diffs     map[int64]string
	hits      map[string]int
	auth      []string

	saveTracks    []string
	savePlaylists []string
	refreshStatus int
	refreshBody   string
	failures      map[string]int
	errors        map[string]models.APIError
}

// NewFakeBackend starts a [FakeBackend] that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		diffs:         make(map[int64]string),
		hits:          make(map[string]int),
		failures:      make(map[string]int),
		errors:        make(map[string]models.APIError),
		refreshStatus: http.StatusOK,
		refreshBody:   `{"status":200,"message":"token refreshed","data":{"access_token":"refreshed-token"}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ssfavtracks", b.listTracks(false))
	mux.HandleFunc("GET /api/ssfavtracks/full", b.listTracks(true))
	mux.HandleFunc("GET /api/ssfavtracks/{ts}", b.tracksDetail)
	mux.HandleFunc("DELETE /api/ssfavtracks/{ts}", b.deleteTracks)
	mux.HandleFunc("GET /api/ssfavtracks/diff/{ts}", b.diff)
	mux.HandleFunc("GET /api/ssplaylists", b.listPlaylists(false))
	mux.HandleFunc("GET /api/ssplaylists/full", b.listPlaylists(true))
	mux.HandleFunc("GET /api/ssplaylists/{ts}", b.playlistsDetail)
	mux.HandleFunc("DELETE /api/ssplaylists/{ts}", b.deletePlaylists)
	mux.HandleFunc("/save_current_tracks", b.scripted(&b.saveTracks, "saved current tracks"))
	mux.HandleFunc("/save_current_playlists", b.scripted(&b.savePlaylists, "saved current playlists"))
	mux.HandleFunc("/refresh_token", b.refresh)
	mux.HandleFunc("GET /debug", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("debug ok"))
	})

	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// SetTracks replaces the stored tracks snapshots.
func (b *FakeBackend) SetTracks(snaps ...models.TracksSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracks = snaps
}

// SetPlaylists replaces the stored playlists snapshots.
func (b *FakeBackend) SetPlaylists(snaps ...models.PlaylistsSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playlists = snaps
}

// SetDiff sets the raw JSON data returned by the diff endpoint for ts.
func (b *FakeBackend) SetDiff(ts int64, data string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diffs[ts] = data
}

// QueueSaveTracks queues raw bodies returned by successive /save_current_tracks calls.
func (b *FakeBackend) QueueSaveTracks(bodies ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveTracks = append(b.saveTracks, bodies...)
}

// QueueSavePlaylists queues raw bodies returned by successive /save_current_playlists calls.
func (b *FakeBackend) QueueSavePlaylists(bodies ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.savePlaylists = append(b.savePlaylists, bodies...)
}

// SetRefresh scripts the /refresh_token response.
func (b *FakeBackend) SetRefresh(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
	b.refreshBody = body
}

// Fail makes route (e.g. "GET /api/ssfavtracks") answer status with an empty body.
func (b *FakeBackend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = status
}

// Error makes route answer with an error envelope.
func (b *FakeBackend) Error(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors[route] = models.APIError{Status: status, Message: message}
}

// Reset clears forced failures and errors.
func (b *FakeBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.failures)
	clear(b.errors)
}

// Hits returns how many times route was requested.
func (b *FakeBackend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// TotalHits returns the number of requests served.
func (b *FakeBackend) TotalHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

// Authorizations returns the Authorization headers seen, in order.
func (b *FakeBackend) Authorizations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.auth...)
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.hits[route]++
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		status, failed := b.failures[route]
		apiErr, errored := b.errors[route]
		b.mu.Unlock()

		switch {
		case failed:
			w.WriteHeader(status)
		case errored:
			writeJSON(w, apiErr.Status, map[string]any{"error": apiErr})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (b *FakeBackend) listTracks(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		out := make([]models.TracksSnapshot, 0, len(b.tracks))
		for _, s := range b.tracks {
			s.TracksCount = len(s.Tracks)
			if !full {
				s.Tracks = []models.AddedTrack{}
			}
			out = append(out, s)
		}
		b.mu.Unlock()
		writeData(w, "fav tracks snapshots", out)
	}
}

func (b *FakeBackend) listPlaylists(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		out := make([]models.PlaylistsSnapshot, 0, len(b.playlists))
		for _, s := range b.playlists {
			playlists := make([]models.Playlist, 0, len(s.Playlists))
			for _, p := range s.Playlists {
				if !full {
					p.Tracks = []models.Track{}
				}
				playlists = append(playlists, p)
			}
			out = append(out, models.PlaylistsSnapshot{Timestamp: s.Timestamp, Playlists: playlists})
		}
		b.mu.Unlock()
		writeData(w, "playlists snapshots", out)
	}
}

func (b *FakeBackend) tracksDetail(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.tracks {
		if s.Timestamp == ts {
			s.TracksCount = len(s.Tracks)
			writeData(w, "fav tracks snapshot", s)
			return
		}
	}
	writeNotFound(w, ts)
}

func (b *FakeBackend) playlistsDetail(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.playlists {
		if s.Timestamp == ts {
			writeData(w, "playlists snapshot", s)
			return
		}
	}
	writeNotFound(w, ts)
}

func (b *FakeBackend) deleteTracks(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.tracks {
		if s.Timestamp == ts {
			b.tracks = append(b.tracks[:i:i], b.tracks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": fmt.Sprintf("snapshot %d deleted", ts)})
			return
		}
	}
	writeNotFound(w, ts)
}

func (b *FakeBackend) deletePlaylists(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.playlists {
		if s.Timestamp == ts {
			b.playlists = append(b.playlists[:i:i], b.playlists[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": fmt.Sprintf("snapshot %d deleted", ts)})
			return
		}
	}
	writeNotFound(w, ts)
}

func (b *FakeBackend) diff(w http.ResponseWriter, r *http.Request) {
	ts, ok := pathTimestamp(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	data, found := b.diffs[ts]
	b.mu.Unlock()
	if !found {
		data = `{"newTracks":[],"removedTracks":[]}`
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "diff", "data": json.RawMessage(data)})
}

func (b *FakeBackend) scripted(queue *[]string, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		var body string
		if len(*queue) > 0 {
			body = (*queue)[0]
			*queue = (*queue)[1:]
		}
		b.mu.Unlock()

		if body == "" {
			writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": message})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func (b *FakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status, body := b.refreshStatus, b.refreshBody
	b.mu.Unlock()

	if status >= 200 && status < 300 {
		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "refreshed-token", Path: "/", MaxAge: 3600})
	}
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func pathTimestamp(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ts, err := strconv.ParseInt(r.PathValue("ts"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": models.APIError{Status: 400, Message: "invalid timestamp"}})
		return 0, false
	}
	return ts, true
}

func writeNotFound(w http.ResponseWriter, ts int64) {
	writeJSON(w, http.StatusNotFound, map[string]any{"error": models.APIError{Status: 404, Message: fmt.Sprintf("snapshot %d not found", ts)}})
}

func writeData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": message, "data": data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
