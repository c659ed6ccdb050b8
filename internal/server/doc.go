// Package server serves the local snapshot cache over HTTP so other tools can read it offline.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] uses [http.ServeMux] method patterns and an alice chain; [Middleware] added
// first runs outermost.
//
// Bundled middleware:
//   - [RequestID] keeps or generates X-Request-ID
//   - [Recover] converts panics to a 500 error envelope
//   - [Logging] writes one line per request
//
// # Mirror
//
// [MirrorHandler] answers the backend's read-only paths from a [Source], normally the
// sync controller:
//
//	GET /api/ssfavtracks             → summaries (tracks stripped)
//	GET /api/ssfavtracks/full        → summaries with tracks
//	GET /api/ssfavtracks/{ts}        → cached detail, 404 when not cached
//	GET /api/ssplaylists             → summaries (playlist tracks stripped)
//	GET /api/ssplaylists/full        → summaries with tracks
//	GET /api/ssplaylists/{ts}        → cached detail, 404 when not cached
//	GET /debug                       → snapshot counts
//
// Responses use the backend envelope ({status, message, data} or {error: {status, message}}),
// so the services client can point its base URL at a running mirror.
package server
