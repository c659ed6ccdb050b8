// Package services implements the HTTP clients used by ssx.
//
// # Backend Client
//
// [Client] talks to the snapshot backend. Every endpoint answers with a JSON
// envelope ([models.Envelope]) holding either data or an error. [Client.Do]
// returns raw responses; the typed methods in backend.go decode envelopes.
//
// The bearer token comes from an [oauth2.TokenSource] (the session accessor) and
// is attached only when present. Requests are rate limited with [rate.Limiter]
// and tagged with an X-Request-ID.
//
// # Spotify
//
// [SpotifyService] reuses [Client] against the Spotify Web API to read the
// current user's profile and saved tracks, or to pass arbitrary GETs through.
//
// # Error Handling
//
//   - [*TransportError] : no envelope (connection failure, or non-2xx without an error body); unwraps to [shared.ErrTransport]
//   - [*APIError] : the envelope carried an error; unwraps to [shared.ErrTokenExpired] for the
//     expired-token shape, otherwise [shared.ErrAPIRequest]
//   - [shared.ErrInvalidEnvelope] : a 2xx body that is not an envelope
package services
