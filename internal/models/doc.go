// Package models defines the entities exchanged with the snapshot backend.
//
// Snapshots come in two kinds, selected by [Kind]:
//   - [TracksSnapshot] : favorite tracks ([AddedTrack]) captured at a unix timestamp
//   - [PlaylistsSnapshot] : playlists ([Playlist]) with their [Track] listings
//
// Every backend response is wrapped in an [Envelope] carrying either a data payload
// or an [APIError]. [Diff] is the payload of the favorites diff endpoint.
package models
