// Package models defines the catalog entities returned by the library backend and the normalized [Track] consumed by
// the playback engine.
//
// The backend is loose about shapes: identifiers arrive as numbers or strings ([ID]), and an item's author may be a
// plain string, an object with a name, or a separate author_name field. All of that is resolved here, at the adapter
// boundary, by [TrackFromItem] so the player only ever sees a flat, immutable [Track].
//
// Search over already fetched data is a linear substring scan ([FilterItems]).
package models
