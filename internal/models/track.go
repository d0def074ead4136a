package models

import (
	"net/url"
	"strings"
)

// Track is a normalized playable unit. Values are never mutated after construction; playback identity is the ID.
type Track struct {
	ID            ID     `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	AudioURL      string `json:"audioUrl,omitempty"`
}

// Playable reports whether the track carries an audio url.
func (t Track) Playable() bool {
	return strings.TrimSpace(t.AudioURL) != ""
}

// SameAs compares playback identity.
func (t Track) SameAs(other Track) bool {
	return t.ID == other.ID
}

// TrackFromItem builds a [Track] from a catalog item, resolving relative asset paths against assetBase.
func TrackFromItem(item Item, assetBase string) Track {
	return Track{
		ID:            item.ID,
		Title:         strings.TrimSpace(item.Title),
		Author:        item.AuthorString(),
		CoverImageURL: ResolveURL(assetBase, item.CoverImage),
		ImageURL:      ResolveURL(assetBase, item.Image),
		AudioURL:      ResolveURL(assetBase, item.AudioFile),
	}
}

// TracksFromItems converts the playable items, preserving order. Items without audio are skipped.
func TracksFromItems(items []Item, assetBase string) []Track {
	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		if !item.HasAudio() {
			continue
		}
		tracks = append(tracks, TrackFromItem(item, assetBase))
	}
	return tracks
}

// IndexOf returns the position of the track with id in tracks, or -1.
func IndexOf(tracks []Track, id ID) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ResolveURL returns ref unchanged when it is already absolute, otherwise joins it onto base.
// Empty refs stay empty.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == "" {
		return ref
	}

	b, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return ref
	}
	return b.ResolveReference(&url.URL{Path: strings.TrimPrefix(u.Path, "/"), RawQuery: u.RawQuery}).String()
}
