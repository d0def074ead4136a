package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/stacks/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	current bool
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Author }
func (i trackItem) Title() string {
	if i.current {
		return "▶ " + i.track.Title
	}
	return i.track.Title
}
func (i trackItem) Description() string { return i.track.Author }

func trackItems(tracks []models.Track, current *models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, current: current != nil && current.SameAs(t)}
	}
	return items
}

// visibleTracks returns the tracks behind the list's visible (filtered) items.
func visibleTracks(l list.Model) []models.Track {
	visible := l.VisibleItems()
	tracks := make([]models.Track, 0, len(visible))
	for _, it := range visible {
		if ti, ok := it.(trackItem); ok {
			tracks = append(tracks, ti.track)
		}
	}
	return tracks
}
