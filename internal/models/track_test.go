package models

import "testing"

func TestTrackFromItem(t *testing.T) {
	item := Item{
		ID:         "7",
		Title:      "  The Dispossessed ",
		Author:     []byte(`{"name": "Ursula K. Le Guin"}`),
		CoverImage: "/uploads/covers/7.jpg",
		Image:      "https://img.example.com/7.png",
		AudioFile:  "uploads/audio/7.mp3",
	}

	track := TrackFromItem(item, "https://cdn.example.com/assets")

	if track.ID != "7" {
		t.Errorf("expected id 7, got %s", track.ID)
	}
	if track.Title != "The Dispossessed" {
		t.Errorf("expected trimmed title, got %q", track.Title)
	}
	if track.Author != "Ursula K. Le Guin" {
		t.Errorf("expected resolved author, got %q", track.Author)
	}
	if track.CoverImageURL != "https://cdn.example.com/assets/uploads/covers/7.jpg" {
		t.Errorf("unexpected cover url %q", track.CoverImageURL)
	}
	if track.ImageURL != "https://img.example.com/7.png" {
		t.Errorf("absolute urls should pass through, got %q", track.ImageURL)
	}
	if track.AudioURL != "https://cdn.example.com/assets/uploads/audio/7.mp3" {
		t.Errorf("unexpected audio url %q", track.AudioURL)
	}
	if !track.Playable() {
		t.Error("expected track to be playable")
	}
}

func TestTracksFromItems(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "A", AudioFile: "a.mp3"},
		{ID: "2", Title: "B", File: "b.pdf"},
		{ID: "3", Title: "C", AudioFile: "c.mp3"},
	}

	tracks := TracksFromItems(items, "https://cdn.example.com")
	if len(tracks) != 2 {
		t.Fatalf("expected 2 playable tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "1" || tracks[1].ID != "3" {
		t.Errorf("expected order preserved, got %s, %s", tracks[0].ID, tracks[1].ID)
	}
	if IndexOf(tracks, "3") != 1 {
		t.Errorf("expected IndexOf to find track 3 at 1")
	}
	if IndexOf(tracks, "2") != -1 {
		t.Errorf("expected IndexOf to miss non-playable item")
	}
}

func TestResolveURL(t *testing.T) {
	tc := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{name: "empty ref", base: "https://cdn.example.com", ref: "", want: ""},
		{name: "absolute ref", base: "https://cdn.example.com", ref: "http://other.example.com/a.mp3", want: "http://other.example.com/a.mp3"},
		{name: "leading slash", base: "https://cdn.example.com/", ref: "/a.mp3", want: "https://cdn.example.com/a.mp3"},
		{name: "base path kept", base: "https://cdn.example.com/v1", ref: "a.mp3", want: "https://cdn.example.com/v1/a.mp3"},
		{name: "query kept", base: "https://cdn.example.com", ref: "a.mp3?sig=1", want: "https://cdn.example.com/a.mp3?sig=1"},
		{name: "no base", base: "", ref: "a.mp3", want: "a.mp3"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveURL(tt.base, tt.ref); got != tt.want {
				t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
			}
		})
	}
}

func TestFilterItems(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "Dune", AuthorName: "Frank Herbert", CategoryName: "Science Fiction"},
		{ID: "2", Title: "Emma", Author: []byte(`"Jane Austen"`), CategoryName: "Classics"},
		{ID: "3", Title: "Children of Dune", AuthorName: "Frank Herbert"},
	}

	if got := FilterItems(items, "dune"); len(got) != 2 {
		t.Errorf("expected 2 title matches, got %d", len(got))
	}
	if got := FilterItems(items, "AUSTEN"); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("expected author match on polymorphic author, got %v", got)
	}
	if got := FilterItems(items, "classics"); len(got) != 1 {
		t.Errorf("expected category match, got %d", len(got))
	}
	if got := FilterItems(items, "  "); len(got) != 3 {
		t.Errorf("expected blank query to match all, got %d", len(got))
	}
	if got := FilterItems(items, "tolkien"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestByKind(t *testing.T) {
	items := []Item{{ID: "1", Kind: KindPodcast}, {ID: "2", Kind: KindBook}, {ID: "3", Kind: KindPodcast}}
	if got := ByKind(items, KindPodcast); len(got) != 2 {
		t.Errorf("expected 2 podcasts, got %d", len(got))
	}
}
