package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the media type of a catalog item.
type Kind string

const (
	KindBook      Kind = "book"
	KindAudiobook Kind = "audiobook"
	KindEbook     Kind = "ebook"
	KindMagazine  Kind = "magazine"
	KindPodcast   Kind = "podcast"
	KindVideo     Kind = "video"
)

// ParseKind maps user input (singular or plural, any case) to a [Kind].
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "book":
		return KindBook, nil
	case "audiobook", "audio":
		return KindAudiobook, nil
	case "ebook":
		return KindEbook, nil
	case "magazine":
		return KindMagazine, nil
	case "podcast":
		return KindPodcast, nil
	case "video":
		return KindVideo, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// ID is an opaque identifier that the backend sends either as a JSON number or a JSON string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Item is a catalog entry (book, audiobook, ebook, magazine, podcast or video) as the backend returns it.
type Item struct {
	ID           ID              `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Author       json.RawMessage `json:"author,omitempty"`      // string, {"name": ...} or absent
	AuthorName   string          `json:"author_name,omitempty"` // used when author is absent
	Kind         Kind            `json:"type,omitempty"`
	Language     string          `json:"language,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	CoverImage   string          `json:"cover_image,omitempty"`
	Image        string          `json:"image,omitempty"`
	AudioFile    string          `json:"audio_file,omitempty"`
	File         string          `json:"file,omitempty"` // PDF or image for non-audio content
	Rating       float64         `json:"rating,omitempty"`
	Liked        bool            `json:"is_liked,omitempty"`
}

// AuthorString resolves the polymorphic author field to display text.
func (i Item) AuthorString() string {
	raw := bytes.TrimSpace(i.Author)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}

		var obj struct {
			Name     string `json:"name"`
			FullName string `json:"full_name"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.Name != "" {
				return obj.Name
			}
			if obj.FullName != "" {
				return obj.FullName
			}
		}
	}

	if i.AuthorName != "" {
		return i.AuthorName
	}
	return "Unknown author"
}

// HasAudio reports whether the item carries a playable audio file.
func (i Item) HasAudio() bool {
	return strings.TrimSpace(i.AudioFile) != ""
}

// HomeFeed is the aggregate home endpoint payload.
type HomeFeed struct {
	Banners    []Banner `json:"banners"`
	Books      []Item   `json:"books"`
	Audiobooks []Item   `json:"audiobooks"`
	Ebooks     []Item   `json:"ebooks"`
	Magazines  []Item   `json:"magazines"`
	Podcasts   []Item   `json:"podcasts"`
	Videos     []Item   `json:"videos"`
}

// Section is one named, ordered row of the home feed.
type Section struct {
	Name  string
	Items []Item
}

// Sections returns the non-empty item rows in display order.
func (h HomeFeed) Sections() []Section {
	all := []Section{
		{Name: "Books", Items: h.Books},
		{Name: "Audiobooks", Items: h.Audiobooks},
		{Name: "Ebooks", Items: h.Ebooks},
		{Name: "Magazines", Items: h.Magazines},
		{Name: "Podcasts", Items: h.Podcasts},
		{Name: "Videos", Items: h.Videos},
	}

	sections := make([]Section, 0, len(all))
	for _, s := range all {
		if len(s.Items) > 0 {
			sections = append(sections, s)
		}
	}
	return sections
}

// Items flattens every section, keeping section order.
func (h HomeFeed) Items() []Item {
	var items []Item
	for _, s := range h.Sections() {
		items = append(items, s.Items...)
	}
	return items
}

// Banner is a promotional entry at the top of the home feed.
type Banner struct {
	ID    ID     `json:"id"`
	Image string `json:"image"`
	Link  string `json:"link,omitempty"`
	AdID  ID     `json:"ad_id,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subscription string `json:"subscription,omitempty"`
}

// Category groups catalog items.
type Category struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Review is a user rating submitted for an item.
type Review struct {
	ItemID  ID     `json:"book_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Validate checks the rating range.
func (r Review) Validate() error {
	if r.ItemID == "" {
		return fmt.Errorf("review needs an item id")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", r.Rating)
	}
	return nil
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"` // registration only
}

// Session is the login/register response.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Plan is a purchasable subscription plan.
type Plan struct {
	ID    ID      `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// GeoInfo is the geo-lookup response.
type GeoInfo struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	City        string `json:"city,omitempty"`
}

// Page is a static text page (privacy policy, terms).
type Page struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FormatID renders an integer id as an [ID].
func FormatID(n int) ID {
	return ID(strconv.Itoa(n))
}
