package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

// Home fetches the aggregate home feed.
func (c *Client) Home(ctx context.Context) (*models.HomeFeed, error) {
	var feed models.HomeFeed
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/home", auth: true}, &feed); err != nil {
		return nil, err
	}
	tag(feed.Books, models.KindBook)
	tag(feed.Audiobooks, models.KindAudiobook)
	tag(feed.Ebooks, models.KindEbook)
	tag(feed.Magazines, models.KindMagazine)
	tag(feed.Podcasts, models.KindPodcast)
	tag(feed.Videos, models.KindVideo)
	return &feed, nil
}

// Categories lists catalog categories. No session needed.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Books lists the whole book catalog.
func (c *Client) Books(ctx context.Context) ([]models.Item, error) {
	return c.items(ctx, request{method: http.MethodGet, path: "/api/books", auth: true}, models.KindBook)
}

// BooksByLanguage lists books in lang.
func (c *Client) BooksByLanguage(ctx context.Context, lang string) ([]models.Item, error) {
	if strings.TrimSpace(lang) == "" {
		return nil, fmt.Errorf("%w: language", shared.ErrMissingArgument)
	}
	q := url.Values{"language": {lang}}
	return c.items(ctx, request{method: http.MethodGet, path: "/api/books", query: q, auth: true}, models.KindBook)
}

// BooksByCategory lists books in a category.
func (c *Client) BooksByCategory(ctx context.Context, id models.ID) ([]models.Item, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: category id", shared.ErrMissingArgument)
	}
	path := "/api/books/category" + escape(id.String())
	return c.items(ctx, request{method: http.MethodGet, path: path, auth: true}, models.KindBook)
}

// Book fetches a single book by id.
func (c *Client) Book(ctx context.Context, id models.ID) (*models.Item, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	var item models.Item
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/books" + escape(id.String()), auth: true}, &item); err != nil {
		return nil, err
	}
	if item.Kind == "" {
		item.Kind = models.KindBook
	}
	return &item, nil
}

// Search runs a server-side search across every content type.
func (c *Client) Search(ctx context.Context, query string) ([]models.Item, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	q := url.Values{"q": {query}}
	return c.items(ctx, request{method: http.MethodGet, path: "/api/search", query: q, auth: true}, "")
}

// ListByType lists one content type (audio, ebooks, magazines, videos, podcasts, books).
func (c *Client) ListByType(ctx context.Context, kind models.Kind) ([]models.Item, error) {
	seg, ok := typePaths[kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %q", shared.ErrInvalidArgument, kind)
	}
	return c.items(ctx, request{method: http.MethodGet, path: "/api/" + seg, auth: true}, kind)
}

// Backgrounds returns the decorative background image urls.
func (c *Client) Backgrounds(ctx context.Context) ([]string, error) {
	var raw []struct {
		Image string `json:"image"`
	}
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/backgrounds"}, &raw); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(raw))
	for _, r := range raw {
		if u := models.ResolveURL(c.AssetURL(), r.Image); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// Page slugs accepted by [Client.Page].
const (
	PagePrivacyPolicy = "privacy-policy"
	PageTerms         = "terms"
)

// Page fetches a static text page.
func (c *Client) Page(ctx context.Context, slug string) (*models.Page, error) {
	if slug != PagePrivacyPolicy && slug != PageTerms {
		return nil, fmt.Errorf("%w: page %q", shared.ErrInvalidArgument, slug)
	}
	var page models.Page
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/pages/" + slug}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

var typePaths = map[models.Kind]string{
	models.KindBook:      "books",
	models.KindAudiobook: "audio",
	models.KindEbook:     "ebooks",
	models.KindMagazine:  "magazines",
	models.KindVideo:     "videos",
	models.KindPodcast:   "podcasts",
}

func (c *Client) items(ctx context.Context, r request, kind models.Kind) ([]models.Item, error) {
	var items []models.Item
	if err := c.doRequest(ctx, r, &items); err != nil {
		return nil, err
	}
	if kind != "" {
		tag(items, kind)
	}
	return items, nil
}

// tag fills in the kind the backend left out.
func tag(items []models.Item, kind models.Kind) {
	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = kind
		}
	}
}
