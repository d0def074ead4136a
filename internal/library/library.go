// Package library wires the backend client to the cached datasets the UIs read from.
//
// Three datasets exist: "home" (the aggregate feed), "likedBooks" and "allBooks" (the catalog). Each is a
// [cache.Dataset] with the five minute TTL and stale fallback. Local search and track derivation read the cached
// catalog, so they cost a network call only when it is cold or expired.
package library

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/cache"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/services"
	"github.com/desertthunder/stacks/internal/shared"
)

// Dataset names.
const (
	KeyHome       = "home"
	KeyLikedBooks = "likedBooks"
	KeyAllBooks   = "allBooks"
)

// Backend is the part of the API client the library reads through.
type Backend interface {
	Home(ctx context.Context) (*models.HomeFeed, error)
	LikedBooks(ctx context.Context) ([]models.Item, error)
	Books(ctx context.Context) ([]models.Item, error)
	AssetURL() string
}

// Connector yields a backend authenticated as token.
type Connector func(token string) Backend

// FromClient adapts a [services.Client] into a [Connector].
func FromClient(c *services.Client) Connector {
	return func(token string) Backend { return c.WithToken(token) }
}

// Library holds the cached datasets.
type Library struct {
	Home       *cache.Dataset[*models.HomeFeed]
	LikedBooks *cache.Dataset[[]models.Item]
	AllBooks   *cache.Dataset[[]models.Item]

	connect  Connector
	registry *cache.Registry
	logger   *log.Logger
}

// New builds the datasets. opts are passed to every dataset.
func New(connect Connector, logger *log.Logger, opts ...cache.Option) *Library {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	opts = append([]cache.Option{cache.WithLogger(logger)}, opts...)

	l := &Library{
		connect:  connect,
		registry: cache.NewRegistry(),
		logger:   shared.WithLogger(logger, "component", "library"),
	}

	l.Home = cache.New(KeyHome, func(ctx context.Context, token string) (*models.HomeFeed, error) {
		return connect(token).Home(ctx)
	}, opts...)
	l.LikedBooks = cache.New(KeyLikedBooks, func(ctx context.Context, token string) ([]models.Item, error) {
		return connect(token).LikedBooks(ctx)
	}, opts...)
	l.AllBooks = cache.New(KeyAllBooks, func(ctx context.Context, token string) ([]models.Item, error) {
		return connect(token).Books(ctx)
	}, opts...)

	l.registry.Register(l.Home)
	l.registry.Register(l.LikedBooks)
	l.registry.Register(l.AllBooks)
	return l
}

// Clear resets one dataset by name.
func (l *Library) Clear(key string) error {
	return l.registry.Clear(key)
}

// ClearAll resets every dataset, for example after logout.
func (l *Library) ClearAll() {
	l.registry.ClearAll()
	l.logger.Debug("cleared all datasets")
}

// Summaries describes every dataset.
func (l *Library) Summaries() []cache.Summary {
	return l.registry.Summaries()
}

// Keys lists dataset names.
func (l *Library) Keys() []string {
	return l.registry.Keys()
}

// Search filters the cached catalog by a case-insensitive substring.
func (l *Library) Search(ctx context.Context, token, query string) ([]models.Item, error) {
	items, err := l.AllBooks.Fetch(ctx, token, false)
	if err != nil {
		return nil, err
	}
	return models.FilterItems(items, query), nil
}

// Tracks derives the playable tracks of the cached catalog.
func (l *Library) Tracks(ctx context.Context, token string) ([]models.Track, error) {
	items, err := l.AllBooks.Fetch(ctx, token, false)
	if err != nil {
		return nil, err
	}
	return models.TracksFromItems(items, l.connect(token).AssetURL()), nil
}

// HomeTracks derives the playable tracks of the cached home feed, in section order.
func (l *Library) HomeTracks(ctx context.Context, token string) ([]models.Track, error) {
	feed, err := l.Home.Fetch(ctx, token, false)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, nil
	}
	return models.TracksFromItems(feed.Items(), l.connect(token).AssetURL()), nil
}

// Find looks an item up by id in the cached catalog, then the liked list.
func (l *Library) Find(ctx context.Context, token string, id models.ID) (*models.Item, error) {
	items, err := l.AllBooks.Fetch(ctx, token, false)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == id {
			return &item, nil
		}
	}

	if liked, err := l.LikedBooks.Fetch(ctx, token, false); err == nil {
		for _, item := range liked {
			if item.ID == id {
				return &item, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
}

// AssetURL is the prefix for relative media paths.
func (l *Library) AssetURL() string {
	return l.connect("").AssetURL()
}
