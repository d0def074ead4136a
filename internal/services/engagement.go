package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

// likeTarget maps a content kind to the like endpoint segment. Every written format is liked as a book.
func likeTarget(kind models.Kind) (string, error) {
	switch kind {
	case models.KindBook, models.KindAudiobook, models.KindEbook, models.KindMagazine:
		return "book", nil
	case models.KindVideo:
		return "video", nil
	case models.KindPodcast:
		return "podcast", nil
	default:
		return "", fmt.Errorf("%w: cannot like kind %q", shared.ErrInvalidArgument, kind)
	}
}

// Like marks an item as liked.
func (c *Client) Like(ctx context.Context, kind models.Kind, id models.ID) error {
	return c.like(ctx, http.MethodPost, kind, id)
}

// Unlike removes a like.
func (c *Client) Unlike(ctx context.Context, kind models.Kind, id models.ID) error {
	return c.like(ctx, http.MethodDelete, kind, id)
}

func (c *Client) like(ctx context.Context, method string, kind models.Kind, id models.ID) error {
	target, err := likeTarget(kind)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	return c.doRequest(ctx, request{method: method, path: "/api/like" + escape(target, id.String()), auth: true}, nil)
}

// LikedBooks lists the user's liked items.
func (c *Client) LikedBooks(ctx context.Context) ([]models.Item, error) {
	items, err := c.items(ctx, request{method: http.MethodGet, path: "/api/liked-books", auth: true}, models.KindBook)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Liked = true
	}
	return items, nil
}

// Bookmark saves a reading position.
func (c *Client) Bookmark(ctx context.Context, id models.ID, page int) error {
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	body := map[string]any{"book_id": id, "page": page}
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/bookmarks", body: body, auth: true}, nil)
}

// SubmitReview posts a rating. The review is validated before sending.
func (c *Client) SubmitReview(ctx context.Context, review models.Review) error {
	if err := review.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/reviews", body: review, auth: true}, nil)
}

// RecordPlay adds an entry to the play history.
func (c *Client) RecordPlay(ctx context.Context, id models.ID, position float64) error {
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	body := map[string]any{"book_id": id, "position": position}
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/play-history", body: body, auth: true}, nil)
}
