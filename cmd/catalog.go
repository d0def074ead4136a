package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/stacks/internal/formatter"
	"github.com/desertthunder/stacks/internal/library"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/urfave/cli/v3"
)

// Home prints the home feed, one section per media type.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	feed, err := r.library.Home.Fetch(ctx, r.token(), cmd.Bool("refresh"))
	if err != nil {
		return fmt.Errorf("failed to load home feed: %w", err)
	}
	if feed == nil {
		feed = &models.HomeFeed{}
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(feed, true)
	case formatter.FormatCSV:
		return r.writeItems("Home", feed.Items(), string(format))
	}

	sections := feed.Sections()
	if len(sections) == 0 {
		return r.writePlain("The home feed is empty.\n")
	}
	for i, section := range sections {
		if i > 0 {
			r.writePlain("\n")
		}
		if err := r.writeItems(section.Name, section.Items, string(format)); err != nil {
			return err
		}
	}
	return nil
}

// Books lists the catalog, optionally narrowed by language, category or type.
func (r *Runner) Books(ctx context.Context, cmd *cli.Command) error {
	var kind models.Kind
	if t := cmd.String("type"); t != "" {
		k, err := models.ParseKind(t)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		kind = k
	}

	api := r.api(r.token())
	language := strings.TrimSpace(cmd.String("language"))
	category := strings.TrimSpace(cmd.String("category"))
	title := "Books"

	var items []models.Item
	var err error
	switch {
	case language != "":
		title = fmt.Sprintf("Books in %s", language)
		items, err = api.BooksByLanguage(ctx, language)
	case category != "":
		title = fmt.Sprintf("Category %s", category)
		items, err = api.BooksByCategory(ctx, models.ID(category))
	case kind != "" && !cmd.Bool("refresh") && !r.library.AllBooks.Valid():
		items, err = api.ListByType(ctx, kind)
	default:
		items, err = r.library.AllBooks.Fetch(ctx, r.token(), cmd.Bool("refresh"))
	}
	if err != nil {
		return fmt.Errorf("failed to load books: %w", err)
	}

	if kind != "" {
		items = models.ByKind(items, kind)
		title = fmt.Sprintf("%s (%s)", title, kind)
	}

	r.logger.Debug("listing books", "count", len(items), "language", language, "category", category, "type", kind)
	return r.writeItems(title, items, cmd.String("format"))
}

// Liked lists the signed in user's liked items.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	token, err := r.requireToken()
	if err != nil {
		return err
	}

	items, err := r.library.LikedBooks.Fetch(ctx, token, cmd.Bool("refresh"))
	if err != nil {
		return fmt.Errorf("failed to load liked items: %w", err)
	}
	return r.writeItems("Liked", items, cmd.String("format"))
}

// Categories lists catalog categories.
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	categories, err := r.api(r.token()).Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(categories, true)
	}
	if len(categories) == 0 {
		return r.writePlain("No categories.\n")
	}
	_, err = r.output.Write(formatter.CategoriesToText(categories))
	return err
}

// Search queries the server, or with --local filters the cached catalog.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		query = strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	}
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	var items []models.Item
	var err error
	if cmd.Bool("local") {
		items, err = r.library.Search(ctx, r.token(), query)
	} else {
		items, err = r.api(r.token()).Search(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return r.writeItems(fmt.Sprintf("Results for %q", query), items, cmd.String("format"))
}

func engagementTarget(cmd *cli.Command) (models.Kind, models.ID, error) {
	rawKind, rawID := cmd.StringArg("kind"), strings.TrimSpace(cmd.StringArg("id"))
	if rawKind == "" || rawID == "" {
		return "", "", fmt.Errorf("%w: <kind> <id>", shared.ErrMissingArgument)
	}
	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return kind, models.ID(rawID), nil
}

// Like likes an item and invalidates the liked list.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	return r.setLiked(ctx, cmd, true)
}

// Unlike removes a like and invalidates the liked list.
func (r *Runner) Unlike(ctx context.Context, cmd *cli.Command) error {
	return r.setLiked(ctx, cmd, false)
}

func (r *Runner) setLiked(ctx context.Context, cmd *cli.Command, liked bool) error {
	token, err := r.requireToken()
	if err != nil {
		return err
	}
	kind, id, err := engagementTarget(cmd)
	if err != nil {
		return err
	}

	api := r.api(token)
	if liked {
		err = api.Like(ctx, kind, id)
	} else {
		err = api.Unlike(ctx, kind, id)
	}
	if err != nil {
		return err
	}

	if err := r.library.Clear(library.KeyLikedBooks); err != nil {
		r.logger.Warn("failed to clear liked cache", "error", err)
	}

	if liked {
		return r.writePlain("✓ Liked %s %s\n", kind, id)
	}
	return r.writePlain("✓ Removed like from %s %s\n", kind, id)
}

// Review submits a rating for a book.
func (r *Runner) Review(ctx context.Context, cmd *cli.Command) error {
	token, err := r.requireToken()
	if err != nil {
		return err
	}

	review := models.Review{
		ItemID:  models.ID(strings.TrimSpace(cmd.StringArg("id"))),
		Rating:  cmd.Int("rating"),
		Comment: strings.TrimSpace(cmd.String("comment")),
	}
	if err := review.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if err := r.api(token).SubmitReview(ctx, review); err != nil {
		return err
	}
	return r.writePlain("✓ Review submitted (%d/5)\n", review.Rating)
}

// Open hands an item's document to the system viewer.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(strings.TrimSpace(cmd.StringArg("id")))
	if id == "" {
		return fmt.Errorf("%w: <id>", shared.ErrMissingArgument)
	}
	if cmd.Bool("banner") {
		return r.openBanner(ctx, id)
	}

	item, err := r.library.Find(ctx, r.token(), id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(item.File) == "" {
		return fmt.Errorf("%w: %q has no document", shared.ErrItemNotFound, item.Title)
	}

	target := models.ResolveURL(r.library.AssetURL(), item.File)
	r.logger.Info("opening document", "id", item.ID, "url", target)
	if err := r.openDocument(target); err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	return r.writePlain("✓ Opened %s\n", item.Title)
}

// openBanner records the ad click for a home feed banner and opens its link.
func (r *Runner) openBanner(ctx context.Context, id models.ID) error {
	token := r.token()
	feed, err := r.library.Home.Fetch(ctx, token, false)
	if err != nil {
		return fmt.Errorf("failed to load home feed: %w", err)
	}

	var banner *models.Banner
	if feed != nil {
		for i := range feed.Banners {
			if feed.Banners[i].ID == id {
				banner = &feed.Banners[i]
				break
			}
		}
	}
	if banner == nil {
		return fmt.Errorf("%w: banner %s", shared.ErrItemNotFound, id)
	}
	if strings.TrimSpace(banner.Link) == "" {
		return fmt.Errorf("%w: banner %s has no link", shared.ErrItemNotFound, id)
	}

	if banner.AdID != "" {
		if err := r.api(token).AdClick(ctx, banner.AdID); err != nil {
			r.logger.Warn("failed to record ad click", "ad", banner.AdID, "error", err)
		}
	}
	if err := r.openDocument(banner.Link); err != nil {
		return fmt.Errorf("failed to open link: %w", err)
	}
	return r.writePlain("✓ Opened %s\n", banner.Link)
}
