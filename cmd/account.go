package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/urfave/cli/v3"
)

// AccountPlans lists the purchasable subscription plans.
func (r *Runner) AccountPlans(ctx context.Context, cmd *cli.Command) error {
	plans, err := r.client.Plans(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(plans, true)
	}
	if len(plans) == 0 {
		return r.writePlain("No plans available.\n")
	}

	r.writePlainHeader("Plans")
	for _, p := range plans {
		r.writePlain("[%s] %-20s %8.2f\n", p.ID, p.Name, p.Price)
	}
	return nil
}

// AccountSubscribe purchases a plan for the signed in user.
func (r *Runner) AccountSubscribe(ctx context.Context, cmd *cli.Command) error {
	token, err := r.requireToken()
	if err != nil {
		return err
	}
	plan := models.ID(strings.TrimSpace(cmd.StringArg("plan")))
	if plan == "" {
		return fmt.Errorf("%w: <plan-id>", shared.ErrMissingArgument)
	}

	if err := r.api(token).Subscribe(ctx, plan); err != nil {
		return err
	}
	return r.writePlain("✓ Subscribed to plan %s\n", plan)
}

// AccountRegion prints the geo lookup result.
func (r *Runner) AccountRegion(ctx context.Context, cmd *cli.Command) error {
	geo, err := r.client.GeoLookup(ctx)
	if err != nil {
		return fmt.Errorf("geo lookup failed: %w", err)
	}
	if geo.City != "" {
		return r.writePlain("%s, %s (%s)\n", geo.City, geo.Country, geo.CountryCode)
	}
	return r.writePlain("%s (%s)\n", geo.Country, geo.CountryCode)
}

// Bookmark saves a reading position for a document.
func (r *Runner) Bookmark(ctx context.Context, cmd *cli.Command) error {
	token, err := r.requireToken()
	if err != nil {
		return err
	}
	id := models.ID(strings.TrimSpace(cmd.StringArg("id")))
	if id == "" {
		return fmt.Errorf("%w: <id>", shared.ErrMissingArgument)
	}
	page := cmd.Int("page")
	if page < 1 {
		return fmt.Errorf("%w: page must be positive, got %d", shared.ErrInvalidArgument, page)
	}

	if err := r.api(token).Bookmark(ctx, id, page); err != nil {
		return err
	}
	return r.writePlain("✓ Bookmarked page %d of %s\n", page, id)
}

// Page prints a static text page.
func (r *Runner) Page(ctx context.Context, cmd *cli.Command) error {
	slug := strings.TrimSpace(cmd.StringArg("slug"))
	if slug == "" {
		return fmt.Errorf("%w: privacy-policy or terms", shared.ErrMissingArgument)
	}

	page, err := r.client.Page(ctx, slug)
	if err != nil {
		return err
	}
	r.writePlainHeader(page.Title)
	return r.writePlain("%s\n", strings.TrimSpace(page.Content))
}
