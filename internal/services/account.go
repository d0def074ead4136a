package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

// Plans lists purchasable subscription plans.
func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/subscriptions"}, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Subscribe purchases a plan for the current user.
func (c *Client) Subscribe(ctx context.Context, planID models.ID) error {
	if planID == "" {
		return fmt.Errorf("%w: plan id", shared.ErrMissingArgument)
	}
	body := map[string]any{"plan_id": planID}
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/subscriptions", body: body, auth: true}, nil)
}

// AdClick records a banner click.
func (c *Client) AdClick(ctx context.Context, adID models.ID) error {
	if adID == "" {
		return fmt.Errorf("%w: ad id", shared.ErrMissingArgument)
	}
	return c.doRequest(ctx, request{method: http.MethodPost, path: "/api/ads" + escape(adID.String(), "click")}, nil)
}

// GeoLookup resolves the caller's country from its address.
func (c *Client) GeoLookup(ctx context.Context) (*models.GeoInfo, error) {
	var geo models.GeoInfo
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/api/geo"}, &geo); err != nil {
		return nil, err
	}
	return &geo, nil
}
