package portalapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

// ListPlans returns the plan catalogue.
func (c *Client) ListPlans(ctx context.Context) ([]subscription.Plan, error) {
	var plans []subscription.Plan
	if err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/subscriptions/plans/",
		out:    &plans,
	}); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetPlan returns a single plan. An unknown id is a Validation error.
func (c *Client) GetPlan(ctx context.Context, id int) (*subscription.Plan, error) {
	var plan subscription.Plan
	if err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/subscriptions/plans/" + strconv.Itoa(id) + "/",
		out:      &plan,
		notFound: portalerr.Validation,
	}); err != nil {
		return nil, err
	}
	return &plan, nil
}
