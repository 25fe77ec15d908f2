package backend

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

// RateLimits lists the admin rate-limit table.
func (c *Client) RateLimits(ctx context.Context) ([]RateLimitRule, error) {
	var out struct {
		Limits []RateLimitRule `json:"limits"`
	}
	if err := c.get(ctx, "/admin/rate-limits", nil, &out); err != nil {
		return nil, err
	}
	return out.Limits, nil
}

// ReleaseRateLimit clears a blocked key so the affected user can act again.
func (c *Client) ReleaseRateLimit(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate limit key is required")
	}
	return c.patch(ctx, "/admin/rate-limits/"+url.PathEscape(key)+"/release", nil, nil)
}
