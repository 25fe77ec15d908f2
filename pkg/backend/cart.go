package backend

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

// GetCart fetches the authoritative cart for a user.
func (c *Client) GetCart(ctx context.Context, userID string) (*Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	var out Cart
	if err := c.get(ctx, "/cart/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		out.UserID = userID
	}
	return &out, nil
}

// ReplaceCart overwrites the server cart with the given lines. The backend
// echoes back its accepted snapshot, which supersedes any local projection.
func (c *Client) ReplaceCart(ctx context.Context, userID string, lines []CartLine) (*Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	body := struct {
		Items []CartLine `json:"cart"`
	}{Items: lines}
	var out Cart
	if err := c.patch(ctx, "/cart/"+url.PathEscape(userID), body, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		out.UserID = userID
	}
	return &out, nil
}

// ClearCart empties the server cart, typically after a verified payment.
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	_, err := c.ReplaceCart(ctx, userID, nil)
	return err
}
