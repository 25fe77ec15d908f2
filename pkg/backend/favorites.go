package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// Favorites lists a user's favourited items.
func (c *Client) Favorites(ctx context.Context, userID string) ([]FavoriteItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	var out struct {
		Favourites []FavoriteItem `json:"favourites"`
	}
	if err := c.get(ctx, "/fav/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Favourites, nil
}

// ToggleFavorite flips the favourite flag for one item and returns the
// updated list.
func (c *Client) ToggleFavorite(ctx context.Context, userID, itemID string, kind enums.ItemKind, vendorID string) ([]FavoriteItem, error) {
	switch {
	case strings.TrimSpace(userID) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	case strings.TrimSpace(itemID) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	case !kind.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
	case strings.TrimSpace(vendorID) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}

	path := fmt.Sprintf("/fav/%s/%s/%s/%s",
		url.PathEscape(userID), url.PathEscape(itemID), url.PathEscape(kind.String()), url.PathEscape(vendorID))

	var out struct {
		Favourites []FavoriteItem `json:"favourites"`
	}
	if err := c.patch(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Favourites, nil
}
