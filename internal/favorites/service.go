package favorites

import (
	"context"
	"fmt"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type backendFavorites interface {
	Favorites(ctx context.Context, userID string) ([]backend.FavoriteItem, error)
	ToggleFavorite(ctx context.Context, userID, itemID string, kind enums.ItemKind, vendorID string) ([]backend.FavoriteItem, error)
}

// Service relays favourite reads and toggles. The backend owns the list;
// the gateway never caches it because toggles are cheap and frequent.
type Service interface {
	List(ctx context.Context, userID string) ([]backend.FavoriteItem, error)
	Toggle(ctx context.Context, userID, itemID string, kind enums.ItemKind, vendorID string) ([]backend.FavoriteItem, error)
}

type service struct {
	client backendFavorites
	logg   *logger.Logger
}

// NewService builds the favourites service.
func NewService(client backendFavorites, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend favourites client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, logg: logg}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]backend.FavoriteItem, error) {
	return s.client.Favorites(ctx, userID)
}

func (s *service) Toggle(ctx context.Context, userID, itemID string, kind enums.ItemKind, vendorID string) ([]backend.FavoriteItem, error) {
	items, err := s.client.ToggleFavorite(ctx, userID, itemID, kind, vendorID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID), "favourite toggled")
	return items, nil
}
