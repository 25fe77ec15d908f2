package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/internal/favorites"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

func ListFavorites(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"favourites": items})
	}
}

func ToggleFavorite(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID := chi.URLParam(r, "itemID")
		vendorID := chi.URLParam(r, "vendorID")
		if itemID == "" || vendorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id and vendor id required"))
			return
		}
		kind, err := enums.ParseItemKind(chi.URLParam(r, "kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item kind"))
			return
		}
		items, err := svc.Toggle(r.Context(), userID, itemID, kind, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"favourites": items})
	}
}
