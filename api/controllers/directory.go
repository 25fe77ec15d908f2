package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/internal/directory"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

func ListColleges(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		colleges, err := svc.Colleges(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"colleges": colleges})
	}
}

func ListCollegeVendors(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collegeID := chi.URLParam(r, "collegeID")
		if collegeID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "college id required"))
			return
		}
		vendors, err := svc.Vendors(r.Context(), collegeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vendors": vendors})
	}
}
