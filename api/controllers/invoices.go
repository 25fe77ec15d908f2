package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/api/validators"
	"github.com/kampyn/ordering-gateway/internal/invoices"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type bulkZipRequest struct {
	InvoiceIDs []string `json:"invoiceIds" validate:"required,min=1"`
}

func ListInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := chi.URLParam(r, "vendorID")
		if vendorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required"))
			return
		}
		query := backend.InvoiceQuery{
			VendorID: vendorID,
			From:     r.URL.Query().Get("from"),
			To:       r.URL.Query().Get("to"),
		}
		rows, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"invoices": rows})
	}
}

// DownloadInvoiceZip streams the backend's zip archive straight through
// without buffering it in memory.
func DownloadInvoiceZip(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkZipRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, contentType, err := svc.BulkZip(r.Context(), payload.InvoiceIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer body.Close()

		if contentType == "" {
			contentType = "application/zip"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", `attachment; filename="invoices.zip"`)
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil && logg != nil {
			logg.Error(r.Context(), "stream invoice zip", err)
		}
	}
}
