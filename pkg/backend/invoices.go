package backend

import (
	"context"
	"io"
	"net/url"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

// InvoiceQuery narrows an invoice listing.
type InvoiceQuery struct {
	VendorID string
	From     string
	To       string
}

// Invoices lists invoices for a vendor, optionally bounded by date.
func (c *Client) Invoices(ctx context.Context, query InvoiceQuery) ([]Invoice, error) {
	if strings.TrimSpace(query.VendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}
	params := url.Values{}
	if query.From != "" {
		params.Set("from", query.From)
	}
	if query.To != "" {
		params.Set("to", query.To)
	}
	var out struct {
		Invoices []Invoice `json:"invoices"`
	}
	if err := c.get(ctx, "/api/invoices/vendor/"+url.PathEscape(query.VendorID), params, &out); err != nil {
		return nil, err
	}
	return out.Invoices, nil
}

// BulkZipDownload streams a zip of the requested invoice PDFs. The caller
// owns closing the returned reader.
func (c *Client) BulkZipDownload(ctx context.Context, invoiceIDs []string) (io.ReadCloser, string, error) {
	if len(invoiceIDs) == 0 {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "at least one invoice id is required")
	}
	body := struct {
		InvoiceIDs []string `json:"invoiceIds"`
	}{InvoiceIDs: invoiceIDs}
	return c.doStream(ctx, "POST", "/api/invoices/bulk-zip-download", body)
}
