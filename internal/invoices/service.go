package invoices

import (
	"context"
	"fmt"
	"io"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type backendInvoices interface {
	Invoices(ctx context.Context, query backend.InvoiceQuery) ([]backend.Invoice, error)
	BulkZipDownload(ctx context.Context, invoiceIDs []string) (io.ReadCloser, string, error)
}

// Service relays vendor invoice listings and bulk downloads.
type Service interface {
	List(ctx context.Context, query backend.InvoiceQuery) ([]backend.Invoice, error)
	BulkZip(ctx context.Context, invoiceIDs []string) (io.ReadCloser, string, error)
}

type service struct {
	client backendInvoices
	logg   *logger.Logger
}

// NewService builds the invoices service.
func NewService(client backendInvoices, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend invoices client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, logg: logg}, nil
}

func (s *service) List(ctx context.Context, query backend.InvoiceQuery) ([]backend.Invoice, error) {
	return s.client.Invoices(ctx, query)
}

func (s *service) BulkZip(ctx context.Context, invoiceIDs []string) (io.ReadCloser, string, error) {
	s.logg.Info(s.logg.WithField(ctx, "invoice_count", len(invoiceIDs)), "bulk invoice download started")
	return s.client.BulkZipDownload(ctx, invoiceIDs)
}
