package ordersync

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
	"github.com/kampyn/ordering-gateway/pkg/schedule"
)

type backendOrders interface {
	ActiveOrders(ctx context.Context, userID string) ([]backend.Order, error)
	PastOrders(ctx context.Context, userID string) ([]backend.Order, error)
	DeliveryOrders(ctx context.Context, vendorID string) ([]backend.Order, error)
	VendorOrderHistory(ctx context.Context, vendorID string) ([]backend.Order, error)
	GetOrder(ctx context.Context, orderID string) (*backend.Order, error)
	AdvanceOrder(ctx context.Context, orderID string) (*backend.Order, error)
}

// SnapshotRecorder persists terminal orders to the local journal.
// Write-behind; a nil recorder disables it.
type SnapshotRecorder interface {
	RecordOrder(ctx context.Context, order backend.Order)
}

// HistoryReader serves cached terminal orders when the backend is down.
// The journal satisfies it; a recorder without it just has no fallback.
type HistoryReader interface {
	VendorHistory(ctx context.Context, vendorID string, limit int) ([]backend.Order, error)
}

// Service maintains the order mirror and relays lifecycle advances.
type Service interface {
	SyncVendors(ctx context.Context, vendorIDs []string) error
	SyncVendorHistory(ctx context.Context, vendorIDs []string) error
	SyncUserActive(ctx context.Context, userID string) ([]backend.Order, error)
	SyncUserHistory(ctx context.Context, userID string) ([]backend.Order, error)
	Advance(ctx context.Context, orderID string) (backend.Order, error)
	VendorOrders(ctx context.Context, vendorID string) ([]backend.Order, error)
	VendorHistory(ctx context.Context, vendorID string) ([]backend.Order, error)
	UserActive(userID string) []backend.Order
	UserHistory(userID string) []backend.Order
}

type service struct {
	client   backendOrders
	recorder SnapshotRecorder
	history  HistoryReader
	logg     *logger.Logger
	mirror   *mirror
}

// NewService builds the order sync service. recorder may be nil.
func NewService(client backendOrders, recorder SnapshotRecorder, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend order client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	history, _ := recorder.(HistoryReader)
	return &service{
		client:   client,
		recorder: recorder,
		history:  history,
		logg:     logg,
		mirror:   newMirror(),
	}, nil
}

// SyncVendors refreshes the delivery mirror for every vendor, collecting
// failures so one bad vendor does not starve the rest.
func (s *service) SyncVendors(ctx context.Context, vendorIDs []string) error {
	var errs error
	for _, vendorID := range vendorIDs {
		orders, err := s.client.DeliveryOrders(ctx, vendorID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("vendor %s: %w", vendorID, err))
			continue
		}
		s.mirror.adoptVendor(vendorID, orders)
		s.journalTerminal(ctx, orders)
	}
	return errs
}

// SyncVendorHistory refreshes the terminal-order mirror for each vendor
// on the slower cadence.
func (s *service) SyncVendorHistory(ctx context.Context, vendorIDs []string) error {
	var errs error
	for _, vendorID := range vendorIDs {
		orders, err := s.client.VendorOrderHistory(ctx, vendorID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("vendor %s: %w", vendorID, err))
			continue
		}
		s.adoptAll(orders)
		s.journalTerminal(ctx, orders)
	}
	return errs
}

func (s *service) SyncUserActive(ctx context.Context, userID string) ([]backend.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	orders, err := s.client.ActiveOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.adoptAll(orders)
	return s.mirror.byUser(userID, false), nil
}

func (s *service) SyncUserHistory(ctx context.Context, userID string) ([]backend.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}
	orders, err := s.client.PastOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.adoptAll(orders)
	s.journalTerminal(ctx, orders)
	return s.mirror.byUser(userID, true), nil
}

// Advance optimistically moves the order forward, issues the PATCH, and
// either adopts the server's answer or rolls the mirror back. A second
// advance while one is in flight never reaches the backend.
func (s *service) Advance(ctx context.Context, orderID string) (backend.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return backend.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}

	current, ok := s.mirror.get(orderID)
	if !ok {
		fetched, err := s.client.GetOrder(ctx, orderID)
		if err != nil {
			return backend.Order{}, err
		}
		current = *fetched
		s.mirror.adopt(current)
	}

	next, movable := nextStatus(current)
	if !movable {
		return backend.Order{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %q cannot advance", current.Status))
	}

	optimistic := current
	optimistic.Status = next

	previous, acquired := s.mirror.beginUpdate(orderID, optimistic)
	if !acquired {
		return backend.Order{}, pkgerrors.New(pkgerrors.CodeConflict, "an update for this order is already in flight")
	}

	ctx = s.logg.WithOrderID(ctx, orderID)

	settled, err := s.client.AdvanceOrder(ctx, orderID)
	if err != nil {
		s.mirror.settleUpdate(orderID, previous)
		s.logg.Warn(ctx, "order advance rejected, optimistic status rolled back")
		return backend.Order{}, err
	}

	s.mirror.settleUpdate(orderID, *settled)
	if settled.Status.IsTerminal() {
		s.journalTerminal(ctx, []backend.Order{*settled})
	}
	s.logg.Info(ctx, "order advanced")
	return *settled, nil
}

// VendorOrders serves the mirrored vendor queue. A vendor the polling
// has never adopted is fetched live once so the view is populated even
// before the first sync pass reaches it.
func (s *service) VendorOrders(ctx context.Context, vendorID string) ([]backend.Order, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}
	if s.mirror.hasVendor(vendorID) {
		return s.mirror.byVendor(vendorID), nil
	}

	orders, err := s.client.DeliveryOrders(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	s.mirror.adoptVendor(vendorID, orders)
	s.journalTerminal(ctx, orders)
	return s.mirror.byVendor(vendorID), nil
}

// VendorHistory reads the vendor's terminal orders from the backend,
// falling back to the journal cache when the backend is unreachable.
func (s *service) VendorHistory(ctx context.Context, vendorID string) ([]backend.Order, error) {
	if strings.TrimSpace(vendorID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}

	orders, err := s.client.VendorOrderHistory(ctx, vendorID)
	if err != nil {
		if s.history == nil {
			return nil, err
		}
		cached, cacheErr := s.history.VendorHistory(ctx, vendorID, 0)
		if cacheErr != nil {
			s.logg.Warn(ctx, "vendor history cache read failed")
			return nil, err
		}
		s.logg.Warn(ctx, "backend unreachable, serving vendor history from journal cache")
		return cached, nil
	}
	s.adoptAll(orders)
	s.journalTerminal(ctx, orders)
	return orders, nil
}

func (s *service) UserActive(userID string) []backend.Order {
	return s.mirror.byUser(userID, false)
}

func (s *service) UserHistory(userID string) []backend.Order {
	return s.mirror.byUser(userID, true)
}

func (s *service) adoptAll(orders []backend.Order) {
	for _, order := range orders {
		s.mirror.adopt(order)
	}
}

func (s *service) journalTerminal(ctx context.Context, orders []backend.Order) {
	if s.recorder == nil {
		return
	}
	for _, order := range orders {
		if order.Status.IsTerminal() {
			s.recorder.RecordOrder(ctx, order)
		}
	}
}

// Tasks builds the polling schedule: active orders on the short cadence,
// history on the long one.
func Tasks(svc Service, cfg config.SyncConfig) []schedule.Task {
	return []schedule.Task{
		schedule.TaskFunc{
			TaskName:     "sync-vendor-active",
			TaskInterval: cfg.ActiveInterval,
			Fn: func(ctx context.Context) error {
				return svc.SyncVendors(ctx, cfg.VendorIDs)
			},
		},
		schedule.TaskFunc{
			TaskName:     "sync-vendor-history",
			TaskInterval: cfg.HistoryInterval,
			Fn: func(ctx context.Context) error {
				return svc.SyncVendorHistory(ctx, cfg.VendorIDs)
			},
		},
	}
}
