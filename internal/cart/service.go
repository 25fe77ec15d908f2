package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kampyn/ordering-gateway/internal/pricing"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type backendCart interface {
	GetCart(ctx context.Context, userID string) (*backend.Cart, error)
	ReplaceCart(ctx context.Context, userID string, lines []backend.CartLine) (*backend.Cart, error)
}

// Snapshot is the cart state handed back after every operation, always
// the backend's accepted view.
type Snapshot struct {
	Lines   []backend.CartLine
	Charges backend.VendorCharges
}

// Service keeps a per-user cart projection in sync with the backend.
// Mutations apply locally first, push the full cart, and adopt whatever
// the backend echoes; a rejected push restores the previous lines.
type Service interface {
	Get(ctx context.Context, userID string) (Snapshot, error)
	Add(ctx context.Context, userID string, item backend.CartLine) (Snapshot, error)
	Increase(ctx context.Context, userID, itemID string, kind enums.ItemKind) (Snapshot, error)
	Decrease(ctx context.Context, userID, itemID string, kind enums.ItemKind) (Snapshot, error)
	Clear(ctx context.Context, userID string) error
	Quote(ctx context.Context, userID string, orderType enums.OrderType) (pricing.Breakdown, Snapshot, error)
}

type cached struct {
	lines   []backend.CartLine
	charges backend.VendorCharges
	loaded  bool
}

type service struct {
	client backendCart
	logg   *logger.Logger

	mu    sync.Mutex
	carts map[string]*cached
}

// NewService builds a cart service backed by the platform client.
func NewService(client backendCart, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend cart client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client: client,
		logg:   logg,
		carts:  make(map[string]*cached),
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}

	remote, err := s.client.GetCart(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.adopt(userID, remote), nil
}

func (s *service) Add(ctx context.Context, userID string, item backend.CartLine) (Snapshot, error) {
	if strings.TrimSpace(item.ItemID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	if !item.Kind.IsValid() {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
	}

	return s.mutate(ctx, userID, func(lines []backend.CartLine) ([]backend.CartLine, bool) {
		return addLine(lines, item)
	})
}

func (s *service) Increase(ctx context.Context, userID, itemID string, kind enums.ItemKind) (Snapshot, error) {
	return s.bump(ctx, userID, itemID, kind, +1)
}

func (s *service) Decrease(ctx context.Context, userID, itemID string, kind enums.ItemKind) (Snapshot, error) {
	return s.bump(ctx, userID, itemID, kind, -1)
}

func (s *service) bump(ctx context.Context, userID, itemID string, kind enums.ItemKind, delta int) (Snapshot, error) {
	if strings.TrimSpace(itemID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "itemId is required")
	}
	if !kind.IsValid() {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown item kind")
	}

	key := lineKey{itemID: itemID, kind: kind}
	return s.mutate(ctx, userID, func(lines []backend.CartLine) ([]backend.CartLine, bool) {
		return bumpLine(lines, key, delta)
	})
}

func (s *service) Clear(ctx context.Context, userID string) error {
	_, err := s.mutate(ctx, userID, func([]backend.CartLine) ([]backend.CartLine, bool) {
		return nil, true
	})
	return err
}

func (s *service) Quote(ctx context.Context, userID string, orderType enums.OrderType) (pricing.Breakdown, Snapshot, error) {
	if !orderType.IsValid() {
		return pricing.Breakdown{}, Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order type")
	}

	snapshot, err := s.Get(ctx, userID)
	if err != nil {
		return pricing.Breakdown{}, Snapshot{}, err
	}

	breakdown := pricing.Compute(
		pricing.FromCartLines(snapshot.Lines),
		pricing.ChargesFromVendor(snapshot.Charges),
		orderType,
	)
	return breakdown, snapshot, nil
}

// mutate loads the user's cart if needed, applies op locally, and pushes
// the result. An op returning changed=false skips the round trip.
func (s *service) mutate(ctx context.Context, userID string, op func([]backend.CartLine) ([]backend.CartLine, bool)) (Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}

	entry, err := s.load(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	previous := cloneLines(entry.lines)
	next, changed := op(cloneLines(entry.lines))
	if !changed {
		snapshot := Snapshot{Lines: cloneLines(entry.lines), Charges: entry.charges}
		s.mu.Unlock()
		return snapshot, nil
	}
	entry.lines = next
	s.mu.Unlock()

	remote, err := s.client.ReplaceCart(ctx, userID, next)
	if err != nil {
		s.mu.Lock()
		entry.lines = previous
		s.mu.Unlock()
		s.logg.Warn(s.logg.WithUserID(ctx, userID), "cart push rejected, local change rolled back")
		return Snapshot{}, err
	}

	return s.adopt(userID, remote), nil
}

func (s *service) load(ctx context.Context, userID string) (*cached, error) {
	s.mu.Lock()
	entry, ok := s.carts[userID]
	if ok && entry.loaded {
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	remote, err := s.client.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.adopt(userID, remote)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID], nil
}

// adopt replaces the local projection with the backend's echoed state.
func (s *service) adopt(userID string, remote *backend.Cart) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[userID]
	if !ok {
		entry = &cached{}
		s.carts[userID] = entry
	}
	entry.lines = cloneLines(remote.Items)
	entry.charges = remote.Charges
	entry.loaded = true

	return Snapshot{Lines: cloneLines(entry.lines), Charges: entry.charges}
}
