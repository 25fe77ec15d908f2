package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kampyn/ordering-gateway/internal/cart"
	"github.com/kampyn/ordering-gateway/internal/pricing"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/enums"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type backendPayments interface {
	CreatePaymentOrder(ctx context.Context, params backend.CreateOrderParams) (*backend.PaymentOrder, error)
	PaymentKey(ctx context.Context) (string, error)
	VerifyPayment(ctx context.Context, params backend.VerifyParams) (*backend.VerifiedOrder, error)
}

type cartQuoter interface {
	Quote(ctx context.Context, userID string, orderType enums.OrderType) (pricing.Breakdown, cart.Snapshot, error)
	Clear(ctx context.Context, userID string) error
}

// AttemptRecord is the journal's view of a payment attempt.
type AttemptRecord struct {
	IdempotencyKey  string
	UserID          string
	VendorID        string
	ProviderOrderID string
	Amount          int64
	Currency        string
	OrderType       enums.OrderType
	State           enums.PaymentState
	FailureReason   string
}

// AttemptRecorder persists attempt milestones. Recording is write-behind
// and never blocks or fails the payment flow.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, record AttemptRecord)
}

// BeginParams starts a payment attempt for the user's current cart.
type BeginParams struct {
	UserID         string
	VendorID       string
	OrderType      enums.OrderType
	CollectorName  string
	CollectorPhone string
	Address        string
}

// Service owns the per-user payment session lifecycle. There is no
// automatic retry anywhere in it: every edge out of a failure is
// user-initiated.
type Service interface {
	Begin(ctx context.Context, params BeginParams) (Session, error)
	Confirm(ctx context.Context, userID string, artifacts backend.VerifyParams) (Session, error)
	Cancel(ctx context.Context, userID string) (Session, error)
	Reset(ctx context.Context, userID string) (Session, error)
	Current(ctx context.Context, userID string) (Session, error)
}

type service struct {
	client   backendPayments
	carts    cartQuoter
	recorder AttemptRecorder
	logg     *logger.Logger
	currency string
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService builds the payment session service. recorder may be nil when
// the journal feature is disabled.
func NewService(client backendPayments, carts cartQuoter, recorder AttemptRecorder, cfg config.PaymentConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend payment client required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client:   client,
		carts:    carts,
		recorder: recorder,
		logg:     logg,
		currency: cfg.Currency,
		ttl:      cfg.SessionTTL,
		sessions: make(map[string]*Session),
	}, nil
}

func (s *service) Begin(ctx context.Context, params BeginParams) (Session, error) {
	switch {
	case strings.TrimSpace(params.UserID) == "":
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	case strings.TrimSpace(params.VendorID) == "":
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	case !params.OrderType.IsValid():
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order type")
	}
	if params.OrderType == enums.OrderTypeDelivery && strings.TrimSpace(params.Address) == "" {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require an address")
	}

	session, err := s.enterCreating(params)
	if err != nil {
		return Session{}, err
	}

	ctx = s.logg.WithUserID(ctx, params.UserID)

	breakdown, snapshot, err := s.carts.Quote(ctx, params.UserID, params.OrderType)
	if err != nil {
		return s.fail(ctx, session, err)
	}
	if len(snapshot.Lines) == 0 {
		return s.fail(ctx, session, pkgerrors.New(pkgerrors.CodeValidation, "cannot pay for an empty cart"))
	}

	// the session stays readable through Current while the backend call is
	// in flight, so every write happens under the lock
	s.mu.Lock()
	session.Breakdown = breakdown
	session.Amount = breakdown.MinorUnits()
	amount := session.Amount
	idempotencyKey := session.IdempotencyKey
	s.mu.Unlock()

	order, err := s.client.CreatePaymentOrder(ctx, backend.CreateOrderParams{
		UserID:         params.UserID,
		VendorID:       params.VendorID,
		Items:          snapshot.Lines,
		Amount:         amount,
		Currency:       s.currency,
		OrderType:      params.OrderType,
		CollectorName:  params.CollectorName,
		CollectorPhone: params.CollectorPhone,
		Address:        params.Address,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return s.fail(ctx, session, err)
	}

	// the widget must never open on a disputed figure
	if err := breakdown.VerifyAmount(order.Amount); err != nil {
		return s.fail(ctx, session, err)
	}

	key, err := s.client.PaymentKey(ctx)
	if err != nil {
		return s.fail(ctx, session, err)
	}

	s.mu.Lock()
	session.ProviderOrderID = order.ProviderOrderID
	session.CheckoutKey = key
	session.transition(enums.PaymentStateAwaitingUserAction)
	snapshotOut := *session
	s.mu.Unlock()

	s.record(ctx, snapshotOut)
	s.logg.Info(ctx, "payment session awaiting user action")
	return snapshotOut, nil
}

func (s *service) Confirm(ctx context.Context, userID string, artifacts backend.VerifyParams) (Session, error) {
	ctx = s.logg.WithUserID(ctx, userID)

	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok || !session.transition(enums.PaymentStateVerifying) {
		state := enums.PaymentStateIdle
		if ok {
			state = session.State
		}
		s.mu.Unlock()
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot verify payment from state %q", state))
	}
	if artifacts.ProviderOrderID == "" {
		artifacts.ProviderOrderID = session.ProviderOrderID
	}
	snapshot := *session
	s.mu.Unlock()

	if artifacts.ProviderOrderID != snapshot.ProviderOrderID {
		return s.fail(ctx, session, pkgerrors.New(pkgerrors.CodeValidation, "verification artifacts reference a different order"))
	}

	verified, err := s.client.VerifyPayment(ctx, artifacts)
	if err != nil {
		// cart stays intact so the user can retry deliberately
		return s.fail(ctx, session, err)
	}

	s.mu.Lock()
	session.Order = verified
	session.transition(enums.PaymentStateSucceeded)
	snapshot = *session
	s.mu.Unlock()

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logg.Warn(ctx, "cart clear after successful payment failed")
	}

	s.record(ctx, snapshot)
	s.logg.Info(s.logg.WithOrderID(ctx, verified.OrderID), "payment verified")
	return snapshot, nil
}

func (s *service) Cancel(ctx context.Context, userID string) (Session, error) {
	ctx = s.logg.WithUserID(ctx, userID)

	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok || !session.transition(enums.PaymentStateCancelled) {
		state := enums.PaymentStateIdle
		if ok {
			state = session.State
		}
		s.mu.Unlock()
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel payment from state %q", state))
	}
	snapshot := *session
	s.mu.Unlock()

	s.record(ctx, snapshot)
	s.logg.Info(ctx, "payment session cancelled, cart preserved")
	return snapshot, nil
}

func (s *service) Reset(ctx context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return s.idleSession(userID), nil
	}
	if !session.State.IsTerminal() {
		return Session{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot reset an active session in state %q", session.State))
	}
	delete(s.sessions, userID)
	return s.idleSession(userID), nil
}

func (s *service) Current(ctx context.Context, userID string) (Session, error) {
	if strings.TrimSpace(userID) == "" {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "userId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return s.idleSession(userID), nil
	}
	if s.ttl > 0 && !session.State.IsTerminal() && time.Since(session.UpdatedAt) > s.ttl {
		session.State = enums.PaymentStateFailed
		session.FailureReason = "payment session expired"
		session.UpdatedAt = time.Now().UTC()
	}
	return *session, nil
}

// enterCreating installs a fresh Creating session for the user, replacing
// a terminal predecessor. A live session blocks a second attempt.
func (s *service) enterCreating(params BeginParams) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[params.UserID]; ok && !existing.State.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("a payment attempt is already in state %q", existing.State))
	}

	now := time.Now().UTC()
	session := &Session{
		UserID:         params.UserID,
		VendorID:       params.VendorID,
		State:          enums.PaymentStateCreating,
		OrderType:      params.OrderType,
		Currency:       s.currency,
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.sessions[params.UserID] = session
	return session, nil
}

// fail moves the session to Failed with the cause attached and returns
// the original error. The cart is deliberately left untouched.
func (s *service) fail(ctx context.Context, session *Session, cause error) (Session, error) {
	s.mu.Lock()
	if session.transition(enums.PaymentStateFailed) {
		session.FailureReason = cause.Error()
	}
	snapshot := *session
	s.mu.Unlock()

	s.record(ctx, snapshot)
	s.logg.Error(ctx, "payment attempt failed", cause)
	return Session{}, cause
}

func (s *service) record(ctx context.Context, session Session) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordAttempt(ctx, AttemptRecord{
		IdempotencyKey:  session.IdempotencyKey,
		UserID:          session.UserID,
		VendorID:        session.VendorID,
		ProviderOrderID: session.ProviderOrderID,
		Amount:          session.Amount,
		Currency:        session.Currency,
		OrderType:       session.OrderType,
		State:           session.State,
		FailureReason:   session.FailureReason,
	})
}

func (s *service) idleSession(userID string) Session {
	now := time.Now().UTC()
	return Session{
		UserID:    userID,
		State:     enums.PaymentStateIdle,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
