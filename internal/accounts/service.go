package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/config"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
	"github.com/kampyn/ordering-gateway/pkg/session"
)

type backendAuth interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.Session, error)
	Signup(ctx context.Context, params backend.SignupParams) error
	VerifyOTP(ctx context.Context, identifier, otp string) (*backend.Session, error)
	RefreshSession(ctx context.Context) (*backend.Session, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, identifier string) error
	ResetPassword(ctx context.Context, identifier, code, newPassword string) error
}

// Service owns the auth lifecycle on the gateway side: it relays
// credential flows to the backend and keeps the issued token in the
// per-session store, refreshing it shortly before expiry.
type Service interface {
	Login(ctx context.Context, sessionID string, creds backend.Credentials) (*backend.Session, error)
	Signup(ctx context.Context, params backend.SignupParams) error
	VerifyOTP(ctx context.Context, sessionID, identifier, otp string) (*backend.Session, error)
	Logout(ctx context.Context, sessionID string) error
	ForgotPassword(ctx context.Context, identifier string) error
	ResetPassword(ctx context.Context, identifier, code, newPassword string) error
	Token(ctx context.Context, sessionID string) (string, error)
	Preference(ctx context.Context, sessionID, key string) (string, error)
	SetPreference(ctx context.Context, sessionID, key, value string) error
}

type service struct {
	client   backendAuth
	provider session.Provider
	logg     *logger.Logger
	leeway   config.SessionConfig
}

// NewService builds the accounts service.
func NewService(client backendAuth, provider session.Provider, cfg config.SessionConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("backend auth client required")
	}
	if provider == nil {
		return nil, fmt.Errorf("session provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, provider: provider, logg: logg, leeway: cfg}, nil
}

func (s *service) Login(ctx context.Context, sessionID string, creds backend.Credentials) (*backend.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	authSession, err := s.client.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := s.provider.For(sessionID).Set(ctx, session.KeyAuthToken, authSession.Token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing session token")
	}
	s.logg.Info(s.logg.WithUserID(ctx, authSession.UserID), "user logged in")
	return authSession, nil
}

func (s *service) Signup(ctx context.Context, params backend.SignupParams) error {
	return s.client.Signup(ctx, params)
}

func (s *service) VerifyOTP(ctx context.Context, sessionID, identifier, otp string) (*backend.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	authSession, err := s.client.VerifyOTP(ctx, identifier, otp)
	if err != nil {
		return nil, err
	}
	if authSession.Token != "" {
		if err := s.provider.For(sessionID).Set(ctx, session.KeyAuthToken, authSession.Token); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing session token")
		}
	}
	return authSession, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	store := s.provider.For(sessionID)
	token, err := store.Get(ctx, session.KeyAuthToken)
	if err == nil && token != "" {
		if err := s.client.Logout(backend.WithToken(ctx, token)); err != nil {
			s.logg.Warn(ctx, "backend logout failed, clearing session anyway")
		}
	}
	return store.Clear(ctx)
}

func (s *service) ForgotPassword(ctx context.Context, identifier string) error {
	return s.client.ForgotPassword(ctx, identifier)
}

func (s *service) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	return s.client.ResetPassword(ctx, identifier, code, newPassword)
}

// Token returns the session's auth token, refreshing it against the
// backend when it is inside the configured expiry leeway.
func (s *service) Token(ctx context.Context, sessionID string) (string, error) {
	store := s.provider.For(sessionID)
	token, err := store.Get(ctx, session.KeyAuthToken)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}

	if !session.ShouldRefresh(ctx, store, s.leeway.RefreshLeeway) {
		return token, nil
	}

	refreshed, err := s.client.RefreshSession(backend.WithToken(ctx, token))
	if err != nil {
		// an expired-but-present token still gets forwarded; the backend
		// is the judge of whether it is usable
		s.logg.Warn(ctx, "session refresh failed, forwarding existing token")
		return token, nil
	}
	if err := store.Set(ctx, session.KeyAuthToken, refreshed.Token); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing refreshed token")
	}
	return refreshed.Token, nil
}

// Preference reads one of the configured UI preference keys.
func (s *service) Preference(ctx context.Context, sessionID, key string) (string, error) {
	if err := s.checkPreferenceKey(key); err != nil {
		return "", err
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	value, err := s.provider.For(sessionID).Get(ctx, key)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "preference not set")
	}
	return value, nil
}

// SetPreference stores one of the configured UI preference keys.
func (s *service) SetPreference(ctx context.Context, sessionID, key, value string) error {
	if err := s.checkPreferenceKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if err := s.provider.For(sessionID).Set(ctx, key, value); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing preference")
	}
	return nil
}

func (s *service) checkPreferenceKey(key string) error {
	for _, allowed := range s.leeway.PreferenceKeys {
		if key == allowed {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown preference key %q", key))
}
