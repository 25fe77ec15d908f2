package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kampyn/ordering-gateway/api/middleware"
	"github.com/kampyn/ordering-gateway/api/responses"
	"github.com/kampyn/ordering-gateway/api/validators"
	"github.com/kampyn/ordering-gateway/internal/accounts"
	"github.com/kampyn/ordering-gateway/pkg/backend"
	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
	"github.com/kampyn/ordering-gateway/pkg/logger"
)

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type signupRequest struct {
	FullName  string `json:"fullName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=10"`
	Password  string `json:"password" validate:"required,min=8"`
	CollegeID string `json:"collegeId" validate:"required"`
}

type otpRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	OTP        string `json:"otp" validate:"required,min=4"`
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type resetPasswordRequest struct {
	Identifier  string `json:"identifier" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type sessionResponse struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a backend session and binds the token
// to the caller's gateway session.
func Login(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		sess, err := svc.Login(r.Context(), sessionID, backend.Credentials{
			Identifier: payload.Identifier,
			Password:   payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{UserID: sess.UserID, FullName: sess.FullName, Role: sess.Role})
	}
}

func Signup(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload signupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Signup(r.Context(), backend.SignupParams{
			FullName:  payload.FullName,
			Email:     payload.Email,
			Phone:     payload.Phone,
			Password:  payload.Password,
			CollegeID: payload.CollegeID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "otp_sent"})
	}
}

func VerifyOTP(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload otpRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		sess, err := svc.VerifyOTP(r.Context(), sessionID, payload.Identifier, payload.OTP)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{UserID: sess.UserID, FullName: sess.FullName, Role: sess.Role})
	}
}

func Logout(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Session-Id header required"))
			return
		}
		if err := svc.Logout(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func ForgotPassword(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload forgotPasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ForgotPassword(r.Context(), payload.Identifier); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "reset_code_sent"})
	}
}

func ResetPassword(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload resetPasswordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResetPassword(r.Context(), payload.Identifier, payload.Code, payload.NewPassword); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_reset"})
	}
}

type preferenceRequest struct {
	Value string `json:"value" validate:"required,max=256"`
}

// GetPreference reads a UI preference for the caller's session.
func GetPreference(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		key := chi.URLParam(r, "key")
		value, err := svc.Preference(r.Context(), sessionID, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"key": key, "value": value})
	}
}

func SetPreference(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		key := chi.URLParam(r, "key")
		var payload preferenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetPreference(r.Context(), sessionID, key, payload.Value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"key": key, "value": payload.Value})
	}
}
