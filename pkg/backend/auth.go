package backend

import (
	"context"
	"strings"

	pkgerrors "github.com/kampyn/ordering-gateway/pkg/errors"
)

// Credentials carries a login attempt. Identifier is an email or phone.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Session is the backend's authenticated session payload.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if strings.TrimSpace(creds.Identifier) == "" || creds.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier and password are required")
	}
	var out Session
	if err := c.post(ctx, "/api/user/auth/login", creds, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBackend, "backend returned no session token")
	}
	return &out, nil
}

// SignupParams carries a registration request.
type SignupParams struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	CollegeID string `json:"collegeId"`
}

// Signup registers a new user. The backend follows up with an OTP.
func (c *Client) Signup(ctx context.Context, params SignupParams) error {
	switch {
	case strings.TrimSpace(params.Email) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case params.Password == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	case strings.TrimSpace(params.CollegeID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "collegeId is required")
	}
	return c.post(ctx, "/api/user/auth/signup", params, nil)
}

// VerifyOTP confirms the one-time code sent at signup and returns a
// usable session.
func (c *Client) VerifyOTP(ctx context.Context, identifier, otp string) (*Session, error) {
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(otp) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier and otp are required")
	}
	body := struct {
		Identifier string `json:"identifier"`
		OTP        string `json:"otp"`
	}{Identifier: identifier, OTP: otp}
	var out Session
	if err := c.post(ctx, "/api/user/auth/otpverification", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshSession trades a near-expiry token for a fresh one. The old token
// rides the Authorization header via WithToken.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.post(ctx, "/api/user/auth/refresh", nil, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBackend, "backend returned no refreshed token")
	}
	return &out, nil
}

// Logout invalidates the current session server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/user/auth/logout", nil, nil)
}

// ForgotPassword starts a reset flow for the given identifier.
func (c *Client) ForgotPassword(ctx context.Context, identifier string) error {
	if strings.TrimSpace(identifier) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "identifier is required")
	}
	body := struct {
		Identifier string `json:"identifier"`
	}{Identifier: identifier}
	return c.post(ctx, "/api/user/auth/forgotpassword", body, nil)
}

// ResetPassword completes a reset flow with the emailed code.
func (c *Client) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(code) == "" || newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "identifier, code and new password are required")
	}
	body := struct {
		Identifier  string `json:"identifier"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}{Identifier: identifier, Code: code, NewPassword: newPassword}
	return c.post(ctx, "/api/user/auth/resetpassword", body, nil)
}
