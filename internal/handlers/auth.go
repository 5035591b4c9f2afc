// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/render"

	"blogpress/internal/account"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
)

// Auth serves registration, login, password management, and 2FA.
type Auth struct {
	accounts *account.Service
	sessions Sessions
	validate *Validator
}

// NewAuth creates the Auth handler group.
func NewAuth(accounts *account.Service, sessions Sessions, v *Validator) *Auth {
	return &Auth{accounts: accounts, sessions: sessions, validate: v}
}

type registerRequest struct {
	Email     string `json:"email" form:"email"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
}

func (req *registerRequest) Bind(r *http.Request) error { return nil }

// echo is the request without its passwords, for error bodies.
func (req *registerRequest) echo() map[string]string {
	return map[string]string{"email": req.Email}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (req *loginRequest) Bind(r *http.Request) error { return nil }

type changePasswordRequest struct {
	OldPassword  string `json:"old_password" form:"old_password"`
	NewPassword1 string `json:"new_password1" form:"new_password1"`
	NewPassword2 string `json:"new_password2" form:"new_password2"`
}

func (req *changePasswordRequest) Bind(r *http.Request) error { return nil }

type resetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (req *resetRequest) Bind(r *http.Request) error { return nil }

type resetConfirmRequest struct {
	Token        string `json:"token" form:"token" validate:"required"`
	NewPassword1 string `json:"new_password1" form:"new_password1"`
	NewPassword2 string `json:"new_password2" form:"new_password2"`
}

func (req *resetConfirmRequest) Bind(r *http.Request) error { return nil }

type twoFARequest struct {
	Code string `json:"code" form:"code" validate:"required,len=6,numeric"`
}

func (req *twoFARequest) Bind(r *http.Request) error { return nil }

type loginResponse struct {
	User          *models.User `json:"user"`
	TwoFARequired bool         `json:"two_fa_required"`
}

func (rd *loginResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type statusResponse struct {
	Status string `json:"status"`
}

func (rd *statusResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

// CSRFToken returns the CSRF token clients echo in X-CSRF-Token.
func (h *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"csrf_token": middleware.CSRFTokenFromCtx(r.Context())})
}

// Register creates an author account.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	req := &registerRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	u, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Email:     req.Email,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		renderError(w, r, err, req.echo())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, u)
}

// Login checks credentials and starts an authenticated session under a new
// session ID. Values stored before login, such as view markers, carry
// over. Accounts with 2FA enabled stay pending until TwoFAVerify.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if ve := h.validate.Check(req); ve != nil {
		renderError(w, r, ve, map[string]string{"email": req.Email})
		return
	}

	u, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}

	sess := sessionOf(r)
	sess.Login(u.ID, u.Email, u.DisplayName, string(u.Role), u.Needs2FA())
	if err := h.sessions.Rotate(r.Context(), w, sess); err != nil {
		renderError(w, r, err, nil)
		return
	}

	render.Render(w, r, &loginResponse{User: u, TwoFARequired: u.Needs2FA()})
}

// Logout destroys the session, view markers included.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, sessionOf(r)); err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.NoContent(w, r)
}

// ChangePassword replaces the logged-in user's password.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	req := &changePasswordRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	err := h.accounts.ChangePassword(r.Context(), sessionOf(r).ViewerID(), req.OldPassword, req.NewPassword1, req.NewPassword2)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.Render(w, r, &statusResponse{Status: "Your password was changed."})
}

// RequestPasswordReset mails a reset link. The response does not reveal
// whether the address belongs to an account.
func (h *Auth) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	req := &resetRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if ve := h.validate.Check(req); ve != nil {
		renderError(w, r, ve, req)
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.Status(r, http.StatusAccepted)
	render.Render(w, r, &statusResponse{Status: "If an account exists for that address, a reset link has been sent."})
}

// ConfirmPasswordReset sets a new password from a reset link token.
func (h *Auth) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	req := &resetConfirmRequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if ve := h.validate.Check(req); ve != nil {
		renderError(w, r, ve, nil)
		return
	}

	if err := h.accounts.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword1, req.NewPassword2); err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.Render(w, r, &statusResponse{Status: "Your password has been set. You may log in now."})
}

// TwoFASetup generates a TOTP secret and QR code for the current user.
func (h *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.User(r.Context(), sessionOf(r).UserID)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	if u.TOTPEnabled {
		render.Render(w, r, &ErrResponse{
			HTTPStatusCode: http.StatusConflict,
			StatusText:     "Conflict.",
			ErrorText:      "Two-factor authentication is already enabled.",
		})
		return
	}

	setup, err := h.accounts.SetupTwoFA(r.Context(), u)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.JSON(w, r, setup)
}

// TwoFAVerify checks a TOTP code. It completes a pending login, and on the
// first success after TwoFASetup switches 2FA on for the account.
func (h *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	req := &twoFARequest{}
	if err := bind(r, req); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if ve := h.validate.Check(req); ve != nil {
		renderError(w, r, ve, nil)
		return
	}

	sess := sessionOf(r)
	u, err := h.accounts.User(r.Context(), sess.UserID)
	if err != nil {
		renderError(w, r, err, nil)
		return
	}
	if err := h.accounts.VerifyTwoFA(r.Context(), u, req.Code); err != nil {
		renderError(w, r, err, nil)
		return
	}

	sess.CompleteTwoFA()
	if err := h.sessions.Rotate(r.Context(), w, sess); err != nil {
		renderError(w, r, err, nil)
		return
	}
	render.Render(w, r, &loginResponse{User: u})
}
