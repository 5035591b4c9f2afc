// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package account implements email-based user accounts: registration,
// login, password change and reset, and optional TOTP two-factor
// authentication.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/go-playground/validator.v9"

	"blogpress/internal/blog"
	"blogpress/internal/models"
)

var (
	// ErrInvalidCredentials is returned for an unknown email, a wrong
	// password, or an inactive account. The cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for reset tokens that are malformed,
	// expired, or already used.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCode is returned when a TOTP code does not verify.
	ErrInvalidCode = errors.New("invalid two-factor code")
)

// MinEmailLength is the shortest email address accepted at registration.
const MinEmailLength = 10

// Users is the persistence the account service needs.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error)
	SetPassword(ctx context.Context, userID uuid.UUID, password string) error
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// Service runs the account workflows.
type Service struct {
	users    Users
	mailer   Mailer
	tokens   *TokenIssuer
	baseURL  string
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates an account Service. baseURL prefixes links in mail.
func NewService(users Users, mailer Mailer, tokens *TokenIssuer, baseURL string) *Service {
	return &Service{
		users:    users,
		mailer:   mailer,
		tokens:   tokens,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Email     string
	Password1 string
	Password2 string
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an author account. Form problems come back as a
// *blog.ValidationError, a taken email as a *blog.ConstraintViolation.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	ve := &blog.ValidationError{}
	switch {
	case email == "":
		ve.Add("email", "This field is required.")
	case s.validate.Var(email, "email") != nil:
		ve.Add("email", "Enter a valid email address.")
	case len(email) < MinEmailLength:
		ve.Add("email", fmt.Sprintf("Ensure this value has at least %d characters.", MinEmailLength))
	}
	checkNewPassword(ve, "password", email, in.Password1, in.Password2)
	if !ve.Empty() {
		return nil, ve
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, &blog.ConstraintViolation{Field: "email", Constraint: "unique"}
	}

	displayName, _, _ := strings.Cut(email, "@")
	u, err := s.users.Create(ctx, email, in.Password1, displayName, models.RoleAuthor)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	slog.Info("user registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// Login checks credentials and records the login time. The caller is
// responsible for the session, including a pending 2FA step when
// u.Needs2FA() is true.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if u == nil || !u.IsActive || !s.users.CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	u.LastLogin = &now
	return u, nil
}

// ChangePassword replaces the password of a logged-in user after
// checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, new1, new2 string) error {
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}

	ve := &blog.ValidationError{}
	if !s.users.CheckPassword(u, oldPassword) {
		ve.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	checkNewPassword(ve, "new_password", u.Email, new1, new2)
	if !ve.Empty() {
		return ve
	}

	if err := s.users.SetPassword(ctx, u.ID, new1); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	slog.Info("password changed", "user_id", u.ID)
	return nil
}

// RequestPasswordReset mails a reset link to the account with the given
// email, if there is an active one. Unknown addresses are not reported.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	if u == nil || !u.IsActive {
		slog.Info("password reset requested for unknown account")
		return nil
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	msg := Message{
		To:      u.Email,
		Subject: "Password reset",
		Body: "Someone asked to reset the password for your account.\n\n" +
			"Use this link to choose a new one:\n" +
			s.baseURL + "/reset/" + token + "\n\n" +
			"If it wasn't you, ignore this message.\n",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	slog.Info("password reset requested", "user_id", u.ID)
	return nil
}

// ConfirmPasswordReset sets a new password using a token from
// RequestPasswordReset. A token stops working once the password changes.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, new1, new2 string) error {
	userID, fp, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("confirm password reset: %w", err)
	}
	if u == nil || !u.IsActive || fingerprint(u) != fp {
		return ErrInvalidToken
	}

	ve := &blog.ValidationError{}
	checkNewPassword(ve, "new_password", u.Email, new1, new2)
	if !ve.Empty() {
		return ve
	}

	if err := s.users.SetPassword(ctx, u.ID, new1); err != nil {
		return fmt.Errorf("confirm password reset: %w", err)
	}
	slog.Info("password reset completed", "user_id", u.ID)
	return nil
}

// User returns the active account with the given ID, or blog.ErrNotFound.
func (s *Service) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.activeUser(ctx, id)
}

func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !u.IsActive {
		return nil, blog.ErrNotFound
	}
	return u, nil
}
