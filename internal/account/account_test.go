// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"blogpress/internal/blog"
	"blogpress/internal/models"
)

// memUsers is an in-memory Users implementation.
type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.User
	fail error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) Create(_ context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return nil, &blog.ConstraintViolation{Field: "email", Constraint: "unique"}
		}
	}
	u := &models.User{
		ID: uuid.New(), Email: email, PasswordHash: string(hash), DisplayName: displayName,
		Role: role, IsActive: true, DateJoined: time.Now(),
	}
	m.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetPassword(_ context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return blog.ErrNotFound
	}
	u.PasswordHash = string(hash)
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (m *memUsers) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].TOTPSecret = &secret
	return nil
}

func (m *memUsers) EnableTOTP(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].TOTPEnabled = true
	return nil
}

func (m *memUsers) CheckPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// outbox records sent mail.
type outbox struct {
	sent []Message
}

func (o *outbox) Send(_ context.Context, msg Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

type AccountSuite struct {
	suite.Suite
	ctx    context.Context
	users  *memUsers
	mail   *outbox
	tokens *TokenIssuer
	svc    *Service
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountSuite))
}

func (s *AccountSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = newMemUsers()
	s.mail = &outbox{}
	s.tokens = NewTokenIssuer("test-secret", time.Hour)
	s.svc = NewService(s.users, s.mail, s.tokens, "https://blog.example.com/")
}

func (s *AccountSuite) register(email, password string) *models.User {
	u, err := s.svc.Register(s.ctx, RegisterInput{Email: email, Password1: password, Password2: password})
	s.Require().NoError(err)
	return u
}

func (s *AccountSuite) resetToken() string {
	s.Require().NotEmpty(s.mail.sent)
	body := s.mail.sent[len(s.mail.sent)-1].Body
	_, after, ok := strings.Cut(body, "/reset/")
	s.Require().True(ok, "mail should contain a reset link")
	token, _, _ := strings.Cut(after, "\n")
	return token
}

// --- register ---

func (s *AccountSuite) TestRegister() {
	u := s.register("  Writer@Example.com ", "correct horse battery")

	s.Equal("writer@example.com", u.Email)
	s.Equal("writer", u.DisplayName)
	s.Equal(models.RoleAuthor, u.Role)
	s.NotEqual("correct horse battery", u.PasswordHash)
}

func (s *AccountSuite) TestRegister_Validation() {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing email", RegisterInput{Password1: "s3cret-pass", Password2: "s3cret-pass"}, "email"},
		{"malformed email", RegisterInput{Email: "not-an-email", Password1: "s3cret-pass", Password2: "s3cret-pass"}, "email"},
		{"short email", RegisterInput{Email: "a@b.co", Password1: "s3cret-pass", Password2: "s3cret-pass"}, "email"},
		{"mismatch", RegisterInput{Email: "writer@example.com", Password1: "s3cret-pass", Password2: "s3cret-pasz"}, "password2"},
		{"too short", RegisterInput{Email: "writer@example.com", Password1: "abc12", Password2: "abc12"}, "password2"},
		{"numeric", RegisterInput{Email: "writer@example.com", Password1: "1234598765", Password2: "1234598765"}, "password2"},
		{"common", RegisterInput{Email: "writer@example.com", Password1: "password1", Password2: "password1"}, "password2"},
		{"same as email", RegisterInput{Email: "writer@example.com", Password1: "writer@example.com", Password2: "writer@example.com"}, "password2"},
		{"missing confirmation", RegisterInput{Email: "writer@example.com", Password1: "s3cret-pass"}, "password2"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Register(s.ctx, tt.in)
			var ve *blog.ValidationError
			s.Require().ErrorAs(err, &ve)
			s.Contains(ve.Fields, tt.field)
		})
	}
}

func (s *AccountSuite) TestRegister_DuplicateEmail() {
	s.register("writer@example.com", "s3cret-pass")

	_, err := s.svc.Register(s.ctx, RegisterInput{Email: "WRITER@example.com", Password1: "0ther-pass", Password2: "0ther-pass"})
	cv, ok := blog.IsConstraint(err)
	s.Require().True(ok, "got %v", err)
	s.Equal("email", cv.Field)
}

// --- login ---

func (s *AccountSuite) TestLogin() {
	created := s.register("writer@example.com", "s3cret-pass")

	u, err := s.svc.Login(s.ctx, "Writer@Example.com", "s3cret-pass")
	s.Require().NoError(err)
	s.Equal(created.ID, u.ID)
	s.NotNil(u.LastLogin)

	stored, _ := s.users.FindByID(s.ctx, u.ID)
	s.NotNil(stored.LastLogin)
}

func (s *AccountSuite) TestLogin_Rejections() {
	u := s.register("writer@example.com", "s3cret-pass")

	_, err := s.svc.Login(s.ctx, "writer@example.com", "wrong-pass")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.svc.Login(s.ctx, "nobody@example.com", "s3cret-pass")
	s.ErrorIs(err, ErrInvalidCredentials)

	s.users.byID[u.ID].IsActive = false
	_, err = s.svc.Login(s.ctx, "writer@example.com", "s3cret-pass")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AccountSuite) TestLogin_StoreError() {
	s.users.fail = errors.New("db down")
	_, err := s.svc.Login(s.ctx, "writer@example.com", "s3cret-pass")
	s.Error(err)
	s.NotErrorIs(err, ErrInvalidCredentials)
}

// --- change password ---

func (s *AccountSuite) TestChangePassword() {
	u := s.register("writer@example.com", "s3cret-pass")

	err := s.svc.ChangePassword(s.ctx, u.ID, "wrong", "n3w-password", "n3w-password")
	var ve *blog.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Contains(ve.Fields, "old_password")

	err = s.svc.ChangePassword(s.ctx, u.ID, "s3cret-pass", "n3w-password", "different")
	s.Require().ErrorAs(err, &ve)
	s.Contains(ve.Fields, "new_password2")

	s.Require().NoError(s.svc.ChangePassword(s.ctx, u.ID, "s3cret-pass", "n3w-password", "n3w-password"))
	_, err = s.svc.Login(s.ctx, "writer@example.com", "n3w-password")
	s.NoError(err)

	err = s.svc.ChangePassword(s.ctx, uuid.New(), "x", "y", "z")
	s.ErrorIs(err, blog.ErrNotFound)
}

// --- password reset ---

func (s *AccountSuite) TestPasswordReset() {
	u := s.register("writer@example.com", "s3cret-pass")

	s.Require().NoError(s.svc.RequestPasswordReset(s.ctx, "writer@example.com"))
	s.Require().Len(s.mail.sent, 1)
	s.Equal(u.Email, s.mail.sent[0].To)
	s.Contains(s.mail.sent[0].Body, "https://blog.example.com/reset/")

	token := s.resetToken()
	s.Require().NoError(s.svc.ConfirmPasswordReset(s.ctx, token, "fr3sh-password", "fr3sh-password"))

	_, err := s.svc.Login(s.ctx, "writer@example.com", "fr3sh-password")
	s.NoError(err)

	err = s.svc.ConfirmPasswordReset(s.ctx, token, "an0ther-password", "an0ther-password")
	s.ErrorIs(err, ErrInvalidToken, "tokens are single use")
}

func (s *AccountSuite) TestPasswordReset_UnknownEmailIsSilent() {
	s.NoError(s.svc.RequestPasswordReset(s.ctx, "ghost@example.com"))
	s.Empty(s.mail.sent)
}

func (s *AccountSuite) TestPasswordReset_InvalidPasswordKeepsToken() {
	s.register("writer@example.com", "s3cret-pass")
	s.Require().NoError(s.svc.RequestPasswordReset(s.ctx, "writer@example.com"))
	token := s.resetToken()

	err := s.svc.ConfirmPasswordReset(s.ctx, token, "short", "short")
	var ve *blog.ValidationError
	s.Require().ErrorAs(err, &ve)

	s.NoError(s.svc.ConfirmPasswordReset(s.ctx, token, "l0nger-password", "l0nger-password"))
}

func (s *AccountSuite) TestPasswordReset_BadTokens() {
	u := s.register("writer@example.com", "s3cret-pass")

	err := s.svc.ConfirmPasswordReset(s.ctx, "garbage", "fr3sh-password", "fr3sh-password")
	s.ErrorIs(err, ErrInvalidToken)

	forged, err := NewTokenIssuer("other-secret", time.Hour).Issue(u)
	s.Require().NoError(err)
	err = s.svc.ConfirmPasswordReset(s.ctx, forged, "fr3sh-password", "fr3sh-password")
	s.ErrorIs(err, ErrInvalidToken)

	expired := NewTokenIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(u)
	s.Require().NoError(err)
	err = s.svc.ConfirmPasswordReset(s.ctx, old, "fr3sh-password", "fr3sh-password")
	s.ErrorIs(err, ErrInvalidToken)
}

// --- 2FA ---

func (s *AccountSuite) TestTwoFA() {
	u := s.register("writer@example.com", "s3cret-pass")

	setup, err := s.svc.SetupTwoFA(s.ctx, u)
	s.Require().NoError(err)
	s.NotEmpty(setup.Secret)
	s.NotEmpty(setup.QRCode)
	s.Contains(setup.URL, "otpauth://totp/")

	u, _ = s.users.FindByID(s.ctx, u.ID)
	s.False(u.Needs2FA(), "2FA is not enforced before the first verification")

	s.ErrorIs(s.svc.VerifyTwoFA(s.ctx, u, "000000x"), ErrInvalidCode)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.VerifyTwoFA(s.ctx, u, code))

	u, _ = s.users.FindByID(s.ctx, u.ID)
	s.True(u.Needs2FA())
}

func (s *AccountSuite) TestTwoFA_NoSecret() {
	u := s.register("writer@example.com", "s3cret-pass")
	s.ErrorIs(s.svc.VerifyTwoFA(s.ctx, u, "123456"), ErrInvalidCode)
}

func TestPasswordProblem(t *testing.T) {
	tests := []struct {
		password, email string
		ok              bool
	}{
		{"s3cret-pass", "writer@example.com", true},
		{"short1", "", false},
		{"0123456789", "", false},
		{"PASSWORD", "", false},
		{"mywriterpass", "writer@example.com", false},
		{"abc-def-ghi", "ab@example.com", true},
	}

	for _, tt := range tests {
		got := passwordProblem(tt.password, tt.email)
		if (got == "") != tt.ok {
			t.Errorf("passwordProblem(%q, %q) = %q, want ok=%v", tt.password, tt.email, got, tt.ok)
		}
	}
}
