// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"blogpress/internal/models"
)

const resetPurpose = "password_reset"

type resetClaims struct {
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies password reset tokens (HS256 JWTs).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. Tokens expire after ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a reset token for u. It embeds a fingerprint of the
// current password hash and last login, so the token dies as soon as
// either changes.
func (t *TokenIssuer) Issue(u *models.User) (string, error) {
	now := t.now()
	claims := resetClaims{
		Purpose:     resetPurpose,
		Fingerprint: fingerprint(u),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the user it was issued for and its
// fingerprint.
func (t *TokenIssuer) Parse(token string) (uuid.UUID, string, error) {
	var claims resetClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", errors.Join(ErrInvalidToken, err)
	}
	if claims.Purpose != resetPurpose {
		return uuid.Nil, "", ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}
	return id, claims.Fingerprint, nil
}

func fingerprint(u *models.User) string {
	var login string
	if u.LastLogin != nil {
		login = strconv.FormatInt(u.LastLogin.Unix(), 10)
	}
	sum := sha256.Sum256([]byte(u.PasswordHash + "|" + login))
	return hex.EncodeToString(sum[:16])
}
