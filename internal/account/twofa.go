// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package account

import (
	"context"
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"blogpress/internal/models"
)

// Issuer is the name shown in authenticator apps.
const Issuer = "Blogpress"

// TwoFASetup is a freshly generated TOTP secret and its QR code.
type TwoFASetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode []byte `json:"qr_png"`
}

// SetupTwoFA generates a new TOTP secret for u and stores it. 2FA is not
// enforced until VerifyTwoFA succeeds.
func (s *Service) SetupTwoFA(ctx context.Context, u *models.User) (*TwoFASetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: u.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	if err := s.users.SetTOTPSecret(ctx, u.ID, key.Secret()); err != nil {
		return nil, fmt.Errorf("save totp secret: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &TwoFASetup{Secret: key.Secret(), URL: key.URL(), QRCode: png}, nil
}

// VerifyTwoFA checks a code against u's secret. On the first successful
// check after SetupTwoFA, 2FA is switched on for the account.
func (s *Service) VerifyTwoFA(ctx context.Context, u *models.User, code string) error {
	if u.TOTPSecret == nil || !totp.Validate(code, *u.TOTPSecret) {
		return ErrInvalidCode
	}
	if !u.TOTPEnabled {
		if err := s.users.EnableTOTP(ctx, u.ID); err != nil {
			return fmt.Errorf("enable totp: %w", err)
		}
		u.TOTPEnabled = true
	}
	return nil
}
