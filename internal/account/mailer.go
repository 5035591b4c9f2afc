// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package account

import (
	"context"
	"log/slog"
)

// Message is an outgoing plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers outgoing email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// default backend in development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("outgoing mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
