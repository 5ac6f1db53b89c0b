// Package mail implements the password-reset mail gateway. The core treats
// delivery as fire-and-forget: errors are returned for logging only and never
// change the outcome of a reset request.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"flockd/internal/domain"
)

// SMTPGateway delivers reset tickets over plain SMTP with optional auth.
type SMTPGateway struct {
	addr string
	auth smtp.Auth
	from string
}

var _ domain.Mailer = (*SMTPGateway)(nil)

func NewSMTPGateway(host string, port int, user, pass, from string) *SMTPGateway {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return &SMTPGateway{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

func (g *SMTPGateway) Deliver(ctx context.Context, email, ticket string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Reset Password\r\n\r\nSecurity code: %s\r\n",
		g.from, email, ticket,
	)
	if err := smtp.SendMail(g.addr, g.auth, g.from, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", email, err)
	}
	return nil
}

// LogGateway is the fallback used when SMTP is unconfigured: it logs the
// ticket instead of sending it. Useful for local runs and tests.
type LogGateway struct {
	log *zap.Logger
}

var _ domain.Mailer = (*LogGateway)(nil)

func NewLogGateway(log *zap.Logger) *LogGateway {
	return &LogGateway{log: log}
}

func (g *LogGateway) Deliver(ctx context.Context, email, ticket string) error {
	g.log.Info("password reset ticket issued",
		zap.String("email", email),
		zap.String("ticket", ticket),
	)
	return nil
}
