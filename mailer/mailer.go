// Package mailer provides authkit.Mailer implementations: LogSender for local
// development and MailgunSender for production delivery.
package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/authkit"
)

// Sender delivers a plain-text message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

var (
	_ authkit.Mailer = (Sender)(nil)
	_ Sender         = (*LogSender)(nil)
	_ Sender         = (*MailgunSender)(nil)
)

var ErrInvalidConfig = errors.New("mailer: invalid configuration")

// LogSender writes messages to a logger instead of delivering them. Bodies
// carry one-time codes, so it is meant for local environments only.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.InfoContext(ctx, "email_logged",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
