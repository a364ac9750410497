package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const defaultSendTimeout = 30 * time.Second

type MailgunConfig struct {
	Domain string
	APIKey string
	From   string
	// APIBase overrides the endpoint, e.g. mailgun.APIBaseEU.
	APIBase string
	Timeout time.Duration
}

// client is the part of mailgun.Mailgun that MailgunSender uses.
type client interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

type MailgunSender struct {
	mg      client
	from    string
	timeout time.Duration
	log     *slog.Logger
}

func NewMailgunSender(cfg MailgunConfig, log *slog.Logger) (*MailgunSender, error) {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: mailgun domain, api key and sender are required", ErrInvalidConfig)
	}
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	return newMailgunSender(mg, cfg, log), nil
}

func newMailgunSender(mg client, cfg MailgunConfig, log *slog.Logger) *MailgunSender {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &MailgunSender{mg: mg, from: cfg.From, timeout: timeout, log: log}
}

func (s *MailgunSender) Send(ctx context.Context, to, subject, body string) error {
	const op = "mailer.mailgun.Send"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	message := s.mg.NewMessage(s.from, subject, body, to)
	_, id, err := s.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.DebugContext(ctx, "email_queued", slog.String("id", id))
	return nil
}
