// Package notify holds the best-effort collaborators fired after a demo is
// saved or installed: the email relay and the tracking spreadsheet.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/MrSnakeDoc/demogen/internal/logger"
)

// Message is one HTML email.
type Message struct {
	Subject string
	HTML    string
	To      []string
}

// Mailer sends notification emails.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sender is the part of *mail.Client the mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer relays mail through an SMTP server with go-mail.
type SMTPMailer struct {
	from   string
	client sender
	log    logger.Logger
}

// NewMailer returns an SMTP mailer, or a no-op one when no host is configured.
func NewMailer(s SMTPSettings, log logger.Logger) (Mailer, error) {
	if s.Host == "" {
		log.Info("smtp host not configured, email notifications disabled")
		return NopMailer{log: log}, nil
	}

	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}

	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{from: s.From, client: client, log: log}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}

	out, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	m.log.Debug("email sent", logger.String("subject", msg.Subject), logger.Strings("to", msg.To))
	return nil
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return out, nil
}

// NopMailer drops every message.
type NopMailer struct {
	log logger.Logger
}

func (n NopMailer) Send(_ context.Context, msg Message) error {
	if n.log != nil {
		n.log.Debug("email skipped, smtp disabled", logger.String("subject", msg.Subject))
	}
	return nil
}
