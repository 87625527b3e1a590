package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/config"
)

// Mailer delivers one rendered message and returns its Message-ID.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPMailer sends over implicit TLS (port 465) or mandatory STARTTLS on any
// other port. One dial per message, no retry.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

func NewSMTPMailer(cfg config.SMTPConfig, timeout time.Duration) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, timeout: timeout}
}

func (m *SMTPMailer) Configured() bool {
	return m.cfg.Configured()
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if !m.Configured() {
		return "", apperror.ErrNotConfigured
	}

	mm := mail.NewMsg()
	if err := mm.From(m.cfg.Sender()); err != nil {
		return "", fmt.Errorf("set sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return "", fmt.Errorf("set recipient %q: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	mm.SetDate()
	mm.SetMessageID()

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	}
	if m.timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.timeout))
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return "", fmt.Errorf("smtp send to %s: %w", m.cfg.Host, err)
	}

	var messageID string
	if ids := mm.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = strings.Trim(ids[0], "<>")
	}
	return messageID, nil
}
