package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig describes the outbound relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer delivers messages through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	client *gomail.Client
}

// implicitTLSPort is the submissions port, where TLS starts before SMTP.
const implicitTLSPort = 465

// NewSMTPMailer prepares a client; no connection is made until a send.
// Port 465 uses implicit TLS. Every other port requires STARTTLS.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{gomail.WithTimeout(15 * time.Second)}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	}
	// Applied after the TLS options, which rewrite the default port.
	if cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{cfg: cfg, client: client}, nil
}

// SendPasswordReset emails the reset link to to.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg, err := newResetMessage(m.cfg.FromName, m.cfg.From, to, link)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func newResetMessage(fromName, from, to, link string) (*gomail.Msg, error) {
	htmlBody, textBody, err := renderReset(link)
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	msg.AddAlternativeString(gomail.TypeTextPlain, textBody)
	return msg, nil
}
