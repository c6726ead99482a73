// pantry/email/email.go
// Package email composes plain-text notification mails and delivers them
// through github.com/wneessen/go-mail, either to an SMTP server or to the
// local sendmail binary.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Message is a plain-text email.
type Message struct {
	To       []string
	Subject  string
	TextBody string

	// FromAddress is required; FromName is the optional display name.
	FromAddress string
	FromName    string

	// ReplyTo is optional; ReplyToName is its display name.
	ReplyTo     string
	ReplyToName string
}

// Transport delivers composed messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	// Name identifies the delivery method ("smtp", "builtin").
	Name() string
}

// Compose validates msg and builds the go-mail message for it.
func Compose(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("email: no recipients specified")
	}
	if strings.TrimSpace(msg.FromAddress) == "" {
		return nil, errors.New("email: no sender specified")
	}

	m := mail.NewMsg()
	m.SetCharset(mail.CharsetUTF8)

	var err error
	if msg.FromName != "" {
		err = m.FromFormat(msg.FromName, msg.FromAddress)
	} else {
		err = m.From(msg.FromAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if msg.ReplyToName != "" {
			err = m.ReplyToFormat(msg.ReplyToName, msg.ReplyTo)
		} else {
			err = m.ReplyTo(msg.ReplyTo)
		}
		if err != nil {
			return nil, fmt.Errorf("email: invalid reply-to address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	return m, nil
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host string
	Port int

	// Username enables PLAIN auth when non-empty.
	Username string
	Password string

	// Secure is "" (plain), "tls" (mandatory STARTTLS) or "ssl" (implicit TLS).
	Secure string

	// Timeout bounds dialing and each SMTP command (default 30s).
	Timeout time.Duration
}

// SMTPTransport sends mail through an SMTP server.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport validates cfg and returns a transport for it.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("email: smtp host is empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("email: invalid smtp port %d", cfg.Port)
	}
	cfg.Secure = strings.ToLower(strings.TrimSpace(cfg.Secure))
	switch cfg.Secure {
	case "", "tls", "ssl":
	default:
		return nil, fmt.Errorf("email: smtp secure must be \"\", \"tls\" or \"ssl\", got %q", cfg.Secure)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPTransport{cfg: cfg}, nil
}

// Name implements Transport.
func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
	}
	switch t.cfg.Secure {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "tls":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}
	return opts
}

// Send implements Transport. Each call dials a fresh connection.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := Compose(msg)
	if err != nil {
		return err
	}
	c, err := mail.NewClient(t.cfg.Host, t.options()...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: smtp send: %w", err)
	}
	return nil
}

// SendmailTransport hands mail to the host's sendmail binary, the way a
// shared web host delivers mail without an SMTP relay.
type SendmailTransport struct {
	// Path of the sendmail binary; empty means mail.SendmailPath.
	Path string
	// Args are appended after "-oi -t".
	Args []string
}

// Name implements Transport.
func (t *SendmailTransport) Name() string { return "builtin" }

// Send implements Transport.
func (t *SendmailTransport) Send(ctx context.Context, msg Message) error {
	m, err := Compose(msg)
	if err != nil {
		return err
	}
	path := t.Path
	if path == "" {
		path = mail.SendmailPath
	}
	if err := m.WriteToSendmailWithContext(ctx, path, t.Args...); err != nil {
		return fmt.Errorf("email: sendmail: %w", err)
	}
	return nil
}
