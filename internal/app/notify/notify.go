// Package notify sends the admin notification and the user confirmation
// for an accepted contact submission.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/contactd/internal/domain/models"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/pantry/email"
	"github.com/mssola/useragent"
	"go.uber.org/zap"
)

// Default templates. Admin placeholders: {name} {email} {phone} {message}
// {timestamp} {ip} {user_agent} {browser}. User placeholders: {user_name}
// {site_name} {site_location}.
const (
	DefaultAdminSubject = "Nouveau message de contact - Sophrologie"
	DefaultUserSubject  = "Confirmation de réception - Cabinet de Sophrologie"

	DefaultAdminBody = `Nouveau message de contact reçu via le site Sophrologie:

Nom: {name}
Email: {email}
Téléphone: {phone}

Message:
{message}

---
Envoyé le: {timestamp}
IP: {ip}
Navigateur: {browser}
User Agent: {user_agent}`

	DefaultUserBody = `Bonjour {user_name},

Nous avons bien reçu votre message et vous en remercions.
Nous vous recontacterons dans les plus brefs délais.

Cordialement,
Votre Sophrologue

---
{site_name}
{site_location}`
)

// PhoneNotProvided stands in for an empty phone in the admin mail.
const PhoneNotProvided = "Non fourni"

// Config holds the site identity and mail templates.
type Config struct {
	AdminEmail   string
	SiteName     string
	SiteDomain   string
	SiteLocation string

	AdminSubject string
	AdminBody    string
	UserSubject  string
	UserBody     string

	// Timeout bounds each send; zero means no bound beyond the caller's ctx.
	Timeout time.Duration
}

// Notifier renders and sends both mails through one transport.
type Notifier struct {
	cfg       Config
	transport email.Transport
	logger    *zap.Logger
}

// New returns a Notifier sending through t.
func New(cfg Config, t email.Transport, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{cfg: cfg, transport: t, logger: logger}
}

// AdminMessage builds the site owner's notification. It is sent in the
// submitter's name so that replying goes straight back to them.
func (n *Notifier) AdminMessage(sub models.Submission) email.Message {
	phone := sub.Phone
	if phone == "" {
		phone = PhoneNotProvided
	}
	body := email.Render(n.cfg.AdminBody, map[string]string{
		"name":       sub.Name,
		"email":      sub.Email,
		"phone":      phone,
		"message":    sub.Message,
		"timestamp":  sub.Timestamp(),
		"ip":         sub.SourceIP,
		"user_agent": sub.UserAgent,
		"browser":    Browser(sub.UserAgent),
	})
	return email.Message{
		To:          []string{n.cfg.AdminEmail},
		Subject:     n.cfg.AdminSubject,
		TextBody:    body,
		FromAddress: sub.Email,
		FromName:    sub.Name,
		ReplyTo:     sub.Email,
		ReplyToName: sub.Name,
	}
}

// UserMessage builds the confirmation sent to the submitter from
// noreply@<site domain>.
func (n *Notifier) UserMessage(sub models.Submission) email.Message {
	body := email.Render(n.cfg.UserBody, map[string]string{
		"user_name":     sub.Name,
		"site_name":     n.cfg.SiteName,
		"site_location": n.cfg.SiteLocation,
	})
	from := "noreply@" + n.cfg.SiteDomain
	return email.Message{
		To:          []string{sub.Email},
		Subject:     n.cfg.UserSubject,
		TextBody:    body,
		FromAddress: from,
		FromName:    n.cfg.SiteName,
		ReplyTo:     from,
		ReplyToName: n.cfg.SiteName,
	}
}

// NotifyAdmin sends the admin notification.
func (n *Notifier) NotifyAdmin(ctx context.Context, sub models.Submission) bool {
	return n.send(ctx, "admin", n.AdminMessage(sub))
}

// NotifyUser sends the confirmation to the submitter.
func (n *Notifier) NotifyUser(ctx context.Context, sub models.Submission) bool {
	return n.send(ctx, "user", n.UserMessage(sub))
}

func (n *Notifier) send(ctx context.Context, recipient string, msg email.Message) bool {
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := n.transport.Send(ctx, msg)
	metrics.EmailsSent.WithLabelValues(recipient, n.transport.Name(), metrics.ResultLabel(err == nil)).Inc()
	if err != nil {
		n.logger.Error("email send failed",
			zap.String("recipient", recipient),
			zap.String("method", n.transport.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return false
	}
	n.logger.Debug("email sent",
		zap.String("recipient", recipient),
		zap.String("method", n.transport.Name()),
		zap.Duration("elapsed", time.Since(start)))
	return true
}

// Browser summarizes a User-Agent header as "Browser version (OS)", or
// returns the input unchanged when it cannot be parsed.
func Browser(ua string) string {
	if ua == "" || ua == models.Unknown {
		return models.Unknown
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if name == "" {
		return ua
	}
	var b strings.Builder
	b.WriteString(name)
	if version != "" {
		b.WriteString(" " + version)
	}
	if os := parsed.OS(); os != "" {
		b.WriteString(" (" + os + ")")
	}
	if parsed.Bot() {
		b.WriteString(" [bot]")
	}
	return b.String()
}
