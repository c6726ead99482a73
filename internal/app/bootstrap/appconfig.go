package bootstrap

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/contactd/config"
	"github.com/dalemusser/contactd/internal/app/features/contact"
	"github.com/dalemusser/contactd/internal/app/notify"
	"github.com/dalemusser/contactd/internal/app/store"
	"github.com/dalemusser/contactd/pantry/email"
	"github.com/dalemusser/contactd/pantry/validate"
)

// Mail methods.
const (
	MailSMTP    = "smtp"
	MailBuiltin = "builtin"
)

// AppKeys are the contact service's configuration keys. They follow the
// core precedence: flags > CONTACTD_* env > config.* files > defaults.
var AppKeys = []config.AppKey{
	{Name: "site_name", Default: "Cabinet de Sophrologie", Desc: "Site name used in mails"},
	{Name: "site_domain", Default: "sophrologie.fr", Desc: "Domain of the noreply sender address"},
	{Name: "site_location", Default: "Palaiseau, Île-de-France", Desc: "Location line of the confirmation mail"},
	{Name: "admin_email", Default: "contact@sophrologie.fr", Desc: "Recipient of new-contact notifications"},

	{Name: "mail_method", Default: "", Desc: `"smtp" or "builtin" (empty: smtp in dev, builtin in prod)`},
	{Name: "debug", Default: "", Desc: `Expose debug detail in responses: "true"/"false" (empty: on in dev)`},
	{Name: "smtp_host", Default: "localhost", Desc: "SMTP host"},
	{Name: "smtp_port", Default: 1025, Desc: "SMTP port"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username (auth only when set)"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password"},
	{Name: "smtp_secure", Default: "", Desc: `SMTP security: "", "tls" or "ssl"`},
	{Name: "smtp_timeout", Default: "10s", Desc: "Timeout for one mail delivery"},
	{Name: "sendmail_path", Default: "", Desc: "sendmail binary for the builtin method (default /usr/sbin/sendmail)"},

	{Name: "admin_subject", Default: notify.DefaultAdminSubject, Desc: "Admin notification subject"},
	{Name: "admin_body", Default: notify.DefaultAdminBody, Desc: "Admin notification body template"},
	{Name: "user_subject", Default: notify.DefaultUserSubject, Desc: "Confirmation subject"},
	{Name: "user_body", Default: notify.DefaultUserBody, Desc: "Confirmation body template"},

	{Name: "storage_enabled", Default: true, Desc: "Persist submissions"},
	{Name: "storage_backend", Default: "file", Desc: `Storage backend: "file" or "sqlite"`},
	{Name: "storage_path", Default: "data/contacts.json", Desc: "Contact log path"},
	{Name: "storage_max_bytes", Default: int64(10 << 20), Desc: "Contact log size ceiling in bytes (0 = none)"},

	{Name: "rules_file", Default: "", Desc: "JSON file overriding validation rules and messages"},
	{Name: "static_dir", Default: "", Desc: "Serve the site's static files from this directory"},
	{Name: "health_timeout", Default: "3s", Desc: "Per-check timeout of /health"},
}

// AppConfig is the resolved, validated contact service configuration.
type AppConfig struct {
	Notify notify.Config

	MailMethod   string
	Debug        bool
	SMTP         email.SMTPConfig
	SendmailPath string

	StorageEnabled bool
	Store          store.Config

	Rules    contact.Rules
	Messages contact.Messages

	StaticDir     string
	HealthTimeout time.Duration
}

// Settings returns the immutable handler settings.
func (c AppConfig) Settings() contact.Settings {
	return contact.Settings{
		Rules:      c.Rules,
		Messages:   c.Messages,
		Debug:      c.Debug,
		MailMethod: c.MailMethod,
	}
}

// rulesFile mirrors the /config document so the served JSON can be edited
// and fed back in.
type rulesFile struct {
	Validation *contact.Rules    `json:"validation"`
	Messages   *contact.Messages `json:"messages"`
}

// NewAppConfig resolves env-dependent defaults, loads the optional rules
// file and validates the result.
func NewAppConfig(core *config.CoreConfig, vals config.AppConfigValues) (AppConfig, error) {
	timeout := vals.Duration("smtp_timeout", 10*time.Second)

	cfg := AppConfig{
		Notify: notify.Config{
			AdminEmail:   strings.TrimSpace(vals.String("admin_email")),
			SiteName:     vals.String("site_name"),
			SiteDomain:   strings.TrimSpace(vals.String("site_domain")),
			SiteLocation: vals.String("site_location"),
			AdminSubject: vals.String("admin_subject"),
			AdminBody:    vals.String("admin_body"),
			UserSubject:  vals.String("user_subject"),
			UserBody:     vals.String("user_body"),
			Timeout:      timeout,
		},
		MailMethod: strings.ToLower(strings.TrimSpace(vals.String("mail_method"))),
		SMTP: email.SMTPConfig{
			Host:     vals.String("smtp_host"),
			Port:     vals.Int("smtp_port"),
			Username: vals.String("smtp_username"),
			Password: vals.String("smtp_password"),
			Secure:   vals.String("smtp_secure"),
			Timeout:  timeout,
		},
		SendmailPath:   vals.String("sendmail_path"),
		StorageEnabled: vals.Bool("storage_enabled"),
		Store: store.Config{
			Backend:  strings.ToLower(strings.TrimSpace(vals.String("storage_backend"))),
			Path:     vals.String("storage_path"),
			MaxBytes: vals.Int64("storage_max_bytes"),
		},
		Rules:         contact.DefaultRules(),
		Messages:      contact.DefaultMessages(),
		StaticDir:     strings.TrimSpace(vals.String("static_dir")),
		HealthTimeout: vals.Duration("health_timeout", 3*time.Second),
	}

	if cfg.MailMethod == "" {
		cfg.MailMethod = MailSMTP
		if core.IsProd() {
			cfg.MailMethod = MailBuiltin
		}
	}
	cfg.Debug = !core.IsProd()
	if vals.IsSet("debug") {
		cfg.Debug = vals.Bool("debug")
	}

	if path := strings.TrimSpace(vals.String("rules_file")); path != "" {
		if err := loadRulesFile(path, &cfg.Rules, &cfg.Messages); err != nil {
			return AppConfig{}, err
		}
	}
	if err := cfg.Rules.Compile(); err != nil {
		return AppConfig{}, fmt.Errorf("validation rules: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func loadRulesFile(path string, rules *contact.Rules, msgs *contact.Messages) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rules_file: %w", err)
	}
	doc := rulesFile{Validation: rules, Messages: msgs}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("rules_file %s: %w", path, err)
	}
	return nil
}

func (c AppConfig) validate() error {
	var invalid []string

	if !validate.EmailValid(c.Notify.AdminEmail) {
		invalid = append(invalid, "admin_email must be a valid address")
	}
	if c.Notify.SiteDomain == "" {
		invalid = append(invalid, "site_domain is required")
	}
	switch c.MailMethod {
	case MailSMTP:
		if strings.TrimSpace(c.SMTP.Host) == "" {
			invalid = append(invalid, "smtp_host is required for mail_method=smtp")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			invalid = append(invalid, "smtp_port must be in 1..65535")
		}
		switch strings.ToLower(c.SMTP.Secure) {
		case "", "tls", "ssl":
		default:
			invalid = append(invalid, `smtp_secure must be "", "tls" or "ssl"`)
		}
	case MailBuiltin:
	default:
		invalid = append(invalid, `mail_method must be "smtp" or "builtin"`)
	}
	if c.StorageEnabled {
		switch c.Store.Backend {
		case "file", "sqlite":
		default:
			invalid = append(invalid, `storage_backend must be "file" or "sqlite"`)
		}
		if strings.TrimSpace(c.Store.Path) == "" {
			invalid = append(invalid, "storage_path is required when storage is enabled")
		}
		if c.Store.MaxBytes < 0 {
			invalid = append(invalid, "storage_max_bytes must be >= 0")
		}
	}

	if len(invalid) == 0 {
		return nil
	}
	return fmt.Errorf("app configuration errors: invalid: %s", strings.Join(invalid, ", "))
}
