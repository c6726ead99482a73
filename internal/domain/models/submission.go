package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the format of Submission.SubmittedAt in the contact log.
const TimestampLayout = "2006-01-02 15:04:05"

// Unknown replaces a missing source IP or user agent.
const Unknown = "Unknown"

// Submission is one accepted contact-form entry, already sanitized.
type Submission struct {
	Name        string
	Email       string
	Phone       string
	Message     string
	SubmittedAt time.Time
	SourceIP    string
	UserAgent   string
}

// submissionJSON is the on-disk shape of a Submission.
type submissionJSON struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
}

// Timestamp returns SubmittedAt formatted with TimestampLayout.
func (s Submission) Timestamp() string {
	return s.SubmittedAt.Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler. Values are already entity-escaped
// by the sanitizer, so <, > and & are written as-is.
func (s Submission) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(submissionJSON{
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Message:   s.Message,
		Timestamp: s.Timestamp(),
		IP:        s.SourceIP,
		UserAgent: s.UserAgent,
	}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON implements json.Unmarshaler. The timestamp is read in the
// server's local zone; an unparsable timestamp leaves SubmittedAt zero.
func (s *Submission) UnmarshalJSON(b []byte) error {
	var raw submissionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	at, _ := time.ParseInLocation(TimestampLayout, raw.Timestamp, time.Local)
	*s = Submission{
		Name:        raw.Name,
		Email:       raw.Email,
		Phone:       raw.Phone,
		Message:     raw.Message,
		SubmittedAt: at,
		SourceIP:    raw.IP,
		UserAgent:   raw.UserAgent,
	}
	return nil
}

// New builds a Submission stamped with at, substituting Unknown for an
// empty source IP or user agent.
func New(name, email, phone, message, ip, userAgent string, at time.Time) Submission {
	if ip == "" {
		ip = Unknown
	}
	if userAgent == "" {
		userAgent = Unknown
	}
	return Submission{
		Name:        name,
		Email:       email,
		Phone:       phone,
		Message:     message,
		SubmittedAt: at,
		SourceIP:    ip,
		UserAgent:   userAgent,
	}
}
