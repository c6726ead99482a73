package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dalemusser/contactd/httputil"
	"github.com/dalemusser/contactd/internal/app/store"
	"github.com/dalemusser/contactd/internal/domain/models"
	"github.com/dalemusser/contactd/metrics"
	"github.com/dalemusser/contactd/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ParseErrorMessage answers a missing, malformed or empty JSON body.
const ParseErrorMessage = "Aucune donnée reçue ou format invalide"

// Notifier sends the two notification emails. Each call reports whether the
// mail was handed to the transport.
type Notifier interface {
	NotifyAdmin(ctx context.Context, sub models.Submission) bool
	NotifyUser(ctx context.Context, sub models.Submission) bool
}

// Settings are fixed at startup.
type Settings struct {
	Rules    Rules
	Messages Messages
	// Debug adds the stored submission (or the fault) to responses.
	Debug bool
	// MailMethod is echoed as mail_method ("smtp" or "builtin").
	MailMethod string
}

// Handler serves /contact.
type Handler struct {
	settings Settings
	store    store.Store // nil when storage is disabled
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler returns the /contact handler. st may be nil to disable storage.
// settings.Rules must already be compiled.
func NewHandler(settings Settings, st store.Store, n Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		settings: settings,
		store:    st,
		notifier: n,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes mounts POST/OPTIONS /contact and GET /config on r.
func Routes(r chi.Router, h *Handler) {
	r.With(middleware.PublicForm(), middleware.NoStore).Handle("/contact", h)
	r.With(middleware.CacheFor(3600)).Get("/config", h.ServeConfig)
}

// Response is the success envelope of /contact.
type Response struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DataSaved      bool   `json:"data_saved"`
	AdminEmailSent bool   `json:"admin_email_sent"`
	UserEmailSent  bool   `json:"user_email_sent"`
	MailMethod     string `json:"mail_method"`
	Debug          any    `json:"debug,omitempty"`
}

// ServeHTTP dispatches on method: OPTIONS answers 200 with no body, POST
// processes a submission and anything else is 405.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		httputil.Fail(w, http.StatusMethodNotAllowed, middleware.MethodNotAllowedMessage)
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	var raw map[string]json.RawMessage
	if err := httputil.BindJSON(r, &raw); err != nil || len(raw) == 0 {
		metrics.Submissions.WithLabelValues("malformed").Inc()
		h.logger.Info("contact body rejected", zap.String("request_id", reqID), zap.Error(err))
		httputil.Fail(w, http.StatusBadRequest, ParseErrorMessage)
		return
	}

	fields := Sanitize(stringField(raw["name"]), stringField(raw["email"]),
		stringField(raw["phone"]), stringField(raw["message"]))
	if res := Validate(fields, h.settings.Rules); !res.OK() {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		h.logger.Info("contact validation failed",
			zap.String("request_id", reqID), zap.String("field", res.Field))
		httputil.Fail(w, http.StatusBadRequest, res.Reason)
		return
	}

	sub := models.New(fields.Name, fields.Email, fields.Phone, fields.Message,
		clientIP(r), r.UserAgent(), h.now())

	// Side effects outlive a client that hangs up.
	out, fault := h.process(context.WithoutCancel(r.Context()), sub)
	if fault != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		h.logger.Error("contact processing failed", zap.String("request_id", reqID), zap.Error(fault))
		if h.settings.Debug {
			httputil.FailDebug(w, http.StatusInternalServerError, h.settings.Messages.ErrorGeneric, fault.Error())
			return
		}
		httputil.Fail(w, http.StatusInternalServerError, h.settings.Messages.ErrorGeneric)
		return
	}

	metrics.Submissions.WithLabelValues("accepted").Inc()
	h.logger.Info("contact submission accepted",
		zap.String("request_id", reqID),
		zap.Bool("data_saved", out.saved),
		zap.Bool("admin_email_sent", out.adminSent),
		zap.Bool("user_email_sent", out.userSent))

	resp := Response{
		Success:        true,
		Message:        h.settings.Messages.Success,
		DataSaved:      out.saved,
		AdminEmailSent: out.adminSent,
		UserEmailSent:  out.userSent,
		MailMethod:     h.settings.MailMethod,
	}
	if h.settings.Debug {
		resp.Debug = sub
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type outcome struct {
	saved, adminSent, userSent bool
}

// process runs the store append and both notifications concurrently and
// waits for all three. A panic in any of them is returned as fault.
func (h *Handler) process(ctx context.Context, sub models.Submission) (out outcome, fault error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		faults []error
	)
	run := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					h.logger.Error("panic in contact pipeline",
						zap.String("step", name),
						zap.Any("panic_value", rec),
						zap.ByteString("stacktrace", debug.Stack()))
					mu.Lock()
					faults = append(faults, fmt.Errorf("%s: %v", name, rec))
					mu.Unlock()
				}
			}()
			fn()
		}()
	}

	run("store", func() { out.saved = h.save(ctx, sub) })
	run("admin_email", func() { out.adminSent = h.notifier.NotifyAdmin(ctx, sub) })
	run("user_email", func() { out.userSent = h.notifier.NotifyUser(ctx, sub) })
	wg.Wait()

	return out, errors.Join(faults...)
}

func (h *Handler) save(ctx context.Context, sub models.Submission) bool {
	if h.store == nil {
		return false
	}
	backend := h.store.Backend()
	err := h.store.Append(ctx, sub)
	switch {
	case err == nil:
		metrics.StoreWrites.WithLabelValues(backend, "ok").Inc()
		return true
	case errors.Is(err, store.ErrStorageFull):
		metrics.StoreWrites.WithLabelValues(backend, "full").Inc()
		h.logger.Warn("contact log is full; submission not saved", zap.String("backend", backend))
	default:
		metrics.StoreWrites.WithLabelValues(backend, "error").Inc()
		h.logger.Error("contact log append failed", zap.String("backend", backend), zap.Error(err))
	}
	return false
}

// stringField turns a JSON value into form text: strings as-is, numbers as
// written, true as "1", anything else empty.
func stringField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	case '{', '[', 'n', 'f':
		return ""
	case 't':
		return "1"
	default:
		return string(raw)
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
