package middleware

import (
	"net/http"

	"github.com/dalemusser/contactd/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler returns a handler that logs a 404 and answers with the
// JSON failure envelope. Pass it to chi.Router.NotFound(..).
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		httputil.Fail(w, http.StatusNotFound, "Ressource introuvable")
	}
}

// MethodNotAllowedHandler returns a handler that logs a 405 and answers with
// the JSON failure envelope. Pass it to chi.Router.MethodNotAllowed(..).
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		httputil.Fail(w, http.StatusMethodNotAllowed, MethodNotAllowedMessage)
	}
}

// MethodNotAllowedMessage is the client-facing text of every 405 response.
const MethodNotAllowedMessage = "Méthode non autorisée"
