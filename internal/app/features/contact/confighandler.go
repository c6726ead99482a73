package contact

import (
	"net/http"

	"github.com/dalemusser/contactd/httputil"
)

// ClientConfig is the body of GET /config.
type ClientConfig struct {
	Validation Rules    `json:"validation"`
	Messages   Messages `json:"messages"`
}

// ServeConfig publishes the rules and messages the handler enforces.
func (h *Handler) ServeConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ClientConfig{
		Validation: h.settings.Rules,
		Messages:   h.settings.Messages,
	})
}
