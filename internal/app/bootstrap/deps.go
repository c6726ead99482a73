package bootstrap

import (
	"github.com/dalemusser/contactd/internal/app/notify"
	"github.com/dalemusser/contactd/internal/app/store"
	"github.com/dalemusser/contactd/pantry/email"
)

// Deps holds the backends opened at startup.
type Deps struct {
	// Store is nil when storage is disabled.
	Store     store.Store
	Transport email.Transport
	Notifier  *notify.Notifier
}
