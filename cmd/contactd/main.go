// Command contactd serves the contact form backend.
package main

import (
	"context"
	"os"

	"github.com/dalemusser/contactd/app"
	"github.com/dalemusser/contactd/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		os.Exit(1)
	}
}
