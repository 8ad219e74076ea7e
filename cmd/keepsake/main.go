// cmd/keepsake/main.go
package main

import (
	"context"

	"github.com/dalemusser/keepsake/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

// main hands control to the WAFFLE lifecycle. Configuration loading,
// signal handling, and graceful shutdown all happen inside app.Run.
func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
