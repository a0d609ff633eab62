package cli

import (
	"github.com/felixgeelhaar/payved/internal/billing/application"
	"github.com/felixgeelhaar/payved/internal/billing/application/commands"
)

// App holds the CLI application dependencies.
type App struct {
	BillingService *application.BillingService
	Invoker        *commands.Invoker
}

// NewApp creates a new CLI application.
func NewApp(billingService *application.BillingService, invoker *commands.Invoker) *App {
	return &App{
		BillingService: billingService,
		Invoker:        invoker,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
