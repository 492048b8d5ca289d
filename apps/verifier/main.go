package main

import (
	"go.uber.org/fx"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/clock"
	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/listener"
	"github.com/brookejlacey/flowback/internal/observability"
	"github.com/brookejlacey/flowback/internal/ratelimit"
	"github.com/brookejlacey/flowback/internal/verifier"
)

// Verification node only: watches the settlement chain for finalized
// trigger events, fetches metrics from the backend API, and submits
// signed reports. No database.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		ratelimit.Module,

		chain.Module,
		verifier.Module,
		listener.Module,
	)
	app.Run()
}
