package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/brookejlacey/flowback/internal/clock"
	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/connection"
	"github.com/brookejlacey/flowback/internal/engagement"
	"github.com/brookejlacey/flowback/internal/migration"
	"github.com/brookejlacey/flowback/internal/observability"
	"github.com/brookejlacey/flowback/internal/platform"
	"github.com/brookejlacey/flowback/internal/ratelimit"
	"github.com/brookejlacey/flowback/internal/server"
	"github.com/brookejlacey/flowback/internal/submission"
	"github.com/brookejlacey/flowback/internal/token"
	"github.com/brookejlacey/flowback/internal/vault"
	"github.com/brookejlacey/flowback/pkg/db"
)

// Backend API only: submissions, metrics serving, platform connections.
// Verification nodes run apps/verifier against this API.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		vault.Module,
		platform.Module,
		connection.Module,
		token.Module,
		submission.Module,
		engagement.Module,
		ratelimit.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
