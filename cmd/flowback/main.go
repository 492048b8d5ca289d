package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/clock"
	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/connection"
	"github.com/brookejlacey/flowback/internal/engagement"
	"github.com/brookejlacey/flowback/internal/listener"
	"github.com/brookejlacey/flowback/internal/migration"
	"github.com/brookejlacey/flowback/internal/observability"
	"github.com/brookejlacey/flowback/internal/platform"
	"github.com/brookejlacey/flowback/internal/ratelimit"
	"github.com/brookejlacey/flowback/internal/server"
	"github.com/brookejlacey/flowback/internal/submission"
	"github.com/brookejlacey/flowback/internal/token"
	"github.com/brookejlacey/flowback/internal/vault"
	"github.com/brookejlacey/flowback/internal/verifier"
	"github.com/brookejlacey/flowback/pkg/db"
)

// Single-node deployment: backend API and verification node in one
// process. apps/api and apps/verifier split the two roles.
func main() {
	fx.New(appOptions(config.Load())...).Run()
}

// appOptions assembles the fx graph from one Config read. The same
// value both gates the verifier modules and feeds the graph, so the
// gate and the wired components can never disagree.
func appOptions(cfg config.Config) []fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(config.NewOpsConfigHolder),
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
	}
	if cfg.Verifier.Enabled {
		opts = append(opts,
			chain.Module,
			verifier.Module,
			listener.Module,
		)
	}
	return opts
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
