package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/brookejlacey/flowback/internal/config"
)

// The option list is built from a single Config read, so the graph must
// be complete for both values of the verifier gate.
func TestAppOptionsGraphAPIOnly(t *testing.T) {
	cfg := config.Config{}

	require.NoError(t, fx.ValidateApp(appOptions(cfg)...))
}

func TestAppOptionsGraphWithVerifier(t *testing.T) {
	cfg := config.Config{}
	cfg.Verifier.Enabled = true

	require.NoError(t, fx.ValidateApp(appOptions(cfg)...))
}
