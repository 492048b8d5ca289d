package listener

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/verifier"
)

func newFromConfig(backend chain.Backend, workflow *verifier.Workflow, cfg config.Config, log *zap.Logger) *Listener {
	return New(
		backend,
		workflow,
		common.HexToAddress(cfg.Chain.ContractAddress),
		cfg.Chain.PollInterval,
		cfg.Chain.RunTimeout,
		cfg.Chain.FinalityDepth,
		log,
	)
}

func run(lc fx.Lifecycle, l *Listener) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				l.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Module("listener",
	fx.Provide(newFromConfig),
	fx.Invoke(run),
)
