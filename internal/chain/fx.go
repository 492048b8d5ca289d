package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/observability/metrics"
)

// NewClient dials the settlement chain RPC endpoint.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*ethclient.Client, error) {
	client, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.Chain.RPCURL, err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})

	log.Info("chain rpc connected", zap.String("endpoint", cfg.Chain.RPCURL))
	return client, nil
}

func provideBackend(client *ethclient.Client) Backend {
	return client
}

func provideSigner(cfg config.Config) (*Signer, error) {
	return NewSigner(cfg.Chain.NodePrivateKey)
}

func provideReader(backend Backend, cfg config.Config, log *zap.Logger) *Reader {
	return NewReader(backend, common.HexToAddress(cfg.Chain.ContractAddress), log)
}

func provideSubmitter(backend Backend, cfg config.Config, signer *Signer, log *zap.Logger, m *metrics.Metrics) *Submitter {
	return NewSubmitter(backend, common.HexToAddress(cfg.Chain.ContractAddress), signer, cfg.Chain.ChainID, cfg.Chain.GasLimit, log, m)
}

var Module = fx.Module("chain",
	fx.Provide(
		NewClient,
		provideBackend,
		provideSigner,
		provideReader,
		provideSubmitter,
	),
)
