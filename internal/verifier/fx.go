package verifier

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/clock"
	"github.com/brookejlacey/flowback/internal/config"
	"github.com/brookejlacey/flowback/internal/observability/metrics"
	submissionservice "github.com/brookejlacey/flowback/internal/submission/service"
	"github.com/brookejlacey/flowback/internal/verifier/fetchcache"
)

func provideStore(client *redis.Client, log *zap.Logger) fetchcache.Store {
	if client == nil {
		log.Warn("fetch agreement store is in-process only; replicas will not converge")
		return fetchcache.NewMemoryStore()
	}
	return fetchcache.NewRedisStore(client)
}

func provideFetcher(store fetchcache.Store, cfg config.Config, clk clock.Clock, log *zap.Logger) *fetchcache.Fetcher {
	return fetchcache.New(store, cfg.Verifier.ConsensusWindow, cfg.Verifier.FetchTimeout, clk, log)
}

func provideMetricsClient(cfg config.Config) *MetricsClient {
	return NewMetricsClient(cfg.Verifier.BackendURL, cfg.Verifier.ServiceToken)
}

type workflowParam struct {
	fx.In

	Fetcher   *fetchcache.Fetcher
	Client    *MetricsClient
	Reader    *chain.Reader
	Signer    *chain.Signer
	Submitter *chain.Submitter
	Log       *zap.Logger
	Metrics   *metrics.Metrics

	// Present only when the node runs alongside the backend database.
	Submissions *submissionservice.Service `optional:"true"`
}

func provideWorkflow(p workflowParam) *Workflow {
	var opts []WorkflowOption
	if p.Submissions != nil {
		opts = append(opts, WithStatusRecorder(p.Submissions))
	}
	return NewWorkflow(
		NewConsensusFetcher(p.Fetcher, p.Client),
		p.Reader,
		p.Signer,
		p.Submitter,
		p.Log,
		p.Metrics,
		opts...,
	)
}

var Module = fx.Module("verifier",
	fx.Provide(
		provideStore,
		provideFetcher,
		provideMetricsClient,
		provideWorkflow,
	),
)
