// Package listener turns finalized VerificationRequested events into
// verification runs. It owns redelivery semantics: the workflow never
// retries, so a crashed poller resuming from its last processed block is
// the only replay path.
package listener

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/verifier"
)

var finalizedBlockTag = big.NewInt(rpc.FinalizedBlockNumber.Int64())

// Runner executes one verification run per trigger event.
type Runner interface {
	Run(ctx context.Context, ev chain.VerificationRequested) (verifier.Result, error)
}

// Listener polls the chain for finalized trigger events and dispatches
// each to the verification workflow.
type Listener struct {
	backend       chain.Backend
	workflow      Runner
	contract      common.Address
	pollInterval  time.Duration
	runTimeout    time.Duration
	finalityDepth uint64
	log           *zap.Logger

	lastProcessed uint64
}

func New(backend chain.Backend, workflow Runner, contract common.Address, pollInterval, runTimeout time.Duration, finalityDepth uint64, log *zap.Logger) *Listener {
	return &Listener{
		backend:       backend,
		workflow:      workflow,
		contract:      contract,
		pollInterval:  pollInterval,
		runTimeout:    runTimeout,
		finalityDepth: finalityDepth,
		log:           log.Named("listener"),
	}
}

// Run polls until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	l.log.Info("listener started",
		zap.String("contract", l.contract.Hex()),
		zap.Duration("poll_interval", l.pollInterval),
	)

	for {
		select {
		case <-ctx.Done():
			l.log.Info("listener stopped")
			return
		case <-ticker.C:
			if err := l.poll(ctx); err != nil && ctx.Err() == nil {
				l.log.Warn("poll failed", zap.Error(err))
			}
		}
	}
}

// poll scans (lastProcessed, finalized] for trigger events. Only
// finalized blocks are scanned, so every replica sees the same events
// with the same payloads.
func (l *Listener) poll(ctx context.Context) error {
	finalized, err := l.finalizedBlock(ctx)
	if err != nil {
		return err
	}

	if l.lastProcessed == 0 {
		// First poll: start at the current finalized head rather than
		// replaying the chain's history.
		l.lastProcessed = finalized
		return nil
	}
	if finalized <= l.lastProcessed {
		return nil
	}

	logs, err := l.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(l.lastProcessed + 1),
		ToBlock:   new(big.Int).SetUint64(finalized),
		Addresses: []common.Address{l.contract},
		Topics:    [][]common.Hash{{chain.VerificationRequestedTopic}},
	})
	if err != nil {
		return err
	}

	for _, lg := range logs {
		ev, err := chain.DecodeVerificationRequested(lg)
		if err != nil {
			l.log.Warn("skipping undecodable log",
				zap.Uint64("block", lg.BlockNumber),
				zap.String("tx_hash", lg.TxHash.Hex()),
				zap.Error(err),
			)
			continue
		}

		// Run failures are terminal per event; the block range is still
		// marked processed and replay happens by event re-emission.
		if _, err := l.dispatch(ctx, ev); err != nil {
			l.log.Error("verification run failed",
				zap.String("campaign_id", ev.CampaignID.String()),
				zap.String("video_id", ev.VideoID),
				zap.Error(err),
			)
		}
	}

	l.lastProcessed = finalized
	return nil
}

// dispatch runs the workflow for one event under the run timeout. A
// report transaction that never mines must not wedge the poll loop, so
// the receipt wait inherits the deadline and expiry fails the run.
func (l *Listener) dispatch(ctx context.Context, ev chain.VerificationRequested) (verifier.Result, error) {
	if l.runTimeout <= 0 {
		return l.workflow.Run(ctx, ev)
	}
	runCtx, cancel := context.WithTimeout(ctx, l.runTimeout)
	defer cancel()
	return l.workflow.Run(runCtx, ev)
}

// finalizedBlock resolves the newest finalized block number. Chains
// whose RPC predates the finalized tag fall back to head minus the
// configured confirmation depth.
func (l *Listener) finalizedBlock(ctx context.Context) (uint64, error) {
	header, err := l.backend.HeaderByNumber(ctx, finalizedBlockTag)
	if err == nil {
		return header.Number.Uint64(), nil
	}

	head, headErr := l.backend.HeaderByNumber(ctx, nil)
	if headErr != nil {
		return 0, err
	}
	num := head.Number.Uint64()
	if num <= l.finalityDepth {
		return 0, nil
	}
	return num - l.finalityDepth, nil
}
