package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/observability/metrics"
)

// ErrSubmissionReverted marks a report transaction that was mined but
// rejected by the contract. Not retried here; redelivery of the trigger
// event owns retry policy.
var ErrSubmissionReverted = errors.New("chain: report transaction reverted")

const receiptPollInterval = 2 * time.Second

// Submitter writes signed verification reports to the settlement contract.
type Submitter struct {
	backend  Backend
	contract common.Address
	signer   *Signer
	chainID  *big.Int
	gasLimit uint64
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewSubmitter(backend Backend, contract common.Address, signer *Signer, chainID int64, gasLimit uint64, log *zap.Logger, m *metrics.Metrics) *Submitter {
	return &Submitter{
		backend:  backend,
		contract: contract,
		signer:   signer,
		chainID:  big.NewInt(chainID),
		gasLimit: gasLimit,
		log:      log.Named("chain.submitter"),
		metrics:  m,
	}
}

// SubmitReport sends submitReport(report, signature) with the configured
// gas ceiling and blocks until the transaction is mined or ctx expires.
func (s *Submitter) SubmitReport(ctx context.Context, report, signature []byte) (common.Hash, error) {
	calldata, err := settlementABI.Pack("submitReport", report, signature)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pack submitReport: %w", err)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, s.signer.Address())
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: pending nonce: %w", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, s.contract, common.Big0, s.gasLimit, gasPrice, calldata)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.signer.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("chain: sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		s.metrics.RecordReportSubmission(ctx, "send_error")
		return common.Hash{}, fmt.Errorf("chain: send transaction: %w", err)
	}

	txHash := signedTx.Hash()
	s.log.Info("report transaction sent",
		zap.String("tx_hash", txHash.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas_limit", s.gasLimit),
	)

	receipt, err := s.waitMined(ctx, txHash)
	if err != nil {
		s.metrics.RecordReportSubmission(ctx, "timeout")
		return txHash, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.metrics.RecordReportSubmission(ctx, "reverted")
		s.log.Error("report transaction reverted",
			zap.String("tx_hash", txHash.Hex()),
			zap.Uint64("block", receipt.BlockNumber.Uint64()),
		)
		return txHash, ErrSubmissionReverted
	}

	s.metrics.RecordReportSubmission(ctx, "ok")
	s.log.Info("report transaction mined",
		zap.String("tx_hash", txHash.Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return txHash, nil
}

func (s *Submitter) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			s.log.Warn("receipt lookup failed", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("chain: wait for receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
