package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/observability/metrics"
	"github.com/brookejlacey/flowback/internal/payout"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	submissiondomain "github.com/brookejlacey/flowback/internal/submission/domain"
	"github.com/brookejlacey/flowback/internal/verifier/fetchcache"
)

// Stage identifies where in the pipeline a run is, or where it failed.
type Stage string

const (
	StageTriggered      Stage = "triggered"
	StageMetricsFetched Stage = "metrics_fetched"
	StageTermsRead      Stage = "terms_read"
	StagePayoutComputed Stage = "payout_computed"
	StageReportSigned   Stage = "report_signed"
	StageSubmitted      Stage = "submitted"
)

// FailedError is the terminal failure of a run. The run is never retried
// here; redelivery of the trigger event is the only retry path.
type FailedError struct {
	Stage Stage
	Cause error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("verification failed at %s: %v", e.Stage, e.Cause)
}

func (e *FailedError) Unwrap() error {
	return e.Cause
}

// MetricsFetcher resolves engagement metrics for a video.
type MetricsFetcher interface {
	VideoMetrics(ctx context.Context, platform, videoID string) (platformdomain.VideoMetrics, error)
}

// CampaignReader reads payout terms from finalized campaign state.
type CampaignReader interface {
	Terms(ctx context.Context, campaignID *big.Int) (payout.Terms, error)
}

// ReportSigner signs an encoded report. Compute only, no state.
type ReportSigner interface {
	SignReport(report []byte) ([]byte, error)
}

// ReportSubmitter writes a signed report to the settlement contract.
type ReportSubmitter interface {
	SubmitReport(ctx context.Context, report, signature []byte) (common.Hash, error)
}

// StatusRecorder mirrors run outcomes onto the local submission record.
// Optional; nodes running without the backend database leave it nil.
type StatusRecorder interface {
	RecordVerification(ctx context.Context, platform, videoID string, status submissiondomain.SubmissionStatus) error
}

// Result is a completed run: the metrics agreed on, the payout computed,
// and the transaction that carried the report.
type Result struct {
	ViewCount *big.Int
	Amount    *big.Int
	TxHash    common.Hash
}

// Workflow drives one verification run per trigger event.
type Workflow struct {
	fetcher   MetricsFetcher
	reader    CampaignReader
	signer    ReportSigner
	submitter ReportSubmitter
	status    StatusRecorder
	log       *zap.Logger
	metrics   *metrics.Metrics
}

type WorkflowOption func(*Workflow)

// WithStatusRecorder mirrors verification outcomes onto submissions.
func WithStatusRecorder(r StatusRecorder) WorkflowOption {
	return func(w *Workflow) { w.status = r }
}

func NewWorkflow(fetcher MetricsFetcher, reader CampaignReader, signer ReportSigner, submitter ReportSubmitter, log *zap.Logger, m *metrics.Metrics, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		fetcher:   fetcher,
		reader:    reader,
		signer:    signer,
		submitter: submitter,
		log:       log.Named("verifier.workflow"),
		metrics:   m,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the pipeline for one trigger event. It runs to completion
// or fails at a stage; there are no internal retries and no suspension
// points beyond the outbound calls themselves.
func (w *Workflow) Run(ctx context.Context, ev chain.VerificationRequested) (Result, error) {
	log := w.log.With(
		zap.String("campaign_id", ev.CampaignID.String()),
		zap.String("creator", ev.Creator.Hex()),
		zap.String("video_id", ev.VideoID),
		zap.String("platform", ev.Platform),
	)
	log.Info("verification triggered", zap.Uint64("block", ev.BlockNumber))
	w.recordStatus(ctx, ev, submissiondomain.SubmissionStatusVerifying)

	m, err := w.fetcher.VideoMetrics(ctx, ev.Platform, ev.VideoID)
	if err != nil {
		return Result{}, w.fail(ctx, log, StageMetricsFetched, err)
	}
	viewCount := big.NewInt(m.ViewCount)
	log.Info("metrics fetched", zap.Int64("view_count", m.ViewCount))

	terms, err := w.reader.Terms(ctx, ev.CampaignID)
	if err != nil {
		return Result{}, w.fail(ctx, log, StageTermsRead, err)
	}

	// Zero is a valid, reportable outcome, not a failure.
	amount := payout.Compute(viewCount, terms)
	log.Info("payout computed", zap.String("amount", amount.String()))

	report, err := chain.EncodeReport(chain.Report{
		CampaignID: ev.CampaignID,
		Creator:    ev.Creator,
		VideoID:    ev.VideoID,
		Platform:   ev.Platform,
		ViewCount:  viewCount,
	})
	if err != nil {
		return Result{}, w.fail(ctx, log, StageReportSigned, err)
	}
	signature, err := w.signer.SignReport(report)
	if err != nil {
		return Result{}, w.fail(ctx, log, StageReportSigned, err)
	}

	txHash, err := w.submitter.SubmitReport(ctx, report, signature)
	if err != nil {
		return Result{}, w.fail(ctx, log, StageSubmitted, err)
	}

	w.metrics.RecordVerificationRun(ctx, string(StageSubmitted), "ok")
	log.Info("report submitted", zap.String("tx_hash", txHash.Hex()))

	if amount.Sign() > 0 {
		w.recordStatus(ctx, ev, submissiondomain.SubmissionStatusVerified)
	} else {
		w.recordStatus(ctx, ev, submissiondomain.SubmissionStatusRejected)
	}

	return Result{ViewCount: viewCount, Amount: amount, TxHash: txHash}, nil
}

func (w *Workflow) fail(ctx context.Context, log *zap.Logger, stage Stage, cause error) error {
	w.metrics.RecordVerificationRun(ctx, string(stage), "error")
	// Leave the submission in verifying: event redelivery re-runs the
	// pipeline, so a run failure is not a terminal verdict on the video.
	log.Error("verification failed",
		zap.String("stage", string(stage)),
		zap.Error(cause),
	)
	return &FailedError{Stage: stage, Cause: cause}
}

// recordStatus is best effort; a node without the backend database still
// verifies and submits.
func (w *Workflow) recordStatus(ctx context.Context, ev chain.VerificationRequested, status submissiondomain.SubmissionStatus) {
	if w.status == nil {
		return
	}
	if err := w.status.RecordVerification(ctx, ev.Platform, ev.VideoID, status); err != nil {
		w.log.Warn("record submission status",
			zap.String("video_id", ev.VideoID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// consensusFetcher resolves metrics through the backend API behind the
// replica agreement cache, then decodes the agreed bytes.
type consensusFetcher struct {
	cache  *fetchcache.Fetcher
	client *MetricsClient
}

func NewConsensusFetcher(cache *fetchcache.Fetcher, client *MetricsClient) MetricsFetcher {
	return &consensusFetcher{cache: cache, client: client}
}

func (f *consensusFetcher) VideoMetrics(ctx context.Context, platform, videoID string) (platformdomain.VideoMetrics, error) {
	payload, err := f.cache.Fetch(ctx, platform, videoID, func(ctx context.Context) ([]byte, error) {
		return f.client.FetchRaw(ctx, platform, videoID)
	})
	if err != nil {
		return platformdomain.VideoMetrics{}, err
	}

	var m platformdomain.VideoMetrics
	if err := json.Unmarshal(payload, &m); err != nil {
		return platformdomain.VideoMetrics{}, fmt.Errorf("verifier: decode agreed metrics payload: %w", err)
	}
	return m, nil
}
