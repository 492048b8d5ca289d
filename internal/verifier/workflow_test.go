package verifier

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brookejlacey/flowback/internal/chain"
	"github.com/brookejlacey/flowback/internal/payout"
	platformdomain "github.com/brookejlacey/flowback/internal/platform/domain"
	submissiondomain "github.com/brookejlacey/flowback/internal/submission/domain"
)

type fakeFetcher struct {
	metrics platformdomain.VideoMetrics
	err     error
}

func (f *fakeFetcher) VideoMetrics(context.Context, string, string) (platformdomain.VideoMetrics, error) {
	return f.metrics, f.err
}

type fakeReader struct {
	terms payout.Terms
	err   error
}

func (f *fakeReader) Terms(context.Context, *big.Int) (payout.Terms, error) {
	return f.terms, f.err
}

type fakeSigner struct {
	err    error
	signed []byte
}

func (f *fakeSigner) SignReport(report []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.signed = report
	return []byte("sig"), nil
}

type fakeSubmitter struct {
	err       error
	report    []byte
	signature []byte
	calls     int
}

func (f *fakeSubmitter) SubmitReport(_ context.Context, report, signature []byte) (common.Hash, error) {
	f.calls++
	f.report = report
	f.signature = signature
	if f.err != nil {
		return common.Hash{}, f.err
	}
	return common.HexToHash("0xbeef"), nil
}

type fakeRecorder struct {
	statuses []submissiondomain.SubmissionStatus
}

func (f *fakeRecorder) RecordVerification(_ context.Context, _, _ string, status submissiondomain.SubmissionStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func testEvent() chain.VerificationRequested {
	return chain.VerificationRequested{
		CampaignID: big.NewInt(7),
		Creator:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		VideoID:    "dQw4w9WgXcQ",
		Platform:   "youtube",
	}
}

func standardTerms() payout.Terms {
	return payout.Terms{
		MinViews:               big.NewInt(1000),
		PayoutPerThousandViews: big.NewInt(10000),
		BudgetRemaining:        big.NewInt(1_000_000_000),
	}
}

func TestWorkflowRunHappyPath(t *testing.T) {
	signer := &fakeSigner{}
	submitter := &fakeSubmitter{}
	recorder := &fakeRecorder{}
	w := NewWorkflow(
		&fakeFetcher{metrics: platformdomain.VideoMetrics{ViewCount: 15234}},
		&fakeReader{terms: standardTerms()},
		signer,
		submitter,
		zap.NewNop(),
		nil,
		WithStatusRecorder(recorder),
	)

	res, err := w.Run(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(15234), res.ViewCount)
	assert.Equal(t, big.NewInt(152340), res.Amount)
	assert.Equal(t, common.HexToHash("0xbeef"), res.TxHash)

	// The submitted report is exactly the signed bytes.
	assert.Equal(t, signer.signed, submitter.report)
	assert.Equal(t, []byte("sig"), submitter.signature)

	assert.Equal(t, []submissiondomain.SubmissionStatus{
		submissiondomain.SubmissionStatusVerifying,
		submissiondomain.SubmissionStatusVerified,
	}, recorder.statuses)
}

func TestWorkflowRunZeroPayoutStillSubmits(t *testing.T) {
	submitter := &fakeSubmitter{}
	recorder := &fakeRecorder{}
	w := NewWorkflow(
		&fakeFetcher{metrics: platformdomain.VideoMetrics{ViewCount: 500}},
		&fakeReader{terms: standardTerms()},
		&fakeSigner{},
		submitter,
		zap.NewNop(),
		nil,
		WithStatusRecorder(recorder),
	)

	res, err := w.Run(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Zero(t, res.Amount.Sign())
	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, submissiondomain.SubmissionStatusRejected, recorder.statuses[len(recorder.statuses)-1])
}

func TestWorkflowRunFailsAtMetricsFetched(t *testing.T) {
	submitter := &fakeSubmitter{}
	w := NewWorkflow(
		&fakeFetcher{err: errors.New("upstream down")},
		&fakeReader{terms: standardTerms()},
		&fakeSigner{},
		submitter,
		zap.NewNop(),
		nil,
	)

	_, err := w.Run(context.Background(), testEvent())

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, StageMetricsFetched, failed.Stage)
	assert.Zero(t, submitter.calls)
}

func TestWorkflowRunFailsAtTermsRead(t *testing.T) {
	w := NewWorkflow(
		&fakeFetcher{metrics: platformdomain.VideoMetrics{ViewCount: 15234}},
		&fakeReader{err: errors.New("rpc unavailable")},
		&fakeSigner{},
		&fakeSubmitter{},
		zap.NewNop(),
		nil,
	)

	_, err := w.Run(context.Background(), testEvent())

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, StageTermsRead, failed.Stage)
}

func TestWorkflowRunFailsAtReportSigned(t *testing.T) {
	submitter := &fakeSubmitter{}
	w := NewWorkflow(
		&fakeFetcher{metrics: platformdomain.VideoMetrics{ViewCount: 15234}},
		&fakeReader{terms: standardTerms()},
		&fakeSigner{err: errors.New("bad key")},
		submitter,
		zap.NewNop(),
		nil,
	)

	_, err := w.Run(context.Background(), testEvent())

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, StageReportSigned, failed.Stage)
	assert.Zero(t, submitter.calls)
}

func TestWorkflowRunFailsAtSubmitted(t *testing.T) {
	w := NewWorkflow(
		&fakeFetcher{metrics: platformdomain.VideoMetrics{ViewCount: 15234}},
		&fakeReader{terms: standardTerms()},
		&fakeSigner{},
		&fakeSubmitter{err: chain.ErrSubmissionReverted},
		zap.NewNop(),
		nil,
	)

	_, err := w.Run(context.Background(), testEvent())

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, StageSubmitted, failed.Stage)
	assert.ErrorIs(t, err, chain.ErrSubmissionReverted)
}

func TestWorkflowRunBudgetCapFlowsThrough(t *testing.T) {
	terms := standardTerms()
	terms.BudgetRemaining = big.NewInt(50000)
	w := NewWorkflow(
		&fakeFetcher{metrics: platformdomain.VideoMetrics{ViewCount: 15234}},
		&fakeReader{terms: terms},
		&fakeSigner{},
		&fakeSubmitter{},
		zap.NewNop(),
		nil,
	)

	res, err := w.Run(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50000), res.Amount)
}
