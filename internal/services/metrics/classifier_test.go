package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/services/metrics"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
)

func newClassifier(t *testing.T) *metrics.Classifier {
	t.Helper()
	c, err := metrics.NewClassifier(metrics.ApprovalBySettlementStatus, metrics.GMVAuthorized)
	require.NoError(t, err)
	return c
}

func TestNewClassifier_RejectsUndeclaredBasis(t *testing.T) {
	_, err := metrics.NewClassifier("", metrics.GMVAuthorized)
	require.Error(t, err)
	var cfgErr *perrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "approval_basis", cfgErr.Field)

	_, err = metrics.NewClassifier(metrics.ApprovalBySettlementStatus, "net_of_fees")
	require.Error(t, err)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "gmv_basis", cfgErr.Field)
}

// Reproduces the canonical worked example: duplicate payment A counts
// once in the denominator, while GMV sums the raw fetch.
func TestClassify_DuplicatePaymentAndFraudDispute(t *testing.T) {
	c := newClassifier(t)
	created := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	payments := []models.PaymentEvent{
		{ID: "A", Status: models.PaymentSucceeded, Amount: 1000, CreatedAt: created},
		{ID: "A", Status: models.PaymentSucceeded, Amount: 1000, CreatedAt: created},
		{ID: "B", Status: models.PaymentOther, Amount: 500, CreatedAt: created},
	}
	disputes := []models.DisputeEvent{
		{ID: "D1", Reason: models.DisputeReasonFraudulent, Status: models.DisputeLost, Amount: 200, CreatedAt: created},
	}

	totals := c.Classify(payments, disputes)

	assert.Equal(t, 2, totals.TotalPayments)
	assert.Equal(t, 1, totals.ApprovedPayments)
	assert.Equal(t, 1, totals.DisputedPayments)
	assert.Equal(t, 1, totals.FraudulentDisputes)
	assert.Equal(t, int64(2500), totals.GMV)
	assert.Equal(t, int64(200), totals.ChargebackAmount)
	assert.Equal(t, int64(0), totals.RefundedAmount)
}

func TestClassify_EmptyWindow(t *testing.T) {
	c := newClassifier(t)

	totals := c.Classify(nil, nil)

	assert.Equal(t, models.RawTotals{}, totals)
}

func TestClassify_DisputeStatusBuckets(t *testing.T) {
	c := newClassifier(t)

	disputes := []models.DisputeEvent{
		{ID: "D1", Reason: models.DisputeReasonOther, Status: models.DisputeSucceeded, Amount: 100},
		{ID: "D2", Reason: models.DisputeReasonOther, Status: models.DisputePending, Amount: 30},
		{ID: "D3", Reason: models.DisputeReasonOther, Status: models.DisputeLost, Amount: 500},
		{ID: "D4", Reason: models.DisputeReasonOther, Status: models.DisputeWarningClosed, Amount: 70},
		{ID: "D5", Reason: models.DisputeReasonOther, Status: models.DisputeOther, Amount: 9999},
		{Reason: models.DisputeReasonFraudulent, Status: models.DisputeLost, Amount: 9999}, // no id: not active
	}

	totals := c.Classify(nil, disputes)

	assert.Equal(t, 5, totals.DisputedPayments, "every dispute with an id counts")
	assert.Equal(t, 0, totals.FraudulentDisputes)
	assert.Equal(t, int64(130), totals.RefundedAmount, "succeeded + pending approximate refunds")
	assert.Equal(t, int64(570), totals.ChargebackAmount, "lost + warning_closed")
}

func TestClassify_NetworkOutcomeBasis(t *testing.T) {
	c, err := metrics.NewClassifier(metrics.ApprovalByNetworkOutcome, metrics.GMVAuthorized)
	require.NoError(t, err)

	// Authorized but not yet captured: approved on the network basis,
	// not on the settlement basis.
	payments := []models.PaymentEvent{
		{ID: "A", Status: models.PaymentOther, NetworkOutcome: models.NetworkApproved, Amount: 1000},
		{ID: "B", Status: models.PaymentSucceeded, NetworkOutcome: models.NetworkOther, Amount: 500},
	}

	totals := c.Classify(payments, nil)
	assert.Equal(t, 1, totals.ApprovedPayments)

	settlement := newClassifier(t)
	totals = settlement.Classify(payments, nil)
	assert.Equal(t, 1, totals.ApprovedPayments)

	// Same count, different payment: the bases genuinely diverge.
}

func TestClassify_SettledGMVBasis(t *testing.T) {
	c, err := metrics.NewClassifier(metrics.ApprovalBySettlementStatus, metrics.GMVSettled)
	require.NoError(t, err)

	payments := []models.PaymentEvent{
		{ID: "A", Status: models.PaymentSucceeded, Amount: 1000, AmountSettled: 900},
		{ID: "B", Status: models.PaymentOther, Amount: 500, AmountSettled: 0},
	}

	totals := c.Classify(payments, nil)
	assert.Equal(t, int64(900), totals.GMV)
}
