package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/services/metrics"
)

func TestEvaluate_AllGood(t *testing.T) {
	eval := metrics.Evaluate(models.MetricPoint{
		GMV:               100_000,
		Revenue:           95_000,
		RevenueGMVRatio:   95,
		AuthorizationRate: 97.5,
		DisputeRate:       0.1,
		FraudRate:         0.05,
	})

	assert.Equal(t, models.VerdictGood, eval.RevenueGMVRatio)
	assert.Equal(t, models.VerdictGood, eval.AuthorizationRate)
	assert.Equal(t, models.VerdictGood, eval.DisputeRate)
	assert.Equal(t, models.VerdictGood, eval.FraudRate)
}

func TestEvaluate_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		point models.MetricPoint
		want  models.Evaluation
	}{
		{
			name:  "revenue ratio exactly 90 is good (inclusive)",
			point: models.MetricPoint{GMV: 1000, RevenueGMVRatio: 90, AuthorizationRate: 93, DisputeRate: 0.2, FraudRate: 0.2},
			want: models.Evaluation{
				RevenueGMVRatio:   models.VerdictGood,
				AuthorizationRate: models.VerdictGood,
				DisputeRate:       models.VerdictGood,
				FraudRate:         models.VerdictGood,
			},
		},
		{
			name:  "authorization rate exactly 92 needs improvement (exclusive)",
			point: models.MetricPoint{GMV: 1000, RevenueGMVRatio: 95, AuthorizationRate: 92, DisputeRate: 0.2, FraudRate: 0.2},
			want: models.Evaluation{
				RevenueGMVRatio:   models.VerdictGood,
				AuthorizationRate: models.VerdictNeedsImprovement,
				DisputeRate:       models.VerdictGood,
				FraudRate:         models.VerdictGood,
			},
		},
		{
			name:  "dispute and fraud rates exactly 0.3 need improvement (exclusive)",
			point: models.MetricPoint{GMV: 1000, RevenueGMVRatio: 95, AuthorizationRate: 93, DisputeRate: 0.3, FraudRate: 0.3},
			want: models.Evaluation{
				RevenueGMVRatio:   models.VerdictGood,
				AuthorizationRate: models.VerdictGood,
				DisputeRate:       models.VerdictNeedsImprovement,
				FraudRate:         models.VerdictNeedsImprovement,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, metrics.Evaluate(tt.point))
		})
	}
}

// An empty window still gets evaluated: zero GMV makes the revenue
// ratio undetermined, zero dispute/fraud rates are good, and a zero
// authorization rate fails the >92 bar.
func TestEvaluate_EmptyWindow(t *testing.T) {
	eval := metrics.Evaluate(models.MetricPoint{})

	assert.Equal(t, models.VerdictUndetermined, eval.RevenueGMVRatio)
	assert.Equal(t, models.VerdictNeedsImprovement, eval.AuthorizationRate)
	assert.Equal(t, models.VerdictGood, eval.DisputeRate)
	assert.Equal(t, models.VerdictGood, eval.FraudRate)
}

func TestEvaluate_ZeroGMVWithNonzeroRates(t *testing.T) {
	eval := metrics.Evaluate(models.MetricPoint{
		GMV:               0,
		Revenue:           -200, // chargebacks without sales in the window
		AuthorizationRate: 50,
		DisputeRate:       50,
		FraudRate:         0,
	})

	assert.Equal(t, models.VerdictUndetermined, eval.RevenueGMVRatio)
	assert.Equal(t, models.VerdictNeedsImprovement, eval.AuthorizationRate)
	assert.Equal(t, models.VerdictNeedsImprovement, eval.DisputeRate)
	assert.Equal(t, models.VerdictGood, eval.FraudRate)
}
