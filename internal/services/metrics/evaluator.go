package metrics

import (
	"github.com/kevin07696/payment-metrics/internal/domain/models"
)

// Fixed evaluation thresholds. These are upstream business semantics,
// not tunables.
const (
	// Revenue/GMV ratio is Good at or above this percentage
	revenueRatioGoodMin = 90.0
	// Authorization rate is Good strictly above this percentage
	authRateGoodMin = 92.0
	// Dispute and fraud rates are Good strictly below this percentage
	disputeRateGoodMax = 0.3
	fraudRateGoodMax   = 0.3
)

// Evaluate maps the latest MetricPoint to a verdict per metric. Pure
// function, no I/O.
//
// Boundary behavior is pinned: a zero rate is Good for dispute and fraud
// (0 < 0.3) and Needs Improvement for authorization (0 > 92 is false).
// With zero GMV the revenue/GMV ratio is undefined and reported as
// Undetermined rather than defaulting either way.
func Evaluate(latest models.MetricPoint) models.Evaluation {
	eval := models.Evaluation{
		AuthorizationRate: verdict(latest.AuthorizationRate > authRateGoodMin),
		DisputeRate:       verdict(latest.DisputeRate < disputeRateGoodMax),
		FraudRate:         verdict(latest.FraudRate < fraudRateGoodMax),
	}

	if latest.GMV == 0 {
		eval.RevenueGMVRatio = models.VerdictUndetermined
	} else {
		eval.RevenueGMVRatio = verdict(latest.RevenueGMVRatio >= revenueRatioGoodMin)
	}

	return eval
}

func verdict(good bool) models.Verdict {
	if good {
		return models.VerdictGood
	}
	return models.VerdictNeedsImprovement
}
