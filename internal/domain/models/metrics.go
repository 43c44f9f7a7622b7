package models

import (
	"time"
)

// RawTotals holds the classified counts and sums for a single window,
// before any ratios are derived. All amounts are integer minor-currency
// units; sums over an empty window are zero.
//
// RefundedAmount is approximated from the dispute feed (status succeeded
// or pending) rather than a dedicated refund feed. This is a deliberate
// simplification carried over from the aggregation's historical design.
type RawTotals struct {
	GMV                int64
	RefundedAmount     int64
	ChargebackAmount   int64
	ApprovedPayments   int
	TotalPayments      int
	DisputedPayments   int
	FraudulentDisputes int
}

// Window is a contiguous half-open interval [Start, End) at day
// granularity, plus a label identifying the window's representative date
// (window end for rolling/weekly schemes, window start for monthly).
//
// Fetches against the event source use created >= Start and
// created <= End, matching the upstream inclusive range filter. A record
// created exactly at the End instant is therefore double-countable across
// adjacent non-overlapping windows when the upstream clock resolution is
// coarser than a day. Known edge case, not a bug.
type Window struct {
	Start time.Time
	End   time.Time
	Label string
}

// LastDay returns the last calendar day covered by the window
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

// MetricPoint is one aggregated record per window. Amounts are exact
// integer minor-currency units; rates are percentages in [0, 100].
// Revenue can theoretically exceed GMV within a window when refunds or
// chargebacks for older payments land in it; that is reportable, not
// fatal.
type MetricPoint struct {
	Label             string
	GMV               int64
	Revenue           int64
	AuthorizationRate float64
	DisputeRate       float64
	FraudRate         float64
	RevenueGMVRatio   float64
}

// MetricSeries is an ordered sequence of MetricPoint, one per window,
// insertion order = chronological order. Built fresh per aggregation
// call and never mutated after construction.
type MetricSeries []MetricPoint

// Latest returns the most recent point in the series
func (s MetricSeries) Latest() (MetricPoint, bool) {
	if len(s) == 0 {
		return MetricPoint{}, false
	}
	return s[len(s)-1], true
}

// Verdict is the qualitative evaluation of one metric
type Verdict string

const (
	VerdictGood             Verdict = "good"
	VerdictNeedsImprovement Verdict = "needs_improvement"

	// VerdictUndetermined is reported when the underlying ratio is
	// undefined, e.g. revenue/GMV with zero GMV.
	VerdictUndetermined Verdict = "undetermined"
)

// Evaluation maps each rate metric of the latest MetricPoint to a verdict
type Evaluation struct {
	RevenueGMVRatio   Verdict
	AuthorizationRate Verdict
	DisputeRate       Verdict
	FraudRate         Verdict
}
