package metrics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/domain/ports"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
	"github.com/kevin07696/payment-metrics/pkg/observability"
)

// Aggregator drives a single batch pass over a historical range: it
// partitions the range into windows, fetches each window's events,
// classifies them, derives the metric set, and folds the results into
// an ordered MetricSeries.
//
// Windows are processed strictly in chronological order; the series is
// never mutated after Aggregate returns. Events are fetched and dropped
// per window, never cached across windows.
type Aggregator struct {
	source     ports.EventSource
	classifier *Classifier
	logger     *zap.Logger
}

// NewAggregator wires an aggregator. The classifier carries the declared
// classification bases, so a nil classifier means the deployment never
// declared one; that is rejected here rather than mid-aggregation.
func NewAggregator(source ports.EventSource, classifier *Classifier, logger *zap.Logger) (*Aggregator, error) {
	if source == nil {
		return nil, perrors.NewConfigError("event_source", "event source is required")
	}
	if classifier == nil {
		return nil, perrors.NewConfigError("classifier", "classification basis is undeclared")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{source: source, classifier: classifier, logger: logger}, nil
}

// Aggregate computes one MetricPoint per window of the scheme over
// [from, to]. A fetch failure for any window is fatal to the whole call:
// the error is propagated and no partial series is returned.
func (a *Aggregator) Aggregate(ctx context.Context, from, to time.Time, scheme WindowScheme, subAccountID string) (models.MetricSeries, error) {
	started := time.Now()

	windows, err := Windows(from, to, scheme)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Starting aggregation",
		zap.String("scheme", string(scheme)),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("windows", len(windows)),
		zap.String("sub_account", subAccountID),
	)

	series := make(models.MetricSeries, 0, len(windows))
	for _, w := range windows {
		point, err := a.aggregateWindow(ctx, w, subAccountID)
		if err != nil {
			observability.RecordAggregation(string(scheme), "failed", time.Since(started))
			a.logger.Error("Aggregation aborted",
				zap.String("window", w.Label),
				zap.Error(err),
			)
			return nil, err
		}
		series = append(series, point)
		observability.RecordWindow(string(scheme))
	}

	observability.RecordAggregation(string(scheme), "success", time.Since(started))
	a.logger.Info("Aggregation complete",
		zap.String("scheme", string(scheme)),
		zap.Int("points", len(series)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return series, nil
}

// Report runs the single-window scheme over [from, to] and evaluates the
// resulting point. This is the "last calendar month" report path.
func (a *Aggregator) Report(ctx context.Context, from, to time.Time, subAccountID string) (models.MetricPoint, models.Evaluation, error) {
	series, err := a.Aggregate(ctx, from, to, SchemeSingle, subAccountID)
	if err != nil {
		return models.MetricPoint{}, models.Evaluation{}, err
	}
	latest, ok := series.Latest()
	if !ok {
		return models.MetricPoint{}, models.Evaluation{}, fmt.Errorf("aggregation produced an empty series")
	}
	return latest, Evaluate(latest), nil
}

func (a *Aggregator) aggregateWindow(ctx context.Context, w models.Window, subAccountID string) (models.MetricPoint, error) {
	// Inclusive on both ends to match the upstream range filter; the End
	// instant is shared with the next window's Start by design.
	r := ports.TimeRange{From: w.Start, To: w.End}

	fetchStart := time.Now()
	payments, err := a.source.FetchPayments(ctx, r, subAccountID)
	if err != nil {
		observability.RecordFetchError("payments")
		return models.MetricPoint{}, windowErr("fetch_payments", w.Label, err)
	}
	observability.ObserveFetch("payments", time.Since(fetchStart))

	fetchStart = time.Now()
	disputes, err := a.source.FetchDisputes(ctx, r, subAccountID)
	if err != nil {
		observability.RecordFetchError("disputes")
		return models.MetricPoint{}, windowErr("fetch_disputes", w.Label, err)
	}
	observability.ObserveFetch("disputes", time.Since(fetchStart))

	totals := a.classifier.Classify(payments, disputes)
	point := derive(w.Label, totals)

	a.logger.Debug("Window reduced",
		zap.String("window", w.Label),
		zap.Int("payments", totals.TotalPayments),
		zap.Int("disputes", totals.DisputedPayments),
		zap.Int64("gmv", totals.GMV),
	)

	return point, nil
}

// derive turns RawTotals into a MetricPoint. Amounts stay exact int64
// minor units; only the percentage ratios are floating point. Every
// ratio defaults to 0 when its denominator is 0 — an empty window is
// not an error.
func derive(label string, t models.RawTotals) models.MetricPoint {
	revenue := t.GMV - t.RefundedAmount - t.ChargebackAmount
	return models.MetricPoint{
		Label:             label,
		GMV:               t.GMV,
		Revenue:           revenue,
		AuthorizationRate: percent(int64(t.ApprovedPayments), int64(t.TotalPayments)),
		DisputeRate:       percent(int64(t.DisputedPayments), int64(t.TotalPayments)),
		FraudRate:         percent(int64(t.FraudulentDisputes), int64(t.TotalPayments)),
		RevenueGMVRatio:   percent(revenue, t.GMV),
	}
}

func percent(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return 100 * float64(numerator) / float64(denominator)
}

// windowErr attaches the window label to a source error without
// replacing it; a *SourceError from the adapter passes through with its
// retriability and status intact.
func windowErr(op, label string, err error) error {
	if se, ok := err.(*perrors.SourceError); ok {
		se.WindowLabel = label
		return se
	}
	return &perrors.SourceError{Op: op, WindowLabel: label, Err: err}
}
