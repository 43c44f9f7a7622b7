// Package postgres provides an EventSource over payment events mirrored
// into a warehouse database. Deployments that replicate their payment
// feed into Postgres can aggregate against the mirror instead of the
// live API; the rows are read-only inputs, computed metrics are never
// written back.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/domain/ports"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
)

// EventSource implements ports.EventSource over mirrored event tables.
// Amounts are stored as NUMERIC in major currency units and converted
// to integer minor units on read.
type EventSource struct {
	pool *pgxpool.Pool
}

// NewEventSource creates a Postgres-backed event source
func NewEventSource(pool *pgxpool.Pool) *EventSource {
	return &EventSource{pool: pool}
}

const fetchPaymentsQuery = `
SELECT external_id, status, network_outcome, amount, amount_settled, currency, created_at
FROM payment_events
WHERE created_at >= $1 AND created_at <= $2
  AND ($3 = '' OR sub_account_id = $3)
ORDER BY created_at, external_id`

const fetchDisputesQuery = `
SELECT external_id, reason, status, amount, created_at
FROM dispute_events
WHERE created_at >= $1 AND created_at <= $2
  AND ($3 = '' OR sub_account_id = $3)
ORDER BY created_at, external_id`

// FetchPayments retrieves payment records created within the range
func (s *EventSource) FetchPayments(ctx context.Context, r ports.TimeRange, subAccountID string) ([]models.PaymentEvent, error) {
	rows, err := s.pool.Query(ctx, fetchPaymentsQuery, r.From, r.To, subAccountID)
	if err != nil {
		return nil, perrors.NewSourceError("fetch_payments", 0, true, fmt.Errorf("query payment_events: %w", err))
	}
	defer rows.Close()

	var events []models.PaymentEvent
	for rows.Next() {
		var (
			id, status, outcome, currency string
			amount, settled               pgtype.Numeric
			createdAt                     time.Time
		)
		if err := rows.Scan(&id, &status, &outcome, &amount, &settled, &currency, &createdAt); err != nil {
			return nil, perrors.NewSourceError("fetch_payments", 0, false, fmt.Errorf("scan payment_events row: %w", err))
		}

		amountMinor, err := numericToMinorUnits(amount)
		if err != nil {
			return nil, perrors.NewSourceError("fetch_payments", 0, false, fmt.Errorf("payment %s amount: %w", id, err))
		}
		settledMinor, err := numericToMinorUnits(settled)
		if err != nil {
			return nil, perrors.NewSourceError("fetch_payments", 0, false, fmt.Errorf("payment %s amount_settled: %w", id, err))
		}

		events = append(events, models.PaymentEvent{
			ID:             id,
			Status:         paymentStatus(status),
			NetworkOutcome: networkOutcome(outcome),
			Amount:         amountMinor,
			AmountSettled:  settledMinor,
			Currency:       currency,
			CreatedAt:      createdAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, perrors.NewSourceError("fetch_payments", 0, true, fmt.Errorf("iterate payment_events: %w", err))
	}

	return events, nil
}

// FetchDisputes retrieves dispute records created within the range
func (s *EventSource) FetchDisputes(ctx context.Context, r ports.TimeRange, subAccountID string) ([]models.DisputeEvent, error) {
	rows, err := s.pool.Query(ctx, fetchDisputesQuery, r.From, r.To, subAccountID)
	if err != nil {
		return nil, perrors.NewSourceError("fetch_disputes", 0, true, fmt.Errorf("query dispute_events: %w", err))
	}
	defer rows.Close()

	var events []models.DisputeEvent
	for rows.Next() {
		var (
			id, reason, status string
			amount             pgtype.Numeric
			createdAt          time.Time
		)
		if err := rows.Scan(&id, &reason, &status, &amount, &createdAt); err != nil {
			return nil, perrors.NewSourceError("fetch_disputes", 0, false, fmt.Errorf("scan dispute_events row: %w", err))
		}

		amountMinor, err := numericToMinorUnits(amount)
		if err != nil {
			return nil, perrors.NewSourceError("fetch_disputes", 0, false, fmt.Errorf("dispute %s amount: %w", id, err))
		}

		events = append(events, models.DisputeEvent{
			ID:        id,
			Reason:    disputeReason(reason),
			Status:    disputeStatus(status),
			Amount:    amountMinor,
			CreatedAt: createdAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, perrors.NewSourceError("fetch_disputes", 0, true, fmt.Errorf("iterate dispute_events: %w", err))
	}

	return events, nil
}

// numericToMinorUnits converts a NUMERIC major-unit amount to exact
// integer minor units. A fractional cent in the source data is a data
// defect and is rejected rather than rounded.
func numericToMinorUnits(n pgtype.Numeric) (int64, error) {
	if !n.Valid {
		return 0, nil
	}
	v, err := n.Value()
	if err != nil {
		return 0, fmt.Errorf("numeric value: %w", err)
	}
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected numeric driver value %T", v)
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", str, err)
	}
	minor := d.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", str)
	}
	return minor.IntPart(), nil
}

func paymentStatus(s string) models.PaymentStatus {
	if s == string(models.PaymentSucceeded) {
		return models.PaymentSucceeded
	}
	return models.PaymentOther
}

func networkOutcome(s string) models.NetworkOutcome {
	if s == string(models.NetworkApproved) {
		return models.NetworkApproved
	}
	return models.NetworkOther
}

func disputeReason(s string) models.DisputeReason {
	switch models.DisputeReason(s) {
	case models.DisputeReasonFraudulent:
		return models.DisputeReasonFraudulent
	case models.DisputeReasonNone:
		return models.DisputeReasonNone
	default:
		return models.DisputeReasonOther
	}
}

func disputeStatus(s string) models.DisputeStatus {
	switch models.DisputeStatus(s) {
	case models.DisputeSucceeded, models.DisputePending, models.DisputeLost, models.DisputeWarningClosed:
		return models.DisputeStatus(s)
	default:
		return models.DisputeOther
	}
}

var _ ports.EventSource = (*EventSource)(nil)
