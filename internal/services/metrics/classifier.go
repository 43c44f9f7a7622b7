// Package metrics implements the time-windowed aggregation engine:
// event classification, window partitioning, metric derivation, and
// threshold evaluation.
package metrics

import (
	"github.com/kevin07696/payment-metrics/internal/domain/models"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
)

// ApprovalBasis declares which field of a payment record counts as
// "approved". Settlement status and network outcome are not equivalent:
// they diverge for authorized-but-not-yet-captured payments, so a
// deployment must pick exactly one basis and keep it for the lifetime
// of a series.
type ApprovalBasis string

const (
	// ApprovalBySettlementStatus counts payments whose status is succeeded
	ApprovalBySettlementStatus ApprovalBasis = "settlement_status"
	// ApprovalByNetworkOutcome counts payments whose network outcome is approved
	ApprovalByNetworkOutcome ApprovalBasis = "network_outcome"
)

// GMVBasis declares which amount field GMV sums. Mixing bases across
// windows in the same series is a defect, so the basis is fixed per
// classifier.
type GMVBasis string

const (
	// GMVAuthorized sums the gross authorized amount
	GMVAuthorized GMVBasis = "authorized"
	// GMVSettled sums the amount actually captured
	GMVSettled GMVBasis = "settled"
)

// Classifier reduces the raw payment and dispute records of one window
// into RawTotals. It is pure: no I/O, no retained state beyond the two
// declared bases.
type Classifier struct {
	approval ApprovalBasis
	gmv      GMVBasis
}

// NewClassifier creates a classifier with declared bases. An undeclared
// or unknown basis is a configuration error and is rejected here, never
// discovered mid-aggregation.
func NewClassifier(approval ApprovalBasis, gmv GMVBasis) (*Classifier, error) {
	switch approval {
	case ApprovalBySettlementStatus, ApprovalByNetworkOutcome:
	default:
		return nil, perrors.NewConfigError("approval_basis",
			"classification basis must be declared as settlement_status or network_outcome")
	}
	switch gmv {
	case GMVAuthorized, GMVSettled:
	default:
		return nil, perrors.NewConfigError("gmv_basis",
			"GMV basis must be declared as authorized or settled")
	}
	return &Classifier{approval: approval, gmv: gmv}, nil
}

// Classify reduces one window's fetched records into RawTotals.
//
// Payments are deduplicated by external id before the approved and total
// counts are taken; a payment appearing twice in the fetched page counts
// once. GMV deliberately sums over the raw, non-deduped fetch, matching
// the upstream aggregation it reproduces. All sums are zero over empty
// input; there are no error conditions.
func (c *Classifier) Classify(payments []models.PaymentEvent, disputes []models.DisputeEvent) models.RawTotals {
	var totals models.RawTotals

	seen := make(map[string]struct{}, len(payments))
	for _, p := range payments {
		totals.GMV += c.gmvAmount(p)

		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		totals.TotalPayments++
		if c.approved(p) {
			totals.ApprovedPayments++
		}
	}

	for _, d := range disputes {
		if !d.Active() {
			continue
		}
		totals.DisputedPayments++
		if d.Reason == models.DisputeReasonFraudulent {
			totals.FraudulentDisputes++
		}
		switch d.Status {
		case models.DisputeSucceeded, models.DisputePending:
			// Refund totals are approximated from the dispute feed;
			// there is no dedicated refund feed upstream.
			totals.RefundedAmount += d.Amount
		case models.DisputeLost, models.DisputeWarningClosed:
			totals.ChargebackAmount += d.Amount
		}
	}

	return totals
}

func (c *Classifier) approved(p models.PaymentEvent) bool {
	if c.approval == ApprovalByNetworkOutcome {
		return p.NetworkOutcome == models.NetworkApproved
	}
	return p.Status == models.PaymentSucceeded
}

func (c *Classifier) gmvAmount(p models.PaymentEvent) int64 {
	if c.gmv == GMVSettled {
		return p.AmountSettled
	}
	return p.Amount
}
