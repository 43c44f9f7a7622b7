package models

import (
	"time"
)

// PaymentStatus represents the settlement status of a payment attempt
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentOther     PaymentStatus = "other"
)

// NetworkOutcome represents the charge-level authorization outcome reported
// by the card network, when the upstream record exposes one
type NetworkOutcome string

const (
	NetworkApproved NetworkOutcome = "approved"
	NetworkOther    NetworkOutcome = "other"
)

// PaymentEvent is one payment-authorization record as fetched from the
// event source. Amounts are integer minor-currency units (cents).
type PaymentEvent struct {
	ID             string // external id, unique within a fetch
	Status         PaymentStatus
	NetworkOutcome NetworkOutcome
	Amount         int64 // gross authorized amount
	AmountSettled  int64 // amount actually captured, 0 if not yet settled
	Currency       string
	CreatedAt      time.Time
}

// DisputeReason categorizes why a dispute was filed
type DisputeReason string

const (
	DisputeReasonFraudulent DisputeReason = "fraudulent"
	DisputeReasonOther      DisputeReason = "other"
	DisputeReasonNone       DisputeReason = "none"
)

// DisputeStatus represents the current state of a dispute. Reason and
// status are independent axes.
type DisputeStatus string

const (
	DisputeSucceeded     DisputeStatus = "succeeded"
	DisputePending       DisputeStatus = "pending"
	DisputeLost          DisputeStatus = "lost"
	DisputeWarningClosed DisputeStatus = "warning_closed"
	DisputeOther         DisputeStatus = "other"
)

// DisputeEvent is one dispute record as fetched from the event source
type DisputeEvent struct {
	ID        string
	Reason    DisputeReason
	Status    DisputeStatus
	Amount    int64 // minor-currency units
	CreatedAt time.Time
}

// Active reports whether this dispute record carries an id. Every active
// dispute counts toward the dispute rate; the fetch is already scoped to
// the window, so there is no further filtering.
func (d DisputeEvent) Active() bool {
	return d.ID != ""
}
