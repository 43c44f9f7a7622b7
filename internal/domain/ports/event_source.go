package ports

import (
	"context"
	"time"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
)

// TimeRange is an inclusive [From, To] interval matching the upstream
// created>=From, created<=To range-filter semantics.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// EventSource fetches raw payment and dispute records for a time range.
// Implementations never expose write calls; the aggregation layer never
// mutates the returned records. subAccountID scopes the fetch to a
// connected sub-account and may be empty.
type EventSource interface {
	FetchPayments(ctx context.Context, r TimeRange, subAccountID string) ([]models.PaymentEvent, error)
	FetchDisputes(ctx context.Context, r TimeRange, subAccountID string) ([]models.DisputeEvent, error)
}
