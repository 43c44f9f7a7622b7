package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterports "github.com/kevin07696/payment-metrics/internal/adapters/ports"
	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/domain/ports"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
	"github.com/kevin07696/payment-metrics/pkg/resilience"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...adapterports.Field)  {}
func (nopLogger) Error(string, ...adapterports.Field) {}
func (nopLogger) Warn(string, ...adapterports.Field)  {}
func (nopLogger) Debug(string, ...adapterports.Field) {}

func testSource(t *testing.T, serverURL string) *EventSource {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = serverURL
	cfg.APIKey = "sk_test_123"
	s := NewEventSource(cfg, http.DefaultClient, nopLogger{})
	s.backoff = &resilience.FixedBackoff{Delay: time.Millisecond}
	return s
}

func testRange() ports.TimeRange {
	return ports.TimeRange{
		From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchPayments_MapsRecordsAndRangeParams(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth, gotAccount string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payment_intents", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.Header.Get("Stripe-Account")
		fmt.Fprint(w, `{
			"data": [
				{"id": "pi_1", "status": "succeeded", "amount": 1000, "amount_received": 1000, "currency": "usd", "created": 1706745600,
				 "latest_charge": {"outcome": {"network_status": "approved_by_network"}}},
				{"id": "pi_2", "status": "requires_payment_method", "amount": 500, "amount_received": 0, "currency": "usd", "created": 1706832000}
			],
			"has_more": false
		}`)
	}))
	defer server.Close()

	s := testSource(t, server.URL)
	events, err := s.FetchPayments(context.Background(), testRange(), "acct_42")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "acct_42", gotAccount)
	assert.Equal(t, []string{"1706745600"}, gotQuery["created[gte]"])
	assert.Equal(t, []string{"1709251200"}, gotQuery["created[lte]"])
	assert.Equal(t, []string{"data.latest_charge"}, gotQuery["expand[]"])

	assert.Equal(t, models.PaymentEvent{
		ID:             "pi_1",
		Status:         models.PaymentSucceeded,
		NetworkOutcome: models.NetworkApproved,
		Amount:         1000,
		AmountSettled:  1000,
		Currency:       "usd",
		CreatedAt:      time.Unix(1706745600, 0).UTC(),
	}, events[0])
	assert.Equal(t, models.PaymentOther, events[1].Status)
	assert.Equal(t, models.NetworkOther, events[1].NetworkOutcome)
}

func TestFetchPayments_Paginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("starting_after") == "" {
			fmt.Fprint(w, `{"data": [{"id": "pi_1", "status": "succeeded", "amount": 100, "created": 1706745600}], "has_more": true}`)
			return
		}
		require.Equal(t, "pi_1", r.URL.Query().Get("starting_after"))
		fmt.Fprint(w, `{"data": [{"id": "pi_2", "status": "succeeded", "amount": 200, "created": 1706746600}], "has_more": false}`)
	}))
	defer server.Close()

	s := testSource(t, server.URL)
	events, err := s.FetchPayments(context.Background(), testRange(), "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "pi_2", events[1].ID)
}

func TestFetchDisputes_MapsReasonAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/disputes", r.URL.Path)
		fmt.Fprint(w, `{
			"data": [
				{"id": "dp_1", "reason": "fraudulent", "status": "lost", "amount": 200, "created": 1706745600},
				{"id": "dp_2", "reason": "product_not_received", "status": "needs_response", "amount": 300, "created": 1706745601},
				{"id": "dp_3", "reason": "duplicate", "status": "warning_closed", "amount": 400, "created": 1706745602}
			],
			"has_more": false
		}`)
	}))
	defer server.Close()

	s := testSource(t, server.URL)
	events, err := s.FetchDisputes(context.Background(), testRange(), "")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, models.DisputeReasonFraudulent, events[0].Reason)
	assert.Equal(t, models.DisputeLost, events[0].Status)
	assert.Equal(t, models.DisputeReasonOther, events[1].Reason)
	assert.Equal(t, models.DisputePending, events[1].Status, "needs_response counts as pending")
	assert.Equal(t, models.DisputeWarningClosed, events[2].Status)
}

func TestFetchPayments_RetriesTransientFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data": [], "has_more": false}`)
	}))
	defer server.Close()

	s := testSource(t, server.URL)
	_, err := s.FetchPayments(context.Background(), testRange(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFetchPayments_DoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Invalid API Key"}}`)
	}))
	defer server.Close()

	s := testSource(t, server.URL)
	_, err := s.FetchPayments(context.Background(), testRange(), "")
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var srcErr *perrors.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, http.StatusUnauthorized, srcErr.StatusCode)
	assert.False(t, srcErr.IsRetriable)
}

func TestFetchPayments_ExhaustedRetriesSurfaceSourceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := testSource(t, server.URL)
	_, err := s.FetchPayments(context.Background(), testRange(), "")
	require.Error(t, err)

	var srcErr *perrors.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "fetch_payments", srcErr.Op)
	assert.True(t, srcErr.IsRetriable)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}
