package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	adapterports "github.com/kevin07696/payment-metrics/internal/adapters/ports"
	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/domain/ports"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
	"github.com/kevin07696/payment-metrics/pkg/resilience"
)

// Config contains configuration for the Stripe event source
type Config struct {
	BaseURL           string // e.g., "https://api.stripe.com"
	APIKey            string // secret key, injected at wiring time
	MaxRetries        int    // attempts per page request, including the first
	RequestsPerSecond float64
	Burst             int
	PageLimit         int // records per list page, max 100
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://api.stripe.com",
		MaxRetries:        3,
		RequestsPerSecond: 25,
		Burst:             25,
		PageLimit:         100,
	}
}

// EventSource implements the ports.EventSource port against the Stripe
// REST API. List calls use the inclusive created[gte]/created[lte]
// range filter and cursor pagination. Transient failures (network
// errors, 429, 5xx) are retried with bounded backoff before the fetch
// is reported failed; a failed fetch still aborts the whole aggregation.
type EventSource struct {
	config     *Config
	httpClient adapterports.HTTPClient
	limiter    *rate.Limiter
	backoff    resilience.BackoffStrategy
	logger     adapterports.Logger
}

// NewEventSource creates a new Stripe event source
func NewEventSource(config *Config, httpClient adapterports.HTTPClient, logger adapterports.Logger) *EventSource {
	return &EventSource{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		backoff:    resilience.SourceBackoff(),
		logger:     logger,
	}
}

// Stripe API response structures
type paymentIntent struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	AmountReceived int64  `json:"amount_received"`
	Currency       string `json:"currency"`
	Created        int64  `json:"created"`
	LatestCharge   *struct {
		Outcome *struct {
			NetworkStatus string `json:"network_status"`
		} `json:"outcome"`
	} `json:"latest_charge"`
}

type paymentIntentPage struct {
	Data    []paymentIntent `json:"data"`
	HasMore bool            `json:"has_more"`
}

type dispute struct {
	ID      string `json:"id"`
	Reason  string `json:"reason"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
	Created int64  `json:"created"`
}

type disputePage struct {
	Data    []dispute `json:"data"`
	HasMore bool      `json:"has_more"`
}

// FetchPayments retrieves payment-intent records created within the range
func (s *EventSource) FetchPayments(ctx context.Context, r ports.TimeRange, subAccountID string) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent

	cursor := ""
	for {
		body, err := s.listPage(ctx, "/v1/payment_intents", r, subAccountID, cursor, true)
		if err != nil {
			return nil, err
		}

		var page paymentIntentPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, perrors.NewSourceError("fetch_payments", 0, false,
				fmt.Errorf("decode payment_intents page: %w", err))
		}

		for _, pi := range page.Data {
			events = append(events, models.PaymentEvent{
				ID:             pi.ID,
				Status:         paymentStatus(pi.Status),
				NetworkOutcome: networkOutcome(pi),
				Amount:         pi.Amount,
				AmountSettled:  pi.AmountReceived,
				Currency:       pi.Currency,
				CreatedAt:      time.Unix(pi.Created, 0).UTC(),
			})
		}

		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		cursor = page.Data[len(page.Data)-1].ID
	}

	s.logger.Debug("Fetched payments",
		adapterports.Int("count", len(events)),
		adapterports.String("from", r.From.Format(time.RFC3339)),
		adapterports.String("to", r.To.Format(time.RFC3339)),
	)

	return events, nil
}

// FetchDisputes retrieves dispute records created within the range
func (s *EventSource) FetchDisputes(ctx context.Context, r ports.TimeRange, subAccountID string) ([]models.DisputeEvent, error) {
	var events []models.DisputeEvent

	cursor := ""
	for {
		body, err := s.listPage(ctx, "/v1/disputes", r, subAccountID, cursor, false)
		if err != nil {
			return nil, err
		}

		var page disputePage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, perrors.NewSourceError("fetch_disputes", 0, false,
				fmt.Errorf("decode disputes page: %w", err))
		}

		for _, d := range page.Data {
			events = append(events, models.DisputeEvent{
				ID:        d.ID,
				Reason:    disputeReason(d.Reason),
				Status:    disputeStatus(d.Status),
				Amount:    d.Amount,
				CreatedAt: time.Unix(d.Created, 0).UTC(),
			})
		}

		if !page.HasMore || len(page.Data) == 0 {
			break
		}
		cursor = page.Data[len(page.Data)-1].ID
	}

	s.logger.Debug("Fetched disputes",
		adapterports.Int("count", len(events)),
		adapterports.String("from", r.From.Format(time.RFC3339)),
		adapterports.String("to", r.To.Format(time.RFC3339)),
	)

	return events, nil
}

// listPage performs one paginated list call with rate limiting and
// bounded retry of transient failures
func (s *EventSource) listPage(ctx context.Context, path string, r ports.TimeRange, subAccountID, cursor string, expandCharge bool) ([]byte, error) {
	reqURL, err := url.Parse(s.config.BaseURL + path)
	if err != nil {
		return nil, perrors.NewSourceError(opFor(path), 0, false, fmt.Errorf("parse endpoint URL: %w", err))
	}

	query := reqURL.Query()
	query.Set("created[gte]", strconv.FormatInt(r.From.Unix(), 10))
	query.Set("created[lte]", strconv.FormatInt(r.To.Unix(), 10))
	query.Set("limit", strconv.Itoa(s.config.PageLimit))
	if cursor != "" {
		query.Set("starting_after", cursor)
	}
	if expandCharge {
		// The charge-level network outcome backs the network_outcome
		// classification basis.
		query.Add("expand[]", "data.latest_charge")
	}
	reqURL.RawQuery = query.Encode()

	var body []byte
	err = resilience.Retry(ctx, s.config.MaxRetries, s.backoff, retriable, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		var reqErr error
		body, reqErr = s.doGet(ctx, reqURL.String(), subAccountID, opFor(path))
		return reqErr
	})
	if err != nil {
		s.logger.Error("Stripe list call failed",
			adapterports.String("path", path),
			adapterports.Err(err),
		)
		return nil, err
	}

	return body, nil
}

func (s *EventSource) doGet(ctx context.Context, rawURL, subAccountID, op string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, perrors.NewSourceError(op, 0, false, fmt.Errorf("create HTTP request: %w", err))
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	if subAccountID != "" {
		httpReq.Header.Set("Stripe-Account", subAccountID)
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, perrors.NewSourceError(op, 0, true, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, perrors.NewSourceError(op, resp.StatusCode, true, fmt.Errorf("read response body: %w", err))
	}

	s.logger.Debug("Stripe API response",
		adapterports.Int("status_code", resp.StatusCode),
		adapterports.String("elapsed", time.Since(startTime).String()),
	)

	if resp.StatusCode != http.StatusOK {
		retriableStatus := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, perrors.NewSourceError(op, resp.StatusCode, retriableStatus,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
	}

	return body, nil
}

func retriable(err error) bool {
	if se, ok := err.(*perrors.SourceError); ok {
		return se.IsRetriable
	}
	return false
}

func opFor(path string) string {
	if path == "/v1/disputes" {
		return "fetch_disputes"
	}
	return "fetch_payments"
}

func paymentStatus(s string) models.PaymentStatus {
	if s == "succeeded" {
		return models.PaymentSucceeded
	}
	return models.PaymentOther
}

func networkOutcome(pi paymentIntent) models.NetworkOutcome {
	if pi.LatestCharge != nil && pi.LatestCharge.Outcome != nil &&
		pi.LatestCharge.Outcome.NetworkStatus == "approved_by_network" {
		return models.NetworkApproved
	}
	return models.NetworkOther
}

func disputeReason(r string) models.DisputeReason {
	switch r {
	case "fraudulent":
		return models.DisputeReasonFraudulent
	case "":
		return models.DisputeReasonNone
	default:
		return models.DisputeReasonOther
	}
}

func disputeStatus(s string) models.DisputeStatus {
	switch s {
	case "succeeded":
		return models.DisputeSucceeded
	case "pending", "needs_response", "under_review":
		return models.DisputePending
	case "lost":
		return models.DisputeLost
	case "warning_closed":
		return models.DisputeWarningClosed
	default:
		return models.DisputeOther
	}
}
