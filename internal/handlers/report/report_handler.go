package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/services/metrics"
	perrors "github.com/kevin07696/payment-metrics/pkg/errors"
	"github.com/kevin07696/payment-metrics/pkg/timeutil"
)

// ReportHandler serves aggregated metric reports over HTTP
type ReportHandler struct {
	aggregator *metrics.Aggregator
	logger     *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(aggregator *metrics.Aggregator, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// MetricPointResponse is the wire shape of one aggregated window. Amounts
// are formatted as decimal major units; rates are percentages.
type MetricPointResponse struct {
	Label             string  `json:"label"`
	GMV               string  `json:"gmv"`
	Revenue           string  `json:"revenue"`
	AuthorizationRate float64 `json:"authorization_rate"`
	DisputeRate       float64 `json:"dispute_rate"`
	FraudRate         float64 `json:"fraud_rate"`
	RevenueGMVRatio   float64 `json:"revenue_gmv_ratio"`
}

// EvaluationResponse maps each rate metric to its verdict
type EvaluationResponse struct {
	RevenueGMVRatio   string `json:"revenue_gmv_ratio"`
	AuthorizationRate string `json:"authorization_rate"`
	DisputeRate       string `json:"dispute_rate"`
	FraudRate         string `json:"fraud_rate"`
}

// ReportResponse is the full report payload
type ReportResponse struct {
	From        string                `json:"from"`
	To          string                `json:"to"`
	Scheme      string                `json:"scheme"`
	SubAccount  string                `json:"sub_account,omitempty"`
	Series      []MetricPointResponse `json:"series"`
	Latest      *MetricPointResponse  `json:"latest,omitempty"`
	Evaluation  *EvaluationResponse   `json:"evaluation,omitempty"`
	GeneratedAt string                `json:"generated_at"`
}

// GetReport handles GET /v1/report?from=&to=&scheme=&sub_account=
//
// from and to are inclusive calendar dates (2006-01-02). When both are
// omitted the report defaults to the last full calendar month with the
// single-window scheme.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	logger := h.logger.With(zap.String("request_id", requestID))

	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	query := r.URL.Query()
	subAccount := query.Get("sub_account")

	schemeParam := query.Get("scheme")
	if schemeParam == "" {
		schemeParam = string(metrics.SchemeSingle)
	}
	scheme, err := metrics.ParseScheme(schemeParam)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid scheme: %v", err))
		return
	}

	from, to, err := h.parseRange(query.Get("from"), query.Get("to"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("Report requested",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.String("scheme", string(scheme)),
		zap.String("sub_account", subAccount),
	)

	series, err := h.aggregator.Aggregate(r.Context(), from, to, scheme, subAccount)
	if err != nil {
		var srcErr *perrors.SourceError
		if errors.As(err, &srcErr) {
			logger.Error("Upstream fetch failed",
				zap.String("window", srcErr.WindowLabel),
				zap.Error(err),
			)
			h.respondError(w, http.StatusBadGateway,
				fmt.Sprintf("upstream source failed for window %s", srcErr.WindowLabel))
			return
		}
		var cfgErr *perrors.ConfigError
		if errors.As(err, &cfgErr) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Aggregation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}

	resp := ReportResponse{
		From:        from.Format("2006-01-02"),
		To:          to.Format("2006-01-02"),
		Scheme:      string(scheme),
		SubAccount:  subAccount,
		Series:      make([]MetricPointResponse, 0, len(series)),
		GeneratedAt: timeutil.Now().Format(time.RFC3339),
	}
	for _, p := range series {
		resp.Series = append(resp.Series, toPointResponse(p))
	}
	if latest, ok := series.Latest(); ok {
		point := toPointResponse(latest)
		resp.Latest = &point
		eval := metrics.Evaluate(latest)
		resp.Evaluation = &EvaluationResponse{
			RevenueGMVRatio:   string(eval.RevenueGMVRatio),
			AuthorizationRate: string(eval.AuthorizationRate),
			DisputeRate:       string(eval.DisputeRate),
			FraudRate:         string(eval.FraudRate),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// HealthCheck handles GET /healthz
func (h *ReportHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// parseRange resolves the from/to query params. Both empty means the
// last full calendar month; giving only one of the two is an error.
func (h *ReportHandler) parseRange(fromParam, toParam string) (time.Time, time.Time, error) {
	if fromParam == "" && toParam == "" {
		from, to := timeutil.LastMonth(timeutil.Now())
		return from, to, nil
	}
	if fromParam == "" || toParam == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("from and to must be given together")
	}

	from, err := timeutil.ParseDate("2006-01-02", fromParam)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %v", err)
	}
	to, err := timeutil.ParseDate("2006-01-02", toParam)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %v", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date precedes from date")
	}
	return from, to, nil
}

// toPointResponse formats amounts from minor units into decimal major
// units for display
func toPointResponse(p models.MetricPoint) MetricPointResponse {
	return MetricPointResponse{
		Label:             p.Label,
		GMV:               formatAmount(p.GMV),
		Revenue:           formatAmount(p.Revenue),
		AuthorizationRate: p.AuthorizationRate,
		DisputeRate:       p.DisputeRate,
		FraudRate:         p.FraudRate,
		RevenueGMVRatio:   p.RevenueGMVRatio,
	}
}

func formatAmount(minorUnits int64) string {
	return decimal.New(minorUnits, -2).StringFixed(2)
}

// respondError sends an error response
func (h *ReportHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := map[string]interface{}{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
