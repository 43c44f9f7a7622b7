package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kevin07696/payment-metrics/internal/adapters/logging"
	adapterports "github.com/kevin07696/payment-metrics/internal/adapters/ports"
	"github.com/kevin07696/payment-metrics/internal/adapters/postgres"
	"github.com/kevin07696/payment-metrics/internal/adapters/secrets"
	"github.com/kevin07696/payment-metrics/internal/adapters/stripe"
	"github.com/kevin07696/payment-metrics/internal/config"
	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/internal/domain/ports"
	"github.com/kevin07696/payment-metrics/internal/services/metrics"
	pkghttp "github.com/kevin07696/payment-metrics/pkg/http"
	"github.com/kevin07696/payment-metrics/pkg/timeutil"
)

// report is a one-shot CLI that aggregates payment metrics over a date
// range and prints the series plus the evaluation of the latest window.
// With no range flags it reports on the last full calendar month.
func main() {
	fromFlag := flag.String("from", "", "range start date (2006-01-02), inclusive")
	toFlag := flag.String("to", "", "range end date (2006-01-02), inclusive")
	schemeFlag := flag.String("scheme", "single", "window scheme: single, calendar_month, calendar_week, rolling")
	subAccountFlag := flag.String("sub-account", "", "restrict to one connected sub-account")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fatalf("invalid configuration: %v", err)
	}

	logger := zap.NewNop() // CLI output goes to the tables, not a log stream
	ctx := context.Background()

	from, to, err := resolveRange(*fromFlag, *toFlag)
	if err != nil {
		fatalf("%v", err)
	}
	scheme, err := metrics.ParseScheme(*schemeFlag)
	if err != nil {
		fatalf("%v", err)
	}

	source, cleanup, err := buildEventSource(ctx, cfg, logger)
	if err != nil {
		fatalf("failed to initialize event source: %v", err)
	}
	defer cleanup()

	classifier, err := metrics.NewClassifier(
		metrics.ApprovalBasis(cfg.Metrics.ApprovalBasis),
		metrics.GMVBasis(cfg.Metrics.GMVBasis),
	)
	if err != nil {
		fatalf("%v", err)
	}
	aggregator, err := metrics.NewAggregator(source, classifier, logger)
	if err != nil {
		fatalf("%v", err)
	}

	series, err := aggregator.Aggregate(ctx, from, to, scheme, *subAccountFlag)
	if err != nil {
		fatalf("aggregation failed: %v", err)
	}

	fmt.Printf("Payment metrics %s to %s (%s)\n\n",
		from.Format("2006-01-02"), to.Format("2006-01-02"), scheme)
	printSeries(series)

	if latest, ok := series.Latest(); ok {
		fmt.Println()
		printEvaluation(latest, metrics.Evaluate(latest))
	}
}

func resolveRange(fromFlag, toFlag string) (time.Time, time.Time, error) {
	if fromFlag == "" && toFlag == "" {
		from, to := timeutil.LastMonth(timeutil.Now())
		return from, to, nil
	}
	if fromFlag == "" || toFlag == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from and --to must be given together")
	}
	from, err := timeutil.ParseDate("2006-01-02", fromFlag)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %v", err)
	}
	to, err := timeutil.ParseDate("2006-01-02", toFlag)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %v", err)
	}
	return from, to, nil
}

func buildEventSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventSource, func(), error) {
	switch cfg.Source.Driver {
	case "stripe":
		apiKey := cfg.Source.APIKey
		if apiKey == "" {
			resolved, err := resolveSecret(ctx, cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			apiKey = resolved
		}

		stripeCfg := stripe.DefaultConfig()
		stripeCfg.BaseURL = cfg.Source.BaseURL
		stripeCfg.APIKey = apiKey
		stripeCfg.MaxRetries = cfg.Source.MaxRetries
		stripeCfg.RequestsPerSecond = cfg.Source.RequestsPerSecond

		httpClient := pkghttp.NewClient(pkghttp.SourceClientConfig(), time.Duration(cfg.Source.TimeoutSeconds)*time.Second)
		return stripe.NewEventSource(stripeCfg, httpClient, logging.NewZapLogger(logger)), func() {}, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewEventSource(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
	}
}

func resolveSecret(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	var (
		manager adapterports.SecretManagerAdapter
		err     error
	)
	switch cfg.Secrets.Backend {
	case "local":
		manager = secrets.NewLocalSecretManager(cfg.Secrets.LocalPath, logger)
	case "aws":
		manager, err = secrets.NewAWSSecretsManagerAdapter(ctx, &secrets.AWSSecretsManagerConfig{
			Region: cfg.Secrets.AWSRegion,
		}, logger)
	case "vault":
		manager, err = secrets.NewVaultAdapter(&secrets.VaultConfig{
			Address:   cfg.Secrets.VaultAddress,
			Token:     cfg.Secrets.VaultToken,
			MountPath: cfg.Secrets.VaultMountPath,
		}, logger)
	default:
		return "", fmt.Errorf("no Stripe API key configured and secrets backend is %q", cfg.Secrets.Backend)
	}
	if err != nil {
		return "", err
	}
	secret, err := manager.GetSecret(ctx, cfg.Source.APIKeySecretPath)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}

func printSeries(series models.MetricSeries) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Window", "GMV", "Revenue", "Auth %", "Dispute %", "Fraud %", "Rev/GMV %")

	for _, p := range series {
		table.Append(
			p.Label,
			money(p.GMV),
			money(p.Revenue),
			fmt.Sprintf("%.2f", p.AuthorizationRate),
			fmt.Sprintf("%.2f", p.DisputeRate),
			fmt.Sprintf("%.2f", p.FraudRate),
			fmt.Sprintf("%.2f", p.RevenueGMVRatio),
		)
	}

	table.Render()
}

func printEvaluation(latest models.MetricPoint, eval models.Evaluation) {
	fmt.Printf("Evaluation of window %s\n", latest.Label)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value", "Verdict")
	table.Append("Revenue/GMV", fmt.Sprintf("%.2f%%", latest.RevenueGMVRatio), string(eval.RevenueGMVRatio))
	table.Append("Authorization rate", fmt.Sprintf("%.2f%%", latest.AuthorizationRate), string(eval.AuthorizationRate))
	table.Append("Dispute rate", fmt.Sprintf("%.2f%%", latest.DisputeRate), string(eval.DisputeRate))
	table.Append("Fraud rate", fmt.Sprintf("%.2f%%", latest.FraudRate), string(eval.FraudRate))
	table.Render()
}

func money(minorUnits int64) string {
	return decimal.New(minorUnits, -2).StringFixed(2)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
