// Command casestats runs a single fetch cycle against the case-statistics
// OData service and prints the merged per-country result.
//
// Usage:
//
//	go run ./cmd/casestats table --sort confirmed --page-size 20
//	go run ./cmd/casestats json --base-url https://localhost:7268/odata --insecure
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/covid-stats-service/internal/adapter/odata"
	"github.com/couchcryptid/covid-stats-service/internal/config"
	"github.com/couchcryptid/covid-stats-service/internal/domain"
	"github.com/couchcryptid/covid-stats-service/internal/observability"
	"github.com/couchcryptid/covid-stats-service/internal/pipeline"
	"github.com/couchcryptid/covid-stats-service/internal/snapshot"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	baseURL  string
	timeout  time.Duration
	insecure bool
	geometry string
)

var rootCmd = &cobra.Command{
	Use:           "casestats",
	Short:         "Fetch and merge per-country case statistics",
	Long:          "Requests the confirmed, death and recovered aggregates, merges them per country and prints the result.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if cmd.Flags().Changed("base-url") {
			c.SourceBaseURL = baseURL
		}
		if cmd.Flags().Changed("timeout") {
			c.SourceTimeout = timeout
		}
		if cmd.Flags().Changed("insecure") {
			c.SourceTLSInsecure = insecure
		}
		if cmd.Flags().Changed("geometry") {
			mode, err := domain.ParseGeometryMode(geometry)
			if err != nil {
				return err
			}
			c.GeometryMode = mode
		}
		cfg = c
		// Diagnostics go to stderr so stdout stays machine-readable.
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "OData base URL (overrides SOURCE_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout (overrides SOURCE_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "skip TLS verification (overrides SOURCE_TLS_INSECURE)")
	rootCmd.PersistentFlags().StringVar(&geometry, "geometry", "", "country position strategy: running or mean (overrides GEOMETRY_MODE)")
}

// fetchSnapshot runs one cycle with the loaded configuration.
func fetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	metrics := observability.NewUnregisteredMetrics()
	source := odata.NewClient(odata.Options{
		BaseURL:     cfg.SourceBaseURL,
		Timeout:     cfg.SourceTimeout,
		TLSInsecure: cfg.SourceTLSInsecure,
	}, metrics, logger)

	p := pipeline.New(source, domain.NewAggregator(cfg.GeometryMode), snapshot.NewStore(), logger, metrics)
	res := p.RunCycle(ctx)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Snapshot, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("casestats failed", "error", err)
		os.Exit(1)
	}
}
