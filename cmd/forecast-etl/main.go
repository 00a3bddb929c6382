package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weather-forecast-etl/internal/config"
	"weather-forecast-etl/internal/forecast"
	"weather-forecast-etl/internal/store"
)

// Exit codes per failure class. Per-location transport failures never
// escalate; an empty batch is a successful no-op.
const (
	exitConfig     = 2
	exitMalformed  = 3
	exitStoreRead  = 4
	exitStoreWrite = 5
)

var (
	flagStore   string
	flagTimeout time.Duration
	flagDryRun  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "forecast-etl",
		Short: "Fetch weather forecasts and merge them into the local dataset",
		Long: "forecast-etl fetches the 5-day/3-hour OpenWeatherMap forecast for the\n" +
			"configured locations, flattens it into tabular records, and merges them\n" +
			"into the persistent dataset, keeping one row per (location, forecast time).",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	rootCmd.Flags().StringVar(&flagStore, "store", "", "override the store path (csv driver)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "override the per-request HTTP timeout")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "fetch and normalize but leave the store untouched")

	locationsCmd := &cobra.Command{
		Use:           "locations",
		Short:         "Print the resolved location list",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, loc := range cfg.Locations {
				fmt.Printf("%s (%.4f, %.4f)\n", loc.Name, loc.Lat, loc.Lon)
			}
			return nil
		},
	}
	rootCmd.AddCommand(locationsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	fetcher := forecast.NewFetcher(httpClient, cfg.APIKey)

	var recordStore forecast.Store
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := store.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("opening postgres store: %w", err)
		}
		defer pg.Close()
		recordStore = pg
	default:
		recordStore = store.NewCSVStore(cfg.StorePath, cfg.RecoverCorruptStore)
	}

	svc := forecast.NewService(fetcher, recordStore, cfg.Locations, flagDryRun)
	sum, err := svc.Run(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			log.Printf("the store path is not writable; is %s open or locked by another process?", cfg.StorePath)
		}
		return err
	}

	log.Printf("completed run %s: fetched=%d normalized=%d persisted=%d elapsed=%s",
		sum.RunID, sum.Fetched, sum.Normalized, sum.Persisted, sum.Elapsed)
	return nil
}

// applyFlags folds the command-line overrides into the loaded config. An
// override that would silently no-op is rejected instead.
func applyFlags(cfg *config.AppConfig) error {
	if flagStore != "" {
		if cfg.StoreDriver == "postgres" {
			return fmt.Errorf("%w: --store applies only to the csv store driver", config.ErrInvalid)
		}
		cfg.StorePath = flagStore
	}
	if flagTimeout > 0 {
		cfg.HTTPTimeout = flagTimeout
	}
	return nil
}

func exitCode(err error) int {
	var malformed *forecast.MalformedEntryError
	var readErr *store.ReadError
	var writeErr *store.WriteError

	switch {
	case errors.Is(err, config.ErrInvalid), errors.Is(err, forecast.ErrMissingAPIKey):
		return exitConfig
	case errors.As(err, &malformed):
		return exitMalformed
	case errors.As(err, &readErr):
		return exitStoreRead
	case errors.As(err, &writeErr):
		return exitStoreWrite
	default:
		return 1
	}
}
