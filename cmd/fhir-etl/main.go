package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ehr/fhir-etl/internal/config"
	"github.com/ehr/fhir-etl/internal/ingest"
	"github.com/ehr/fhir-etl/internal/platform/db"
	"github.com/ehr/fhir-etl/internal/platform/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fhir-etl",
		Short: "Batch conversion of EMR table dumps into FHIR resources",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(initDBCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full transformation batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline()
		},
	}
}

func runPipeline() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFile)

	// Process boundary: a panic that escapes the pipeline is logged and
	// turned into a non-zero exit instead of a silent crash.
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("pipeline panicked")
			err = fmt.Errorf("pipeline panicked: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MarkerWait {
		logger.Info().Str("marker", cfg.MarkerPath).Msg("waiting for preprocessing to complete")
		if err := ingest.WaitForMarker(ctx, cfg.MarkerPath, cfg.MarkerPollInterval, cfg.MarkerTimeout); err != nil {
			logger.Error().Err(err).Msg("preprocessing marker never appeared")
			return err
		}
	}

	store, err := db.Open(cfg.OutputPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.OutputPath).Msg("cannot open resource store")
		return err
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		logger.Error().Err(err).Msg("cannot initialize store schema")
		return err
	}

	logger.Info().Str("input_dir", cfg.InputDir).Str("output", cfg.OutputPath).Msg("starting run")

	driver := ingest.NewDriver(store, logger, cfg.StoreMaxFailures)
	stats, err := driver.Run(ctx, cfg.InputDir)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return err
	}

	counts, err := store.CountByKind(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not read final row counts")
	} else {
		logger.Info().
			Int("patients", counts["patient"]).
			Int("encounters", counts["encounter"]).
			Int("procedures", counts["procedure"]).
			Int("devices", counts["device"]).
			Msg("store totals")
	}

	logger.Info().
		Int("processed", stats.Processed).
		Int("mapped", stats.Mapped).
		Int("skipped", stats.Skipped).
		Int("errored", stats.Errored).
		Dur("elapsed", stats.Elapsed).
		Msg("run complete")
	return nil
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the resource store schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := db.Open(cfg.OutputPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Init(context.Background()); err != nil {
				return fmt.Errorf("initialize schema: %w", err)
			}

			fmt.Printf("Store initialized at %s.\n", cfg.OutputPath)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored resource counts per kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := db.Open(cfg.OutputPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			if err := store.Init(ctx); err != nil {
				return err
			}

			counts, err := store.CountByKind(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Resource counts in %s\n", cfg.OutputPath)
			fmt.Printf("%-12s %s\n", "KIND", "ROWS")
			for _, kind := range db.Kinds {
				fmt.Printf("%-12s %d\n", kind, counts[kind])
			}
			return nil
		},
	}
}
