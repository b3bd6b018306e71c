package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/country-data-aggregation/internal/api/http"
	"github.com/i474232898/country-data-aggregation/internal/config"
	"github.com/i474232898/country-data-aggregation/internal/logging"
	"github.com/i474232898/country-data-aggregation/internal/scheduler"
)

const (
	CmdServe     = "serve"
	CmdAggregate = "aggregate"

	FlagCountry  = "country"
	FlagPageSize = "page-size"
	FlagFrom     = "from"

	shutdownTimeout = 10 * time.Second
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "country-aggregation",
		Short: "Aggregates country, weather and news data behind one endpoint",
		Long: `country-aggregation resolves a country's capital, then fetches the
capital's current weather and recent headlines about the country concurrently
and returns everything as one aggregate response.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(newServeCmd(), newAggregateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   CmdServe,
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdAggregate,
		Short: "Run one aggregation and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE:  runAggregate,
	}
	cmd.Flags().String(FlagCountry, "", "country name to aggregate data for")
	cmd.Flags().Int(FlagPageSize, 0, "maximum number of headlines (0 uses the configured default)")
	cmd.Flags().String(FlagFrom, "", "oldest news date in the configured date format (default 5 days ago)")
	_ = cmd.MarkFlagRequired(FlagCountry)
	return cmd
}

func setup() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.memory != nil {
		sched := scheduler.New(a.memory, cfg.CachePurgeInterval, logger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	if !cfg.JWT.Enabled() {
		logger.Warn("JWT_SECRET is not set; aggregation endpoints are served without authentication")
	}

	app := httpapi.NewApp(httpapi.Deps{
		Aggregator:  a.service,
		Auth:        a.auth,
		RequireAuth: cfg.JWT.Enabled(),
		Logger:      logger.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	return nil
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	country, _ := cmd.Flags().GetString(FlagCountry)
	pageSize, _ := cmd.Flags().GetInt(FlagPageSize)
	from, _ := cmd.Flags().GetString(FlagFrom)

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApplication(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.service.Aggregate(cmd.Context(), country, pageSize, from)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
