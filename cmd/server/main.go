package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "workplan/internal/api/v1"
	"workplan/internal/attachments"
	"workplan/internal/config"
	"workplan/internal/service"
	"workplan/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "workplan",
	Short:        "Weighted goal, task and activity tracking service",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetBool("seed")
		return serve(cmd.Context(), seed)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Roll progress up again from one activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		activityID, _ := cmd.Flags().GetInt64("activity")
		if activityID <= 0 {
			return errors.New("--activity is required")
		}
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		svc, pool, err := openService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := svc.Recompute(cmd.Context(), activityID); err != nil {
			return fmt.Errorf("recompute: %w", err)
		}
		logger.Info("progress recomputed", slog.Int64("activity_id", activityID))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default $"+config.PathEnv+")")
	serveCmd.Flags().Bool("seed", false, "seed demo data")
	recomputeCmd.Flags().Int64("activity", 0, "activity id")
	rootCmd.AddCommand(serveCmd, migrateCmd, recomputeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.Service, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	pgstore := store.New(pool)
	pgstore.LockTimeout = cfg.LockTimeout

	files, err := attachments.NewDiskStorage(cfg.AttachmentsDir)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("attachments dir: %w", err)
	}
	svc := service.New(service.FromStore(pgstore), service.Dependencies{
		Settings:                pgstore,
		Files:                   files,
		Logger:                  logger,
		DefaultResubmissionDays: cfg.DefaultResubmissionDays,
	})
	return svc, pool, nil
}

func serve(ctx context.Context, seed bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		logger.Error("failed to migrate", slog.String("error", err.Error()))
		return err
	}
	svc, pool, err := openService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", slog.String("error", err.Error()))
		return err
	}
	defer pool.Close()

	if seed {
		if err := svc.SeedDemo(ctx); err != nil {
			logger.Error("failed to seed", slog.String("error", err.Error()))
			return err
		}
		logger.Info("seed data created")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Mount("/api/v1", v1.NewHandler(svc, logger).Routes())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	}
}
