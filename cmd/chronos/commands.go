package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chronos-go/internal/app"
	"chronos-go/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd(log logger.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chronos",
		Short:         "Meeting scheduling backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd(log), newMigrateCmd(log), newRecalculateCmd(log))
	return rootCmd
}

func newServeCmd(log logger.Logger) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), log)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer closeApp(log, application)

			applied, err := application.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("db: migrations done", "applied", applied)
			return nil
		},
	}
}

// newRecalculateCmd runs a status pass by hand, e.g. after fixing rows in the
// database directly.
func newRecalculateCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate <meeting-id>...",
		Short: "Recompute participant statuses for the given meetings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), log)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			defer closeApp(log, application)

			var failed int
			for _, meetingID := range args {
				result, err := application.Recalculator().Run(cmd.Context(), meetingID)
				if err != nil {
					log.Error("recalculate: pass failed", "meeting_id", meetingID, "err", err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: participants=%d common_dates=%d changed=%d\n",
					meetingID, result.Participants, len(result.CommonDates), len(result.Changes))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d meetings failed", failed, len(args))
			}
			return nil
		},
	}
}

func runServe(parent context.Context, log logger.Logger, migrate bool) error {
	log.Info("app: starting")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if migrate {
		applied, err := application.Migrate(ctx)
		if err != nil {
			closeApp(log, application)
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("db: migrations done", "applied", applied)
	}

	srv := application.HTTPServer()
	log.Info("http: listening", "addr", srv.Addr)

	serverErrCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("app: shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			log.Critical("http: server failed", "addr", srv.Addr, "err", err)
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http: graceful shutdown failed", "err", err)
		runErr = errors.Join(runErr, err)
	}

	if err := application.Close(shutdownCtx); err != nil {
		log.Error("app: close failed", "err", err)
		runErr = errors.Join(runErr, err)
	}

	if runErr == nil {
		log.Info("app: stopped")
	}
	return runErr
}

func closeApp(log logger.Logger, application *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Close(ctx); err != nil {
		log.Error("app: close failed", "err", err)
	}
}
