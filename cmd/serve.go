package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linesmerrill/ai-court-api/api/handlers"
	"github.com/linesmerrill/ai-court-api/api/scheduler"
)

const shutdownTimeout = 30 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the court HTTP and websocket API",
	Long: `Starts the HTTP server and the idle-session eviction job. Both stop on
SIGINT or SIGTERM; in-flight requests get a grace period to finish.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort != "" {
		conf.Port = servePort
	}

	a := handlers.App{Config: *conf}
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(a.Registry, conf.EvictionSchedule)
	if err := sched.Start(); err != nil {
		return errors.Join(err, a.Close(context.Background()))
	}

	srv := &http.Server{
		Addr:              ":" + conf.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infow("ai-court-api is up and running",
			"port", conf.Port,
			"url", conf.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("ai-court-api is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sched.Stop()
		return errors.Join(srv.Shutdown(shutdownCtx), a.Close(shutdownCtx))
	})
	return g.Wait()
}
