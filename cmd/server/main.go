package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/api"
	"github.com/dgallion1/coursemap/internal/app"
	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/logging"
	"github.com/dgallion1/coursemap/internal/pipeline"
)

func main() {
	cfg, err := config.Load(os.Getenv("COURSEMAP_CONFIG"))
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := app.Open(cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, svc.Store, svc.Analyzer, svc.Learning, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, svc.Learning, svc.Store, svc.Analyzer, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		svc.Close()
	}()

	log.Info("starting coursemap",
		zap.String("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.String("initial_status_mode", cfg.InitialStatusMode))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
	<-done
}
