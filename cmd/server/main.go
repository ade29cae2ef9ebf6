package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mikeboe/osint-investigator/pkg/config"
	"github.com/mikeboe/osint-investigator/pkg/logging"
	"github.com/mikeboe/osint-investigator/pkg/progress"
	"github.com/mikeboe/osint-investigator/pkg/report"
	"github.com/mikeboe/osint-investigator/pkg/server"
)

func main() {
	cfg := config.Load()

	logHandler := logging.NewHandler(cfg.LogLevel)
	slog.SetDefault(slog.New(logHandler))

	pipeline, err := server.NewPipeline(cfg)
	if err != nil {
		log.Fatalf("Failed to configure pipeline: %v", err)
	}
	if pipeline.SearchKeys == 0 {
		slog.Warn("No search credentials configured; every source will return empty results")
	}
	if !pipeline.NERAvailable() {
		slog.Warn("NER_URL not set; entity matching and entity statistics are disabled")
	}

	tracker := progress.New(
		time.Duration(cfg.RetentionSeconds)*time.Second,
		time.Duration(cfg.SweepSeconds)*time.Second,
	)
	tracker.SetLogger(slog.Default())

	// Initialize Service & Handler
	svc := server.NewService(pipeline, tracker, cfg.MaxConcurrentSearches, logHandler)
	handler := server.NewHandler(svc, report.NewWriter(cfg.ReportsDir))

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id"},
		ExposeHeaders: []string{"Content-Length", "Mcp-Session-Id"},
	}))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Printf("Server starting on port %s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return tracker.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if n := tracker.Running(); n > 0 {
			slog.Warn("Shutting down with searches still running", "count", n)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	slog.Info("Server stopped")
}
