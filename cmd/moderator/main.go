package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusnest/forum/internal/apiclient"
	"github.com/campusnest/forum/internal/config"
	"github.com/campusnest/forum/internal/gemini"
	"github.com/campusnest/forum/internal/logger"
	"github.com/campusnest/forum/internal/messaging"
	"github.com/campusnest/forum/internal/metrics"
	"github.com/campusnest/forum/internal/moderation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	logg.Info("starting forum moderation service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// NATS setup.
	natsOpts := messaging.DefaultOptions("forum-moderator")
	natsOpts.URL = cfg.NATS.URL

	bus, err := messaging.Connect(natsOpts, logg)
	if err != nil {
		logg.Fatalw("failed to connect to NATS", "error", err)
	}

	// Moderation cascade.
	api := apiclient.New(
		apiclient.WithTimeout(cfg.Moderation.StageTimeout),
		apiclient.WithRateLimit(cfg.Moderation.ProviderRPS),
	)
	stages := moderation.DefaultStages(api, moderation.ProviderKeys{
		Perspective: cfg.Moderation.PerspectiveAPIKey,
		OpenAI:      cfg.Moderation.OpenAIAPIKey,
	}, gemini.NewClient(api, cfg.Moderation.GeminiAPIKey))
	cascade := moderation.NewCascade(stages,
		moderation.WithPolicy(moderation.Policy{
			Threshold:         cfg.Moderation.Threshold,
			StageTimeout:      cfg.Moderation.StageTimeout,
			TrustProviderSafe: cfg.Moderation.TrustProviderSafe,
		}),
		moderation.WithLogger(logg),
	)

	// Requests are load-balanced across replicas by the queue group. Each one
	// gets enough time for every stage to run to its timeout.
	budget := cascade.Budget()
	err = bus.HandleRequests(messaging.SubjectModerationCheck, messaging.QueueModerators, func(data []byte) ([]byte, error) {
		reqCtx, cancel := context.WithTimeout(ctx, budget)
		defer cancel()
		return moderation.HandleRequest(reqCtx, cascade, data)
	})
	if err != nil {
		logg.Fatalw("failed to subscribe to moderation checks", "error", err)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Server.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Errorw("metrics server error", "error", err)
		}
	}()

	logg.Infow("forum moderation service running",
		"nats_url", natsOpts.URL,
		"subject", messaging.SubjectModerationCheck,
		"queue", messaging.QueueModerators,
		"threshold", cascade.Policy().Threshold,
		"metrics_port", cfg.Server.MetricsPort,
	)

	<-ctx.Done()
	logg.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	bus.Close()
}
