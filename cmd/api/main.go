package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/apiclient"
	"github.com/campusnest/forum/internal/auth"
	"github.com/campusnest/forum/internal/config"
	"github.com/campusnest/forum/internal/forum"
	"github.com/campusnest/forum/internal/gemini"
	"github.com/campusnest/forum/internal/handlers"
	"github.com/campusnest/forum/internal/lock"
	"github.com/campusnest/forum/internal/logger"
	"github.com/campusnest/forum/internal/messaging"
	"github.com/campusnest/forum/internal/moderation"
	"github.com/campusnest/forum/internal/pgstore"
	"github.com/campusnest/forum/internal/ratelimit"
	"github.com/campusnest/forum/internal/review"
	"github.com/campusnest/forum/internal/wordle"
)

// remoteMargin covers NATS transit on top of the worker's cascade budget.
const remoteMargin = 2 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Postgres ---
	db, err := pgstore.Open(ctx, cfg.GetDSN())
	if err != nil {
		logg.Fatalw("failed to connect to Postgres", "error", err)
	}
	defer db.Close()
	if err := pgstore.Migrate(db); err != nil {
		logg.Fatalw("failed to apply migrations", "error", err)
	}

	// --- Redis (optional) ---
	rdb := connectRedis(ctx, cfg, logg)
	if rdb != nil {
		defer rdb.Close()
	}

	// --- NATS (required only in nats moderation mode) ---
	natsOpts := messaging.DefaultOptions("forum-api")
	natsOpts.URL = cfg.NATS.URL
	nc, err := messaging.Connect(natsOpts, logg)
	if err != nil {
		if cfg.Moderation.Mode == "nats" {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		logg.Warnw("NATS unavailable, events stay in process", "error", err)
		nc = nil
	}
	if nc != nil {
		defer nc.Close()
	}

	// --- Moderation ---
	api := apiclient.New(
		apiclient.WithTimeout(cfg.Moderation.StageTimeout),
		apiclient.WithRateLimit(cfg.Moderation.ProviderRPS),
	)
	gem := gemini.NewClient(api, cfg.Moderation.GeminiAPIKey)
	cascade := moderation.NewCascade(
		moderation.DefaultStages(api, moderation.ProviderKeys{
			Perspective: cfg.Moderation.PerspectiveAPIKey,
			OpenAI:      cfg.Moderation.OpenAIAPIKey,
		}, gem),
		moderation.WithPolicy(moderation.Policy{
			Threshold:         cfg.Moderation.Threshold,
			StageTimeout:      cfg.Moderation.StageTimeout,
			TrustProviderSafe: cfg.Moderation.TrustProviderSafe,
		}),
		moderation.WithLogger(logg),
	)
	var mod moderation.Moderator = cascade
	if cfg.Moderation.Mode == "nats" {
		// The worker runs the same cascade; give it the whole budget plus
		// transit before moderating inline.
		mod = moderation.NewRemote(nc, messaging.SubjectModerationCheck, cascade, logg).
			WithTimeout(cascade.Budget() + remoteMargin)
	}

	// --- Review feed ---
	hub := review.NewHub(review.DefaultConfig(), logg)
	hub.Start()
	defer hub.Close()

	records := pgstore.NewModerationStore(db)
	var notifier forum.Notifier = hub
	if nc != nil {
		// Every API instance relays held posts to its own reviewers.
		notifier = forum.NewEventNotifier(nc, messaging.SubjectModerationHeld)
		err := nc.Subscribe(messaging.SubjectModerationHeld, func(data []byte) {
			var ev forum.HeldEvent
			if err := json.Unmarshal(data, &ev); err != nil || ev.Record == nil {
				logg.Warnw("[review] bad held event", "error", err)
				return
			}
			_ = hub.NotifyHeld(context.Background(), ev.Record)
		})
		if err != nil {
			logg.Fatalw("failed to subscribe to held posts", "error", err)
		}
	}
	screener := forum.NewScreener(mod, records, logg, notifier)

	// --- Word game ---
	dict := wordle.DefaultDictionary()
	if path := cfg.Wordle.DictionaryFile; path != "" {
		if dict, err = wordle.OpenDictionary(path); err != nil {
			logg.Fatalw("failed to load dictionary", "path", path, "error", err)
		}
	}
	opts := []wordle.Option{
		wordle.WithLocation(cfg.Location()),
		wordle.WithLogger(logg),
	}
	if rdb != nil {
		opts = append(opts,
			wordle.WithLocker(lock.NewRedisLocker(rdb, logg)),
			wordle.WithCache(wordle.NewRedisCache(rdb)),
		)
	}
	if nc != nil {
		opts = append(opts, wordle.WithPublisher(nc))
	}
	game := wordle.NewService(
		pgstore.NewWordleStore(db),
		dict,
		wordle.NewGenerator(gem, wordle.WithGeneratorLogger(logg)),
		opts...,
	)

	// --- Rate limiting ---
	var limiter ratelimit.Allower
	if rdb != nil {
		limiter = ratelimit.NewLimiter(rdb, logg)
	} else {
		mem := ratelimit.NewMemoryLimiter(10 * time.Minute)
		go mem.Run(ctx, time.Minute)
		limiter = mem
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:      auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours),
		Limiter:   limiter,
		GuessRule: ratelimit.PerMinute(ratelimit.RuleGuess.Key, cfg.RateLimit.GuessesPerMinute),
		ModRule:   ratelimit.PerMinute(ratelimit.RuleModeration.Key, cfg.RateLimit.ModerationsPerMinute),
		Moderation: handlers.NewModerationHandler(mod, screener, records, func(r *forum.Record) {
			_ = hub.NotifyDecided(r)
		}),
		Wordle: handlers.NewWordleHandler(game),
		Review: hub,
		Health: func() map[string]string {
			return map[string]string{"moderation_mode": cfg.Moderation.Mode}
		},
		Log: logg,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Infow("forum API listening",
			"port", cfg.Server.Port,
			"env", cfg.Server.Env,
			"moderation_mode", cfg.Moderation.Mode,
			"wordle_timezone", cfg.Wordle.Timezone,
			"dictionary_size", dict.Size(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Errorw("http shutdown error", "error", err)
	}
}

// connectRedis returns nil when Redis is unreachable; the API then runs with
// in-process rate limiting and without the word cache or generation lock.
func connectRedis(ctx context.Context, cfg *config.Config, logg *zap.SugaredLogger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logg.Warnw("Redis unavailable, using in-process fallbacks", "addr", cfg.Redis.Addr, "error", err)
		rdb.Close()
		return nil
	}
	return rdb
}
