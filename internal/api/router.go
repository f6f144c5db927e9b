package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/narravox/narravox/internal/api/handlers"
	"github.com/narravox/narravox/internal/api/middleware"
	"github.com/narravox/narravox/internal/auth"
	"github.com/narravox/narravox/internal/cache"
	"github.com/narravox/narravox/internal/config"
	"github.com/narravox/narravox/internal/pipeline"
	"github.com/narravox/narravox/internal/queue"
	"github.com/narravox/narravox/internal/scheduler"
	"github.com/narravox/narravox/internal/store"
	"github.com/narravox/narravox/internal/synth"
	"github.com/narravox/narravox/internal/textgen"
	"github.com/narravox/narravox/internal/voice"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Core synthesis wiring: one scheduler and one voice cache per process,
	// shared by every job.
	voices := voice.NewCache(voice.NewPiper(voice.PiperConfig{
		BinPath:  rt.cfg.TTS.PiperBinPath,
		ModelDir: rt.cfg.TTS.ModelDir,
	}))
	sched := scheduler.New(scheduler.Config{
		MaxConcurrent: rt.cfg.Scheduler.MaxConcurrent,
		ProBatchSize:  rt.cfg.Scheduler.ProBatchSize,
		FreeBatchSize: rt.cfg.Scheduler.FreeBatchSize,
		MinBatchSize:  rt.cfg.Scheduler.MinBatchSize,
	})
	executor := synth.NewExecutor(voices, rt.cfg.TTS.Workers)
	storeSvc := store.NewService(rt.db, rt.cfg.Storage.AudioDir)
	pipe := pipeline.New(pipeline.Config{
		MaxSegmentChars: rt.cfg.Pipeline.MaxSegmentChars,
		PollInterval:    time.Duration(rt.cfg.Pipeline.PollIntervalMs) * time.Millisecond,
	}, sched, executor, voices, storeSvc)

	usage := cache.NewUsageTracker(rt.redis, rt.cfg.Usage.FreeDailyLimit)
	kvCache := cache.NewCache(rt.redis)
	queueClient := queue.NewClient(rt.cfg.Redis)

	textSvc, err := textgen.NewService(rt.cfg.LLM)
	if err != nil {
		slog.Warn("text generation unavailable", "error", err)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		synthH := handlers.NewSynthesisHandler(pipe, storeSvc, usage)
		r.Route("/audio", func(r chi.Router) {
			r.Post("/synthesize", synthH.Synthesize)
			r.Get("/{id}/status", synthH.Status)
			r.Get("/download/{id}", synthH.Download)
		})

		docH := handlers.NewDocumentHandler(synthH)
		r.Post("/documents/narrate", docH.Narrate)

		if textSvc != nil {
			textH := handlers.NewTextHandler(textSvc, storeSvc, usage)
			r.Post("/text/generate", textH.Generate)
		}

		voicesH := handlers.NewVoicesHandler(voices, kvCache)
		r.Get("/voices", voicesH.List)

		accountH := handlers.NewAccountHandler(storeSvc, usage)
		r.Get("/me", accountH.Me)

		historyH := handlers.NewHistoryHandler(storeSvc)
		r.Get("/history", historyH.List)

		adminH := handlers.NewAdminHandler(storeSvc, queueClient, rt.cfg.Storage.RetentionDays)
		r.Route("/admin", func(r chi.Router) {
			r.Get("/stats", adminH.Stats)
			r.Post("/cleanup", adminH.Cleanup)
		})
	})

	return r
}
