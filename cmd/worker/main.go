package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/narravox/narravox/internal/config"
	"github.com/narravox/narravox/internal/database"
	"github.com/narravox/narravox/internal/queue"
	"github.com/narravox/narravox/internal/queue/workers"
	"github.com/narravox/narravox/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
	})

	cleanup := workers.NewCleanupWorker(store.NewService(db, cfg.Storage.AudioDir))

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeAudioCleanup, cleanup.ProcessAudioCleanup)
	mux.HandleFunc(queue.TypeUsagePrune, cleanup.ProcessUsagePrune)

	// Nightly retention maintenance.
	sched := asynq.NewScheduler(redisOpt, nil)
	cleanupPayload, _ := json.Marshal(queue.AudioCleanupPayload{RetentionDays: cfg.Storage.RetentionDays})
	prunePayload, _ := json.Marshal(queue.UsagePrunePayload{RetentionDays: 90})
	if _, err := sched.Register("0 3 * * *", asynq.NewTask(queue.TypeAudioCleanup, cleanupPayload)); err != nil {
		slog.Error("failed to register cleanup schedule", "error", err)
		os.Exit(1)
	}
	if _, err := sched.Register("30 3 * * *", asynq.NewTask(queue.TypeUsagePrune, prunePayload)); err != nil {
		slog.Error("failed to register prune schedule", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := sched.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starting worker", "concurrency", 5)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
