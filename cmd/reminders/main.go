package main

import (
	"context"
	"flag"
	"os"
	"time"

	"fait_platform_backend/internal/maintenance"
	"fait_platform_backend/internal/scheduler"
	"fait_platform_backend/platform/config"
	"fait_platform_backend/platform/db"
	"fait_platform_backend/platform/logger"
	"fait_platform_backend/platform/validator"
)

func main() {
	dateFlag := flag.String("date", "", "run date override (YYYY-MM-DD), defaults to today")
	enqueueFlag := flag.Bool("enqueue", false, "enqueue the run for the worker fleet instead of running inline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	runDate := time.Now().UTC()
	if *dateFlag != "" {
		parsed, err := time.Parse(time.DateOnly, *dateFlag)
		if err != nil {
			log.Error("invalid -date value", "value", *dateFlag, "error", err)
			os.Exit(1)
		}
		runDate = parsed
	}

	log.Info("starting reminder run", "env", cfg.Env, "run_date", runDate.Format(time.DateOnly))

	ctx := context.Background()

	if *enqueueFlag {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to connect to task queue", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()

		payload := scheduler.GenerateRemindersPayload{Date: runDate.Format(time.DateOnly)}
		if err := client.EnqueueGenerateReminders(ctx, payload); err != nil {
			log.Error("failed to enqueue reminder run", "error", err)
			os.Exit(1)
		}
		log.Info("reminder run enqueued", "run_date", runDate.Format(time.DateOnly))
		return
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, cfg.MigrationsDir); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	maintenanceModule := maintenance.New(pool, validator.New(), cfg, log)

	if _, err := maintenanceModule.Engine().Run(ctx, runDate); err != nil {
		// Only the initial home listing is fatal; per-home failures were
		// already logged and isolated inside the run.
		log.Error("reminder run failed", "error", err)
		os.Exit(1)
	}
}
