// Command dispatcherd is the background worker that delivers scheduled
// templates. It polls for due templates on a fixed interval and runs a
// periodic housekeeping sweep that normalizes stale schedule state.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/hci-dispatch/internal/config"
	"github.com/crucial707/hci-dispatch/internal/db"
	"github.com/crucial707/hci-dispatch/internal/dispatcher"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()

	setupLogging(cfg.LogFormat)

	database, err := db.Connect(
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("database ready", "host", cfg.DBHost, "name", cfg.DBName)

	var sender dispatcher.Sender
	if cfg.RelayURL != "" {
		sender = dispatcher.NewRelaySender(cfg.RelayURL)
		slog.Info("using relay sender", "url", cfg.RelayURL)
	} else {
		sender = &dispatcher.LogSender{Logger: slog.Default()}
		slog.Warn("RELAY_URL not set, running in dry-run mode")
	}

	d := dispatcher.New(database, sender, slog.Default(), cfg.SendRatePerMinute)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepCron, func() {
		d.Sweep(ctx, time.Now())
	}); err != nil {
		log.Fatalf("Invalid SWEEP_CRON %q: %v", cfg.SweepCron, err)
	}
	c.Start()
	defer c.Stop()

	slog.Info("dispatcher started",
		"interval", cfg.DispatchInterval.String(),
		"sweep_cron", cfg.SweepCron,
		"rate_per_minute", cfg.SendRatePerMinute,
	)

	ticker := time.NewTicker(cfg.DispatchInterval)
	defer ticker.Stop()

	// Run one pass at startup so a restart does not wait a full interval.
	d.RunDue(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down dispatcher")
			return
		case now := <-ticker.C:
			d.RunDue(ctx, now)
		}
	}
}

func setupLogging(format string) {
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
}
