package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"pfetracker/lib/serviceutil"
	"pfetracker/lib/telemetry"
	"pfetracker/services/harvest"
)

func run(service harvest.Service) int {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	tel, err := telemetry.SetupFromEnv(ctx, "pfetracker")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()

	t1 := time.Now()
	result, err := service.Run(ctx, false)
	t2 := time.Now()

	slog.Info(
		"run finished",
		"run_id", result.ID,
		"pages", result.Harvest.Pages,
		"fetched", len(result.Harvest.Names),
		"appended", len(result.Report.Appended),
		"records", result.Report.Total,
		"up_to_date", result.Report.UpToDate(),
		"seconds", t2.Sub(t1).Seconds(),
	)
	if err != nil {
		slog.Error("run failed", "err", err)
		return 1
	}
	return 0
}

func main() {
	telemetry.InitSlog(false)

	cfg, err := harvest.ReadConfig("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	telemetry.InitSlog(cfg.Debug)

	service, cleanup, err := harvest.Build(cfg)
	if err != nil {
		serviceutil.Fatal("failed to initialize", err)
	}

	code := run(service)
	cleanup()
	os.Exit(code)
}
