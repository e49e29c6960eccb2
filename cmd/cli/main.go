package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/logger"
	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/provider"
	"github.com/autoprofit/internal/service"
	"github.com/autoprofit/internal/worker"
)

const usage = `usage: autoprofit <command> [flags]

commands:
  init       create data/output directories and migrate the database
  db-check   verify the database connection
  run        run the pipeline once (-limit N, -dry-run)
  loop       run the pipeline on an interval (-interval minutes)
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()

	var err error
	switch args[0] {
	case "init":
		err = cmdInit(cfg, stdout)
	case "db-check":
		err = cmdDBCheck(cfg, stdout)
	case "run":
		err = cmdRun(cfg, args[1:], stdout)
	case "loop":
		err = cmdLoop(cfg, args[1:])
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func openDB(cfg *config.Config) error {
	return models.InitDB(cfg.Database.Dialect(), cfg.Database.Target(), models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	})
}

func cmdInit(cfg *config.Config, stdout io.Writer) error {
	for _, dir := range []string{cfg.Pipeline.DataDir, cfg.Pipeline.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := openDB(cfg); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "initialized %s database, output dir %s\n", cfg.Database.Provider(), cfg.Pipeline.OutputDir)
	return nil
}

func cmdDBCheck(cfg *config.Config, stdout io.Writer) error {
	if err := openDB(cfg); err != nil {
		return err
	}
	if err := models.Ping(models.DB); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "database ok (%s)\n", cfg.Database.Provider())
	return nil
}

func cmdRun(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "max pages to publish, 0 uses pipeline.max_posts_per_run")
	dryRun := fs.Bool("dry-run", false, "generate without writing pages or rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := openDB(cfg); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return err
	}
	container := provider.NewContainer(cfg)
	defer container.Close()

	summary, err := container.PipelineService.Run(context.Background(), service.PipelineRunInput{
		Limit:   *limit,
		DryRun:  *dryRun,
		Trigger: constants.RunTriggerCLI,
	})
	if summary != nil {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if encodeErr := encoder.Encode(summary); encodeErr != nil {
			return encodeErr
		}
	}
	return err
}

func cmdLoop(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("loop", flag.ContinueOnError)
	minutes := fs.Int("interval", cfg.Pipeline.ScheduleIntervalMinutes, "minutes between runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *minutes <= 0 {
		return errors.New("interval must be positive")
	}
	if err := openDB(cfg); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return err
	}
	container := provider.NewContainer(cfg)
	defer container.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	scheduler := worker.NewScheduler(
		"pipeline_loop",
		time.Duration(*minutes)*time.Minute,
		worker.DirectPipelineTick(container.PipelineService, constants.RunTriggerCLI),
	)
	logger.Infow("cli_loop_start", "interval_minutes", *minutes)
	return scheduler.Start(ctx)
}
