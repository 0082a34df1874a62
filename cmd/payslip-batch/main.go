package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payslips-tracker/internal/async"
	"github.com/joseph-ayodele/payslips-tracker/internal/bootstrap"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

func main() {
	var (
		limit   = flag.Int("limit", 100, "maximum number of pending documents to process")
		workers = flag.Int("workers", 0, "worker count (defaults to QUEUE_WORKERS)")
		dir     = flag.String("dir", "", "register files under this local storage directory before processing")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if *workers > 0 {
		cfg.Queue.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *dir != "" {
		registrar, err := app.Registrar()
		if err != nil {
			logger.Error("cannot register directory", "error", err)
			app.Close()
			os.Exit(2)
		}
		if _, stats, err := registrar.RegisterDirectory(ctx, *dir, true); err != nil {
			logger.Error("register directory failed", "dir", *dir, "error", err)
			app.Close()
			os.Exit(1)
		} else if stats.Failed > 0 {
			logger.Warn("some files were not registered", "failed", stats.Failed)
		}
	}

	pending, err := app.Documents.ListPending(ctx, *limit)
	if err != nil {
		logger.Error("list pending documents failed", "error", err)
		app.Close()
		os.Exit(1)
	}
	logger.Info("batch.start", "pending", len(pending), "workers", cfg.Queue.Workers)

	queue := async.NewExtractQueue(app.Orchestrator, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)
	start := time.Now()
	for _, doc := range pending {
		if err := queue.Enqueue(ctx, async.Job{DocumentID: doc.ID, UserID: doc.UserID}); err != nil {
			logger.Warn("batch.enqueue.stopped", "document_id", doc.ID, "error", err)
			break
		}
	}

	// in-flight runs finish even after an interrupt; the deadline only bounds the wait
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout+30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	st := queue.Stats()
	logger.Info("batch.done",
		"processed", st.Processed,
		"manual", st.Manual,
		"failed", st.Failed,
		"skipped", st.Skipped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	fmt.Printf("processed=%d manual=%d failed=%d skipped=%d\n", st.Processed, st.Manual, st.Failed, st.Skipped)
	if st.Failed > 0 {
		cancel()
		app.Close()
		os.Exit(1)
	}
}
