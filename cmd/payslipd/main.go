package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/payslips-tracker/internal/async"
	"github.com/joseph-ayodele/payslips-tracker/internal/bootstrap"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslips-tracker/internal/repository"
	"github.com/joseph-ayodele/payslips-tracker/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if os.Getenv("LOG_FORMAT") == "" {
		cfg.Log.Format = "json"
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	opts := server.Options{
		Extractor:      app.Orchestrator,
		RequestTimeout: cfg.Queue.ProcessTimeout,
		Logger:         logger,
		Ping: func(ctx context.Context) error {
			return repository.HealthCheck(ctx, app.DB, 2*time.Second, logger)
		},
	}
	if files, ok := app.LocalFiles(); ok {
		opts.Files = files
	}
	httpApp := server.New(opts)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("payslipd http listening", "addr", cfg.Server.HTTPAddr)
		return httpApp.Listen(cfg.Server.HTTPAddr)
	})
	g.Go(func() error {
		logger.Info("payslipd grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	if cfg.Storage.Watch {
		registrar, err := app.Registrar()
		if err != nil {
			logger.Error("drop folder unavailable", "error", err)
			os.Exit(2)
		}
		queue := async.NewExtractQueue(app.Orchestrator, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		)
		g.Go(func() error {
			defer queue.Shutdown(context.Background())
			return registrar.Watch(gctx, ingest.WatchConfig{Root: cfg.Storage.LocalRoot}, func(res ingest.Result) {
				id, err := uuid.Parse(res.DocumentID)
				if err != nil {
					return
				}
				if err := queue.Enqueue(gctx, async.Job{DocumentID: id, UserID: res.UserID}); err != nil {
					logger.Warn("drop folder enqueue failed", "document_id", id, "error", err)
				}
			})
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
		return httpApp.ShutdownWithTimeout(15 * time.Second)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		app.Close()
		os.Exit(1)
	}
	logger.Info("stopped")
}
