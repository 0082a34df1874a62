package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payslips-tracker/internal/bootstrap"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/export"
	"github.com/joseph-ayodele/payslips-tracker/internal/repository"
)

func main() {
	var (
		userID = flag.String("user", "", "user whose results to export (required)")
		out    = flag.String("out", "payslips.xlsx", "output XLSX file path")
	)
	flag.Parse()
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: payslip-export --user <user-id> [--out payslips.xlsx]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := bootstrap.OpenDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	svc := export.NewService(repository.NewExtractionResultRepository(db.Driver, logger), logger)
	b, err := svc.ExportResultsXLSX(ctx, *userID)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		logger.Error("write export failed", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", *out, "bytes", len(b))
}
