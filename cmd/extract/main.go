package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payslips-tracker/internal/bootstrap"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		docID   = flag.String("document", "", "document id to extract (required)")
		userID  = flag.String("user", "", "owner of the document (required)")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	)
	flag.Parse()

	id, err := uuid.Parse(*docID)
	if err != nil || *userID == "" {
		printError("usage: extract --document <uuid> --user <user-id>\n")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		printError("Error: startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	out, err := app.Orchestrator.Extract(ctx, id, *userID)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
	if err != nil {
		printError("Error: extraction failed: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}
