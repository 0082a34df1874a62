// Package bootstrap wires the configured collaborators into a ready pipeline for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/payslips-tracker/internal/lock"
	"github.com/joseph-ayodele/payslips-tracker/internal/ocr"
	"github.com/joseph-ayodele/payslips-tracker/internal/pdftext"
	"github.com/joseph-ayodele/payslips-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslips-tracker/internal/repository"
	"github.com/joseph-ayodele/payslips-tracker/internal/storage"
)

// App holds everything a binary needs. Close releases it in reverse order.
type App struct {
	Config       *common.Config
	DB           *repository.DB
	Documents    repository.DocumentRepository
	Results      repository.ExtractionResultRepository
	Signer       storage.URLSigner
	Orchestrator *pipeline.Orchestrator

	closers []func()
	logger  *slog.Logger
}

// OpenDB connects to the configured store and runs migrations when enabled.
func OpenDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	var (
		db  *repository.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = repository.OpenSQLite(ctx, cfg.DSN, logger)
	default:
		db, err = repository.Open(ctx, repository.Config{
			DSN:              cfg.DSN,
			MaxConns:         cfg.MaxConns,
			MinConns:         cfg.MinConns,
			MaxConnLifetime:  cfg.MaxConnLifetime,
			MaxConnIdleTime:  cfg.MaxConnIdleTime,
			DialTimeout:      cfg.DialTimeout,
			StatementTimeout: cfg.StatementTimeout,
		}, logger)
	}
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db.Driver, logger); err != nil {
			db.Close(logger)
			return nil, err
		}
	}
	return db, nil
}

// New builds the store, the object-store signer, the extraction tiers and the orchestrator.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	db, err := OpenDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() { db.Close(logger) })
	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		a.Close()
		return nil, err
	}
	a.Documents = repository.NewDocumentRepository(db.Driver, logger)
	a.Results = repository.NewExtractionResultRepository(db.Driver, logger)

	signer, err := storage.NewSigner(ctx, cfg.Storage, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Signer = signer

	textModel := openai.NewClient(openai.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		TextModel:      cfg.LLM.TextModel,
		VisionModel:    cfg.LLM.VisionModel,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout,
		MaxPromptChars: cfg.Pipeline.MaxPromptChars,
	}, logger)

	vision, err := newVision(ctx, cfg.LLM, textModel, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var locker lock.Locker = lock.NewMemory()
	if cfg.Redis.URL != "" {
		rl, err := lock.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.LockTTL, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		locker = rl
		a.closers = append(a.closers, func() { _ = rl.Close() })
	}

	a.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Documents: a.Documents,
		Results:   a.Results,
		Fetcher:   storage.NewFetcher(signer, cfg.Storage, logger),
		Text:      pdftext.NewExtractor(cfg.Pipeline.MinTextChars, logger),
		OCR: ocr.NewEngine(ocr.Config{
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
			MaxImageWidth: cfg.OCR.MaxImageWidth,
			Contrast:      cfg.OCR.Contrast,
		}, logger),
		Mapper: textModel,
		Vision: vision,
		Locker: locker,
	}, pipeline.Config{Tolerance: cfg.Pipeline.Tolerance}, logger)

	logger.Info("bootstrap.ready",
		"db_driver", cfg.Database.Driver,
		"storage_backend", cfg.Storage.Backend,
		"vision_provider", cfg.LLM.VisionProvider,
		"distributed_lock", cfg.Redis.URL != "",
	)
	return a, nil
}

func newVision(ctx context.Context, cfg common.LLMConfig, fallback *openai.Client, logger *slog.Logger) (llm.VisionExtractor, error) {
	switch cfg.VisionProvider {
	case "", "openai":
		return fallback, nil
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
	case "none":
		return nil, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown VISION_PROVIDER %q", cfg.VisionProvider), common.ErrInvalidInput)
	}
}

// LocalFiles returns the signer as a file opener when downloads are served by this process.
func (a *App) LocalFiles() (*storage.LocalSigner, bool) {
	ls, ok := a.Signer.(*storage.LocalSigner)
	return ls, ok
}

// Registrar registers files under the local storage root; other backends have no local tree.
func (a *App) Registrar() (*ingest.Registrar, error) {
	if a.Config.Storage.Backend != "local" {
		return nil, common.NewAppError("CONFIG_ERROR", "file registration requires STORAGE_BACKEND=local", common.ErrInvalidInput)
	}
	return ingest.NewRegistrar(a.Config.Storage.LocalRoot, a.Documents, a.logger)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
