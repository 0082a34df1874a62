package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string

	MaxImageWidth int     // default 2000
	Contrast      float64 // default 20

	EnableTSVConfidence bool
	PSM                 int // e.g., 6 is good for uniform block of text
}

// Recognition is the text read from one image plus a 0..1 confidence estimate.
type Recognition struct {
	Text       string
	Confidence float32
	Duration   time.Duration
}

// Engine runs tesseract on preprocessed rasters.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return NewEngineWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewEngineWithRunner is used by tests and by callers that sandbox the binary.
func NewEngineWithRunner(cfg Config, r Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.MaxImageWidth <= 0 {
		cfg.MaxImageWidth = DefaultMaxWidth
	}
	if cfg.Contrast == 0 {
		cfg.Contrast = DefaultContrast
	}
	return &Engine{cfg: cfg, runner: r, logger: logger}
}

// worker is a private scratch directory holding one raster for one recognition.
type worker struct {
	dir   string
	image string
}

func (e *Engine) acquire(raster []byte) (*worker, error) {
	dir, err := os.MkdirTemp("", "payslip-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create ocr workspace: %w", err)
	}
	w := &worker{dir: dir, image: filepath.Join(dir, "page.png")}
	if err := os.WriteFile(w.image, raster, 0o600); err != nil {
		e.release(w)
		return nil, fmt.Errorf("write raster: %w", err)
	}
	return w, nil
}

func (e *Engine) release(w *worker) {
	if err := os.RemoveAll(w.dir); err != nil {
		e.logger.Warn("ocr.worker.cleanup_failed", "dir", w.dir, "error", err)
	}
}

// Recognize preprocesses img and reads its text. The scratch workspace is removed on every path.
func (e *Engine) Recognize(ctx context.Context, img []byte) (Recognition, error) {
	start := time.Now()
	raster, err := Preprocess(img, e.cfg.MaxImageWidth, e.cfg.Contrast)
	if err != nil {
		return Recognition{}, err
	}

	w, err := e.acquire(raster)
	if err != nil {
		return Recognition{}, err
	}
	defer e.release(w)

	txt, err := e.tesseract(ctx, w.image)
	if err != nil {
		return Recognition{Duration: time.Since(start)}, err
	}
	txt = Normalize(txt)

	conf := heuristicConfidence(txt)
	if e.cfg.EnableTSVConfidence {
		if tc, err := e.tsvConfidence(ctx, w.image); err == nil && tc > 0 {
			// blend: weight OCR higher if present
			conf = 0.7*tc + 0.3*conf
		} else if err != nil {
			e.logger.Debug("ocr.tsv.failed", "error", err)
		}
	}
	if txt == "" {
		conf = 0
	}

	rec := Recognition{Text: txt, Confidence: conf, Duration: time.Since(start)}
	e.logger.Debug("ocr.recognized", "chars", len(txt), "confidence", conf, "elapsed_ms", rec.Duration.Milliseconds())
	return rec, nil
}

func (e *Engine) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *Engine) tesseract(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.baseArgs(path)...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, truncate(msg, 512))
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

func (e *Engine) tsvConfidence(ctx context.Context, path string) (float32, error) {
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, append(e.baseArgs(path), "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}
	return meanTSVConfidence(string(out)), nil
}
