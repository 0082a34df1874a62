// Package pdftext reads the embedded text layer of PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// DefaultMinChars is the shortest text layer that still counts as usable.
const DefaultMinChars = 100

// Result is the outcome of reading a text layer. Scanned is set when no usable text was found.
type Result struct {
	Text    string
	Pages   int
	Scanned bool
}

type document interface {
	NumPage() int
	PageText(i int) (string, error)
}

type Extractor struct {
	minChars int
	open     func([]byte) (document, error)
	logger   *slog.Logger
}

func NewExtractor(minChars int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Extractor{minChars: minChars, open: openPDF, logger: logger}
}

// Extract concatenates page text. Malformed input is reported as Scanned, never as an error.
func (e *Extractor) Extract(ctx context.Context, data []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdftext.panic", "error", fmt.Sprint(r))
			res = Result{Pages: res.Pages, Scanned: true}
		}
	}()

	doc, err := e.open(data)
	if err != nil {
		e.logger.Info("pdftext.unreadable", "error", err)
		return Result{Scanned: true}
	}

	res.Pages = doc.NumPage()
	pages := make([]string, 0, res.Pages)
	for i := 1; i <= res.Pages; i++ {
		if ctx.Err() != nil {
			return Result{Pages: res.Pages, Scanned: true}
		}
		txt, err := doc.PageText(i)
		if err != nil {
			e.logger.Debug("pdftext.page.failed", "page", i, "error", err)
			continue
		}
		pages = append(pages, txt)
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if n := utf8.RuneCountInString(text); n < e.minChars {
		e.logger.Info("pdftext.insufficient", "chars", n, "min_chars", e.minChars, "pages", res.Pages)
		return Result{Pages: res.Pages, Scanned: true}
	}
	res.Text = text
	return res
}

type pdfDocument struct {
	r *pdf.Reader
}

func openPDF(data []byte) (document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return pdfDocument{r: r}, nil
}

func (d pdfDocument) NumPage() int { return d.r.NumPage() }

func (d pdfDocument) PageText(i int) (string, error) {
	p := d.r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
