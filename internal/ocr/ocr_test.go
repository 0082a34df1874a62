package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 120, B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPreprocessDownscalesAndGrays(t *testing.T) {
	out, err := Preprocess(testPNG(t, 3000, 150), 2000, 20)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Fatalf("expected *image.Gray, got %T", img)
	}
	if b := img.Bounds(); b.Dx() != 2000 || b.Dy() != 100 {
		t.Fatalf("bounds = %v, want 2000x100", b)
	}
}

func TestPreprocessKeepsSmallImages(t *testing.T) {
	out, err := Preprocess(testPNG(t, 640, 480), 2000, 20)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Fatalf("bounds = %v, want 640x480", b)
	}
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	if _, err := Preprocess([]byte("not an image"), 0, 0); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRecognizeReleasesWorker(t *testing.T) {
	var seen string
	r := RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		if name != "tesseract" {
			t.Fatalf("unexpected binary %q", name)
		}
		if args[1] != "stdout" || args[2] != "-l" || args[3] != "eng" {
			t.Fatalf("unexpected args %v", args)
		}
		seen = args[0]
		if _, err := os.Stat(seen); err != nil {
			t.Fatalf("raster missing during recognition: %v", err)
		}
		return []byte("GROSS PAY\t 3,000.00\r\n-----\r\nNET PAY   2,140.00\n\n\n\n"), nil, nil
	})
	e := NewEngineWithRunner(Config{}, r, quietLogger())

	rec, err := e.Recognize(context.Background(), testPNG(t, 200, 100))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if rec.Text != "GROSS PAY 3,000.00\n\nNET PAY 2,140.00" {
		t.Fatalf("unexpected text %q", rec.Text)
	}
	if rec.Confidence <= 0 || rec.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", rec.Confidence)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatalf("worker dir not released, stat err = %v", err)
	}
}

func TestRecognizeFailureReleasesWorker(t *testing.T) {
	var seen string
	r := RunnerFunc(func(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
		seen = args[0]
		return nil, []byte("Error opening data file"), errors.New("exit status 1")
	})
	e := NewEngineWithRunner(Config{}, r, quietLogger())

	_, err := e.Recognize(context.Background(), testPNG(t, 50, 50))
	if err == nil || !strings.Contains(err.Error(), "Error opening data file") {
		t.Fatalf("expected tesseract error, got %v", err)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatalf("worker dir not released after failure")
	}
}

func TestNormalizeKeepsDigits(t *testing.T) {
	in := "Pay date 2024-03-01\t\tGross  01,500.00\n____\n"
	if got := Normalize(in); got != "Pay date 2024-03-01 Gross 01,500.00" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestHeuristicConfidence(t *testing.T) {
	payslip := "Employer: Acme Ltd\nPay period 01/03/2024\nGross pay £3,000.00\nTax 600.00\nPension 150.00\nNet pay 2,140.00"
	if hi, lo := heuristicConfidence(payslip), heuristicConfidence("hello"); hi <= lo {
		t.Fatalf("payslip text should score higher: %v <= %v", hi, lo)
	}
}

func TestMeanTSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tGross\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tPay\n" +
		"4\t1\t1\t1\t1\t0\t0\t0\t10\t10\t-1\t\n"
	if got := meanTSVConfidence(tsv); got < 0.79 || got > 0.81 {
		t.Fatalf("mean confidence = %v, want 0.8", got)
	}
}
