package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslips-tracker/internal/storage"
)

type stubExtractor struct {
	out    pipeline.Outcome
	err    error
	gotID  uuid.UUID
	gotUID string
}

func (s *stubExtractor) Extract(_ context.Context, id uuid.UUID, userID string) (pipeline.Outcome, error) {
	s.gotID, s.gotUID = id, userID
	return s.out, s.err
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func doExtract(t *testing.T, ext Extractor, id, user string) (int, map[string]any) {
	t.Helper()
	app := New(Options{Extractor: ext, Logger: quietLogger()})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/"+id+"/extract", nil)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestExtractSuccess(t *testing.T) {
	id := uuid.New()
	ext := &stubExtractor{out: pipeline.Outcome{
		Success:          true,
		ResultID:         uuid.New(),
		ProcessingTimeMs: 42,
		Method:           constants.MethodTextLayer,
	}}
	status, body := doExtract(t, ext, id.String(), "user-1")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if ext.gotID != id || ext.gotUID != "user-1" {
		t.Fatalf("extractor got %s/%s", ext.gotID, ext.gotUID)
	}
	if body["success"] != true || body["method"] != "text_layer" || body["processing_time_ms"] != float64(42) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestExtractErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{common.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{common.ErrAlreadyRunning, http.StatusConflict, "ALREADY_RUNNING"},
		{llm.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{llm.ErrCreditsExhausted, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{llm.ErrUnauthorized, http.StatusInternalServerError, "INTERNAL"},
		{common.WrapError(common.ErrStorage, "secret bucket detail"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, body := doExtract(t, &stubExtractor{err: tc.err}, uuid.NewString(), "user-1")
		if status != tc.want || body["code"] != tc.code {
			t.Errorf("%v: status=%d code=%v, want %d %s", tc.err, status, body["code"], tc.want, tc.code)
		}
		if body["message"] != pipeline.MessageFailed || strings.Contains(body["message"].(string), "secret") {
			t.Errorf("%v: body leaks detail: %v", tc.err, body)
		}
	}
}

func TestExtractRejectsBadRequests(t *testing.T) {
	ext := &stubExtractor{}
	if status, _ := doExtract(t, ext, uuid.NewString(), ""); status != http.StatusUnauthorized {
		t.Fatalf("missing user: status = %d", status)
	}
	if status, _ := doExtract(t, ext, "not-a-uuid", "user-1"); status != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d", status)
	}
	if ext.gotID != uuid.Nil {
		t.Fatal("extractor must not be called for rejected requests")
	}
}

func TestLocalFileRoute(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "user-1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "user-1", "march 2024.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	signer, err := storage.NewLocalSigner(root, "http://example.test", "k")
	if err != nil {
		t.Fatal(err)
	}
	app := New(Options{Extractor: &stubExtractor{}, Files: signer, Logger: quietLogger()})

	// zero ttl yields an already-expired token
	signed, err := signer.SignedURL(context.Background(), "user-1/march 2024.pdf", 0)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(signed)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, u.RequestURI(), nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expired token status = %d", resp.StatusCode)
	}

	signed, _ = signer.SignedURL(context.Background(), "user-1/march 2024.pdf", time.Minute)
	u, _ = url.Parse(signed)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, u.RequestURI(), nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(b) != "%PDF-1.4" {
		t.Fatalf("status = %d body = %q", resp.StatusCode, b)
	}
}

func TestHealth(t *testing.T) {
	app := New(Options{Extractor: &stubExtractor{}, Logger: quietLogger(), Ping: func(context.Context) error { return errors.New("down") }})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
