package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

type memDocs struct {
	mu     sync.Mutex
	byPath map[string]*entity.Document
}

func newMemDocs() *memDocs { return &memDocs{byPath: map[string]*entity.Document{}} }

func (m *memDocs) Create(_ context.Context, doc *entity.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = uuid.New()
	m.byPath[doc.StoragePath] = doc
	return nil
}

func (m *memDocs) GetByStoragePath(_ context.Context, p string) (*entity.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byPath[p]; ok {
		return d, nil
	}
	return nil, common.ErrNotFound
}

func (m *memDocs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPath)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRegisterDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "user-1", "march.pdf"))
	writeFile(t, filepath.Join(root, "user-1", "2024", "april.JPG"))
	writeFile(t, filepath.Join(root, "user-2", "notes.txt"))
	writeFile(t, filepath.Join(root, "user-2", ".hidden", "may.pdf"))
	writeFile(t, filepath.Join(root, "loose.pdf"))

	docs := newMemDocs()
	r, err := NewRegistrar(root, docs, quiet())
	if err != nil {
		t.Fatal(err)
	}

	_, stats, err := r.RegisterDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("RegisterDirectory: %v", err)
	}
	if stats.Matched != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	d, _ := docs.GetByStoragePath(context.Background(), "user-1/2024/april.JPG")
	if d == nil || d.UserID != "user-1" || d.FileName != "april.JPG" {
		t.Fatalf("unexpected document %+v", d)
	}

	_, stats, err = r.RegisterDirectory(context.Background(), filepath.Join(root, "user-1"), true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Deduplicated != 2 || docs.count() != 2 {
		t.Fatalf("second pass should deduplicate: %+v, %d docs", stats, docs.count())
	}
}

func TestRegisterPathRejectsOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "u", "a.pdf"))

	r, _ := NewRegistrar(root, newMemDocs(), quiet())
	if _, err := r.RegisterPath(context.Background(), filepath.Join(other, "u", "a.pdf")); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := r.RegisterPath(context.Background(), filepath.Join(root, "u", "a.docx")); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("unsupported extension err = %v", err)
	}
}

func TestRegisterPathAllowsDotPrefixedUser(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "..alice", "march.pdf")
	writeFile(t, path)

	r, _ := NewRegistrar(root, newMemDocs(), quiet())
	res, err := r.RegisterPath(context.Background(), path)
	if err != nil {
		t.Fatalf("RegisterPath: %v", err)
	}
	if res.UserID != "..alice" || res.StoragePath != "..alice/march.pdf" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestWatchRegistersNewFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "user-1"), 0o755); err != nil {
		t.Fatal(err)
	}
	r, _ := NewRegistrar(root, newMemDocs(), quiet())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Result, 4)
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, WatchConfig{Root: root, Debounce: 50 * time.Millisecond}, func(res Result) { got <- res })
	}()

	// give the watcher time to register the tree
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(root, "user-1", "june.png"))

	select {
	case res := <-got:
		if res.StoragePath != "user-1/june.png" || res.UserID != "user-1" {
			t.Fatalf("unexpected result %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for registration")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}
