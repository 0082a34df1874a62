package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Root     string        // directory to watch (recursive)
	Debounce time.Duration // coalesce rapid create/write bursts per file
}

// Watch registers files created under cfg.Root until ctx is done, calling onRegistered for each
// new document. Existing files are not scanned; use RegisterDirectory for that.
func (r *Registrar) Watch(ctx context.Context, cfg WatchConfig, onRegistered func(Result)) error {
	if cfg.Root == "" {
		return errors.New("ingest: watch root is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := addTree(w, cfg.Root); err != nil {
		return err
	}
	r.logger.Info("ingest.watch.started", "root", cfg.Root)

	var (
		mu     sync.Mutex
		timers = map[string]*time.Timer{}
		wg     sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for p, t := range timers {
			if t.Stop() {
				wg.Done()
			}
			delete(timers, p)
		}
		mu.Unlock()
		wg.Wait()
	}()

	emit := func(path string) {
		defer wg.Done()
		mu.Lock()
		delete(timers, path)
		mu.Unlock()

		res, err := r.RegisterPath(ctx, path)
		if err != nil {
			r.logger.Warn("ingest.watch.register_failed", "path", path, "error", err)
			return
		}
		if !res.Deduplicated && onRegistered != nil {
			onRegistered(res)
		}
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("ingest.watch.stopped", "root", cfg.Root)
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
					if err := addTree(w, e.Name); err != nil {
						r.logger.Warn("ingest.watch.add_dir_failed", "path", e.Name, "error", err)
					}
					continue
				}
			}
			if IsHidden(e.Name) || !AllowedExt(filepath.Ext(e.Name)) || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			mu.Lock()
			if t, ok := timers[e.Name]; ok && t.Stop() {
				t.Reset(cfg.Debounce)
			} else {
				name := e.Name
				wg.Add(1)
				timers[name] = time.AfterFunc(cfg.Debounce, func() { emit(name) })
			}
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("ingest.watch.error", "error", err)
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
