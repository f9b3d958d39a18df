package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docketvoice/internal/domain"
)

const (
	processedSuffix = ".processed"
	defaultSettle   = 300 * time.Millisecond
)

var audioExts = map[string]bool{".wav": true, ".mp3": true, ".m4a": true, ".webm": true}

func acceptedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return audioExts[ext] || ext == ".txt"
}

// FileSource watches a directory for dropped recordings and .txt answers.
// A file is picked up once it has not changed for the settle interval and
// is renamed with a .processed suffix after reading.
type FileSource struct {
	dir    string
	settle time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	paths   chan string
	seen    map[string]bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:    dir,
		settle: defaultSettle,
		logger: logger,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher != nil {
		return nil
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", f.dir, err)
	}

	f.watcher = watcher
	f.paths = make(chan string, 64)
	f.seen = make(map[string]bool)
	f.done = make(chan struct{})

	existing, err := f.scan()
	if err != nil {
		watcher.Close()
		f.watcher = nil
		return err
	}

	f.wg.Add(1)
	go f.watch(existing)

	f.logger.Info("watching directory for input", "dir", f.dir)
	return nil
}

func (f *FileSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher == nil {
		return nil
	}
	close(f.done)
	err := f.watcher.Close()
	f.wg.Wait()
	f.watcher = nil
	if err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}
	return nil
}

// NextCommand returns io.EOF after Stop.
func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	paths := f.paths
	f.mu.Unlock()

	if paths == nil {
		return nil, fmt.Errorf("file source not started")
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case path, ok := <-paths:
			if !ok {
				return nil, io.EOF
			}
			data, err := f.consume(path)
			if err != nil {
				f.logger.Warn("skipping input file", "path", path, "error", err)
				continue
			}
			if data != nil {
				return data, nil
			}
		}
	}
}

func (f *FileSource) scan() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !acceptedFile(entry.Name()) {
			continue
		}
		out = append(out, filepath.Join(f.dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// watch debounces create and write events per path before queueing.
func (f *FileSource) watch(existing []string) {
	defer f.wg.Done()
	defer close(f.paths)

	for _, p := range existing {
		if !f.enqueue(p) {
			return
		}
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(f.settle / 3)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !acceptedFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				pending[event.Name] = time.Now()
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				delete(pending, event.Name)
				delete(f.seen, event.Name)
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("watcher error", "error", err)

		case now := <-ticker.C:
			var ready []string
			for p, t := range pending {
				if now.Sub(t) >= f.settle {
					ready = append(ready, p)
				}
			}
			sort.Strings(ready)
			for _, p := range ready {
				delete(pending, p)
				if !f.enqueue(p) {
					return
				}
			}
		}
	}
}

func (f *FileSource) enqueue(path string) bool {
	if f.seen[path] {
		return true
	}
	f.seen[path] = true
	select {
	case f.paths <- path:
		return true
	case <-f.done:
		return false
	}
}

// consume reads a file and marks it processed. Empty text files yield nil.
func (f *FileSource) consume(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if err := os.Rename(path, path+processedSuffix); err != nil {
		f.logger.Warn("marking file processed", "path", path, "error", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		f.logger.Info("received text file", "path", filepath.Base(path))
		return domain.TextCommand(text), nil
	}

	if len(data) == 0 {
		return nil, nil
	}
	f.logger.Info("received audio file", "path", filepath.Base(path), "bytes", len(data))
	return data, nil
}
