package chartpolicy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Store holds the current chart defaults policy and hot-reloads it when
// the file named by BI_CHART_POLICY changes. Readers always see a full
// snapshot; a half-written file never replaces a good one.
type Store struct {
	path   string
	cur    atomic.Value // *ChartPolicy
	logger *slog.Logger
}

// NewStore starts with an empty policy; call Load before serving.
func NewStore(path string, logger *slog.Logger) *Store {
	s := &Store{path: path, logger: logger}
	s.cur.Store(&ChartPolicy{})
	return s
}

// Load parses the policy file (YAML, or JSON by extension) and swaps it
// in atomically.
func (s *Store) Load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}
	var p ChartPolicy
	if strings.HasSuffix(strings.ToLower(s.path), ".json") {
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	}
	if p.SuggestTop == 0 {
		p.SuggestTop = 6
	}
	p.Normalize()
	s.cur.Store(&p)
	s.logger.Info("chart policy loaded", "path", s.path, "rules", len(p.Rules))
	return nil
}

// Watch blocks until ctx is done, reloading on file changes. Editors
// replace the file on save, so the watch is re-armed after renames.
func (s *Store) Watch(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Error("watcher", "err", err)
		return
	}
	defer w.Close()
	_ = w.Add(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.Events:
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				time.Sleep(200 * time.Millisecond)
				if ev.Has(fsnotify.Rename) {
					_ = w.Add(s.path)
				}
				if err := s.Load(); err != nil {
					s.logger.Error("reload failed", "err", err)
				}
			}
		case err := <-w.Errors:
			s.logger.Error("watch error", "err", err)
		}
	}
}

// Get returns the current policy snapshot.
func (s *Store) Get() *ChartPolicy {
	return s.cur.Load().(*ChartPolicy)
}
