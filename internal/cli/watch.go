package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the model file whenever it changes and re-renders, until ctx
// is done. The parent directory is watched so editors that replace the file
// on save are still picked up.
func (r *Runner) Watch(ctx context.Context, s *Session) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cli: create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(r.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("cli: resolve model path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("cli: watch %s: %w", filepath.Dir(target), err)
	}
	r.logger.Info("watching model", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !r.relevant(event, target) {
				continue
			}
			if err := r.reload(s, target); err != nil {
				r.logger.Warn("model reload failed", zap.String("path", target), zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (r *Runner) relevant(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (r *Runner) reload(s *Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cli: read model: %w", err)
	}
	if err := s.Reload(data, path); err != nil {
		return err
	}
	return r.emit(s)
}
