package targets

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch loads the seed file once and reloads it each time it changes. It
// runs until ctx is cancelled. A failed reload is logged and the previously
// stored targets stay in place.
// The parent directory is watched so saves that rename a temp file over the
// seed file are seen too.
func (s *Service) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create targets watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch targets directory for %s: %w", path, err)
	}

	if _, err := s.LoadFile(ctx, target); err != nil {
		s.logger.Error("initial targets load failed", zap.String("path", target), zap.Error(err))
	}

	s.logger.Info("watching targets file", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if _, err := s.LoadFile(ctx, target); err != nil {
				s.logger.Error("targets reload failed", zap.String("path", target), zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("targets watcher error", zap.Error(err))
		}
	}
}
