package yamlfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
)

// debounce absorbs the burst of events an editor emits for one save.
var debounce = 250 * time.Millisecond

// Watch calls reload whenever the file at path is written, created or renamed into place, until ctx is done.
// The parent directory is watched so atomic replacements are seen too. Reload errors are logged; the
// watch goes on.
func Watch(ctx context.Context, path string, reload func(context.Context) error, logger core.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolving catalog path")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(abs))
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn(fmt.Sprintf("watching catalog: %v", err), err)
		case <-timer.C:
			if err := reload(ctx); err != nil {
				logger.Error(fmt.Sprintf("reloading catalog: %v", err), err)
				continue
			}
			logger.Info(fmt.Sprintf("catalog reloaded from %s", abs))
		}
	}
}
