package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"

	"github.com/fsnotify/fsnotify"
)

// -----------------------------------------------------------------------------

// Watcher re-reads the config file when it changes and hands the viewer
// section to OnChange when that section differs from the last one seen.
// Only the viewer section is hot; everything else needs a restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *logger.Logger
	onChange func(models.MViewerConfig)

	last   models.MViewerConfig
	loaded bool

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// -----------------------------------------------------------------------------

// NewWatcher watches the directory holding path so atomic renames by
// editors are seen as well as in-place writes.
func NewWatcher(path string, log *logger.Logger, onChange func(models.MViewerConfig)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to resolve config path '%s': %w", path, err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", filepath.Dir(abs), err)
	}

	if log == nil {
		log = logger.NewLogger(nil, "ConfigWatcher")
	}

	cw := &Watcher{
		path:     abs,
		watcher:  w,
		logger:   log,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	if cfg, err := NewConfig(abs); err == nil {
		cw.last, cw.loaded = cfg.Viewer, true
	}

	cw.wg.Add(1)
	go cw.processEvents()

	return cw, nil
}

// -----------------------------------------------------------------------------

func (cw *Watcher) processEvents() {
	defer cw.wg.Done()
	for {
		select {
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cw.reload()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warning("Config watcher error: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

func (cw *Watcher) reload() {
	cfg, err := NewConfig(cw.path)
	if err != nil {
		// Partial writes land here too; the next event retries.
		cw.logger.Warning("Ignoring config change: %v", err)
		return
	}
	if cw.loaded && cfg.Viewer == cw.last {
		cw.logger.Debug("Config changed outside the viewer section, nothing to apply")
		return
	}
	cw.last, cw.loaded = cfg.Viewer, true

	cw.logger.Info("Config reloaded: mode=%s gain=%d", cfg.Viewer.DefaultMode, cfg.Viewer.DefaultGain)
	if cw.onChange != nil {
		cw.onChange(cfg.Viewer)
	}
}

// -----------------------------------------------------------------------------

// Close stops the watcher. Safe to call more than once.
func (cw *Watcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
		cw.wg.Wait()
	})
	return err
}
