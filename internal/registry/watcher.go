package registry

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// CatalogWatcher reloads the registry from a catalog file whenever the
// file changes on disk. Reloads swap the catalog atomically under the
// registry's write lock; selection calls in flight see either the old
// or the new catalog.
type CatalogWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	registry *Registry
	path     string
	debounce time.Duration
	lastLoad time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	logger   *zap.Logger
}

// NewCatalogWatcher creates a watcher for the given catalog file. The
// file does not have to exist yet; a later create event triggers the
// first reload.
func NewCatalogWatcher(reg *Registry, path string, logger *zap.Logger) (*CatalogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogWatcher{
		watcher:  w,
		registry: reg,
		path:     path,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger,
	}, nil
}

// Start begins watching the catalog file's directory. Non-blocking.
func (cw *CatalogWatcher) Start() error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	// Watch the directory rather than the file: editors replace files
	// on save, which drops file-level watches.
	if err := cw.watcher.Add(filepath.Dir(cw.path)); err != nil {
		return err
	}

	go cw.loop()
	cw.logger.Info("catalog watcher started", zap.String("path", cw.path))
	return nil
}

// Stop halts the watcher and waits for its loop to exit.
func (cw *CatalogWatcher) Stop() {
	cw.mu.Lock()
	if !cw.running {
		cw.mu.Unlock()
		return
	}
	cw.running = false
	close(cw.stopCh)
	cw.mu.Unlock()

	<-cw.doneCh
	_ = cw.watcher.Close()
}

func (cw *CatalogWatcher) loop() {
	defer close(cw.doneCh)
	for {
		select {
		case <-cw.stopCh:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cw.mu.Lock()
			debounced := time.Since(cw.lastLoad) < cw.debounce
			if !debounced {
				cw.lastLoad = time.Now()
			}
			cw.mu.Unlock()
			if debounced {
				continue
			}
			if err := cw.registry.LoadFile(cw.path); err != nil {
				// Keep serving the previous catalog on a bad reload.
				cw.logger.Warn("catalog reload failed, keeping previous catalog",
					zap.String("path", cw.path), zap.Error(err))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}
