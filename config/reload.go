package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ReloaderConfig configures the file-watch hot-reload hook.
type ReloaderConfig struct {
	WatchFiles       []string
	DebounceInterval time.Duration
}

// Reloader watches configuration files and triggers ConfigManager.Reload
// when they change, debounced, so applications can rebind configuration
// without a restart.
type Reloader struct {
	cfg     ReloaderConfig
	manager *ConfigManager
	name    string
	logger  *logrus.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReloader creates a Reloader bound to the named configuration in
// manager. Call Start to begin watching; call Stop to tear down.
func NewReloader(cfg ReloaderConfig, manager *ConfigManager, name string, logger *logrus.Logger) (*Reloader, error) {
	if logger == nil {
		logger = logrus.New()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, f := range cfg.WatchFiles {
		if err := watcher.Add(f); err != nil {
			logger.WithFields(logrus.Fields{"file": f}).WithError(err).Warn("could not watch configuration file")
		}
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reloader{cfg: cfg, manager: manager, name: name, logger: logger, watcher: watcher, ctx: ctx, cancel: cancel}, nil
}

// Start begins the debounced watch loop in the background.
func (r *Reloader) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop ends the watch loop and releases the underlying file watcher.
func (r *Reloader) Stop() {
	r.cancel()
	r.wg.Wait()
	_ = r.watcher.Close()
}

func (r *Reloader) loop() {
	defer r.wg.Done()

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-r.ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(r.cfg.DebounceInterval)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			if _, err := r.manager.Reload(r.name); err != nil {
				r.logger.WithFields(logrus.Fields{"config": r.name}).WithError(err).Error("configuration reload failed")
			} else {
				r.logger.WithFields(logrus.Fields{"config": r.name}).Info("configuration reloaded")
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.WithError(err).Warn("configuration watcher error")
		}
	}
}
