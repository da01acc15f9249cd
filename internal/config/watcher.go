package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Watcher monitors the .env file for changes and applies the reloadable
// subset of settings (log level, poll interval) at runtime.
type Watcher struct {
	config      *Config
	envPath     string
	watcher     *fsnotify.Watcher
	stopChan    chan struct{}
	lastModTime time.Time
	mu          sync.RWMutex
	onReload    func(*Config)
}

// NewWatcher creates a watcher for the given config's .env file.
func NewWatcher(cfg *Config) (*Watcher, error) {
	envPath := EnvFilePath(cfg.DataPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:   cfg,
		envPath:  envPath,
		watcher:  watcher,
		stopChan: make(chan struct{}),
	}

	if stat, err := os.Stat(envPath); err == nil {
		w.lastModTime = stat.ModTime()
	}

	return w, nil
}

// SetReloadCallback sets the function invoked after settings are re-applied.
func (w *Watcher) SetReloadCallback(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// Start begins watching the .env file's directory.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.envPath)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.loop()
	log.Info().Str("path", w.envPath).Msg("Config watcher started")
	return nil
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	w.watcher.Close()
}

func (w *Watcher) loop() {
	// Editors replace files rather than writing in place, so debounce and
	// compare mod times instead of trusting individual event types.
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.envPath) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, w.maybeReload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Config watcher error")

		case <-w.stopChan:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

func (w *Watcher) maybeReload() {
	stat, err := os.Stat(w.envPath)
	if err != nil {
		return
	}

	w.mu.Lock()
	changed := stat.ModTime().After(w.lastModTime)
	if changed {
		w.lastModTime = stat.ModTime()
	}
	w.mu.Unlock()
	if !changed {
		return
	}

	if err := godotenv.Overload(w.envPath); err != nil {
		log.Warn().Err(err).Str("path", w.envPath).Msg("Failed to reload .env file")
		return
	}

	w.mu.Lock()
	w.config.applyEnv()
	cb := w.onReload
	cfg := w.config
	w.mu.Unlock()

	log.Info().Str("path", w.envPath).Msg("Applied updated .env settings")
	if cb != nil {
		cb(cfg)
	}
}
