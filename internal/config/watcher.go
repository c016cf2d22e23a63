// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the configuration file when it changes on disk and
// notifies the registered callback with the new configuration.
type Watcher struct {
	path     string
	onReload func(*Config)

	watcher *fsnotify.Watcher
	stop    chan struct{}
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the given config path. onReload is invoked
// with each successfully parsed configuration; parse failures keep the
// previous configuration and are logged.
func NewWatcher(path string, onReload func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		onReload: onReload,
		stop:     make(chan struct{}),
	}
}

// Start begins watching the configuration file's directory.
// Watching the directory instead of the file survives editors that replace
// the file on save.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("config watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config watcher: failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.running = true

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce rapid successive writes from editors.
			time.Sleep(100 * time.Millisecond)
			cfg, err := Load(w.path)
			if err != nil {
				log.Warnf("Config reload failed, keeping previous configuration: %v", err)
				continue
			}
			log.Infof("Configuration reloaded from %s", w.path)
			if w.onReload != nil {
				w.onReload(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Config watcher error: %v", err)
		case <-w.stop:
			return
		}
	}
}

// Stop terminates the watcher goroutine and releases the inotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stop)
	_ = w.watcher.Close()
	w.running = false
}
