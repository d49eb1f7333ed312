package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
)

// ChangeHandler is a callback invoked when the configuration file changes.
// It receives the freshly reloaded and validated Config and should return an
// error if it cannot apply the change.
type ChangeHandler func(cfg *Config) error

// Watcher watches the configuration file and notifies subscribers with the
// reloaded Config. A change that fails to unmarshal or validate is logged and
// dropped; subscribers are only ever handed a valid configuration.
type Watcher struct {
	viper    *viper.Viper
	handlers map[string]ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher over a viper instance that has already read a
// configuration file, such as the one returned by Load.
func NewWatcher(v *viper.Viper) *Watcher {
	return &Watcher{
		viper:    v,
		handlers: make(map[string]ChangeHandler),
	}
}

// Subscribe registers a change handler under the given identifier.
// A handler with the same ID replaces the previous one.
func (w *Watcher) Subscribe(id string, handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[id] = handler
	logger.Infof("Config watcher: subscribed handler '%s'", id)
}

// Unsubscribe removes a change handler by its identifier.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.handlers[id]; exists {
		delete(w.handlers, id)
		logger.Infof("Config watcher: unsubscribed handler '%s'", id)
	}
}

// Start begins watching the configuration file. On each change the file is
// re-unmarshalled over defaults and validated before handlers run; a handler
// error is logged and does not stop the remaining handlers. Calling Start
// more than once has no additional effect.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = true
	w.mu.Unlock()

	w.viper.WatchConfig()
	w.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Infof("Config file changed: %s", e.Name)
		w.notify()
	})

	logger.Info("Config watcher: started watching for configuration changes")
}

// notify reloads the configuration and fans it out to subscribers.
func (w *Watcher) notify() {
	cfg := New()
	if err := w.viper.Unmarshal(cfg); err != nil {
		logger.Errorf("Config watcher: failed to unmarshal changed config: %v", err)
		return
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		logger.Errorf("Config watcher: changed config is invalid, keeping previous: %v", errs)
		return
	}

	w.mu.RLock()
	handlers := make(map[string]ChangeHandler, len(w.handlers))
	for id, handler := range w.handlers {
		handlers[id] = handler
	}
	w.mu.RUnlock()

	for id, handler := range handlers {
		if err := handler(cfg); err != nil {
			logger.Errorf("Config watcher: handler '%s' failed: %v", id, err)
		} else {
			logger.Infof("Config watcher: handler '%s' processed change successfully", id)
		}
	}
}

// Stop marks the watcher as stopped. viper offers no way to cancel the
// underlying fsnotify watch, so this only disables the watching flag.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watching {
		return
	}
	w.watching = false
	logger.Info("Config watcher: stopped")
}

// IsWatching returns whether the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// HandlerCount returns the number of registered handlers.
func (w *Watcher) HandlerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.handlers)
}
