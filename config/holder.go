package config

import (
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/attio/core/registry"
)

// settleDelay coalesces the burst of events an editor save produces.
const settleDelay = 50 * time.Millisecond

// Holder keeps the latest valid configuration for long running processes.
// A reload that fails validation leaves the previous configuration in place,
// so the client built from it keeps working.
type Holder struct {
	current atomic.Pointer[Config]
	path    string
	logger  zerolog.Logger

	// reloadMu orders reloads so listeners see configs in file order.
	reloadMu  sync.Mutex
	mu        sync.Mutex
	listeners []func(*Config)

	trigger  chan string
	start    sync.Once
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewHolder loads the configuration at path.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	h := &Holder{
		path:    abs,
		logger:  logger.With().Str("config", abs).Logger(),
		trigger: make(chan string, 1),
		done:    make(chan struct{}),
	}
	h.current.Store(cfg)
	return h, nil
}

// Get returns the current configuration.
func (h *Holder) Get() *Config { return h.current.Load() }

// Path returns the absolute path of the watched file.
func (h *Holder) Path() string { return h.path }

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Reload reads the file again. On error the old configuration is kept.
func (h *Holder) Reload() error {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping previous config")
		return fmt.Errorf("reload config: %w", err)
	}
	prev := h.current.Swap(next)

	changed := Diff(prev, next)
	for _, c := range changed {
		h.logger.Info().Str("setting", c).Msg("config changed")
	}

	h.mu.Lock()
	listeners := slices.Clone(h.listeners)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(next)
	}

	h.logger.Info().Int("changes", len(changed)).Msg("config reloaded")
	return nil
}

// WatchFile reloads whenever the file is written or replaced.
func (h *Holder) WatchFile() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Atomic saves replace the file, so the directory is watched instead.
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = w
	h.start.Do(func() { go h.reloader() })

	name := filepath.Base(h.path)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					h.poke("file " + ev.Op.String())
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.logger.Error().Err(err).Msg("config watcher error")
			case <-h.done:
				return
			}
		}
	}()
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	h.start.Do(func() { go h.reloader() })

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-sig:
				h.poke("SIGHUP")
			case <-h.done:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

// poke requests a reload without blocking; pending requests collapse.
func (h *Holder) poke(source string) {
	select {
	case h.trigger <- source:
	default:
	}
}

func (h *Holder) reloader() {
	for {
		select {
		case source := <-h.trigger:
			select {
			case <-time.After(settleDelay):
			case <-h.done:
				return
			}
			// Drain anything that arrived while settling.
			select {
			case <-h.trigger:
			default:
			}
			h.logger.Debug().Str("source", source).Msg("reloading config")
			_ = h.Reload()
		case <-h.done:
			return
		}
	}
}

// Diff names the settings that differ between two configurations. The API
// key is reported without its value.
func Diff(prev, next *Config) []string {
	var out []string
	add := func(name string, a, b any) {
		if a != b {
			out = append(out, fmt.Sprintf("%s: %v -> %v", name, a, b))
		}
	}

	if prev.API.Key != next.API.Key {
		out = append(out, "api.key: rotated")
	}
	add("api.base_url", prev.API.BaseURL, next.API.BaseURL)
	add("api.timeout", prev.API.Timeout, next.API.Timeout)
	add("api.retry_rate_limits", prev.API.Retries(), next.API.Retries())
	add("api.max_retries", prev.API.MaxRetries, next.API.MaxRetries)
	add("api.requests_per_second", prev.API.RequestsPerSecond, next.API.RequestsPerSecond)
	add("logging.level", prev.Logging.Level, next.Logging.Level)
	add("logging.format", prev.Logging.Format, next.Logging.Format)
	add("metrics.enabled", prev.Metrics.Enabled, next.Metrics.Enabled)

	for _, name := range unionKeys(prev.Schema.Objects, next.Schema.Objects) {
		po, inPrev := prev.Schema.Objects[name]
		no, inNext := next.Schema.Objects[name]
		if inPrev && inNext && po.Equal(no) {
			continue
		}
		a, b := "unset", "unset"
		if inPrev {
			a = po.String()
		}
		if inNext {
			b = no.String()
		}
		if a == b {
			b += " (fields edited)"
		}
		out = append(out, fmt.Sprintf("schema.objects.%s: %s -> %s", name, a, b))
	}
	for _, name := range unionKeys(prev.Schema.Lists, next.Schema.Lists) {
		pf, inPrev := prev.Schema.Lists[name]
		nf, inNext := next.Schema.Lists[name]
		if inPrev == inNext && registry.SameFields(pf, nf) {
			continue
		}
		out = append(out, fmt.Sprintf("schema.lists.%s: fields(%d) -> fields(%d)", name, len(pf), len(nf)))
	}
	return out
}

func unionKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}
