// Package remoteconfig publishes configuration values read from a YAML file
// through a behavior relay, reloading when the file changes.
package remoteconfig

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
	"github.com/sdkcommon/sdkcommon-go/relay"
)

// Store holds the latest successfully loaded Values
type Store struct {
	path   string
	values *relay.BehaviorRelay[Values]
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger for reload events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDefaults seeds the relay before the first load
func WithDefaults(defaults Values) Option {
	return func(s *Store) {
		s.values = relay.NewBehaviorRelay(defaults)
	}
}

// New creates a store for path and performs the initial load. A failed
// initial load is returned together with a usable store holding the defaults.
func New(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:   path,
		values: relay.NewBehaviorRelay(Values{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, s.Reload()
}

// Path returns the watched file
func (s *Store) Path() string {
	return s.path
}

// Values returns the relay carrying the current configuration
func (s *Store) Values() *relay.BehaviorRelay[Values] {
	return s.values
}

// Current returns the current configuration
func (s *Store) Current() Values {
	return s.values.Value()
}

// Reload reads the file and publishes it. On failure the previous values stay.
func (s *Store) Reload() error {
	v, err := Load(s.path)
	if err != nil {
		s.logger.Warn("config reload failed", "path", s.path, "error", err)
		return err
	}
	s.values.Set(v)
	s.logger.Debug("config reloaded", "path", s.path, "keys", len(v))
	return nil
}

// Watch reloads whenever the file is written, created or renamed into place.
// The directory is watched so editors that replace the file are handled.
// Watch returns once the watcher is running; it stops when ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(s.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					_ = s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", "path", s.path, "error", err)
			}
		}
	}()
	return nil
}

// Assembly registers a singleton *Store for path. When watch is true the
// store follows file changes until the container drops it.
func Assembly(path string, watch bool, opts ...Option) sdkcommon.Assembly {
	return sdkcommon.AssemblyFunc(func(c *sdkcommon.Container) error {
		return sdkcommon.Register(c, func(ctx *sdkcommon.ResolveCtx) (*Store, error) {
			s, err := New(path, opts...)
			if err != nil {
				return nil, err
			}
			if !watch {
				return s, nil
			}

			watchCtx, cancel := context.WithCancel(context.Background())
			if err := s.Watch(watchCtx); err != nil {
				cancel()
				return nil, err
			}
			ctx.OnCleanup(func() error {
				cancel()
				return nil
			})
			return s, nil
		}, sdkcommon.As(sdkcommon.Singleton))
	})
}
