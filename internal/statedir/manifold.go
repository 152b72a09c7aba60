// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package statedir

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
)

// ManifoldConfig holds the dependencies of the statedir watcher
// manifold.
type ManifoldConfig struct {
	Dir      string
	Clock    clock.Clock
	Debounce time.Duration
	Logger   Logger
}

// Validate validates the manifold configuration.
func (config ManifoldConfig) Validate() error {
	if config.Dir == "" {
		return errors.NotValidf("empty Dir")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Manifold returns a dependency manifold that runs a statedir watcher
// and offers it to other manifolds as a *Watcher.
func Manifold(config ManifoldConfig) dependency.Manifold {
	return dependency.Manifold{
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			if err := config.Validate(); err != nil {
				return nil, errors.Trace(err)
			}
			w, err := NewWatcher(WatcherConfig{
				Dir:      config.Dir,
				Clock:    config.Clock,
				Debounce: config.Debounce,
				Logger:   config.Logger,
			})
			if err != nil {
				return nil, errors.Trace(err)
			}
			return w, nil
		},
		Output: watcherOutput,
	}
}

func watcherOutput(in worker.Worker, out interface{}) error {
	w, ok := in.(*Watcher)
	if !ok {
		return errors.Errorf("expected input of type *statedir.Watcher, got %T", in)
	}
	switch out := out.(type) {
	case **Watcher:
		*out = w
	default:
		return errors.Errorf("expected output of **statedir.Watcher, got %T", out)
	}
	return nil
}
