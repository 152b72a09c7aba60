// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package statedir

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"
)

const defaultDebounce = 100 * time.Millisecond

// Logger represents the logging methods called by the watcher.
type Logger interface {
	Warningf(message string, args ...any)
	Debugf(message string, args ...any)
}

// WatcherConfig holds the dependencies of a state directory watcher.
type WatcherConfig struct {
	// Dir is the state directory to watch. It must exist.
	Dir string

	// Clock times the quiet period after a burst of file events.
	Clock clock.Clock

	// Debounce is how long the directory must stay quiet before a
	// notification goes out. Zero selects a default suited to agents
	// that rewrite several files in one pass.
	Debounce time.Duration

	Logger Logger
}

// Validate returns an error if the config cannot be used.
func (c WatcherConfig) Validate() error {
	if c.Dir == "" {
		return errors.NotValidf("empty Dir")
	}
	if c.Clock == nil {
		return errors.NotValidf("missing Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("missing Logger")
	}
	return nil
}

// Watcher notifies of changes to the state directory. Bursts of file
// events coalesce into a single notification once the directory has
// been quiet for the debounce interval, so a consumer reloads a
// settled state rather than a half-written one.
type Watcher struct {
	catacomb catacomb.Catacomb
	config   WatcherConfig
	changes  chan struct{}
}

// NewWatcher starts watching the state directory. The relations
// subdirectory need not exist yet; it is picked up when created.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Debounce <= 0 {
		config.Debounce = defaultDebounce
	}
	w := &Watcher{
		config:  config,
		changes: make(chan struct{}, 1),
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Watcher) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Watcher) Wait() error {
	return w.catacomb.Wait()
}

// Changes returns the notification channel. It carries an initial
// notification for the state present at startup, then one per settled
// batch of changes. Notifications not yet consumed coalesce, so a slow
// consumer sees one notification covering everything it missed.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) loop() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.config.Dir); err != nil {
		return errors.Annotatef(err, "watching %q", w.config.Dir)
	}
	relations := RelationsDir(w.config.Dir)
	if err := watcher.Add(relations); err != nil {
		// Creation of the subdirectory arrives as an event on the
		// parent, and it is added to the watch then.
		w.config.Logger.Debugf("not watching %q yet: %v", relations, err)
	}

	w.notify()

	var quiet <-chan time.Time
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("file event channel closed")
			}
			if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			w.config.Logger.Debugf("state directory event: %s", event)
			if event.Name == relations && event.Has(fsnotify.Create) {
				if err := watcher.Add(relations); err != nil {
					return errors.Annotatef(err, "watching %q", relations)
				}
			}
			quiet = w.config.Clock.After(w.config.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file error channel closed")
			}
			return errors.Trace(err)

		case <-quiet:
			quiet = nil
			w.notify()
		}
	}
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
