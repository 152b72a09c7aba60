// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package operator contains the worker that keeps the gunicorn
// workload in step with the unit's config and relation data. Every
// pass loads the state directory, renders the environment template,
// pushes the resulting pebble layer and publishes the unit's ingress
// requirements; the unit status reflects how far the pass got.
package operator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4/catacomb"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
	"github.com/canonical/gunicorn-k8s-operator/core/status"
	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
	"github.com/canonical/gunicorn-k8s-operator/internal/envtemplate"
	"github.com/canonical/gunicorn-k8s-operator/internal/relationdata"
	"github.com/canonical/gunicorn-k8s-operator/internal/statedir"
	"github.com/canonical/gunicorn-k8s-operator/internal/workload"
)

const defaultRetryDelay = 3 * time.Second

// Logger represents the logging methods called by the worker.
type Logger interface {
	Errorf(message string, args ...any)
	Warningf(message string, args ...any)
	Infof(message string, args ...any)
	Debugf(message string, args ...any)
}

// Watcher notifies of changes to the unit's inputs.
type Watcher interface {
	Changes() <-chan struct{}
}

// Supervisor manages the gunicorn service in the workload container.
type Supervisor interface {
	Ensure(layer *workload.Layer) error
	ServiceStatus() (status.StatusInfo, error)
}

// PublishIngressFunc publishes the databag the unit wants on the
// ingress relation.
type PublishIngressFunc func(settings relation.Settings) error

// Snapshot is the operator's view of the unit after its latest pass,
// served over the control socket.
type Snapshot struct {
	// Status is the workload status the pass settled on.
	Status status.StatusInfo

	// Environment is the last environment handed to the workload, nil
	// until a render has succeeded.
	Environment map[string]string

	// Variables lists the dotted relation.field names the template can
	// reference, sorted.
	Variables []string
}

// Reporter exposes the operator's snapshot to other workers.
type Reporter interface {
	Snapshot() Snapshot
}

// WorkerConfig holds the dependencies of an operator worker.
type WorkerConfig struct {
	// Charm is the charm definition being operated.
	Charm *charm.Charm

	// StateDir is the directory the unit's config and relation data
	// are read from.
	StateDir string

	// Watcher notifies of changes to StateDir.
	Watcher Watcher

	// Supervisor drives pebble in the workload container.
	Supervisor Supervisor

	// PublishIngress publishes the unit's ingress requirements.
	PublishIngress PublishIngressFunc

	// Metrics is updated as passes succeed and fail.
	Metrics *Collector

	// Clock times retries while pebble is still coming up.
	Clock clock.Clock

	Logger Logger

	// RetryDelay is how long to wait before retrying a pass that found
	// pebble unready. Zero selects a default.
	RetryDelay time.Duration
}

// Validate returns an error if the config cannot be used.
func (c WorkerConfig) Validate() error {
	if c.Charm == nil {
		return errors.NotValidf("nil Charm")
	}
	if c.StateDir == "" {
		return errors.NotValidf("empty StateDir")
	}
	if c.Watcher == nil {
		return errors.NotValidf("nil Watcher")
	}
	if c.Supervisor == nil {
		return errors.NotValidf("nil Supervisor")
	}
	if c.PublishIngress == nil {
		return errors.NotValidf("nil PublishIngress")
	}
	if c.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Worker drives the gunicorn workload.
type Worker struct {
	catacomb catacomb.Catacomb
	config   WorkerConfig

	mu       sync.Mutex
	snapshot Snapshot
}

// NewWorker starts an operator worker.
func NewWorker(config WorkerConfig) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaultRetryDelay
	}
	w := &Worker{
		config: config,
		snapshot: Snapshot{
			Status: status.StatusInfo{Status: status.Unknown},
		},
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
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

// Snapshot returns the operator's view of the unit after its latest
// pass. It never blocks on a pass in progress.
func (w *Worker) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// Report is shown in the dependency engine report.
func (w *Worker) Report() map[string]interface{} {
	snap := w.Snapshot()
	return map[string]interface{}{
		"status":  snap.Status.Status.String(),
		"message": snap.Status.Message,
	}
}

func (w *Worker) loop() error {
	var retry <-chan time.Time
	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case <-w.config.Watcher.Changes():
		case <-retry:
		}
		retry = nil
		again, err := w.reconcile()
		if err != nil {
			return errors.Trace(err)
		}
		if again {
			retry = w.config.Clock.After(w.config.RetryDelay)
		}
	}
}

// reconcile runs one pass. It only returns an error for conditions
// that should bounce the worker; anything an operator or a related
// application can fix is reported through the unit status instead.
// A true result asks for a timed retry: the inputs were fine but the
// workload container is not ready yet.
func (w *Worker) reconcile() (bool, error) {
	st, err := statedir.Load(w.config.StateDir)
	if err != nil {
		return false, errors.Trace(err)
	}
	appName := w.config.Charm.Meta.ContainerName()

	cfg, err := w.config.Charm.Config.Validate(st.Config)
	if err != nil {
		w.config.Metrics.renderFailed(failureReasonConfig)
		w.update(w.blocked(fmt.Sprintf("invalid charm config: %v", err)), nil, nil)
		return false, nil
	}
	attrs := cfg.Attributes()
	if missing := charm.MissingOptions(attrs); len(missing) > 0 {
		w.config.Metrics.renderFailed(failureReasonConfig)
		w.update(w.blocked(requiredOptionsMessage(missing)), nil, nil)
		return false, nil
	}

	ctx := relationdata.BuildContext(st.Relations, w.config.Logger)
	vars := relationdata.Variables(ctx)

	rendered, err := envtemplate.Render(attrs.GetString("environment", ""), ctx)
	if err != nil {
		w.config.Metrics.renderFailed(renderFailureReason(err))
		w.update(w.blocked(err.Error()), nil, vars)
		return false, nil
	}
	w.config.Metrics.renderSucceeded(w.config.Clock.Now())

	env := workload.Env(appName, rendered)
	if err := w.config.Supervisor.Ensure(workload.NewLayer(env)); err != nil {
		if errors.Is(err, workload.ErrPebbleNotReady) {
			w.config.Logger.Debugf("waiting for pebble to start: %v", err)
			w.update(w.status(status.Maintenance, "waiting for pebble to start"), env, vars)
			return true, nil
		}
		return false, errors.Trace(err)
	}

	ingress := relationdata.IngressSettings(appName, attrs.GetString("external_hostname", ""))
	if err := w.config.PublishIngress(ingress); err != nil {
		return false, errors.Trace(err)
	}

	info, err := w.config.Supervisor.ServiceStatus()
	if err != nil {
		return false, errors.Trace(err)
	}
	info.Since = w.statusSince()
	w.update(info, env, vars)
	return false, nil
}

func (w *Worker) blocked(message string) status.StatusInfo {
	return w.status(status.Blocked, message)
}

func (w *Worker) status(s status.Status, message string) status.StatusInfo {
	return status.StatusInfo{
		Status:  s,
		Message: message,
		Since:   w.statusSince(),
	}
}

func (w *Worker) statusSince() *time.Time {
	now := w.config.Clock.Now()
	return &now
}

// update publishes the pass outcome. Status transitions are logged;
// repeated passes settling on the same status stay quiet.
func (w *Worker) update(info status.StatusInfo, env map[string]string, vars []string) {
	w.config.Metrics.statusChanged(info.Status)

	w.mu.Lock()
	previous := w.snapshot
	w.snapshot = Snapshot{
		Status:      info,
		Environment: env,
		Variables:   vars,
	}
	if env == nil {
		// Keep the last good environment visible while blocked; the
		// workload is still running with it.
		w.snapshot.Environment = previous.Environment
	}
	w.mu.Unlock()

	if previous.Status.Status != info.Status || previous.Status.Message != info.Message {
		w.config.Logger.Infof("workload status: %s %s", info.Status, info.Message)
	}
}

func requiredOptionsMessage(missing []string) string {
	names := make([]string, len(missing))
	copy(names, missing)
	sort.Strings(names)
	return "Required Juju config item(s) not set : " + strings.Join(names, ", ")
}

func renderFailureReason(err error) string {
	switch {
	case errors.Is(err, envtemplate.ErrMissingRelation):
		return failureReasonMissingRelation
	case errors.Is(err, envtemplate.ErrInvalidKey):
		return failureReasonInvalidKey
	default:
		return failureReasonMalformedTemplate
	}
}
