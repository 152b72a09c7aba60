// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package operator

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
	"github.com/canonical/gunicorn-k8s-operator/internal/statedir"
	"github.com/canonical/gunicorn-k8s-operator/internal/worker/common"
	"github.com/canonical/gunicorn-k8s-operator/internal/workload"
)

// ManifoldConfig holds the resources and values the operator manifold
// needs to run an operator worker.
type ManifoldConfig struct {
	StateDirWatcherName string

	CharmDir             string
	StateDir             string
	PebbleSocket         string
	Clock                clock.Clock
	Logger               Logger
	PrometheusRegisterer prometheus.Registerer
	NewMetricsCollector  func() *Collector
	NewWorker            func(WorkerConfig) (*Worker, error)
}

// Validate validates the manifold configuration.
func (config ManifoldConfig) Validate() error {
	if config.StateDirWatcherName == "" {
		return errors.NotValidf("empty StateDirWatcherName")
	}
	if config.CharmDir == "" {
		return errors.NotValidf("empty CharmDir")
	}
	if config.StateDir == "" {
		return errors.NotValidf("empty StateDir")
	}
	if config.PebbleSocket == "" {
		return errors.NotValidf("empty PebbleSocket")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.PrometheusRegisterer == nil {
		return errors.NotValidf("nil PrometheusRegisterer")
	}
	if config.NewMetricsCollector == nil {
		return errors.NotValidf("nil NewMetricsCollector")
	}
	if config.NewWorker == nil {
		return errors.NotValidf("nil NewWorker")
	}
	return nil
}

// Manifold returns a dependency manifold that runs the operator
// worker, using the resource names defined in the supplied config.
func Manifold(config ManifoldConfig) dependency.Manifold {
	return dependency.Manifold{
		Inputs: []string{
			config.StateDirWatcherName,
		},
		Output: operatorOutput,
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			if err := config.Validate(); err != nil {
				return nil, errors.Trace(err)
			}

			var watcher *statedir.Watcher
			if err := getter.Get(config.StateDirWatcherName, &watcher); err != nil {
				return nil, errors.Trace(err)
			}

			ch, err := charm.ReadCharmDir(config.CharmDir)
			if err != nil {
				return nil, errors.Trace(err)
			}
			supervisor, err := workload.NewSupervisor(workload.SupervisorConfig{
				Socket: config.PebbleSocket,
				Clock:  config.Clock,
				Logger: config.Logger,
			})
			if err != nil {
				return nil, errors.Trace(err)
			}

			metricsCollector := config.NewMetricsCollector()
			if err := config.PrometheusRegisterer.Register(metricsCollector); err != nil {
				return nil, errors.Trace(err)
			}

			w, err := config.NewWorker(WorkerConfig{
				Charm:      ch,
				StateDir:   config.StateDir,
				Watcher:    watcher,
				Supervisor: supervisor,
				PublishIngress: func(settings relation.Settings) error {
					return statedir.PublishIngress(config.StateDir, settings)
				},
				Metrics: metricsCollector,
				Clock:   config.Clock,
				Logger:  config.Logger,
			})
			if err != nil {
				config.PrometheusRegisterer.Unregister(metricsCollector)
				return nil, errors.Trace(err)
			}
			return common.NewCleanupWorker(w, func() {
				// Clean up the metrics for the worker, so the next time
				// a worker is created we can safely register the
				// metrics again.
				config.PrometheusRegisterer.Unregister(metricsCollector)
			}), nil
		},
	}
}

func operatorOutput(in worker.Worker, out interface{}) error {
	if w, ok := in.(*common.CleanupWorker); ok {
		in = w.Worker
	}
	w, ok := in.(*Worker)
	if !ok {
		return errors.Errorf("expected input of type *operator.Worker, got %T", in)
	}
	switch out := out.(type) {
	case *Reporter:
		*out = w
	default:
		return errors.Errorf("expected output of *operator.Reporter, got %T", out)
	}
	return nil
}
