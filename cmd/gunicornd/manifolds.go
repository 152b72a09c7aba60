// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/dependency"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/gunicorn-k8s-operator/internal/statedir"
	"github.com/canonical/gunicorn-k8s-operator/internal/worker/controlsocket"
	"github.com/canonical/gunicorn-k8s-operator/internal/worker/operator"
)

const (
	stateDirWatcherName = "statedir-watcher"
	operatorName        = "operator"
	controlSocketName   = "control-socket"
)

type manifoldsConfig struct {
	DataDir            string
	CharmDir           string
	PebbleSocket       string
	ControlSocket      string
	Clock              clock.Clock
	PrometheusRegistry *prometheus.Registry
}

// manifolds returns the manifolds the agent engine runs.
func manifolds(config manifoldsConfig) dependency.Manifolds {
	return dependency.Manifolds{
		stateDirWatcherName: statedir.Manifold(statedir.ManifoldConfig{
			Dir:    config.DataDir,
			Clock:  config.Clock,
			Logger: loggo.GetLogger("gunicorn.statedir"),
		}),

		operatorName: operator.Manifold(operator.ManifoldConfig{
			StateDirWatcherName:  stateDirWatcherName,
			CharmDir:             config.CharmDir,
			StateDir:             config.DataDir,
			PebbleSocket:         config.PebbleSocket,
			Clock:                config.Clock,
			Logger:               loggo.GetLogger("gunicorn.worker.operator"),
			PrometheusRegisterer: config.PrometheusRegistry,
			NewMetricsCollector:  operator.NewMetricsCollector,
			NewWorker:            operator.NewWorker,
		}),

		controlSocketName: controlsocket.Manifold(controlsocket.ManifoldConfig{
			OperatorName:       operatorName,
			SocketName:         config.ControlSocket,
			Logger:             loggo.GetLogger("gunicorn.worker.controlsocket"),
			PrometheusGatherer: config.PrometheusRegistry,
			NewWorker:          controlsocket.NewWorker,
		}),
	}
}
