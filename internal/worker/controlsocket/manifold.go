// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package controlsocket

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/gunicorn-k8s-operator/internal/worker/operator"
)

// ManifoldConfig holds the resources needed to run the controlsocket
// worker in a dependency engine.
type ManifoldConfig struct {
	OperatorName string

	SocketName         string
	Logger             Logger
	PrometheusGatherer prometheus.Gatherer
	NewWorker          func(Config) (worker.Worker, error)
}

// Validate validates the manifold configuration.
func (config ManifoldConfig) Validate() error {
	if config.OperatorName == "" {
		return errors.NotValidf("empty OperatorName")
	}
	if config.SocketName == "" {
		return errors.NotValidf("empty SocketName")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.PrometheusGatherer == nil {
		return errors.NotValidf("nil PrometheusGatherer")
	}
	if config.NewWorker == nil {
		return errors.NotValidf("nil NewWorker")
	}
	return nil
}

// Manifold returns a dependency manifold that runs the controlsocket
// worker.
func Manifold(config ManifoldConfig) dependency.Manifold {
	return dependency.Manifold{
		Inputs: []string{
			config.OperatorName,
		},
		Start: func(ctx context.Context, getter dependency.Getter) (worker.Worker, error) {
			if err := config.Validate(); err != nil {
				return nil, errors.Trace(err)
			}
			var reporter operator.Reporter
			if err := getter.Get(config.OperatorName, &reporter); err != nil {
				return nil, errors.Trace(err)
			}
			w, err := config.NewWorker(Config{
				Reporter:           reporter,
				Logger:             config.Logger,
				SocketName:         config.SocketName,
				PrometheusGatherer: config.PrometheusGatherer,
				NewSocketListener:  NewSocketListener,
			})
			if err != nil {
				return nil, errors.Trace(err)
			}
			return w, nil
		},
	}
}
