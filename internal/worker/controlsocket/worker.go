// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package controlsocket serves the agent's introspection API on a unix
// socket: the unit status, the last rendered environment, the template
// variables the joined relations make available, and the prometheus
// metrics. The socket is only reachable from inside the charm
// container, so there is no authentication.
package controlsocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canonical/gunicorn-k8s-operator/internal/socketlistener"
	"github.com/canonical/gunicorn-k8s-operator/internal/worker/operator"
)

// Logger represents the logging methods called by the worker.
type Logger interface {
	Errorf(message string, args ...any)
	Warningf(message string, args ...any)
	Debugf(message string, args ...any)
}

// SocketListener describes a worker that listens on a unix socket.
type SocketListener interface {
	worker.Worker
}

// NewSocketListener is the default implementation of the
// NewSocketListener config field.
func NewSocketListener(config socketlistener.Config) (SocketListener, error) {
	return socketlistener.NewSocketListener(config)
}

// Config represents configuration for the controlsocket worker.
type Config struct {
	// Reporter supplies the operator's latest snapshot.
	Reporter operator.Reporter

	Logger Logger

	// SocketName is the socket file path.
	SocketName string

	// PrometheusGatherer backs the /metrics endpoint.
	PrometheusGatherer prometheus.Gatherer

	// NewSocketListener is the function that creates the underlying
	// socket listener worker.
	NewSocketListener func(socketlistener.Config) (SocketListener, error)
}

// Validate returns an error if config cannot drive the worker.
func (config Config) Validate() error {
	if config.Reporter == nil {
		return errors.NotValidf("nil Reporter")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.SocketName == "" {
		return errors.NotValidf("empty SocketName")
	}
	if config.PrometheusGatherer == nil {
		return errors.NotValidf("nil PrometheusGatherer")
	}
	if config.NewSocketListener == nil {
		return errors.NotValidf("nil NewSocketListener")
	}
	return nil
}

// NewWorker returns a controlsocket worker with the given config.
func NewWorker(config Config) (worker.Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	h := &handler{
		reporter: config.Reporter,
		logger:   config.Logger,
	}
	sl, err := config.NewSocketListener(socketlistener.Config{
		Logger:     config.Logger,
		SocketName: config.SocketName,
		RegisterHandlers: func(r *mux.Router) {
			r.HandleFunc("/v1/status", h.status).Methods(http.MethodGet)
			r.HandleFunc("/v1/environment", h.environment).Methods(http.MethodGet)
			r.HandleFunc("/v1/environment-context", h.environmentContext).Methods(http.MethodGet)
			r.Handle("/metrics", promhttp.HandlerFor(
				config.PrometheusGatherer, promhttp.HandlerOpts{},
			)).Methods(http.MethodGet)
		},
		ShutdownTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Annotate(err, "control socket listener")
	}
	return sl, nil
}

type handler struct {
	reporter operator.Reporter
	logger   Logger
}

// statusResponse is the body of GET /v1/status.
type statusResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
}

func (h *handler) status(w http.ResponseWriter, req *http.Request) {
	snap := h.reporter.Snapshot()
	h.writeJSON(w, statusResponse{
		Status:  snap.Status.Status.String(),
		Message: snap.Status.Message,
		Since:   snap.Status.Since,
	})
}

// environmentResponse is the body of GET /v1/environment.
type environmentResponse struct {
	Environment map[string]string `json:"environment"`
}

func (h *handler) environment(w http.ResponseWriter, req *http.Request) {
	snap := h.reporter.Snapshot()
	h.writeJSON(w, environmentResponse{Environment: snap.Environment})
}

// environmentContextResponse is the body of GET /v1/environment-context.
// AvailableVariables lists the relation.field names a template can
// reference, the same answer the charm's show-environment-context
// action used to give.
type environmentContextResponse struct {
	AvailableVariables []string `json:"available-variables"`
}

func (h *handler) environmentContext(w http.ResponseWriter, req *http.Request) {
	snap := h.reporter.Snapshot()
	vars := snap.Variables
	if vars == nil {
		vars = []string{}
	}
	h.writeJSON(w, environmentContextResponse{AvailableVariables: vars})
}

func (h *handler) writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Errorf("writing control socket response: %v", err)
	}
}
