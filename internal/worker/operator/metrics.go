// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package operator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/gunicorn-k8s-operator/core/status"
)

const metricsNamespace = "gunicorn_operator"

// Render failure reasons reported by the renders_failed_total metric.
const (
	failureReasonConfig            = "config"
	failureReasonMissingRelation   = "missing_relation"
	failureReasonMalformedTemplate = "malformed_template"
	failureReasonInvalidKey        = "invalid_key"
)

// Collector is a prometheus.Collector that collects metrics about the
// operator worker.
type Collector struct {
	renders        prometheus.Counter
	renderFailures *prometheus.CounterVec
	lastRender     prometheus.Gauge
	workloadStatus *prometheus.GaugeVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		renders: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "renders_total",
				Help:      "The number of successful environment template renders.",
			},
		),
		renderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "renders_failed_total",
				Help:      "The number of failed environment template renders.",
			}, []string{"reason"},
		),
		lastRender: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "last_render_timestamp_seconds",
				Help:      "Unix timestamp of the last successful render.",
			},
		),
		workloadStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "workload_status",
				Help:      "The workload status of the unit; the current status has value 1.",
			}, []string{"status"},
		),
	}
}

func (c *Collector) renderSucceeded(at time.Time) {
	c.renders.Inc()
	c.lastRender.Set(float64(at.Unix()))
}

func (c *Collector) renderFailed(reason string) {
	c.renderFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) statusChanged(current status.Status) {
	for _, s := range []status.Status{
		status.Active,
		status.Blocked,
		status.Maintenance,
		status.Waiting,
		status.Error,
		status.Unknown,
	} {
		value := 0.0
		if s == current {
			value = 1.0
		}
		c.workloadStatus.WithLabelValues(s.String()).Set(value)
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.renders.Describe(ch)
	c.renderFailures.Describe(ch)
	c.lastRender.Describe(ch)
	c.workloadStatus.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.renders.Collect(ch)
	c.renderFailures.Collect(ch)
	c.lastRender.Collect(ch)
	c.workloadStatus.Collect(ch)
}
