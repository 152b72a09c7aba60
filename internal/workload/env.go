// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package workload runs the gunicorn service inside the workload
// container. The environment and pebble layer are derived from the
// rendered template; the supervisor pushes the layer over the pebble
// socket and replans.
package workload

import (
	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
)

// Env returns the container environment for the workload: the rendered
// template variables merged over the built-in defaults, so a template
// can override PORT or APP_WSGI but never has to supply them.
func Env(appName string, rendered map[string]string) map[string]string {
	env := charm.DefaultEnvironment(appName)
	for name, value := range rendered {
		env[name] = value
	}
	return env
}

// Port returns the port the workload listens on under env.
func Port(env map[string]string) string {
	if port := env["PORT"]; port != "" {
		return port
	}
	return charm.DefaultPort
}
