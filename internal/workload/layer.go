// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload

import (
	"fmt"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
)

const (
	// ServiceName is the pebble service the workload runs under.
	ServiceName = "gunicorn"

	// CheckName is the pebble check probing workload readiness.
	CheckName = "gunicorn-ready"

	// LayerLabel labels the layer pushed over the pebble socket.
	LayerLabel = "gunicorn"
)

// Values pebble's layer format accepts for the fields the operator
// writes. Pebble does not export its plan types, so the layer is
// expressed here and crosses the API as serialized layer data.
const (
	ReplaceOverride = "replace"
	StartupEnabled  = "enabled"
	ReadyLevel      = "ready"
)

// Layer is the subset of pebble's layer format the operator writes.
// Service and check names are the map keys, as on the wire.
type Layer struct {
	Summary  string              `yaml:"summary,omitempty"`
	Services map[string]*Service `yaml:"services,omitempty"`
	Checks   map[string]*Check   `yaml:"checks,omitempty"`
}

// Service is a service entry in a Layer.
type Service struct {
	Summary     string            `yaml:"summary,omitempty"`
	Override    string            `yaml:"override,omitempty"`
	Command     string            `yaml:"command,omitempty"`
	Startup     string            `yaml:"startup,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Check is a health check entry in a Layer.
type Check struct {
	Override string     `yaml:"override,omitempty"`
	Level    string     `yaml:"level,omitempty"`
	HTTP     *HTTPCheck `yaml:"http,omitempty"`
}

// HTTPCheck is the http probe of a Check.
type HTTPCheck struct {
	URL string `yaml:"url,omitempty"`
}

// NewLayer builds the pebble layer that runs gunicorn with the given
// environment. The readiness check probes the port the service
// actually listens on.
func NewLayer(env map[string]string) *Layer {
	return &Layer{
		Summary: "gunicorn layer",
		Services: map[string]*Service{
			ServiceName: {
				Summary:     "gunicorn service",
				Override:    ReplaceOverride,
				Command:     charm.StartCommand,
				Startup:     StartupEnabled,
				Environment: env,
			},
		},
		Checks: map[string]*Check{
			CheckName: {
				Override: ReplaceOverride,
				Level:    ReadyLevel,
				HTTP: &HTTPCheck{
					URL: fmt.Sprintf("http://localhost:%s/", Port(env)),
				},
			},
		},
	}
}

// LayerData serializes a layer for the pebble API.
func LayerData(layer *Layer) ([]byte, error) {
	data, err := yaml.Marshal(layer)
	if err != nil {
		return nil, errors.Annotate(err, "marshalling pebble layer")
	}
	return data, nil
}
