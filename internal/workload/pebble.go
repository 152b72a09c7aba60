// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload

import (
	"time"

	"github.com/canonical/pebble/client"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/canonical/gunicorn-k8s-operator/core/status"
)

// ErrPebbleNotReady reports that the pebble daemon in the workload
// container cannot be reached. The container is probably still coming
// up; the caller should report Maintenance and try again later.
const ErrPebbleNotReady = errors.ConstError("pebble is not ready")

const (
	pingAttempts = 10
	pingDelay    = 50 * time.Millisecond

	// changeTimeout bounds the wait for a replan change. Pebble's
	// default service startup check takes up to a second per service,
	// so this is generous.
	changeTimeout = 30 * time.Second
)

// Logger represents the logging methods called by the supervisor.
type Logger interface {
	Infof(message string, args ...any)
	Debugf(message string, args ...any)
}

// Client is the part of the pebble API the supervisor uses.
type Client interface {
	SysInfo() (*client.SysInfo, error)
	AddLayer(opts *client.AddLayerOptions) error
	Replan(opts *client.ServiceOptions) (string, error)
	WaitChange(changeID string, opts *client.WaitChangeOptions) (*client.Change, error)
	Services(opts *client.ServicesOptions) ([]*client.ServiceInfo, error)
}

// SupervisorConfig holds the dependencies of a Supervisor.
type SupervisorConfig struct {
	// Socket is the path of the pebble unix socket shared with the
	// workload container.
	Socket string

	// Clock times reconnection attempts.
	Clock clock.Clock

	Logger Logger

	// NewClient is exposed for tests; nil means the real pebble client.
	NewClient func(config *client.Config) (Client, error)
}

// Validate returns an error if the config cannot be used.
func (c SupervisorConfig) Validate() error {
	if c.Socket == "" {
		return errors.NotValidf("empty Socket")
	}
	if c.Clock == nil {
		return errors.NotValidf("missing Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("missing Logger")
	}
	return nil
}

// Supervisor applies workload layers to the pebble daemon in the
// container and reports the resulting service state.
type Supervisor struct {
	config SupervisorConfig
}

// NewSupervisor returns a Supervisor talking to the configured socket.
func NewSupervisor(config SupervisorConfig) (*Supervisor, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.NewClient == nil {
		config.NewClient = func(cfg *client.Config) (Client, error) {
			return client.New(cfg)
		}
	}
	return &Supervisor{config: config}, nil
}

// Ensure pushes the layer and replans so the gunicorn service runs
// with the layer's configuration. Failure to reach pebble at all
// returns an error satisfying ErrPebbleNotReady.
func (s *Supervisor) Ensure(layer *Layer) error {
	pc, err := s.connect()
	if err != nil {
		return errors.Trace(err)
	}

	data, err := LayerData(layer)
	if err != nil {
		return errors.Trace(err)
	}
	if err := pc.AddLayer(&client.AddLayerOptions{
		Combine:   true,
		Label:     LayerLabel,
		LayerData: data,
	}); err != nil {
		return errors.Annotatef(err, "adding pebble layer %q", LayerLabel)
	}

	changeID, err := pc.Replan(&client.ServiceOptions{})
	if err != nil {
		return errors.Annotate(err, "replanning pebble services")
	}
	change, err := pc.WaitChange(changeID, &client.WaitChangeOptions{
		Timeout: changeTimeout,
	})
	if err != nil {
		return errors.Annotatef(err, "waiting for pebble change %s", changeID)
	}
	if change.Err != "" {
		return errors.Errorf("pebble change %s failed: %s", change.ID, change.Err)
	}
	s.config.Logger.Infof("pebble replan change %s complete", change.ID)
	return nil
}

// ServiceStatus reports the workload service as pebble sees it.
func (s *Supervisor) ServiceStatus() (status.StatusInfo, error) {
	pc, err := s.connect()
	if err != nil {
		return status.StatusInfo{}, errors.Trace(err)
	}
	services, err := pc.Services(&client.ServicesOptions{
		Names: []string{ServiceName},
	})
	if err != nil {
		return status.StatusInfo{}, errors.Annotate(err, "querying pebble services")
	}
	if len(services) == 0 {
		return status.StatusInfo{
			Status:  status.Waiting,
			Message: "gunicorn service not yet in the pebble plan",
		}, nil
	}
	return serviceStatusInfo(services[0]), nil
}

func serviceStatusInfo(info *client.ServiceInfo) status.StatusInfo {
	switch info.Current {
	case client.StatusActive:
		return status.StatusInfo{Status: status.Active}
	case client.StatusBackoff, client.StatusError:
		return status.StatusInfo{
			Status:  status.Error,
			Message: "gunicorn service " + string(info.Current),
		}
	case client.StatusInactive:
		return status.StatusInfo{
			Status:  status.Waiting,
			Message: "gunicorn service inactive",
		}
	default:
		return status.StatusInfo{
			Status:  status.Unknown,
			Message: "gunicorn service state " + string(info.Current),
		}
	}
}

// connect builds a client and pings until the daemon answers, so a
// container still starting up yields ErrPebbleNotReady rather than a
// string of one-shot dial failures.
func (s *Supervisor) connect() (Client, error) {
	pc, err := s.config.NewClient(&client.Config{Socket: s.config.Socket})
	if err != nil {
		return nil, errors.Trace(err)
	}
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			_, err := pc.SysInfo()
			return err
		},
		NotifyFunc: func(lastError error, attempt int) {
			s.config.Logger.Debugf("cannot reach pebble (attempt %d): %v", attempt, lastError)
		},
		Attempts: pingAttempts,
		Delay:    pingDelay,
		Clock:    s.config.Clock,
	})
	if err != nil {
		return nil, errors.WithType(retry.LastError(err), ErrPebbleNotReady)
	}
	return pc, nil
}
