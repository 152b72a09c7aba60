// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/juju/lumberjack/v2"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/dependency"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/gunicorn-k8s-operator/version"
)

const (
	defaultDataDir       = "/var/lib/gunicornd"
	defaultCharmDir      = "/var/lib/gunicornd/charm"
	defaultPebbleSocket  = "/charm/containers/gunicorn/pebble.socket"
	defaultControlSocket = "/var/lib/gunicornd/control.socket"
)

type runCommand struct {
	cmd.CommandBase

	dataDir       string
	charmDir      string
	pebbleSocket  string
	controlSocket string
	logFile       string
}

func newRunCommand() cmd.Command {
	return &runCommand{}
}

// Info is part of the cmd.Command interface.
func (c *runCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "run",
		Purpose: "run the gunicorn operator agent",
		Doc: `
Run the agent loop: watch the data directory for config and relation
changes, render the environment template, and keep the workload's
pebble plan up to date. The introspection API is served on the control
socket.
`,
	}
}

// SetFlags is part of the cmd.Command interface.
func (c *runCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.dataDir, "data-dir", defaultDataDir, "directory holding the unit's config and relation data")
	f.StringVar(&c.charmDir, "charm-dir", defaultCharmDir, "directory holding the unpacked charm")
	f.StringVar(&c.pebbleSocket, "pebble-socket", defaultPebbleSocket, "pebble socket of the workload container")
	f.StringVar(&c.controlSocket, "control-socket", defaultControlSocket, "socket to serve the introspection API on")
	f.StringVar(&c.logFile, "log-file", "", "file to write agent logs to instead of stderr")
}

// Init is part of the cmd.Command interface.
func (c *runCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run is part of the cmd.Command interface.
func (c *runCommand) Run(ctx *cmd.Context) error {
	if c.logFile != "" {
		writer := loggo.NewSimpleWriter(&lumberjack.Logger{
			Filename:   c.logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 2,
			Compress:   true,
		}, loggo.DefaultFormatter)
		if _, err := loggo.ReplaceDefaultWriter(writer); err != nil {
			return errors.Trace(err)
		}
	}
	logger.Infof("gunicorn operator agent %s starting", version.Current)

	registry := prometheus.NewRegistry()
	engine, err := dependency.NewEngine(engineConfig())
	if err != nil {
		return errors.Trace(err)
	}
	err = dependency.Install(engine, manifolds(manifoldsConfig{
		DataDir:            c.dataDir,
		CharmDir:           c.charmDir,
		PebbleSocket:       c.pebbleSocket,
		ControlSocket:      c.controlSocket,
		Clock:              clock.WallClock,
		PrometheusRegistry: registry,
	}))
	if err != nil {
		if stopErr := worker.Stop(engine); stopErr != nil {
			logger.Errorf("while stopping engine with bad manifolds: %v", stopErr)
		}
		return errors.Trace(err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if sig, ok := <-sigCh; ok {
			logger.Infof("caught %v, stopping agent", sig)
			engine.Kill()
		}
	}()
	return errors.Trace(engine.Wait())
}

func engineConfig() dependency.EngineConfig {
	return dependency.EngineConfig{
		IsFatal:          func(error) bool { return false },
		WorstError:       func(err0, err1 error) error { return err0 },
		ErrorDelay:       3 * time.Second,
		BounceDelay:      10 * time.Millisecond,
		BackoffFactor:    1.2,
		BackoffResetTime: 1 * time.Minute,
		MaxDelay:         2 * time.Minute,
		Clock:            clock.WallClock,
		Metrics:          dependency.DefaultMetrics(),
		Logger:           loggo.GetLogger("gunicorn.worker.dependency"),
	}
}
