// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"gopkg.in/yaml.v2"

	"github.com/canonical/gunicorn-k8s-operator/core/config"
	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
	"github.com/canonical/gunicorn-k8s-operator/internal/envtemplate"
	"github.com/canonical/gunicorn-k8s-operator/internal/relationdata"
	"github.com/canonical/gunicorn-k8s-operator/internal/statedir"
	"github.com/canonical/gunicorn-k8s-operator/internal/workload"
)

// stateFlags is embedded by the one-shot commands that read the same
// inputs as the agent loop.
type stateFlags struct {
	dataDir  string
	charmDir string
}

func (f *stateFlags) addFlags(fs *gnuflag.FlagSet) {
	fs.StringVar(&f.dataDir, "data-dir", defaultDataDir, "directory holding the unit's config and relation data")
	fs.StringVar(&f.charmDir, "charm-dir", defaultCharmDir, "directory holding the unpacked charm")
}

// load reads the charm and the state directory, and coerces the charm
// config. Missing required options are an error here: the one-shot
// commands fail loudly where the agent loop would go Blocked.
func (f *stateFlags) load() (*charm.Charm, *statedir.State, config.ConfigAttributes, error) {
	ch, err := charm.ReadCharmDir(f.charmDir)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	st, err := statedir.Load(f.dataDir)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	cfg, err := ch.Config.Validate(st.Config)
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	return ch, st, cfg.Attributes(), nil
}

type renderCommand struct {
	cmd.CommandBase
	stateFlags
}

func newRenderCommand() cmd.Command {
	return &renderCommand{}
}

// Info is part of the cmd.Command interface.
func (c *renderCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "render",
		Purpose: "render the environment template once and print the result",
		Doc: `
Render the unit's environment template against the current relation
data and print the merged container environment as YAML. Exits
non-zero if the template cannot be rendered, with the same diagnosis
the agent would report as the unit status.
`,
	}
}

// SetFlags is part of the cmd.Command interface.
func (c *renderCommand) SetFlags(f *gnuflag.FlagSet) {
	c.stateFlags.addFlags(f)
}

// Init is part of the cmd.Command interface.
func (c *renderCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run is part of the cmd.Command interface.
func (c *renderCommand) Run(ctx *cmd.Context) error {
	ch, st, attrs, err := c.load()
	if err != nil {
		return errors.Trace(err)
	}
	if missing := charm.MissingOptions(attrs); len(missing) > 0 {
		return errors.Errorf("required config not set: %s", strings.Join(missing, ", "))
	}
	rctx := relationdata.BuildContext(st.Relations, logger)
	rendered, err := envtemplate.Render(attrs.GetString("environment", ""), rctx)
	if err != nil {
		return errors.Trace(err)
	}
	env := workload.Env(ch.Meta.ContainerName(), rendered)

	data, err := yaml.Marshal(env)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprint(ctx.Stdout, string(data))
	return nil
}
