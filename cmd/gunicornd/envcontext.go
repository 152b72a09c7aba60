// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/gunicorn-k8s-operator/internal/relationdata"
)

type envContextCommand struct {
	cmd.CommandBase
	stateFlags
	out cmd.Output
}

func newEnvContextCommand() cmd.Command {
	return &envContextCommand{}
}

// Info is part of the cmd.Command interface.
func (c *envContextCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "environment-context",
		Purpose: "list the variables available to the environment template",
		Doc: `
List every relation.field name the environment template can reference
given the currently joined relations, such as pg.db_uri or
influxdb.hostname.
`,
	}
}

// SetFlags is part of the cmd.Command interface.
func (c *envContextCommand) SetFlags(f *gnuflag.FlagSet) {
	c.stateFlags.addFlags(f)
	c.out.AddFlags(f, "smart", cmd.DefaultFormatters.Formatters())
}

// Init is part of the cmd.Command interface.
func (c *envContextCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run is part of the cmd.Command interface.
func (c *envContextCommand) Run(ctx *cmd.Context) error {
	_, st, _, err := c.load()
	if err != nil {
		return errors.Trace(err)
	}
	rctx := relationdata.BuildContext(st.Relations, logger)
	return c.out.Write(ctx, relationdata.Variables(rctx))
}
