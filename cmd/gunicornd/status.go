// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
)

type statusCommand struct {
	cmd.CommandBase

	socket string
	out    cmd.Output
}

func newStatusCommand() cmd.Command {
	return &statusCommand{}
}

// Info is part of the cmd.Command interface.
func (c *statusCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "status",
		Purpose: "report the workload status of a running agent",
		Doc: `
Query the agent's control socket for the unit's workload status.
`,
	}
}

// SetFlags is part of the cmd.Command interface.
func (c *statusCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.socket, "control-socket", defaultControlSocket, "control socket of the running agent")
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters.Formatters())
}

// Init is part of the cmd.Command interface.
func (c *statusCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run is part of the cmd.Command interface.
func (c *statusCommand) Run(ctx *cmd.Context) error {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return net.Dial("unix", c.socket)
			},
		},
	}
	resp, err := client.Get("http://localhost/v1/status")
	if err != nil {
		return errors.Annotate(err, "querying agent")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("agent returned %s", resp.Status)
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return errors.Annotate(err, "decoding agent response")
	}
	return c.out.Write(ctx, status)
}
