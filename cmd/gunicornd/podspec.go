// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"strings"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
	"github.com/canonical/gunicorn-k8s-operator/internal/envtemplate"
	"github.com/canonical/gunicorn-k8s-operator/internal/podspec"
	"github.com/canonical/gunicorn-k8s-operator/internal/relationdata"
	"github.com/canonical/gunicorn-k8s-operator/internal/workload"
)

type podSpecCommand struct {
	cmd.CommandBase
	stateFlags
}

func newPodSpecCommand() cmd.Command {
	return &podSpecCommand{}
}

// Info is part of the cmd.Command interface.
func (c *podSpecCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "pod-spec",
		Purpose: "print Kubernetes manifests for the workload",
		Doc: `
Generate the Deployment, Service and Ingress manifests the charm's
pod-spec versions used to hand to Juju, with the rendered environment
baked into the workload container. The manifests are printed as
multi-document YAML; nothing is applied to any cluster.
`,
	}
}

// SetFlags is part of the cmd.Command interface.
func (c *podSpecCommand) SetFlags(f *gnuflag.FlagSet) {
	c.stateFlags.addFlags(f)
}

// Init is part of the cmd.Command interface.
func (c *podSpecCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run is part of the cmd.Command interface.
func (c *podSpecCommand) Run(ctx *cmd.Context) error {
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
	appName := ch.Meta.ContainerName()

	manifests, err := podspec.Manifests(podspec.Params{
		AppName:          appName,
		Image:            attrs.GetString("image_path", ""),
		ImageUsername:    attrs.GetString("image_username", ""),
		ImagePassword:    attrs.GetString("image_password", ""),
		ExternalHostname: attrs.GetString("external_hostname", ""),
		Env:              workload.Env(appName, rendered),
	})
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprint(ctx.Stdout, string(manifests))
	return nil
}
