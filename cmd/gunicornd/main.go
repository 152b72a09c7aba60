// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// gunicornd is the operator agent for the gunicorn-k8s charm. It runs
// in the charm container next to the workload container, watches the
// unit's config and relation data, and keeps the gunicorn service
// configured through pebble.
package main

import (
	"fmt"
	"os"

	"github.com/juju/cmd/v3"
	"github.com/juju/loggo/v2"

	"github.com/canonical/gunicorn-k8s-operator/version"
)

var logger = loggo.GetLogger("gunicorn.cmd")

var doc = `
gunicornd manages a gunicorn workload on Kubernetes. The agent renders
the unit's environment template against its joined relations and keeps
the workload container's pebble plan in step with the result.
`

func newGunicorndCommand() cmd.Command {
	gunicornd := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "gunicornd",
		Doc:     doc,
		Purpose: "manage a gunicorn workload",
		Version: version.Current.String(),
		Log:     &cmd.Log{},
	})
	gunicornd.Register(newRunCommand())
	gunicornd.Register(newRenderCommand())
	gunicornd.Register(newEnvContextCommand())
	gunicornd.Register(newPodSpecCommand())
	gunicornd.Register(newStatusCommand())
	return gunicornd
}

// Main is exposed for testing.
func Main(args []string) int {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	return cmd.Main(newGunicorndCommand(), ctx, args[1:])
}

func main() {
	os.Exit(Main(os.Args))
}
