// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/gunicorn-k8s-operator/internal/workload"
)

type envSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&envSuite{})

func (s *envSuite) TestDefaults(c *gc.C) {
	env := workload.Env("gunicorn-k8s", nil)
	c.Assert(env, jc.DeepEquals, map[string]string{
		"APP_NAME": "gunicorn-k8s",
		"APP_WSGI": "app:app",
		"PORT":     "8080",
	})
}

func (s *envSuite) TestRenderedWins(c *gc.C) {
	env := workload.Env("gunicorn-k8s", map[string]string{
		"PORT":   "9999",
		"DB_URI": "postgres://x",
	})
	c.Assert(env, jc.DeepEquals, map[string]string{
		"APP_NAME": "gunicorn-k8s",
		"APP_WSGI": "app:app",
		"PORT":     "9999",
		"DB_URI":   "postgres://x",
	})
}

func (s *envSuite) TestPort(c *gc.C) {
	c.Assert(workload.Port(map[string]string{"PORT": "9999"}), gc.Equals, "9999")
	c.Assert(workload.Port(map[string]string{}), gc.Equals, "8080")
	c.Assert(workload.Port(nil), gc.Equals, "8080")
}
