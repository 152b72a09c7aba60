// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationdata_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
	"github.com/canonical/gunicorn-k8s-operator/internal/relationdata"
)

type ingressSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&ingressSuite{})

func (s *ingressSuite) TestSettings(c *gc.C) {
	settings := relationdata.IngressSettings("gunicorn-k8s", "app.example.com")
	c.Assert(settings, jc.DeepEquals, relation.Settings{
		"service-hostname": "app.example.com",
		"service-name":     "gunicorn-k8s",
		"service-port":     "80",
	})
}
