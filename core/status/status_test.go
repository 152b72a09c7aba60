// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package status_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/gunicorn-k8s-operator/core/status"
)

type StatusSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&StatusSuite{})

func (s *StatusSuite) TestValidWorkloadStatus(c *gc.C) {
	for _, t := range []struct {
		status status.Status
		valid  bool
	}{
		{status.Blocked, true},
		{status.Maintenance, true},
		{status.Waiting, true},
		{status.Active, true},
		{status.Unknown, true},
		{status.Terminated, true},
		{status.Error, false},
		{status.Status("running"), false},
		{status.Status(""), false},
	} {
		c.Check(status.ValidWorkloadStatus(t.status), gc.Equals, t.valid,
			gc.Commentf("status %q", t.status))
	}
}

func (s *StatusSuite) TestKnownWorkloadStatusIncludesError(c *gc.C) {
	c.Assert(status.Error.KnownWorkloadStatus(), jc.IsTrue)
	c.Assert(status.Active.KnownWorkloadStatus(), jc.IsTrue)
	c.Assert(status.Status("bogus").KnownWorkloadStatus(), jc.IsFalse)
}

func (s *StatusSuite) TestMatches(c *gc.C) {
	c.Assert(status.Blocked.Matches(status.Blocked), jc.IsTrue)
	c.Assert(status.Blocked.Matches(status.Active), jc.IsFalse)
}

func (s *StatusSuite) TestString(c *gc.C) {
	c.Assert(status.Maintenance.String(), gc.Equals, "maintenance")
}
