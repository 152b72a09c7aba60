// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package envtemplate_test

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/gunicorn-k8s-operator/internal/envtemplate"
)

type TemplateSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&TemplateSuite{})

func (s *TemplateSuite) TestVariables(c *gc.C) {
	vars, err := envtemplate.Variables(
		"DB_URI: {{pg.db_uri}}\nDB_RO: {{ pg.ro_uris }}\nINFLUX: {{ influxdb.hostname }}\n")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(vars.SortedValues(), gc.DeepEquals, []string{"influxdb", "pg"})
}

func (s *TemplateSuite) TestVariablesEmptyTemplate(c *gc.C) {
	vars, err := envtemplate.Variables("")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(vars.IsEmpty(), jc.IsTrue)
}

func (s *TemplateSuite) TestVariablesIgnoresPlainText(c *gc.C) {
	vars, err := envtemplate.Variables("STATIC: value\nCLOSER: a }} b\n")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(vars.IsEmpty(), jc.IsTrue)
}

func (s *TemplateSuite) TestParseUnterminatedExpression(c *gc.C) {
	_, err := envtemplate.Variables("A: ok\nB: {{ pg.db_uri \nC: done\n")
	c.Assert(err, jc.ErrorIs, envtemplate.ErrMalformedTemplate)

	var malformed *envtemplate.MalformedTemplateError
	c.Assert(errors.As(err, &malformed), jc.IsTrue)
	c.Check(malformed.Line, gc.Equals, 2)
	c.Check(malformed.Column, gc.Equals, 4)
	c.Check(malformed.Reason, gc.Equals, "unterminated expression")
}

func (s *TemplateSuite) TestParseEmptyExpression(c *gc.C) {
	_, err := envtemplate.Variables("A: {{ }}\n")
	c.Assert(err, gc.ErrorMatches, "malformed environment template: 1:4: empty expression")
}

func (s *TemplateSuite) TestParseExpressionWithoutField(c *gc.C) {
	_, err := envtemplate.Variables("A: {{ pg }}\n")
	c.Assert(err, jc.ErrorIs, envtemplate.ErrMalformedTemplate)
	c.Assert(err, gc.ErrorMatches,
		`malformed environment template: 1:4: expression "pg" does not select a relation field`)
}

func (s *TemplateSuite) TestParseInvalidExpression(c *gc.C) {
	for _, tmpl := range []string{
		"A: {{ pg.db-uri }}\n",
		"A: {{ pg.db uri }}\n",
		"A: {{ 0pg.db }}\n",
		"A: {{ pg..db }}\n",
		"A: {{ pg.db.uri }}\n",
	} {
		_, err := envtemplate.Variables(tmpl)
		c.Check(err, jc.ErrorIs, envtemplate.ErrMalformedTemplate, gc.Commentf("template %q", tmpl))
	}
}

func (s *TemplateSuite) TestParseReportsPositionOfLaterExpression(c *gc.C) {
	_, err := envtemplate.Variables("A: {{ pg.db_uri }}\nB: {{ bad! }}\n")
	var malformed *envtemplate.MalformedTemplateError
	c.Assert(errors.As(err, &malformed), jc.IsTrue)
	c.Check(malformed.Line, gc.Equals, 2)
	c.Check(malformed.Column, gc.Equals, 4)
}
