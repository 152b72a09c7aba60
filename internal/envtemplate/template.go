// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package envtemplate renders the environment charm config option into
// a flat mapping of environment variables for the workload.
//
// A template is plain text, usually a YAML document, containing
// expressions of the form {{ relation.field }}. Rendering substitutes
// each expression with the named field of the named relation's data and
// parses the result as a mapping of environment variable names to
// values. The expression language is deliberately tiny: a two-level
// lookup with no filters, conditionals or inclusion, so that rendering
// is pure and the set of relations a template depends on can be
// computed without rendering it.
package envtemplate

import (
	"strconv"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Context holds the data a template is rendered against: relation name
// to that relation's settings, flattened to strings.
type Context map[string]map[string]string

type expression struct {
	relation string
	field    string
	line     int
	column   int
}

type segment struct {
	text string
	expr *expression
}

// Template is a parsed environment template, ready to render.
type Template struct {
	segments  []segment
	relations set.Strings
}

// Parse parses an environment template. It returns an error satisfying
// ErrMalformedTemplate if the template contains an unterminated or
// invalid expression.
func Parse(text string) (*Template, error) {
	t := &Template{relations: set.NewStrings()}
	line, column := 1, 1

	rest := text
	for len(rest) > 0 {
		open := strings.Index(rest, "{{")
		if open < 0 {
			t.segments = append(t.segments, segment{text: rest})
			break
		}
		if open > 0 {
			t.segments = append(t.segments, segment{text: rest[:open]})
			line, column = advance(rest[:open], line, column)
		}
		exprLine, exprColumn := line, column

		rest = rest[open+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return nil, errors.Trace(&MalformedTemplateError{
				Line:   exprLine,
				Column: exprColumn,
				Reason: "unterminated expression",
			})
		}
		expr, err := parseExpression(rest[:end], exprLine, exprColumn)
		if err != nil {
			return nil, errors.Trace(err)
		}
		t.segments = append(t.segments, segment{expr: expr})
		t.relations.Add(expr.relation)

		line, column = advance("{{"+rest[:end]+"}}", line, column)
		rest = rest[end+2:]
	}
	return t, nil
}

// Relations returns the names of every relation the template references.
func (t *Template) Relations() set.Strings {
	out := set.NewStrings()
	for _, name := range t.relations.Values() {
		out.Add(name)
	}
	return out
}

// Missing returns, in sorted order, the referenced relations that are
// absent from ctx or present without any data. A joined relation whose
// databag is still empty cannot satisfy a template, so it counts as
// missing.
func (t *Template) Missing(ctx Context) []string {
	missing := set.NewStrings()
	for _, name := range t.relations.Values() {
		if len(ctx[name]) == 0 {
			missing.Add(name)
		}
	}
	return missing.SortedValues()
}

// expand substitutes every expression from ctx. A field missing from a
// present relation expands to the empty string; lookups never fail.
func (t *Template) expand(ctx Context) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.expr == nil {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(ctx[seg.expr.relation][seg.expr.field])
	}
	return b.String()
}

func parseExpression(raw string, line, column int) (*expression, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, &MalformedTemplateError{
			Line:   line,
			Column: column,
			Reason: "empty expression",
		}
	}
	relation, field, ok := strings.Cut(body, ".")
	if !ok {
		return nil, &MalformedTemplateError{
			Line:   line,
			Column: column,
			Reason: "expression " + strconv.Quote(body) + " does not select a relation field",
		}
	}
	if !isIdentifier(relation) || !isIdentifier(field) {
		return nil, &MalformedTemplateError{
			Line:   line,
			Column: column,
			Reason: "invalid expression " + strconv.Quote(body),
		}
	}
	return &expression{
		relation: relation,
		field:    field,
		line:     line,
		column:   column,
	}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// advance walks text updating a 1-based line and column position.
func advance(text string, line, column int) (int, int) {
	for _, r := range text {
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
