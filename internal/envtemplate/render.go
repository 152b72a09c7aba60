// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package envtemplate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// validKey is what a process environment will accept as a variable name.
var validKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Variables reports the names of every relation referenced by the
// template, without rendering it. It returns an error satisfying
// ErrMalformedTemplate if the template cannot be parsed.
func Variables(text string) (set.Strings, error) {
	t, err := Parse(text)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return t.Relations(), nil
}

// Render renders the template against ctx and returns the resulting
// environment mapping. Rendering is pure: the same template and context
// always produce the same mapping.
//
// The empty template renders to an empty mapping. Otherwise the
// template must parse, every referenced relation must be present in ctx
// with data, and the substituted text must parse as a YAML mapping of
// valid environment variable names to scalar values. Failures return an
// error satisfying ErrMalformedTemplate, ErrMissingRelation or
// ErrInvalidKey.
func Render(text string, ctx Context) (map[string]string, error) {
	if text == "" {
		return map[string]string{}, nil
	}
	t, err := Parse(text)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if missing := t.Missing(ctx); len(missing) > 0 {
		return nil, errors.Trace(&MissingRelationsError{Relations: missing})
	}

	var doc interface{}
	if err := yaml.Unmarshal([]byte(t.expand(ctx)), &doc); err != nil {
		return nil, errors.Trace(&MalformedTemplateError{
			Reason: fmt.Sprintf("cannot parse rendered environment as YAML: %v", err),
		})
	}
	mapping, ok := doc.(map[interface{}]interface{})
	if !ok {
		return nil, errors.Trace(&MalformedTemplateError{
			Reason: fmt.Sprintf("rendered environment is not a mapping of environment variables, got %T", doc),
		})
	}

	// Walk the keys in sorted order so that the first failure reported
	// is stable across renders.
	type entry struct {
		key   string
		value interface{}
	}
	entries := make([]entry, 0, len(mapping))
	for k, v := range mapping {
		key, ok := scalarString(k)
		if !ok {
			key = fmt.Sprint(k)
		}
		entries = append(entries, entry{key: key, value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	env := make(map[string]string, len(entries))
	for _, e := range entries {
		if !validKey.MatchString(e.key) {
			return nil, errors.Trace(&InvalidKeyError{Key: e.key})
		}
		value, ok := scalarString(e.value)
		if !ok {
			return nil, errors.Trace(&MalformedTemplateError{
				Reason: fmt.Sprintf("value for %q is not a scalar, got %T", e.key, e.value),
			})
		}
		env[e.key] = value
	}
	return env, nil
}

// scalarString coerces a decoded YAML scalar to its string form. A YAML
// null coerces to the empty string.
func scalarString(v interface{}) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	default:
		return "", false
	}
}
