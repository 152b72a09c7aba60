// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package relationdata normalizes raw relation data into the flat
// string settings the environment template is rendered against.
//
// Most relations pass through untouched: the databag of one unit,
// chosen deterministically, becomes the template context entry for the
// relation name. Database relations carry structured connection
// information, so they get adapters that derive the connection URIs
// the original interfaces promise (pg.db_uri, mongodb.uri) from the
// raw settings.
package relationdata

import (
	"sort"

	"github.com/juju/errors"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
	"github.com/canonical/gunicorn-k8s-operator/internal/envtemplate"
)

// Logger represents the logging methods called.
type Logger interface {
	Errorf(message string, args ...any)
	Warningf(message string, args ...any)
	Debugf(message string, args ...any)
}

// adapter derives the template settings for one named relation.
type adapter struct {
	// contextKey is the name templates use for the relation's settings.
	contextKey string
	// settings flattens the relation instance. A nil, nil return means
	// the relation has no usable data yet.
	settings func(relation.Data) (relation.Settings, error)
}

// adapters maps relation names to their adapters. Anything not listed
// falls back to the raw databag of the relation's primary unit.
var adapters = map[string]adapter{
	"pg":             {contextKey: "pg", settings: pgSettings},
	"mongodb-client": {contextKey: "mongodb", settings: mongodbSettings},
}

// BuildContext builds the template context from every joined relation.
// When several instances of a named relation are joined only the one
// with the lowest relation id is read, and only the databag of its
// first unit in natural sort order; both narrowings are logged.
//
// Adapter settings go in under the adapter's context key, while the
// raw unit databag always goes in under the relation name. For pg the
// two are the same name, so the raw databag overlays the derived
// settings and templates can reach both pg.db_uri and raw fields such
// as pg.master. An adapter failure only costs the derived entry, so a
// misbehaving remote application cannot wedge rendering entirely.
func BuildContext(relations map[string]relation.List, logger Logger) envtemplate.Context {
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx := make(envtemplate.Context)
	for _, name := range names {
		list := relations[name]
		data, ok := list.Primary()
		if !ok {
			continue
		}
		if len(list) > 1 {
			logger.Warningf("multiple %q relations found, using the first one (id %d) for relation data", name, data.Id)
		}

		if a, found := adapters[name]; found {
			derived, err := a.settings(data)
			if err != nil {
				logger.Warningf("cannot derive %q settings from relation %q (id %d): %v", a.contextKey, name, data.Id, err)
			} else if len(derived) > 0 {
				ctx[a.contextKey] = derived
			}
		}

		raw := rawSettings(name, data, logger)
		if len(raw) == 0 {
			continue
		}
		if existing, ok := ctx[name]; ok {
			for k, v := range raw {
				existing[k] = v
			}
		} else {
			ctx[name] = raw
		}
	}
	return ctx
}

// rawSettings returns the databag of the relation's primary unit,
// copied so later mutation of the context cannot touch loaded state.
func rawSettings(name string, data relation.Data, logger Logger) relation.Settings {
	unit, settings, ok := data.PrimaryUnit()
	if !ok {
		return nil
	}
	if len(data.Units) > 1 {
		logger.Warningf("multiple units in relation %q (id %d), using settings from %q", name, data.Id, unit)
	}
	return settings.Copy()
}

// missingAdapterField annotates adapter failures consistently.
func missingAdapterField(rel, field string) error {
	return errors.NotFoundf("%s relation field %q", rel, field)
}
