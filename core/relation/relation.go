// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package relation holds the relation data types the operator consumes.
// A unit may be joined to several instances of the same named relation;
// the operator settles on one instance, and one unit within it, when it
// builds the template context.
package relation

import (
	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"github.com/juju/naturalsort"
)

// Settings is a flat map of relation settings, as seen in a unit or
// application databag. Values are already strings; anything richer is
// flattened before it gets here.
type Settings map[string]string

// Copy returns an independent copy of the settings.
func (s Settings) Copy() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Data holds the databags of a single relation instance.
type Data struct {
	// Id is the relation id assigned by the controller,
	// unique per model.
	Id int

	// Application holds the remote application databag.
	Application Settings

	// Units holds the remote unit databags, keyed by unit name.
	Units map[string]Settings
}

// Validate returns an error if the relation data is malformed.
func (d Data) Validate() error {
	if d.Id < 0 {
		return errors.NotValidf("relation id %d", d.Id)
	}
	for name := range d.Units {
		if !names.IsValidUnit(name) {
			return errors.NotValidf("unit name %q", name)
		}
	}
	return nil
}

// PrimaryUnit returns the name and settings of the unit whose databag
// the operator reads, which is the first unit in natural sort order so
// that app/2 sorts before app/10. The second return is false when the
// relation has no units with settings.
func (d Data) PrimaryUnit() (string, Settings, bool) {
	if len(d.Units) == 0 {
		return "", nil, false
	}
	units := make([]string, 0, len(d.Units))
	for name := range d.Units {
		units = append(units, name)
	}
	naturalsort.Sort(units)
	for _, name := range units {
		if len(d.Units[name]) > 0 {
			return name, d.Units[name], true
		}
	}
	return "", nil, false
}

// List holds every joined instance of one named relation.
type List []Data

// Primary returns the relation instance the operator reads, which is
// the instance with the lowest relation id. The second return is false
// when no instances are joined.
func (l List) Primary() (Data, bool) {
	if len(l) == 0 {
		return Data{}, false
	}
	best := l[0]
	for _, d := range l[1:] {
		if d.Id < best.Id {
			best = d
		}
	}
	return best, true
}
