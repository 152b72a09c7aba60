// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package statedir reads the agent's input files. The state directory
// mirrors a charm's view of the world: config.yaml holds the charm
// config values, and relations/<name>.yaml holds the joined instances
// of each named relation with their databags. The controller side
// rewrites the files; the agent only ever reads them.
package statedir

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
)

const (
	configFile      = "config.yaml"
	relationsSubdir = "relations"
	relationsSuffix = ".yaml"
)

// ConfigFile returns the path of the charm config snapshot under dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, configFile)
}

// RelationsDir returns the directory of relation snapshots under dir.
func RelationsDir(dir string) string {
	return filepath.Join(dir, relationsSubdir)
}

// State is one consistent view of the state directory.
type State struct {
	// Config holds the raw charm config values by option name. The
	// values are as YAML gave them; coercion against the charm's
	// config spec happens later.
	Config map[string]interface{}

	// Relations holds the joined relation instances by relation name.
	Relations map[string]relation.List
}

// Load reads the state directory. Missing files are not errors: a
// state directory with no config and no relations loads as an empty
// state, and the caller falls back to charm defaults.
func Load(dir string) (*State, error) {
	st := &State{
		Config:    make(map[string]interface{}),
		Relations: make(map[string]relation.List),
	}
	if err := st.loadConfig(ConfigFile(dir)); err != nil {
		return nil, errors.Trace(err)
	}
	if err := st.loadRelations(RelationsDir(dir)); err != nil {
		return nil, errors.Trace(err)
	}
	return st, nil
}

func (st *State) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Trace(err)
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Annotatef(err, "cannot parse %q", path)
	}
	if raw == nil {
		return nil
	}
	conformed, err := conformStringKeys(raw)
	if err != nil {
		return errors.Annotatef(err, "cannot parse %q", path)
	}
	attrs, ok := conformed.(map[string]interface{})
	if !ok {
		return errors.Errorf("%q does not contain a mapping of config values", path)
	}
	st.Config = attrs
	return nil
}

func (st *State) loadRelations(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Trace(err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), relationsSuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), relationsSuffix)
		list, err := loadRelationFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return errors.Annotatef(err, "relation %q", name)
		}
		if len(list) > 0 {
			st.Relations[name] = list
		}
	}
	return nil
}

// relationDoc is the file form of one relation instance.
type relationDoc struct {
	Id    int                          `yaml:"id"`
	App   map[string]string            `yaml:"app,omitempty"`
	Units map[string]map[string]string `yaml:"units,omitempty"`
}

func loadRelationFile(path string) (relation.List, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var docs []relationDoc
	if err := yaml.Unmarshal(content, &docs); err != nil {
		return nil, errors.Annotatef(err, "cannot parse %q", path)
	}
	list := make(relation.List, 0, len(docs))
	for _, doc := range docs {
		data := relation.Data{
			Id:          doc.Id,
			Application: relation.Settings(doc.App),
		}
		if len(doc.Units) > 0 {
			data.Units = make(map[string]relation.Settings, len(doc.Units))
			for unit, settings := range doc.Units {
				data.Units[unit] = settings
			}
		}
		if err := data.Validate(); err != nil {
			return nil, errors.Trace(err)
		}
		list = append(list, data)
	}
	return list, nil
}

// conformStringKeys rewrites nested map keys to strings. YAML
// unmarshals nested mappings as map[interface{}]interface{}, which
// nothing downstream wants to handle.
func conformStringKeys(input interface{}) (interface{}, error) {
	switch typed := input.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{})
		for key, value := range typed {
			conformed, err := conformStringKeys(value)
			if err != nil {
				return nil, err
			}
			out[key] = conformed
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{})
		for key, value := range typed {
			typedKey, ok := key.(string)
			if !ok {
				return nil, errors.New("map keyed with non-string value")
			}
			out[typedKey] = value
		}
		return conformStringKeys(out)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, value := range typed {
			conformed, err := conformStringKeys(value)
			if err != nil {
				return nil, err
			}
			out[i] = conformed
		}
		return out, nil
	default:
		return input, nil
	}
}
