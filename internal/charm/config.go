// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/juju/environschema.v1"
	"gopkg.in/yaml.v2"

	"github.com/canonical/gunicorn-k8s-operator/core/config"
)

// Option represents a single charm config option as declared in the
// charm's config.yaml file.
type Option struct {
	Type        string
	Description string
	Default     interface{}
}

// ConfigSpec holds the declared config options of the charm.
type ConfigSpec struct {
	Options map[string]Option
}

// ReadConfig reads the content of a config.yaml file and returns its
// representation.
func ReadConfig(r io.Reader) (*ConfigSpec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	raw := make(map[interface{}]interface{})
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, errors.Trace(err)
	}
	coerced, err := configSchema.Coerce(raw, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "config")
	}
	m := coerced.(map[string]interface{})
	spec := &ConfigSpec{Options: make(map[string]Option)}
	for name, val := range m["options"].(map[string]interface{}) {
		oMap := val.(map[string]interface{})
		option := Option{
			Type: oMap["type"].(string),
		}
		if desc := oMap["description"]; desc != nil {
			option.Description = desc.(string)
		}
		if def, ok := oMap["default"]; ok {
			option.Default = def
		}
		spec.Options[name] = option
	}
	return spec, nil
}

// Schema returns the environschema fields and defaults declared by the
// spec, suitable for validating config attribute values.
func (s *ConfigSpec) Schema() (environschema.Fields, schema.Defaults, error) {
	fields := make(environschema.Fields)
	defaults := make(schema.Defaults)
	for name, option := range s.Options {
		field := environschema.Attr{
			Description: option.Description,
		}
		switch option.Type {
		case "string":
			field.Type = environschema.Tstring
		case "int":
			field.Type = environschema.Tint
		case "boolean":
			field.Type = environschema.Tbool
		default:
			return nil, nil, errors.NotValidf("option %q type %q", name, option.Type)
		}
		fields[name] = field
		if option.Default != nil {
			defaults[name] = option.Default
		} else {
			defaults[name] = schema.Omit
		}
	}
	return fields, defaults, nil
}

// Validate coerces the given attribute values against the spec,
// applying declared defaults, and returns the resulting config.
func (s *ConfigSpec) Validate(attrs map[string]interface{}) (*config.Config, error) {
	fields, defaults, err := s.Schema()
	if err != nil {
		return nil, errors.Trace(err)
	}
	cfg, err := config.NewConfig(attrs, fields, defaults)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// RequiredOptions lists the config options that must hold a non-empty
// value before the workload can be configured.
var RequiredOptions = []string{"external_hostname"}

// MissingOptions returns, in sorted order, the required options that
// are unset or empty in the given attributes.
func MissingOptions(attrs config.ConfigAttributes) []string {
	var missing []string
	for _, name := range RequiredOptions {
		if attrs.GetString(name, "") == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

var optionSchema = schema.FieldMap(
	schema.Fields{
		"type":        schema.OneOf(schema.Const("string"), schema.Const("int"), schema.Const("boolean")),
		"description": schema.String(),
		"default":     schema.Any(),
	},
	schema.Defaults{
		"description": schema.Omit,
		"default":     schema.Omit,
	},
)

var configSchema = schema.FieldMap(
	schema.Fields{
		"options": schema.StringMap(optionSchema),
	},
	nil,
)
