// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config provides access to the charm's configuration
// attributes, validated and defaulted against a schema.
package config

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/juju/environschema.v1"
)

// Config encapsulates the configuration of the charm.
type Config struct {
	attributes map[string]interface{}
	schema     environschema.Fields
	defaults   schema.Defaults
}

// ConfigAttributes is the named attribute values of a Config.
type ConfigAttributes map[string]interface{}

// NewConfig returns a new config instance with the given attributes,
// coerced and defaulted according to the given schema. Unknown
// attributes are an error.
func NewConfig(attrs map[string]interface{}, schemaFields environschema.Fields, defaults schema.Defaults) (*Config, error) {
	cfg := &Config{schema: schemaFields, defaults: defaults}
	if err := cfg.setAttributes(attrs); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

func (c *Config) setAttributes(attrs map[string]interface{}) error {
	checker, err := c.schemaChecker()
	if err != nil {
		return errors.Trace(err)
	}
	m := make(map[string]interface{})
	for k, v := range attrs {
		m[k] = v
	}
	result, err := checker.Coerce(m, nil)
	if err != nil {
		return errors.Trace(err)
	}
	c.attributes = result.(map[string]interface{})
	return nil
}

// KnownConfigKeys returns the valid config keys.
func KnownConfigKeys(schemaFields environschema.Fields) set.Strings {
	result := set.NewStrings()
	for name := range schemaFields {
		result.Add(name)
	}
	return result
}

func (c *Config) schemaChecker() (schema.Checker, error) {
	schemaFields, schemaDefaults, err := c.schema.ValidationSchema()
	if err != nil {
		return nil, errors.Trace(err)
	}
	for key, value := range c.defaults {
		schemaDefaults[key] = value
	}
	return schema.StrictFieldMap(schemaFields, schemaDefaults), nil
}

// Attributes returns all the config attributes, including defaulted
// values for attributes not set explicitly.
func (c *Config) Attributes() ConfigAttributes {
	if c == nil {
		return nil
	}
	result := make(ConfigAttributes)
	for attr, val := range c.attributes {
		result[attr] = val
	}
	return result
}

// Get gets the specified attribute, or the given default if the
// attribute is not set.
func (c ConfigAttributes) Get(attrName string, defaultValue interface{}) interface{} {
	if val, ok := c[attrName]; ok {
		return val
	}
	return defaultValue
}

// GetString gets the specified string attribute.
func (c ConfigAttributes) GetString(attrName string, defaultValue string) string {
	if val, ok := c[attrName]; ok {
		return val.(string)
	}
	return defaultValue
}

// GetInt gets the specified int attribute.
func (c ConfigAttributes) GetInt(attrName string, defaultValue int) int {
	if val, ok := c[attrName]; ok {
		switch value := val.(type) {
		case float64:
			return int(value)
		case int64:
			return int(value)
		}
		return val.(int)
	}
	return defaultValue
}

// GetBool gets the specified bool attribute.
func (c ConfigAttributes) GetBool(attrName string, defaultValue bool) bool {
	if val, ok := c[attrName]; ok {
		return val.(bool)
	}
	return defaultValue
}
