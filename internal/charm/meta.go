// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm reads the charm definition the operator serves:
// metadata.yaml for the charm identity, relations and workload
// containers, and config.yaml for the configuration options.
package charm

import (
	"io"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v2"
)

const (
	// ScopeGlobal describes a relation visible to every unit
	// of the related applications.
	ScopeGlobal = "global"

	// ScopeContainer describes a relation restricted to units
	// deployed in the same container or pod.
	ScopeContainer = "container"
)

// Relation represents a single relation defined in the charm
// metadata.yaml file.
type Relation struct {
	Interface string
	Optional  bool
	Limit     int
	Scope     string
}

// Container describes a workload container declared in metadata.yaml.
type Container struct {
	Resource string
}

// Resource describes a resource declared in metadata.yaml.
type Resource struct {
	Type        string
	Description string
}

// Meta represents the content the operator uses from a charm's
// metadata.yaml file.
type Meta struct {
	Name        string
	Summary     string
	Description string
	Requires    map[string]Relation
	Peers       map[string]Relation
	Containers  map[string]Container
	Resources   map[string]Resource
}

// ContainerName returns the name of the workload container managed by
// the operator, derived from the charm name by dropping the "-k8s"
// suffix: the gunicorn-k8s charm runs a container named gunicorn.
func (m *Meta) ContainerName() string {
	return strings.TrimSuffix(m.Name, "-k8s")
}

// ReadMeta reads the content of a metadata.yaml file and returns its
// representation.
func ReadMeta(r io.Reader) (*Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	raw := make(map[interface{}]interface{})
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, errors.Trace(err)
	}
	coerced, err := charmSchema.Coerce(raw, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "metadata")
	}
	m := coerced.(map[string]interface{})
	// From here we know that the map returned from the schema coercion
	// contains fields of the right type.
	meta := &Meta{
		Name:        m["name"].(string),
		Summary:     m["summary"].(string),
		Description: m["description"].(string),
		Requires:    parseRelations(m["requires"]),
		Peers:       parseRelations(m["peers"]),
		Containers:  parseContainers(m["containers"]),
		Resources:   parseResources(m["resources"]),
	}
	return meta, nil
}

func parseRelations(relations interface{}) map[string]Relation {
	if relations == nil {
		return nil
	}
	result := make(map[string]Relation)
	for name, rel := range relations.(map[string]interface{}) {
		relMap := rel.(map[string]interface{})
		relation := Relation{
			Interface: relMap["interface"].(string),
			Optional:  relMap["optional"].(bool),
			Scope:     relMap["scope"].(string),
		}
		if limit := relMap["limit"]; limit != nil {
			// Schema decodes as int64, but the int range is more
			// than enough for relation limits.
			relation.Limit = int(limit.(int64))
		}
		result[name] = relation
	}
	return result
}

func parseContainers(containers interface{}) map[string]Container {
	if containers == nil {
		return nil
	}
	result := make(map[string]Container)
	for name, val := range containers.(map[string]interface{}) {
		container := Container{}
		if val != nil {
			cMap := val.(map[string]interface{})
			if res := cMap["resource"]; res != nil {
				container.Resource = res.(string)
			}
		}
		result[name] = container
	}
	return result
}

func parseResources(resources interface{}) map[string]Resource {
	if resources == nil {
		return nil
	}
	result := make(map[string]Resource)
	for name, val := range resources.(map[string]interface{}) {
		resource := Resource{}
		if val != nil {
			rMap := val.(map[string]interface{})
			if typ := rMap["type"]; typ != nil {
				resource.Type = typ.(string)
			}
			if desc := rMap["description"]; desc != nil {
				resource.Description = desc.(string)
			}
		}
		result[name] = resource
	}
	return result
}

// relationChecker expands the interface shorthand notation, so that
//
//	requires:
//	  pg: pgsql
//
// coerces to the same representation as the fully specified form.
type relationChecker struct {
	limit interface{}
}

func (c relationChecker) Coerce(v interface{}, path []string) (interface{}, error) {
	if iface, err := schema.String().Coerce(v, path); err == nil {
		return map[string]interface{}{
			"interface": iface,
			"limit":     c.limit,
			"optional":  false,
			"scope":     ScopeGlobal,
		}, nil
	}
	coerced, err := schema.StringMap(schema.Any()).Coerce(v, path)
	if err != nil {
		return nil, err
	}
	m := coerced.(map[string]interface{})
	if _, ok := m["limit"]; !ok {
		m["limit"] = c.limit
	}
	if _, ok := m["optional"]; !ok {
		m["optional"] = false
	}
	return relationSchema.Coerce(m, path)
}

var relationSchema = schema.FieldMap(
	schema.Fields{
		"interface": schema.String(),
		"limit":     schema.OneOf(schema.Const(nil), schema.Int()),
		"scope":     schema.OneOf(schema.Const(ScopeGlobal), schema.Const(ScopeContainer)),
		"optional":  schema.Bool(),
	},
	schema.Defaults{
		"scope": ScopeGlobal,
	},
)

var containerSchema = schema.FieldMap(
	schema.Fields{
		"resource": schema.String(),
	},
	schema.Defaults{
		"resource": schema.Omit,
	},
)

var resourceSchema = schema.FieldMap(
	schema.Fields{
		"type":        schema.String(),
		"description": schema.String(),
	},
	schema.Defaults{
		"type":        "oci-image",
		"description": schema.Omit,
	},
)

var charmSchema = schema.FieldMap(
	schema.Fields{
		"name":        schema.String(),
		"summary":     schema.String(),
		"description": schema.String(),
		"requires":    schema.StringMap(relationChecker{limit: nil}),
		"peers":       schema.StringMap(relationChecker{limit: int64(1)}),
		"containers":  schema.StringMap(containerSchema),
		"resources":   schema.StringMap(resourceSchema),
		"assumes":     schema.List(schema.Any()),
	},
	schema.Defaults{
		"requires":   schema.Omit,
		"peers":      schema.Omit,
		"containers": schema.Omit,
		"resources":  schema.Omit,
		"assumes":    schema.Omit,
	},
)
