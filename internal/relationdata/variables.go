// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationdata

import (
	"sort"

	"github.com/canonical/gunicorn-k8s-operator/internal/envtemplate"
)

// Variables lists every dotted relation.field name a template can
// reference given ctx, sorted. This is what the charm's
// show-environment-context action reported.
func Variables(ctx envtemplate.Context) []string {
	var vars []string
	for rel, fields := range ctx {
		for field := range fields {
			vars = append(vars, rel+"."+field)
		}
	}
	sort.Strings(vars)
	return vars
}
