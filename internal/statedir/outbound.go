// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package statedir

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
)

const outboundSubdir = "outbound"

// IngressFile returns the path of the published ingress databag under
// dir.
func IngressFile(dir string) string {
	return filepath.Join(dir, outboundSubdir, "ingress"+relationsSuffix)
}

// PublishIngress writes the databag the unit wants published on the
// ingress relation. The controller side picks the file up and pushes
// it to the relation. The file is only rewritten when the settings
// actually change, so publishing from inside a watcher-driven loop
// settles instead of retriggering it.
func PublishIngress(dir string, settings relation.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Trace(err)
	}
	path := IngressFile(dir)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(os.WriteFile(path, data, 0644), "publishing ingress settings")
}
