// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// Charm holds the parts of an unpacked charm directory the operator
// reads: the charm metadata and the declared config options.
type Charm struct {
	Meta   *Meta
	Config *ConfigSpec
}

// ReadCharmDir reads the charm expanded at path. The directory must
// carry metadata.yaml and config.yaml at its top level, the way a
// charm archive unpacks.
func ReadCharmDir(path string) (*Charm, error) {
	metaFile, err := os.Open(filepath.Join(path, "metadata.yaml"))
	if err != nil {
		return nil, errors.Annotate(err, "reading charm metadata")
	}
	defer func() { _ = metaFile.Close() }()
	meta, err := ReadMeta(metaFile)
	if err != nil {
		return nil, errors.Trace(err)
	}

	configFile, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return nil, errors.Annotate(err, "reading charm config spec")
	}
	defer func() { _ = configFile.Close() }()
	config, err := ReadConfig(configFile)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Charm{Meta: meta, Config: config}, nil
}
