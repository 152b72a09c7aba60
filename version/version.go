// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version contains the version of the operator binary.
package version

import (
	semversion "github.com/juju/version/v2"
)

// The presence and format of this constant is very important.
// The charm build recipe uses this value for the version number
// of the released operator image.
const version = "1.2.0"

// Current gives the current version of the operator.
var Current = semversion.MustParse(version)
