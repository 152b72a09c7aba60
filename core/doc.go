// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package core holds pure domain concepts shared across the operator:
// charm configuration attributes, relation data, and workload status.
// Packages under core must not depend on anything in internal; the
// dependency arrow always points the other way.
package core
