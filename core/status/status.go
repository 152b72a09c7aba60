// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package status describes the workload status of the unit as reported
// by the operator.
package status

import (
	"time"
)

// Status represents the workload status of the gunicorn unit.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// StatusInfo holds a Status and associated information.
type StatusInfo struct {
	Status  Status
	Message string
	Data    map[string]interface{}
	Since   *time.Time
}

const (
	// Error means the unit requires human intervention
	// in order to operate correctly.
	Error Status = "error"

	// Maintenance is set when:
	// The unit is not yet providing services, but is actively doing stuff
	// in preparation for providing those services.
	// This is a "spinning" state, not an error state.
	Maintenance Status = "maintenance"

	// Terminated is set when:
	// The unit used to exist, but is now gone.
	Terminated Status = "terminated"

	// Unknown is set when:
	// The operator has started but has not yet assessed the workload.
	Unknown Status = "unknown"

	// Waiting is set when:
	// The unit is unable to progress to an active state because an
	// application to which it is related is not running.
	Waiting Status = "waiting"

	// Blocked is set when:
	// The unit needs manual intervention to get back to the Running state,
	// for example because a required relation is missing or a required
	// config item is not set.
	Blocked Status = "blocked"

	// Active is set when:
	// The unit believes it is correctly offering all the services it has
	// been asked to offer.
	Active Status = "active"
)

// KnownWorkloadStatus returns true if status has a known value for a
// workload. It includes Error, which cannot be set directly but can
// be reported.
func (s Status) KnownWorkloadStatus() bool {
	if ValidWorkloadStatus(s) {
		return true
	}
	return s == Error
}

// ValidWorkloadStatus returns true if status has a valid value (that is
// to say, a value that it's OK to set) for the unit workload.
func ValidWorkloadStatus(status Status) bool {
	switch status {
	case
		Blocked,
		Maintenance,
		Waiting,
		Active,
		Unknown,
		Terminated:
		return true
	default:
		return false
	}
}

// Matches returns true if the candidate matches status.
func (s Status) Matches(candidate Status) bool {
	return s == candidate
}
