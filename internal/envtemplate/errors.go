// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package envtemplate

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

const (
	// ErrMissingRelation describes an error that occurs when a template
	// references relations that are not joined or have no data yet.
	ErrMissingRelation = errors.ConstError("missing relation data")

	// ErrMalformedTemplate describes an error that occurs when a template
	// cannot be parsed, or when its rendered output is not a mapping of
	// environment variables.
	ErrMalformedTemplate = errors.ConstError("malformed environment template")

	// ErrInvalidKey describes an error that occurs when a rendered
	// environment variable name is not usable in a process environment.
	ErrInvalidKey = errors.ConstError("invalid environment variable name")
)

// MissingRelationsError reports every relation referenced by the
// template that is absent from the render context. Relations is always
// sorted so the operator sees a stable message.
type MissingRelationsError struct {
	Relations []string
}

// Error is part of the error interface. The message matches what the
// unit reports as its blocked status.
func (e *MissingRelationsError) Error() string {
	return fmt.Sprintf("Waiting for %s relation(s)", strings.Join(e.Relations, ", "))
}

// Is makes errors.Is(err, ErrMissingRelation) true for this error.
func (e *MissingRelationsError) Is(target error) bool {
	return target == ErrMissingRelation
}

// MalformedTemplateError reports a template that could not be parsed or
// whose rendered output was not a flat mapping. Line and Column are
// 1-based and refer to the offending expression; both are zero when the
// failure has no meaningful position, such as a bad rendered document.
type MalformedTemplateError struct {
	Line   int
	Column int
	Reason string
}

// Error is part of the error interface.
func (e *MalformedTemplateError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed environment template: %d:%d: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed environment template: %s", e.Reason)
}

// Is makes errors.Is(err, ErrMalformedTemplate) true for this error.
func (e *MalformedTemplateError) Is(target error) bool {
	return target == ErrMalformedTemplate
}

// InvalidKeyError reports a rendered environment variable name that is
// not a valid identifier.
type InvalidKeyError struct {
	Key string
}

// Error is part of the error interface.
func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid environment variable name %q", e.Key)
}

// Is makes errors.Is(err, ErrInvalidKey) true for this error.
func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}
