/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package catalogerr defines the error kinds shared by the catalog packages.
// Call sites wrap one of the sentinels with context so that callers can
// branch with errors.Is.
package catalogerr

import "errors"

var (
	// ErrNullSubject is returned when an operation is invoked on an absent
	// required object.
	ErrNullSubject = errors.New("no subject")

	// ErrInvalidArgument is returned for a recognized but illegal input value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrKeyNotFound is returned for a categorical key outside the known
	// enumeration.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidOperation is returned when a well-typed request cannot be
	// satisfied in the current state.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrFormat is returned for malformed textual encodings.
	ErrFormat = errors.New("format error")
)

// Kind returns a short name for the error kind wrapped by err, or the empty
// string for errors outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNullSubject):
		return "null_subject"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrFormat):
		return "format_error"
	}
	return ""
}
