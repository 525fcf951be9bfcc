// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tapscript

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of tapscript template error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrMalformedDescriptor is returned when a leaf or tree descriptor
	// cannot be parsed.
	ErrMalformedDescriptor ErrorCode = iota

	// ErrInvalidThreshold is returned when a signature threshold does not
	// fit the number of keys.
	ErrInvalidThreshold

	// ErrInvalidTemplate is returned when a template is given a missing
	// key, a hash of the wrong size or an unusable delay.
	ErrInvalidTemplate

	// ErrUnsatisfiable is returned when a witness stack cannot be built
	// for a template from the data provided.
	ErrUnsatisfiable

	// numErrorCodes is the maximum error code number used in tests.  This
	// entry MUST be the last entry in the enum.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrMalformedDescriptor: "ErrMalformedDescriptor",
	ErrInvalidThreshold:    "ErrInvalidThreshold",
	ErrInvalidTemplate:     "ErrInvalidTemplate",
	ErrUnsatisfiable:       "ErrUnsatisfiable",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a tapscript template error.  The caller can use type
// assertions or IsErrorCode to determine the specific reason.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// tapscriptError creates an Error given a set of arguments.
func tapscriptError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a tapscript error
// with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var terr Error
	return errors.As(err, &terr) && terr.ErrorCode == c
}
