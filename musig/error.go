// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package musig

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of key aggregation error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrNoKeys is returned when no keys are given to aggregate.
	ErrNoKeys ErrorCode = iota

	// ErrNilKey is returned when one of the keys to aggregate is nil.
	ErrNilKey

	// ErrDuplicateKey is returned when the same key is given more than
	// once.
	ErrDuplicateKey

	// ErrUnknownKey is returned when a private key share is requested for
	// a key that is not part of the aggregate.
	ErrUnknownKey

	// ErrInfinity is returned when the keys sum to the point at infinity.
	ErrInfinity

	// numErrorCodes is the maximum error code number used in tests.  This
	// entry MUST be the last entry in the enum.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrNoKeys:       "ErrNoKeys",
	ErrNilKey:       "ErrNilKey",
	ErrDuplicateKey: "ErrDuplicateKey",
	ErrUnknownKey:   "ErrUnknownKey",
	ErrInfinity:     "ErrInfinity",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a key aggregation error.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

func musigError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a key aggregation
// error with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var merr Error
	return errors.As(err, &merr) && merr.ErrorCode == c
}
