// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sighash

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of digest construction error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrIndexOutOfRange is returned when the input index does not refer
	// to an input of the transaction.
	ErrIndexOutOfRange ErrorCode = iota

	// ErrMismatchedPrevouts is returned when the spent outputs do not
	// match the inputs of the transaction one to one.
	ErrMismatchedPrevouts

	// ErrInvalidHashType is returned for a hash type BIP 341 does not
	// define.
	ErrInvalidHashType

	// ErrSigHashSingleNoOutput is returned for SIGHASH_SINGLE when there
	// is no output at the index of the input being signed.
	ErrSigHashSingleNoOutput

	// ErrMissingLeaf is returned when a script path digest is requested
	// without the leaf being spent.
	ErrMissingLeaf

	// ErrInvalidAnnex is returned when an annex does not start with the
	// annex tag.
	ErrInvalidAnnex

	// ErrMidStateMismatch is returned when a precomputed midstate belongs
	// to a different transaction.
	ErrMidStateMismatch

	// ErrInvalidSpendPath is returned for a spend path other than KeyPath
	// or ScriptPath.
	ErrInvalidSpendPath

	// numErrorCodes is the maximum error code number used in tests.  This
	// entry MUST be the last entry in the enum.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrIndexOutOfRange:       "ErrIndexOutOfRange",
	ErrMismatchedPrevouts:    "ErrMismatchedPrevouts",
	ErrInvalidHashType:       "ErrInvalidHashType",
	ErrSigHashSingleNoOutput: "ErrSigHashSingleNoOutput",
	ErrMissingLeaf:           "ErrMissingLeaf",
	ErrInvalidAnnex:          "ErrInvalidAnnex",
	ErrMidStateMismatch:      "ErrMidStateMismatch",
	ErrInvalidSpendPath:      "ErrInvalidSpendPath",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a digest construction error.  The caller can use type
// assertions or IsErrorCode to determine the specific reason.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// sighashError creates an Error given a set of arguments.
func sighashError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a sighash error
// with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var serr Error
	return errors.As(err, &serr) && serr.ErrorCode == c
}
