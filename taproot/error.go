// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taproot

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of taproot construction error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrInvalidLeafVersion is returned when a leaf is built with a leaf
	// version that is not recognized.
	ErrInvalidLeafVersion ErrorCode = iota

	// ErrEmptyScript is returned when a leaf is built with no script.
	ErrEmptyScript

	// ErrScriptTooLarge is returned when a leaf script exceeds
	// MaxLeafScriptSize.
	ErrScriptTooLarge

	// ErrEmptyTree is returned by operations that need at least one
	// script leaf when there are none.
	ErrEmptyTree

	// ErrInvalidWeight is returned when a leaf weight is zero or the sum
	// of all weights overflows.
	ErrInvalidWeight

	// ErrDuplicateLeaf is returned when the same leaf is committed to
	// twice in one tree.
	ErrDuplicateLeaf

	// ErrTreeTooDeep is returned when a leaf would sit deeper than
	// ControlBlockMaxNodeCount.
	ErrTreeTooDeep

	// ErrInvalidTweak is returned when the tap tweak is not below the
	// group order or produces the point at infinity.
	ErrInvalidTweak

	// ErrUnknownLeaf is returned when a control block is requested for
	// a leaf that is not part of the tree.
	ErrUnknownLeaf

	// ErrControlBlockSize is returned when a serialized control block has
	// an invalid length.
	ErrControlBlockSize

	// ErrInvalidInternalKey is returned when the internal key is missing
	// or cannot be parsed.
	ErrInvalidInternalKey

	// ErrMerkleProofInvalid is returned when the root derived from a
	// control block and script is not committed to by the output key.
	ErrMerkleProofInvalid

	// ErrOutputKeyParityMismatch is returned when the parity bit in a
	// control block does not match the output key.
	ErrOutputKeyParityMismatch

	// numErrorCodes is the maximum error code number used in tests.  This
	// entry MUST be the last entry in the enum.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidLeafVersion:      "ErrInvalidLeafVersion",
	ErrEmptyScript:             "ErrEmptyScript",
	ErrScriptTooLarge:          "ErrScriptTooLarge",
	ErrEmptyTree:               "ErrEmptyTree",
	ErrInvalidWeight:           "ErrInvalidWeight",
	ErrDuplicateLeaf:           "ErrDuplicateLeaf",
	ErrTreeTooDeep:             "ErrTreeTooDeep",
	ErrInvalidTweak:            "ErrInvalidTweak",
	ErrUnknownLeaf:             "ErrUnknownLeaf",
	ErrControlBlockSize:        "ErrControlBlockSize",
	ErrInvalidInternalKey:      "ErrInvalidInternalKey",
	ErrMerkleProofInvalid:      "ErrMerkleProofInvalid",
	ErrOutputKeyParityMismatch: "ErrOutputKeyParityMismatch",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error identifies a taproot construction error.  The caller can use type
// assertions or IsErrorCode to determine the specific reason.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// taprootError creates an Error given a set of arguments.
func taprootError(c ErrorCode, desc string) Error {
	return Error{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether or not the provided error is a taproot error
// with the provided error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var terr Error
	return errors.As(err, &terr) && terr.ErrorCode == c
}
