// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ec

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrInvalidTweak indicates a tweak that is not below the group order,
	// or one that maps the key to the point at infinity or zero.
	ErrInvalidTweak = ErrorKind("ErrInvalidTweak")

	// ErrEntropy indicates the system entropy source failed.
	ErrEntropy = ErrorKind("ErrEntropy")

	// ErrInvalidKey indicates an encoded key that could not be parsed.
	ErrInvalidKey = ErrorKind("ErrInvalidKey")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to curve operations.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// ecError creates an Error given a set of arguments.
func ecError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
