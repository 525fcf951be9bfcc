// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schnorr

import (
	ecdsa_schnorr "github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind = ecdsa_schnorr.ErrorKind

// Error identifies an error related to a schnorr signature. It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type Error = ecdsa_schnorr.Error

// These error kinds are specific to this package.  Message length failures
// reuse the kind defined by the secp256k1 schnorr package.
const (
	// ErrMalformedSignature is returned when a signature is not 64 bytes,
	// has an r component that is not below the field prime, or has an s
	// component that is not below the group order.
	ErrMalformedSignature = ErrorKind("ErrMalformedSignature")

	// ErrSigningKey is returned when the private key handed to Sign is nil
	// or the zero scalar.
	ErrSigningKey = ErrorKind("ErrSigningKey")

	// ErrInvalidSignature is returned when a well formed signature does not
	// satisfy the verification equation for the key and message.
	ErrInvalidSignature = ErrorKind("ErrInvalidSignature")
)

// signatureError creates an Error given a set of arguments.
func signatureError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
