// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schnorr

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcschnorr "github.com/btcsuite/btcd/btcec/v2/schnorr"
	ecdsa_schnorr "github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// SignatureSize is the size of an encoded Schnorr signature.
const SignatureSize = btcschnorr.SignatureSize

// Signature is a BIP-340 signature.  Only signatures with both components in
// range can be obtained from ParseSignature.
type Signature = btcschnorr.Signature

// SignOption is a functional option argument that allows callers to modify
// the way signatures are generated.
type SignOption = btcschnorr.SignOption

// CustomNonce derives the nonce exactly as BIP-340 describes, using auxData
// as the auxiliary randomness.  Without this option the nonce comes from
// RFC6979, which makes signatures deterministic.
func CustomNonce(auxData [32]byte) SignOption {
	return btcschnorr.CustomNonce(auxData)
}

// ParseSignature parses a 64-byte BIP-340 signature.  Both components are
// range checked before any curve arithmetic takes place: r must be below the
// field prime and s must be below the group order.  Any violation is reported
// as ErrMalformedSignature.
func ParseSignature(sig []byte) (*Signature, error) {
	if len(sig) != SignatureSize {
		str := fmt.Sprintf("malformed signature: wrong size %d, want %d",
			len(sig), SignatureSize)
		return nil, signatureError(ErrMalformedSignature, str)
	}

	var r btcec.FieldVal
	if overflow := r.SetByteSlice(sig[0:32]); overflow {
		str := "malformed signature: r >= field prime"
		return nil, signatureError(ErrMalformedSignature, str)
	}

	// btcec reduces s modulo the group order, so an out of range s has to
	// be caught here.
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(sig[32:64]); overflow {
		str := "malformed signature: s >= group order"
		return nil, signatureError(ErrMalformedSignature, str)
	}

	return btcschnorr.NewSignature(&r, &s), nil
}

// VerifyBytes parses the raw signature and x-only public key and verifies the
// signature over hash.  A nil error is returned only when every check passes.
// Malformed input is reported by its own kind before the verification
// equation is evaluated.  A well formed signature that does not verify is
// reported as ErrInvalidSignature.
func VerifyBytes(pubKeyBytes, rawSig, hash []byte) error {
	sig, err := ParseSignature(rawSig)
	if err != nil {
		return err
	}

	if len(hash) != scalarSize {
		str := fmt.Sprintf("wrong size for message (got %v, want %v)",
			len(hash), scalarSize)
		return signatureError(ecdsa_schnorr.ErrInvalidHashLen, str)
	}

	pubKey, err := ParsePubKey(pubKeyBytes)
	if err != nil {
		return err
	}

	if !sig.Verify(hash, pubKey) {
		return signatureError(ErrInvalidSignature, "signature does not "+
			"verify for the given key and message")
	}
	return nil
}

// Verify reports whether rawSig is a valid BIP-340 signature over hash for
// pubKey.
func Verify(pubKey *btcec.PublicKey, rawSig, hash []byte) bool {
	if pubKey == nil {
		return false
	}
	return VerifyBytes(SerializePubKey(pubKey), rawSig, hash) == nil
}

// Sign generates a BIP-340 signature over the 32-byte hash using the given
// private key.  The produced signature is canonical, and deterministic unless
// CustomNonce is supplied with varying auxiliary data.
//
// ErrSigningKey is returned for a nil or zero private key and
// ErrInvalidHashLen when hash is not 32 bytes.
func Sign(privKey *btcec.PrivateKey, hash []byte,
	signOpts ...SignOption) (*Signature, error) {

	if privKey == nil {
		return nil, signatureError(ErrSigningKey, "private key is nil")
	}
	if privKey.Key.IsZero() {
		return nil, signatureError(ErrSigningKey, "private key is zero")
	}

	return btcschnorr.Sign(privKey, hash, signOpts...)
}
