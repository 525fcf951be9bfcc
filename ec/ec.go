// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ec defines the elliptic curve capability the taproot construction
// depends on.  The capability is handed explicitly to every component that
// needs point or scalar arithmetic so that callers, and tests, can substitute
// their own implementation.
package ec

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btctaproot/schnorr"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// XOnlyKeyLen is the length of a serialized x-only public key.
const XOnlyKeyLen = 32

// Capability is the set of curve operations used to build and spend taproot
// outputs.
type Capability interface {
	// GenerateKey returns a uniformly random private key in [1, n-1].
	// A failure to obtain entropy is returned as ErrEntropy and must not
	// be retried.
	GenerateKey() (*btcec.PrivateKey, error)

	// TweakAdd returns pub + tweak*G.  ErrInvalidTweak is returned when
	// the tweak is not below the group order or the result is the point
	// at infinity.
	TweakAdd(pub *btcec.PublicKey, tweak *[32]byte) (*btcec.PublicKey, error)

	// TweakPrivKey returns the private key for TweakAdd(xonly(P), tweak)
	// where P is the public key of priv.  The key is negated first if P
	// has an odd y coordinate.
	TweakPrivKey(priv *btcec.PrivateKey,
		tweak *[32]byte) (*btcec.PrivateKey, error)

	// Sign returns a 64-byte BIP-340 signature over digest.
	Sign(priv *btcec.PrivateKey, digest []byte) ([]byte, error)

	// Verify reports whether sig is a valid BIP-340 signature over digest
	// for the x coordinate of pub.
	Verify(pub *btcec.PublicKey, sig, digest []byte) bool
}

// Secp256k1 implements Capability on top of btcec.
type Secp256k1 struct {
	// SignOptions are passed to every signing call.  The zero value signs
	// with RFC6979 nonces.
	SignOptions []schnorr.SignOption
}

// A compile time check to ensure Secp256k1 implements the Capability
// interface.
var _ Capability = (*Secp256k1)(nil)

// Default is the capability used when a caller has no preference.
var Default Capability = &Secp256k1{}

// GenerateKey returns a new private key drawn from crypto/rand.
func (c *Secp256k1) GenerateKey() (*btcec.PrivateKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, ecError(ErrEntropy, fmt.Sprintf("unable to "+
			"generate private key: %v", err))
	}
	return priv, nil
}

// TweakAdd returns pub + tweak*G.
func (c *Secp256k1) TweakAdd(pub *btcec.PublicKey,
	tweak *[32]byte) (*btcec.PublicKey, error) {

	var tweakScalar btcec.ModNScalar
	if overflow := tweakScalar.SetBytes(tweak); overflow != 0 {
		return nil, ecError(ErrInvalidTweak, fmt.Sprintf("tweak %x "+
			"is not below the group order", tweak[:]))
	}

	var point, tweakPoint, result btcec.JacobianPoint
	pub.AsJacobian(&point)
	btcec.ScalarBaseMultNonConst(&tweakScalar, &tweakPoint)
	btcec.AddNonConst(&point, &tweakPoint, &result)

	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, ecError(ErrInvalidTweak, fmt.Sprintf("tweak %x "+
			"yields the point at infinity", tweak[:]))
	}

	result.ToAffine()
	return btcec.NewPublicKey(&result.X, &result.Y), nil
}

// TweakPrivKey returns (priv or -priv) + tweak mod n.
func (c *Secp256k1) TweakPrivKey(priv *btcec.PrivateKey,
	tweak *[32]byte) (*btcec.PrivateKey, error) {

	var tweakScalar btcec.ModNScalar
	if overflow := tweakScalar.SetBytes(tweak); overflow != 0 {
		return nil, ecError(ErrInvalidTweak, fmt.Sprintf("tweak %x "+
			"is not below the group order", tweak[:]))
	}

	// Work on a copy so the caller's key is left untouched.
	var keyScalar btcec.ModNScalar
	keyScalar.Set(&priv.Key)
	if HasOddY(priv.PubKey()) {
		keyScalar.Negate()
	}
	keyScalar.Add(&tweakScalar)

	if keyScalar.IsZero() {
		return nil, ecError(ErrInvalidTweak, fmt.Sprintf("tweak %x "+
			"yields the zero private key", tweak[:]))
	}

	return btcec.PrivKeyFromScalar(&keyScalar), nil
}

// Sign returns a BIP-340 signature over digest.
func (c *Secp256k1) Sign(priv *btcec.PrivateKey, digest []byte) ([]byte, error) {
	sig, err := schnorr.Sign(priv, digest, c.SignOptions...)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// Verify reports whether sig is valid for pub over digest.
func (c *Secp256k1) Verify(pub *btcec.PublicKey, sig, digest []byte) bool {
	return schnorr.Verify(pub, sig, digest)
}

// XOnly returns the 32-byte x coordinate of the passed key.
func XOnly(pub *btcec.PublicKey) [XOnlyKeyLen]byte {
	var x [XOnlyKeyLen]byte
	copy(x[:], schnorr.SerializePubKey(pub))
	return x
}

// ParseXOnly parses a 32-byte x-only key into the point with even y.
func ParseXOnly(b []byte) (*btcec.PublicKey, error) {
	pub, err := schnorr.ParsePubKey(b)
	if err != nil {
		return nil, ecError(ErrInvalidKey, err.Error())
	}
	return pub, nil
}

// ParsePubKey accepts either a 32-byte x-only key or a 33/65-byte SEC
// encoded key.
func ParsePubKey(b []byte) (*btcec.PublicKey, error) {
	if len(b) == XOnlyKeyLen {
		return ParseXOnly(b)
	}
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, ecError(ErrInvalidKey, err.Error())
	}
	return pub, nil
}

// EvenY returns the point with the same x coordinate as pub and an even y
// coordinate.
func EvenY(pub *btcec.PublicKey) *btcec.PublicKey {
	if !HasOddY(pub) {
		return pub
	}
	even, _ := schnorr.ParsePubKey(schnorr.SerializePubKey(pub))
	return even
}

// HasOddY reports whether pub has an odd y coordinate.
func HasOddY(pub *btcec.PublicKey) bool {
	return pub.SerializeCompressed()[0] == secp.PubKeyFormatCompressedOdd
}

// ParsePrivKey parses a 32-byte big endian scalar.  Zero and values not below
// the group order are rejected.
func ParsePrivKey(b []byte) (*btcec.PrivateKey, error) {
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, ecError(ErrInvalidKey, fmt.Sprintf("private key "+
			"must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(b)))
	}

	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow || scalar.IsZero() {
		return nil, ecError(ErrInvalidKey, "private key is not in "+
			"the range [1, n-1]")
	}
	return btcec.PrivKeyFromScalar(&scalar), nil
}
