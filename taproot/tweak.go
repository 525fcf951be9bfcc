// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taproot

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/taghash"
)

// TapTweakHash returns h_taptweak(xonly(internalKey) || merkleRoot).  A nil or
// empty merkleRoot commits to the key alone, which is the key path only
// construction from BIP 86.
func TapTweakHash(internalKey *btcec.PublicKey, merkleRoot []byte) [32]byte {
	xOnly := ec.XOnly(internalKey)
	return *taghash.TapTweak.Hash(xOnly[:], merkleRoot)
}

// ComputeOutputKey derives the output key
// Q = lift_x(internalKey) + h_taptweak(internalKey || merkleRoot)*G, returning
// it along with the parity of its y coordinate.
func ComputeOutputKey(curve ec.Capability, internalKey *btcec.PublicKey,
	merkleRoot []byte) (*btcec.PublicKey, bool, error) {

	if internalKey == nil {
		return nil, false, taprootError(ErrInvalidInternalKey,
			"internal key is nil")
	}

	// The tweak applies to the even y point sharing the key's x
	// coordinate.
	evenKey := ec.EvenY(internalKey)

	tweak := TapTweakHash(evenKey, merkleRoot)
	outputKey, err := curve.TweakAdd(evenKey, &tweak)
	if err != nil {
		str := fmt.Sprintf("unable to tweak internal key %x: %v",
			ec.XOnly(evenKey), err)
		return nil, false, taprootError(ErrInvalidTweak, str)
	}

	return outputKey, ec.HasOddY(outputKey), nil
}

// ComputeKeyPathOutputKey derives the output key for an output that can only
// be spent through the key path.
func ComputeKeyPathOutputKey(curve ec.Capability,
	internalKey *btcec.PublicKey) (*btcec.PublicKey, bool, error) {

	return ComputeOutputKey(curve, internalKey, nil)
}

// TweakPrivKey applies the tap tweak to a private key so that it signs for
// the output key produced by ComputeOutputKey with the same merkle root.
func TweakPrivKey(curve ec.Capability, privKey *btcec.PrivateKey,
	merkleRoot []byte) (*btcec.PrivateKey, error) {

	tweak := TapTweakHash(privKey.PubKey(), merkleRoot)
	tweaked, err := curve.TweakPrivKey(privKey, &tweak)
	if err != nil {
		str := fmt.Sprintf("unable to tweak private key: %v", err)
		return nil, taprootError(ErrInvalidTweak, str)
	}

	return tweaked, nil
}
