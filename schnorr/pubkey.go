// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schnorr

import (
	"github.com/btcsuite/btcd/btcec/v2"
	btcschnorr "github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	// PubKeyBytesLen is the length of a BIP-340 x-only public key.
	PubKeyBytesLen = btcschnorr.PubKeyBytesLen

	// scalarSize is the size of a message digest.
	scalarSize = 32
)

// ParsePubKey parses a 32-byte x-only public key, lifting it to the point with
// an even y coordinate.
func ParsePubKey(pubKeyStr []byte) (*btcec.PublicKey, error) {
	return btcschnorr.ParsePubKey(pubKeyStr)
}

// SerializePubKey returns the 32-byte x-only encoding of pub.
func SerializePubKey(pub *btcec.PublicKey) []byte {
	return btcschnorr.SerializePubKey(pub)
}
