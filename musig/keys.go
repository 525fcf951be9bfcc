// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package musig aggregates a set of public keys into a single key using the
// original MuSig construction, so that a taproot internal key may be owned
// jointly.
//
// Given keys P_1..P_n with x coordinates x_1..x_n:
//
//	L   = sha256(x_(1) || ... || x_(n))   (x coordinates sorted)
//	c_i = sha256(L || x_i)
//	Q   = c_1*P_1 + ... + c_n*P_n
//
// The private key of Q is the sum of the shares c_i*d_i.  Only the
// aggregate key is covered here; nonce exchange and partial signatures are
// left to the signing protocol built on top.
package musig

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btctaproot/ec"
)

// keyID identifies an input key by its compressed serialization.
type keyID [btcec.PubKeyBytesLenCompressed]byte

func idOf(key *btcec.PublicKey) keyID {
	var id keyID
	copy(id[:], key.SerializeCompressed())
	return id
}

// AggregateKey is the result of aggregating a set of public keys.
type AggregateKey struct {
	// FinalKey is the aggregated public key Q.
	FinalKey *btcec.PublicKey

	// KeyListHash is L, the hash of the sorted x coordinates.
	KeyListHash chainhash.Hash

	keys         []*btcec.PublicKey
	coefficients map[keyID]btcec.ModNScalar
}

// sortedXCoords returns the x coordinates of keys in lexicographic order.
func sortedXCoords(keys []*btcec.PublicKey) [][ec.XOnlyKeyLen]byte {
	xs := make([][ec.XOnlyKeyLen]byte, len(keys))
	for i, key := range keys {
		xs[i] = ec.XOnly(key)
	}
	sort.Slice(xs, func(i, j int) bool {
		return bytes.Compare(xs[i][:], xs[j][:]) < 0
	})
	return xs
}

// keyListHash computes L over the sorted x coordinates of keys.
func keyListHash(keys []*btcec.PublicKey) chainhash.Hash {
	var buf bytes.Buffer
	for _, x := range sortedXCoords(keys) {
		buf.Write(x[:])
	}
	return chainhash.HashH(buf.Bytes())
}

// coefficient computes c_i = sha256(L || x_i) as a scalar.
func coefficient(listHash *chainhash.Hash, key *btcec.PublicKey) btcec.ModNScalar {
	x := ec.XOnly(key)
	h := chainhash.HashH(append(listHash[:], x[:]...))

	var c btcec.ModNScalar
	c.SetBytes((*[32]byte)(&h))
	return c
}

// AggregateKeys aggregates keys into a single public key.  The result does
// not depend on the order of keys.
func AggregateKeys(keys []*btcec.PublicKey) (*AggregateKey, error) {
	if len(keys) == 0 {
		return nil, musigError(ErrNoKeys, "no keys to aggregate")
	}

	seen := make(map[keyID]struct{}, len(keys))
	for i, key := range keys {
		if key == nil {
			str := fmt.Sprintf("key %d is nil", i)
			return nil, musigError(ErrNilKey, str)
		}
		id := idOf(key)
		if _, ok := seen[id]; ok {
			str := fmt.Sprintf("key %x is given more than once", id[:])
			return nil, musigError(ErrDuplicateKey, str)
		}
		seen[id] = struct{}{}
	}

	listHash := keyListHash(keys)
	agg := &AggregateKey{
		KeyListHash:  listHash,
		keys:         append([]*btcec.PublicKey(nil), keys...),
		coefficients: make(map[keyID]btcec.ModNScalar, len(keys)),
	}

	// Accumulate c_i*P_i for every key into the final key.
	var finalKeyJ btcec.JacobianPoint
	for _, key := range keys {
		var keyJ btcec.JacobianPoint
		key.AsJacobian(&keyJ)

		c := coefficient(&listHash, key)
		agg.coefficients[idOf(key)] = c

		var tweakedKeyJ btcec.JacobianPoint
		btcec.ScalarMultNonConst(&c, &keyJ, &tweakedKeyJ)
		btcec.AddNonConst(&finalKeyJ, &tweakedKeyJ, &finalKeyJ)
	}

	if (finalKeyJ.X.IsZero() && finalKeyJ.Y.IsZero()) || finalKeyJ.Z.IsZero() {
		return nil, musigError(ErrInfinity, "aggregate key is the point "+
			"at infinity")
	}

	finalKeyJ.ToAffine()
	agg.FinalKey = btcec.NewPublicKey(&finalKeyJ.X, &finalKeyJ.Y)

	log.Debugf("Aggregated %d keys into %x", len(keys),
		agg.FinalKey.SerializeCompressed())

	return agg, nil
}

// Keys returns the aggregated keys in the order they were given.
func (a *AggregateKey) Keys() []*btcec.PublicKey {
	return append([]*btcec.PublicKey(nil), a.keys...)
}

// Coefficient returns c_i for key.
func (a *AggregateKey) Coefficient(key *btcec.PublicKey) (btcec.ModNScalar, error) {
	if key == nil {
		return btcec.ModNScalar{}, musigError(ErrNilKey, "key is nil")
	}
	c, ok := a.coefficients[idOf(key)]
	if !ok {
		str := fmt.Sprintf("key %x is not part of the aggregate",
			key.SerializeCompressed())
		return btcec.ModNScalar{}, musigError(ErrUnknownKey, str)
	}
	return c, nil
}

// TweakedPrivKeyShare returns c_i*d_i, the share of the aggregate private
// key owned by priv.  Summing the shares of every participant gives the
// private key of FinalKey.
func (a *AggregateKey) TweakedPrivKeyShare(priv *btcec.PrivateKey) (*btcec.ModNScalar, error) {
	if priv == nil {
		return nil, musigError(ErrNilKey, "private key is nil")
	}
	c, err := a.Coefficient(priv.PubKey())
	if err != nil {
		return nil, err
	}

	share := new(btcec.ModNScalar).Set(&priv.Key)
	share.Mul(&c)
	return share, nil
}

// CombineShares sums private key shares into the aggregate private key.
func CombineShares(shares []*btcec.ModNScalar) (*btcec.PrivateKey, error) {
	if len(shares) == 0 {
		return nil, musigError(ErrNoKeys, "no shares to combine")
	}

	var sum btcec.ModNScalar
	for i, share := range shares {
		if share == nil {
			str := fmt.Sprintf("share %d is nil", i)
			return nil, musigError(ErrNilKey, str)
		}
		sum.Add(share)
	}
	if sum.IsZero() {
		return nil, musigError(ErrInfinity, "shares sum to zero")
	}
	return btcec.PrivKeyFromScalar(&sum), nil
}
