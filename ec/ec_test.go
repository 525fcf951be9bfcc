// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
	"testing/quick"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// curveOrder is the secp256k1 group order n, big endian.
var curveOrder = [32]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
	0xba, 0xae, 0xdc, 0xe6, 0xaf, 0x48, 0xa0, 0x3b,
	0xbf, 0xd2, 0x5e, 0x8c, 0xd0, 0x36, 0x41, 0x41,
}

// TestGenerateKey ensures generated keys are valid and distinct.
func TestGenerateKey(t *testing.T) {
	t.Parallel()

	c := &Secp256k1{}
	a, err := c.GenerateKey()
	require.NoError(t, err)
	b, err := c.GenerateKey()
	require.NoError(t, err)

	require.False(t, a.Key.IsZero())
	require.False(t, a.Key.Equals(&b.Key))
	require.True(t, a.PubKey().IsOnCurve())
}

// TestTweakAddMatchesPrivTweak ensures tweaking the x-only public key and the
// private key agree for arbitrary keys and tweaks.
func TestTweakAddMatchesPrivTweak(t *testing.T) {
	t.Parallel()

	c := &Secp256k1{}
	f := func(keyBytes, tweak [32]byte) bool {
		priv, _ := btcec.PrivKeyFromBytes(keyBytes[:])
		if priv.Key.IsZero() {
			return true
		}

		evenPub := EvenY(priv.PubKey())
		tweakedPub, err := c.TweakAdd(evenPub, &tweak)
		if errors.Is(err, ErrInvalidTweak) {
			return true
		}
		if err != nil {
			return false
		}

		tweakedPriv, err := c.TweakPrivKey(priv, &tweak)
		if err != nil {
			return false
		}

		return tweakedPriv.PubKey().IsEqual(tweakedPub)
	}
	require.NoError(t, quick.Check(f, nil))
}

// TestTweakAddRejectsInvalid ensures a tweak at or above the group order and
// a tweak that cancels the point are both rejected.
func TestTweakAddRejectsInvalid(t *testing.T) {
	t.Parallel()

	c := &Secp256k1{}
	priv, pub := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x01}, 32))

	tooBig := curveOrder
	_, err := c.TweakAdd(pub, &tooBig)
	require.ErrorIs(t, err, ErrInvalidTweak)

	_, err = c.TweakPrivKey(priv, &tooBig)
	require.ErrorIs(t, err, ErrInvalidTweak)

	// A tweak of -d cancels P = d*G.
	var negKey btcec.ModNScalar
	negKey.Set(&priv.Key).Negate()
	cancel := negKey.Bytes()
	_, err = c.TweakAdd(pub, &cancel)
	require.ErrorIs(t, err, ErrInvalidTweak)
}

// TestXOnly ensures x-only encoding round trips to the even y point.
func TestXOnly(t *testing.T) {
	t.Parallel()

	f := func(keyBytes [32]byte) bool {
		priv, pub := btcec.PrivKeyFromBytes(keyBytes[:])
		if priv.Key.IsZero() {
			return true
		}

		x := XOnly(pub)
		parsed, err := ParseXOnly(x[:])
		if err != nil {
			return false
		}
		if HasOddY(parsed) {
			return false
		}
		return parsed.IsEqual(EvenY(pub)) &&
			bytes.Equal(parsed.SerializeCompressed()[1:], x[:])
	}
	require.NoError(t, quick.Check(f, nil))
}

// TestParsePubKey ensures both x-only and compressed encodings are accepted.
func TestParsePubKey(t *testing.T) {
	t.Parallel()

	raw, _ := hex.DecodeString("03af455f4989d122e9185f8c351dbaecd13adca3" +
		"eef8a9d38ef8ffed6867e342e3")

	compressed, err := ParsePubKey(raw)
	require.NoError(t, err)
	require.True(t, HasOddY(compressed))

	xOnly, err := ParsePubKey(raw[1:])
	require.NoError(t, err)
	require.Equal(t, XOnly(compressed), XOnly(xOnly))
	require.False(t, HasOddY(xOnly))

	_, err = ParsePubKey(raw[:20])
	require.ErrorIs(t, err, ErrInvalidKey)
}

// TestParsePrivKey ensures out of range scalars are rejected.
func TestParsePrivKey(t *testing.T) {
	t.Parallel()

	_, err := ParsePrivKey(make([]byte, 32))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParsePrivKey(curveOrder[:])
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = ParsePrivKey([]byte{0x01})
	require.ErrorIs(t, err, ErrInvalidKey)

	one := make([]byte, 32)
	one[31] = 0x01
	priv, err := ParsePrivKey(one)
	require.NoError(t, err)
	require.True(t, priv.PubKey().IsEqual(btcec.Generator()))
}

// TestSignVerify ensures the capability signs and verifies consistently.
func TestSignVerify(t *testing.T) {
	t.Parallel()

	var c Capability = &Secp256k1{}
	priv, err := c.GenerateKey()
	require.NoError(t, err)

	digest := bytes.Repeat([]byte{0x42}, 32)
	sig, err := c.Sign(priv, digest)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	require.True(t, c.Verify(priv.PubKey(), sig, digest))
	require.True(t, c.Verify(EvenY(priv.PubKey()), sig, digest))

	digest[0] ^= 0x01
	require.False(t, c.Verify(priv.PubKey(), sig, digest))
}
