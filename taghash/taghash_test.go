// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taghash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"testing/quick"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// naiveTaggedHash computes the tagged hash directly from its definition.
func naiveTaggedHash(tag []byte, data []byte) [32]byte {
	tagHash := sha256.Sum256(tag)
	var preimage []byte
	preimage = append(preimage, tagHash[:]...)
	preimage = append(preimage, tagHash[:]...)
	preimage = append(preimage, data...)
	return sha256.Sum256(preimage)
}

// TestTaggedHashDefinition ensures the tagged hash matches its definition for
// arbitrary tags and data, and matches the chainhash implementation.
func TestTaggedHashDefinition(t *testing.T) {
	t.Parallel()

	f := func(tag, data []byte) bool {
		want := naiveTaggedHash(tag, data)
		got := TaggedHash(tag, data)
		if !bytes.Equal(got[:], want[:]) {
			return false
		}

		ref := chainhash.TaggedHash(tag, data)
		return ref.IsEqual(got)
	}
	require.NoError(t, quick.Check(f, nil))
}

// TestKnownTags ensures the precomputed taggers agree with on the fly
// derivation and with the chainhash tag set.
func TestKnownTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tagger *Tagger
		ref    []byte
	}{
		{TapLeaf, chainhash.TagTapLeaf},
		{TapBranch, chainhash.TagTapBranch},
		{TapTweak, chainhash.TagTapTweak},
		{TapSighash, chainhash.TagTapSighash},
	}

	msg := []byte("tapctl")
	for _, test := range tests {
		require.Equal(t, string(test.ref), test.tagger.Tag())

		want := chainhash.TaggedHash(test.ref, msg)
		require.Equal(t, want, test.tagger.Hash(msg))
		require.Equal(t, want, TaggedHash(test.ref, msg))
	}
}

// TestTaggedHashMultipleMessages ensures hashing several messages is the same
// as hashing their concatenation, and that streaming matches Hash.
func TestTaggedHashMultipleMessages(t *testing.T) {
	t.Parallel()

	a, b := []byte("left"), []byte("right")
	joined := append(append([]byte{}, a...), b...)

	require.Equal(t, TapBranch.Hash(joined), TapBranch.Hash(a, b))

	h := TapBranch.New()
	h.Write(a)
	h.Write(b)
	require.Equal(t, TapBranch.Hash(a, b)[:], h.Sum(nil))
}

// TestDomainSeparation ensures the same data hashed under different tags
// never yields the same digest.
func TestDomainSeparation(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x02, 0x03}
	seen := make(map[chainhash.Hash]string)
	for tag := range knownTaggers {
		h := TaggedHash([]byte(tag), data)
		prev, ok := seen[*h]
		require.False(t, ok, "tags %q and %q collide", tag, prev)
		seen[*h] = tag
	}

	require.NotEqual(t,
		TaggedHash([]byte("TapLeaf"), data),
		TaggedHash([]byte("TapLeaf/"), data),
	)
}

// TestTaggedHashVector checks a fixed vector so the digest can never drift
// across runs or platforms.
func TestTaggedHashVector(t *testing.T) {
	t.Parallel()

	got := TapTweak.Hash()
	want := naiveTaggedHash([]byte("TapTweak"), nil)
	require.Equal(t, hex.EncodeToString(want[:]),
		hex.EncodeToString(got[:]))
}
