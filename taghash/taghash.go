// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package taghash implements the BIP-340 tagged hash construction that every
// taproot commitment is built on:
//
//	tagged_hash(tag, data) = sha256(sha256(tag) || sha256(tag) || data)
//
// Each tag yields a 64-byte prefix that is fixed for the lifetime of the
// process.  The prefixes of the tags used by taproot are derived once at
// package initialization, and a Tagger can be created for any other tag that
// is hashed repeatedly or streamed.
package taghash

import (
	"crypto/sha256"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// The tags used by taproot, as defined by chainhash.
var (
	TagTapLeaf    = chainhash.TagTapLeaf
	TagTapBranch  = chainhash.TagTapBranch
	TagTapTweak   = chainhash.TagTapTweak
	TagTapSighash = chainhash.TagTapSighash
)

// Precomputed taggers for the taproot tags.
var (
	TapLeaf    = NewTagger(TagTapLeaf)
	TapBranch  = NewTagger(TagTapBranch)
	TapTweak   = NewTagger(TagTapTweak)
	TapSighash = NewTagger(TagTapSighash)
)

// knownTaggers maps the string form of each taproot tag to its tagger so
// TaggedHash can skip the prefix derivation for them.
var knownTaggers = map[string]*Tagger{
	string(TagTapLeaf):    TapLeaf,
	string(TagTapBranch):  TapBranch,
	string(TagTapTweak):   TapTweak,
	string(TagTapSighash): TapSighash,
}

// Tagger hashes messages under a single tag.  The tag digest is computed once
// when the Tagger is created.  A Tagger is immutable and safe for concurrent
// use.
type Tagger struct {
	tag    string
	prefix [2 * sha256.Size]byte
}

// NewTagger returns a Tagger for the passed tag.
func NewTagger(tag []byte) *Tagger {
	t := &Tagger{tag: string(tag)}
	tagHash := sha256.Sum256(tag)
	copy(t.prefix[:sha256.Size], tagHash[:])
	copy(t.prefix[sha256.Size:], tagHash[:])
	return t
}

// Tag returns the tag this Tagger hashes under.
func (t *Tagger) Tag() string {
	return t.tag
}

// Hash returns the tagged hash of the concatenation of msgs.
func (t *Tagger) Hash(msgs ...[]byte) *chainhash.Hash {
	h := t.New()
	for _, msg := range msgs {
		h.Write(msg)
	}

	var out chainhash.Hash
	copy(out[:], h.Sum(nil))
	return &out
}

// New returns a running sha256 state that has already absorbed the tag
// prefix.  It is useful for callers that stream a large preimage, such as the
// signature hash.
func (t *Tagger) New() hash.Hash {
	h := sha256.New()
	h.Write(t.prefix[:])
	return h
}

// TaggedHash implements the tagged hash scheme described in BIP-340.  The
// tagged hash of the concatenation of msgs is returned.  Taproot tags use
// their precomputed prefix, any other tag is hashed by chainhash.
func TaggedHash(tag []byte, msgs ...[]byte) *chainhash.Hash {
	if t, ok := knownTaggers[string(tag)]; ok {
		return t.Hash(msgs...)
	}
	return chainhash.TaggedHash(tag, msgs...)
}
