// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taproot

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/taghash"
)

// LeafVersion represents the version of a tapscript leaf.  Leaf versions
// define the script semantics a leaf is executed under.
type LeafVersion uint8

const (
	// BaseLeafVersion is the base tapscript leaf version. The semantics of
	// this version are defined in BIP 342.
	BaseLeafVersion LeafVersion = 0xc0

	// LeafVersionMask masks off the output key parity bit carried in the
	// first control block byte.
	LeafVersionMask = 0xfe

	// MaxLeafScriptSize is the largest script a leaf will accept.  It
	// matches the maximum standard transaction weight, as a leaf that
	// large can never be revealed in a relayed spend anyway.
	MaxLeafScriptSize = 400000
)

// knownLeafVersions is the set of leaf versions NewTapLeaf accepts.
var knownLeafVersions = map[LeafVersion]struct{}{
	BaseLeafVersion: {},
}

// Node represents an abstract node in a tapscript merkle tree. A node is
// either a branch or a leaf.
type Node interface {
	// TapHash returns the hash of the node. This will either be a tagged
	// hash derived from a branch, or a leaf.
	TapHash() chainhash.Hash

	// Left returns the left node. If this is a leaf node, this is nil.
	Left() Node

	// Right returns the right node. If this is a leaf node, this is nil.
	Right() Node
}

// TapLeaf is a leaf of a tapscript tree: a leaf version and the script
// executed under it.  A TapLeaf is immutable and its hash is computed once
// at construction.
type TapLeaf struct {
	version LeafVersion
	script  []byte
	hash    chainhash.Hash
}

// A compile time check to ensure TapLeaf implements the Node interface.
var _ Node = TapLeaf{}

// NewTapLeaf validates the leaf version and script and returns the leaf
// committing to them.
func NewTapLeaf(version LeafVersion, script []byte) (TapLeaf, error) {
	if _, ok := knownLeafVersions[version]; !ok {
		str := fmt.Sprintf("unknown leaf version 0x%02x", byte(version))
		return TapLeaf{}, taprootError(ErrInvalidLeafVersion, str)
	}

	switch {
	case len(script) == 0:
		return TapLeaf{}, taprootError(ErrEmptyScript,
			"leaf script is empty")

	case len(script) > MaxLeafScriptSize:
		str := fmt.Sprintf("leaf script is %d bytes, max %d",
			len(script), MaxLeafScriptSize)
		return TapLeaf{}, taprootError(ErrScriptTooLarge, str)
	}

	scriptCopy := make([]byte, len(script))
	copy(scriptCopy, script)

	return TapLeaf{
		version: version,
		script:  scriptCopy,
		hash:    leafHash(version, scriptCopy),
	}, nil
}

// NewBaseTapLeaf returns a new TapLeaf for the specified script, using the
// base leaf version (BIP 342).
func NewBaseTapLeaf(script []byte) (TapLeaf, error) {
	return NewTapLeaf(BaseLeafVersion, script)
}

// Version returns the leaf version.
func (t TapLeaf) Version() LeafVersion {
	return t.version
}

// Script returns a copy of the leaf script.
func (t TapLeaf) Script() []byte {
	s := make([]byte, len(t.script))
	copy(s, t.script)
	return s
}

// TapHash returns the leaf hash:
// h_tapleaf(leafVersion || compactSizeOf(script) || script).
func (t TapLeaf) TapHash() chainhash.Hash {
	return t.hash
}

// Left returns nil as a leaf has no children.
func (t TapLeaf) Left() Node {
	return nil
}

// Right returns nil as a leaf has no children.
func (t TapLeaf) Right() Node {
	return nil
}

// String returns the leaf hash in the usual byte reversed hex form.
func (t TapLeaf) String() string {
	return t.hash.String()
}

// leafHash computes the leaf hash without validating its inputs.  It is also
// used to hash revealed scripts of versions this package does not build.
func leafHash(version LeafVersion, script []byte) chainhash.Hash {
	var leafEncoding bytes.Buffer
	leafEncoding.Grow(1 + wire.VarIntSerializeSize(uint64(len(script))) +
		len(script))

	_ = leafEncoding.WriteByte(byte(version))
	_ = wire.WriteVarBytes(&leafEncoding, 0, script)

	return *taghash.TapLeaf.Hash(leafEncoding.Bytes())
}

// TapBranch is an internal node of a tapscript tree.  The children keep the
// order they were given in, only the hash sorts them.
type TapBranch struct {
	leftNode  Node
	rightNode Node
	hash      chainhash.Hash
}

// A compile time check to ensure TapBranch implements the Node interface.
var _ Node = TapBranch{}

// NewTapBranch creates a new internal branch from a left and right node.
func NewTapBranch(l, r Node) TapBranch {
	leftHash := l.TapHash()
	rightHash := r.TapHash()

	return TapBranch{
		leftNode:  l,
		rightNode: r,
		hash:      branchHash(leftHash[:], rightHash[:]),
	}
}

// Left is the left node of the branch.
func (t TapBranch) Left() Node {
	return t.leftNode
}

// Right is the right node of the branch.
func (t TapBranch) Right() Node {
	return t.rightNode
}

// TapHash returns h_tapbranch(a || b) where a is the lexicographically
// smaller of the two child hashes.
func (t TapBranch) TapHash() chainhash.Hash {
	return t.hash
}

// branchHash hashes two child hashes into a branch, sorting them first.
func branchHash(l, r []byte) chainhash.Hash {
	if bytes.Compare(l, r) > 0 {
		l, r = r, l
	}

	return *taghash.TapBranch.Hash(l, r)
}

// isLeaf reports whether n has no children.
func isLeaf(n Node) bool {
	return n.Left() == nil && n.Right() == nil
}
