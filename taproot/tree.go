// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taproot

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btctaproot/ec"
)

// TapscriptProof is the inclusion proof of one leaf within a tree.
type TapscriptProof struct {
	// TapLeaf is the leaf the proof is for.
	TapLeaf

	// InclusionProof is the series of sibling hashes, leaf to root, that
	// hashed together with the leaf yield the merkle root.
	InclusionProof []byte
}

// Tree is a fully derived taproot output: the internal key, an optional
// tapscript tree, the tweak, the output key and the inclusion proof of every
// leaf.  A Tree is immutable and safe for concurrent reads.
type Tree struct {
	curve ec.Capability

	internalKey     *btcec.PublicKey
	root            Node
	tweak           [32]byte
	outputKey       *btcec.PublicKey
	outputKeyYIsOdd bool

	// leafProofs holds the proof of every leaf, left to right in tree
	// order.  proofIndex maps a leaf hash to its position in leafProofs.
	leafProofs []TapscriptProof
	proofIndex map[chainhash.Hash]int
}

// NewTree derives the output for internalKey committing to an explicitly
// shaped tree.  A nil root produces a key path only output.
func NewTree(curve ec.Capability, internalKey *btcec.PublicKey,
	root Node) (*Tree, error) {

	var proofs []TapscriptProof
	if root != nil {
		var err error
		proofs, err = walkProofs(root)
		if err != nil {
			return nil, err
		}
	}

	return newTree(curve, internalKey, root, proofs)
}

// walkProofs computes the inclusion proof of every leaf under root by
// walking the tree, collecting the sibling of each node on the way down.
func walkProofs(root Node) ([]TapscriptProof, error) {
	var (
		proofs []TapscriptProof
		walk   func(n Node, siblings []chainhash.Hash) error
	)
	walk = func(n Node, siblings []chainhash.Hash) error {
		if len(siblings) > ControlBlockMaxNodeCount {
			str := fmt.Sprintf("tree depth exceeds %d",
				ControlBlockMaxNodeCount)
			return taprootError(ErrTreeTooDeep, str)
		}

		if isLeaf(n) {
			leaf, ok := n.(TapLeaf)
			if !ok {
				// Opaque nodes commit to a subtree we can
				// not open.
				return nil
			}

			proof := make([]byte, 0, len(siblings)*ControlBlockNodeSize)
			for i := len(siblings) - 1; i >= 0; i-- {
				proof = append(proof, siblings[i][:]...)
			}
			proofs = append(proofs, TapscriptProof{
				TapLeaf:        leaf,
				InclusionProof: proof,
			})
			return nil
		}

		left, right := n.Left(), n.Right()
		if left == nil || right == nil {
			return taprootError(ErrEmptyTree, "branch is missing "+
				"a child")
		}

		depth := len(siblings)
		err := walk(left, append(siblings[:depth:depth], right.TapHash()))
		if err != nil {
			return err
		}
		return walk(right, append(siblings[:depth:depth], left.TapHash()))
	}

	if err := walk(root, nil); err != nil {
		return nil, err
	}
	return proofs, nil
}

// newTree finishes construction from a root and its leaf proofs.
func newTree(curve ec.Capability, internalKey *btcec.PublicKey, root Node,
	proofs []TapscriptProof) (*Tree, error) {

	if internalKey == nil {
		return nil, taprootError(ErrInvalidInternalKey,
			"internal key is nil")
	}

	t := &Tree{
		curve:       curve,
		internalKey: ec.EvenY(internalKey),
		root:        root,
		leafProofs:  proofs,
		proofIndex:  make(map[chainhash.Hash]int, len(proofs)),
	}

	for i, proof := range proofs {
		leafHash := proof.TapHash()
		if _, ok := t.proofIndex[leafHash]; ok {
			str := fmt.Sprintf("leaf %v appears more than once",
				leafHash)
			return nil, taprootError(ErrDuplicateLeaf, str)
		}
		t.proofIndex[leafHash] = i
	}

	merkleRoot := t.MerkleRoot()
	t.tweak = TapTweakHash(t.internalKey, merkleRoot)

	outputKey, yIsOdd, err := ComputeOutputKey(curve, t.internalKey,
		merkleRoot)
	if err != nil {
		return nil, err
	}
	t.outputKey = outputKey
	t.outputKeyYIsOdd = yIsOdd

	log.Debugf("Derived output key %x from internal key %x with %d "+
		"leaves", ec.XOnly(outputKey), ec.XOnly(t.internalKey),
		len(proofs))

	return t, nil
}

// InternalKey returns the internal key, normalized to even y.
func (t *Tree) InternalKey() *btcec.PublicKey {
	return t.internalKey
}

// RootNode returns the root of the tapscript tree, or nil for a key path only
// output.
func (t *Tree) RootNode() Node {
	return t.root
}

// MerkleRoot returns the 32-byte merkle root, or nil for a key path only
// output.
func (t *Tree) MerkleRoot() []byte {
	if t.root == nil {
		return nil
	}
	rootHash := t.root.TapHash()
	return rootHash[:]
}

// Tweak returns the tap tweak applied to the internal key.
func (t *Tree) Tweak() [32]byte {
	return t.tweak
}

// OutputKey returns the tweaked output key.
func (t *Tree) OutputKey() *btcec.PublicKey {
	return t.outputKey
}

// OutputKeyYIsOdd returns the parity of the y coordinate of the output key.
func (t *Tree) OutputKeyYIsOdd() bool {
	return t.outputKeyYIsOdd
}

// HasScripts reports whether the output commits to any script leaf.
func (t *Tree) HasScripts() bool {
	return len(t.leafProofs) != 0
}

// Leaves returns the leaves of the tree, left to right.
func (t *Tree) Leaves() []TapLeaf {
	leaves := make([]TapLeaf, len(t.leafProofs))
	for i, proof := range t.leafProofs {
		leaves[i] = proof.TapLeaf
	}
	return leaves
}

// Proof returns the inclusion proof for leaf.
func (t *Tree) Proof(leaf TapLeaf) (*TapscriptProof, error) {
	if len(t.leafProofs) == 0 {
		return nil, taprootError(ErrEmptyTree, "output has no script "+
			"leaves")
	}

	idx, ok := t.proofIndex[leaf.TapHash()]
	if !ok {
		str := fmt.Sprintf("leaf %v is not part of the tree",
			leaf.TapHash())
		return nil, taprootError(ErrUnknownLeaf, str)
	}

	proof := t.leafProofs[idx]
	proofCopy := make([]byte, len(proof.InclusionProof))
	copy(proofCopy, proof.InclusionProof)

	return &TapscriptProof{
		TapLeaf:        proof.TapLeaf,
		InclusionProof: proofCopy,
	}, nil
}

// ControlBlock returns the control block for spending leaf.
func (t *Tree) ControlBlock(leaf TapLeaf) (*ControlBlock, error) {
	proof, err := t.Proof(leaf)
	if err != nil {
		return nil, err
	}

	return &ControlBlock{
		InternalKey:     t.internalKey,
		OutputKeyYIsOdd: t.outputKeyYIsOdd,
		LeafVersion:     proof.Version(),
		InclusionProof:  proof.InclusionProof,
	}, nil
}

// TweakPrivKey tweaks the private key of the internal key so it signs key
// path spends of this output.
func (t *Tree) TweakPrivKey(privKey *btcec.PrivateKey) (*btcec.PrivateKey, error) {
	if ec.XOnly(privKey.PubKey()) != ec.XOnly(t.internalKey) {
		return nil, taprootError(ErrInvalidInternalKey, "private key "+
			"does not match the internal key")
	}
	return TweakPrivKey(t.curve, privKey, t.MerkleRoot())
}

// PkScript returns the segwit v1 output script paying to the output key.
func (t *Tree) PkScript() ([]byte, error) {
	return txscript.PayToTaprootScript(t.outputKey)
}

// Address returns the bech32m address of the output on the given network.
func (t *Tree) Address(params *chaincfg.Params) (*btcutil.AddressTaproot, error) {
	outputKey := ec.XOnly(t.outputKey)
	return btcutil.NewAddressTaproot(outputKey[:], params)
}
