// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taproot

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btctaproot/ec"
)

const (
	// ControlBlockBaseSize is the base size of a control block. This
	// includes the initial byte for the leaf version, and then serialized
	// schnorr public key.
	ControlBlockBaseSize = 33

	// ControlBlockNodeSize is the size of a given merkle branch hash in
	// the control block.
	ControlBlockNodeSize = 32

	// ControlBlockMaxNodeCount is the max number of nodes that can be
	// included in a control block. This value represents a merkle tree of
	// depth 128.
	ControlBlockMaxNodeCount = 128

	// ControlBlockMaxSize is the max possible size of a control block.
	ControlBlockMaxSize = ControlBlockBaseSize + (ControlBlockNodeSize *
		ControlBlockMaxNodeCount)
)

// ControlBlock is the witness element that proves a revealed leaf is
// committed to by an output key.  It carries the internal key, the parity of
// the output key, the leaf version and the merkle inclusion proof.
type ControlBlock struct {
	// InternalKey is the internal public key in the taproot commitment.
	InternalKey *btcec.PublicKey

	// OutputKeyYIsOdd denotes if the y coordinate of the output key is
	// odd.
	OutputKeyYIsOdd bool

	// LeafVersion is the leaf version of the revealed leaf.
	LeafVersion LeafVersion

	// InclusionProof is the concatenation of the sibling hashes from the
	// leaf up to the root.
	InclusionProof []byte
}

// ToBytes serializes the control block as
// (leafVersion | parity) || xonly(internalKey) || inclusionProof.
func (c *ControlBlock) ToBytes() []byte {
	var b bytes.Buffer
	b.Grow(ControlBlockBaseSize + len(c.InclusionProof))

	// The lowest bit of the first byte carries the parity of the output
	// key.
	yParity := byte(0)
	if c.OutputKeyYIsOdd {
		yParity = 1
	}
	b.WriteByte(byte(c.LeafVersion)&LeafVersionMask | yParity)

	internalKey := ec.XOnly(c.InternalKey)
	b.Write(internalKey[:])
	b.Write(c.InclusionProof)

	return b.Bytes()
}

// ProofNodes returns the number of merkle nodes in the inclusion proof.
func (c *ControlBlock) ProofNodes() int {
	return len(c.InclusionProof) / ControlBlockNodeSize
}

// RootHash folds the leaf hash of the revealed script up through the
// inclusion proof and returns the resulting merkle root.
func (c *ControlBlock) RootHash(revealedScript []byte) []byte {
	merkleAccumulator := leafHash(c.LeafVersion, revealedScript)

	for i := 0; i < c.ProofNodes(); i++ {
		offset := i * ControlBlockNodeSize
		nextNode := c.InclusionProof[offset : offset+ControlBlockNodeSize]

		merkleAccumulator = branchHash(merkleAccumulator[:], nextNode)
	}

	return merkleAccumulator[:]
}

// ParseControlBlock parses a serialized control block.
func ParseControlBlock(ctrlBlock []byte) (*ControlBlock, error) {
	switch {
	case len(ctrlBlock) < ControlBlockBaseSize:
		str := fmt.Sprintf("control block is %d bytes, min %d",
			len(ctrlBlock), ControlBlockBaseSize)
		return nil, taprootError(ErrControlBlockSize, str)

	case len(ctrlBlock) > ControlBlockMaxSize:
		str := fmt.Sprintf("control block is %d bytes, max %d",
			len(ctrlBlock), ControlBlockMaxSize)
		return nil, taprootError(ErrControlBlockSize, str)

	case (len(ctrlBlock)-ControlBlockBaseSize)%ControlBlockNodeSize != 0:
		str := fmt.Sprintf("control block proof of %d bytes is not a "+
			"multiple of %d", len(ctrlBlock)-ControlBlockBaseSize,
			ControlBlockNodeSize)
		return nil, taprootError(ErrControlBlockSize, str)
	}

	pubKey, err := ec.ParseXOnly(ctrlBlock[1:ControlBlockBaseSize])
	if err != nil {
		str := fmt.Sprintf("invalid control block internal key: %v", err)
		return nil, taprootError(ErrInvalidInternalKey, str)
	}

	proof := make([]byte, len(ctrlBlock)-ControlBlockBaseSize)
	copy(proof, ctrlBlock[ControlBlockBaseSize:])

	return &ControlBlock{
		InternalKey:     pubKey,
		OutputKeyYIsOdd: ctrlBlock[0]&0x01 == 0x01,
		LeafVersion:     LeafVersion(ctrlBlock[0] & LeafVersionMask),
		InclusionProof:  proof,
	}, nil
}

// VerifyLeafCommitment checks that revealedScript, opened with the control
// block, is committed to by the x-only output key in witnessProgram.  Both
// the x coordinate and the parity bit must match.
func VerifyLeafCommitment(curve ec.Capability, controlBlock *ControlBlock,
	witnessProgram []byte, revealedScript []byte) error {

	rootHash := controlBlock.RootHash(revealedScript)

	outputKey, yIsOdd, err := ComputeOutputKey(
		curve, controlBlock.InternalKey, rootHash,
	)
	if err != nil {
		return err
	}

	expected := ec.XOnly(outputKey)
	if !bytes.Equal(expected[:], witnessProgram) {
		str := fmt.Sprintf("root %x derives output key %x, want %x",
			rootHash, expected, witnessProgram)
		return taprootError(ErrMerkleProofInvalid, str)
	}

	if yIsOdd != controlBlock.OutputKeyYIsOdd {
		str := fmt.Sprintf("control block parity odd=%v, output key "+
			"odd=%v", controlBlock.OutputKeyYIsOdd, yIsOdd)
		return taprootError(ErrOutputKeyParityMismatch, str)
	}

	return nil
}
