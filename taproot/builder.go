// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package taproot

import (
	"container/heap"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/davecgh/go-spew/spew"
)

// WeightedLeaf pairs a leaf with its relative spend probability.  Weights only
// shape the tree and are never hashed.
type WeightedLeaf struct {
	Weight uint64
	Leaf   TapLeaf
}

// Builder accumulates weighted leaves and derives an immutable Tree from them
// in a single Build call.
type Builder struct {
	curve       ec.Capability
	leaves      []WeightedLeaf
	totalWeight uint64
	err         error
}

// NewBuilder returns an empty builder that derives keys with curve.
func NewBuilder(curve ec.Capability) *Builder {
	return &Builder{curve: curve}
}

// AddLeaf appends a leaf with the given weight.  An invalid weight is
// remembered and reported by Build, so calls can be chained.
func (b *Builder) AddLeaf(weight uint64, leaf TapLeaf) *Builder {
	if b.err != nil {
		return b
	}

	idx := len(b.leaves)
	switch {
	case weight == 0:
		str := fmt.Sprintf("leaf %d (%v) has zero weight", idx, leaf)
		b.err = taprootError(ErrInvalidWeight, str)
		return b

	case b.totalWeight+weight < b.totalWeight:
		str := fmt.Sprintf("leaf %d (%v) overflows the total weight",
			idx, leaf)
		b.err = taprootError(ErrInvalidWeight, str)
		return b
	}

	b.totalWeight += weight
	b.leaves = append(b.leaves, WeightedLeaf{Weight: weight, Leaf: leaf})
	return b
}

// AddScript validates and appends a leaf built from version and script.
func (b *Builder) AddScript(weight uint64, version LeafVersion,
	script []byte) *Builder {

	if b.err != nil {
		return b
	}

	leaf, err := NewTapLeaf(version, script)
	if err != nil {
		b.err = err
		return b
	}
	return b.AddLeaf(weight, leaf)
}

// Build derives the tree for internalKey from the accumulated leaves.  With no
// leaves the result is a key path only output.  The builder is not modified
// and may be reused.
func (b *Builder) Build(internalKey *btcec.PublicKey) (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}

	if len(b.leaves) == 0 {
		return newTree(b.curve, internalKey, nil, nil)
	}

	root, proofs, err := assembleHuffman(b.leaves)
	if err != nil {
		return nil, err
	}

	return newTree(b.curve, internalKey, root, proofs)
}

// AssembleHuffman shapes the leaves into a tree that minimizes the expected
// control block size given the weights.  The two lightest entries are merged
// repeatedly, and among equal weights the entry created first is taken
// first and becomes the left child.  ErrEmptyTree is returned for no leaves.
func AssembleHuffman(leaves []WeightedLeaf) (Node, error) {
	if len(leaves) == 0 {
		return nil, taprootError(ErrEmptyTree, "no leaves to assemble")
	}

	var total uint64
	for i, l := range leaves {
		if l.Weight == 0 || total+l.Weight < total {
			str := fmt.Sprintf("leaf %d (%v) has invalid weight %d",
				i, l.Leaf, l.Weight)
			return nil, taprootError(ErrInvalidWeight, str)
		}
		total += l.Weight
	}

	root, _, err := assembleHuffman(leaves)
	return root, err
}

// huffmanEntry is a subtree waiting in the merge queue.
type huffmanEntry struct {
	weight uint64
	seq    uint64
	node   Node

	// leaves holds the index into the proof list of every leaf under
	// node.
	leaves []int
}

// huffmanQueue is a min-heap ordered by weight then creation sequence.
type huffmanQueue []*huffmanEntry

func (q huffmanQueue) Len() int { return len(q) }

func (q huffmanQueue) Less(i, j int) bool {
	if q[i].weight != q[j].weight {
		return q[i].weight < q[j].weight
	}
	return q[i].seq < q[j].seq
}

func (q huffmanQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *huffmanQueue) Push(x interface{}) {
	*q = append(*q, x.(*huffmanEntry))
}

func (q *huffmanQueue) Pop() interface{} {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return entry
}

// assembleHuffman builds the tree and, in the same pass, the inclusion proof
// of every leaf: each merge appends the hash of one side to the proof of
// every leaf on the other side.  The returned proofs are in tree order.
func assembleHuffman(leaves []WeightedLeaf) (Node, []TapscriptProof, error) {
	proofs := make([]TapscriptProof, len(leaves))
	seen := make(map[chainhash.Hash]int, len(leaves))

	queue := make(huffmanQueue, 0, len(leaves))
	for i, l := range leaves {
		leafHash := l.Leaf.TapHash()
		if prev, ok := seen[leafHash]; ok {
			str := fmt.Sprintf("leaves %d and %d are both %v", prev,
				i, leafHash)
			return nil, nil, taprootError(ErrDuplicateLeaf, str)
		}
		seen[leafHash] = i

		proofs[i].TapLeaf = l.Leaf
		queue = append(queue, &huffmanEntry{
			weight: l.Weight,
			seq:    uint64(i),
			node:   l.Leaf,
			leaves: []int{i},
		})
	}
	heap.Init(&queue)

	nextSeq := uint64(len(leaves))
	for queue.Len() > 1 {
		left := heap.Pop(&queue).(*huffmanEntry)
		right := heap.Pop(&queue).(*huffmanEntry)

		leftHash := left.node.TapHash()
		rightHash := right.node.TapHash()

		for _, idx := range left.leaves {
			proofs[idx].InclusionProof = append(
				proofs[idx].InclusionProof, rightHash[:]...,
			)
		}
		for _, idx := range right.leaves {
			proofs[idx].InclusionProof = append(
				proofs[idx].InclusionProof, leftHash[:]...,
			)
		}

		merged := &huffmanEntry{
			weight: left.weight + right.weight,
			seq:    nextSeq,
			node:   NewTapBranch(left.node, right.node),
			leaves: append(left.leaves, right.leaves...),
		}
		nextSeq++

		// Only the leaves of the merged subtree grew, and the deepest
		// of them bounds the depth of the whole tree.
		for _, idx := range merged.leaves {
			nodes := len(proofs[idx].InclusionProof) /
				ControlBlockNodeSize
			if nodes > ControlBlockMaxNodeCount {
				str := fmt.Sprintf("leaf %v would sit at depth "+
					"%d, max %d", proofs[idx].TapHash(),
					nodes, ControlBlockMaxNodeCount)
				return nil, nil, taprootError(ErrTreeTooDeep, str)
			}
		}

		heap.Push(&queue, merged)
	}

	root := queue[0]

	// Order the proofs as the leaves appear in the final tree.
	ordered := make([]TapscriptProof, 0, len(proofs))
	for _, idx := range root.leaves {
		ordered = append(ordered, proofs[idx])
	}

	log.Tracef("Assembled tapscript tree: %v", newLogClosure(func() string {
		return spew.Sdump(ordered)
	}))

	return root.node, ordered, nil
}
