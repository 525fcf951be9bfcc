// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/internal/log"
	"github.com/btcsuite/btctaproot/taproot"
	"github.com/btcsuite/btctaproot/tapscript"
)

// treeCmd defines the configuration options for the tree command.
type treeCmd struct {
	Descriptor  string   `long:"desc" description:"Tree descriptor tp(<internal key>,[<node>,<node>])"`
	InternalKey string   `long:"internalkey" description:"X-only internal key for a Huffman tree"`
	Leaves      []string `long:"leaf" description:"Weighted leaf as <weight>:<leaf descriptor>, may be repeated"`
}

var (
	// treeCfg defines the configuration options for the command.
	treeCfg = treeCmd{}
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *treeCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout)
}

// build derives the tree from the options and returns it together with the
// template of every leaf keyed by leaf hash.
func (cmd *treeCmd) build() (*taproot.Tree, map[chainhash.Hash]*tapscript.Template, error) {
	templates := make(map[chainhash.Hash]*tapscript.Template)
	addTemplate := func(tmpl *tapscript.Template) (taproot.TapLeaf, error) {
		leaf, err := tmpl.Leaf()
		if err != nil {
			return taproot.TapLeaf{}, err
		}
		templates[leaf.TapHash()] = tmpl
		return leaf, nil
	}

	switch {
	case cmd.Descriptor != "" && (cmd.InternalKey != "" || len(cmd.Leaves) > 0):
		return nil, nil, errors.New("--desc can't be used together with " +
			"--internalkey or --leaf")

	case cmd.Descriptor != "":
		td, err := tapscript.ParseTreeDescriptor(cmd.Descriptor)
		if err != nil {
			return nil, nil, err
		}
		for _, tmpl := range td.Templates() {
			if _, err := addTemplate(tmpl); err != nil {
				return nil, nil, err
			}
		}
		tree, err := td.Tree(ec.Default)
		return tree, templates, err
	}

	internalKey, err := parseXOnlyKey("internalkey", cmd.InternalKey)
	if err != nil {
		return nil, nil, err
	}

	builder := taproot.NewBuilder(ec.Default)
	for _, s := range cmd.Leaves {
		weight, desc, err := parseWeightedLeaf(s)
		if err != nil {
			return nil, nil, err
		}
		tmpl, err := tapscript.ParseLeafDescriptor(desc)
		if err != nil {
			return nil, nil, err
		}
		leaf, err := addTemplate(tmpl)
		if err != nil {
			return nil, nil, err
		}
		builder.AddLeaf(weight, leaf)
	}

	tree, err := builder.Build(internalKey)
	return tree, templates, err
}

func (cmd *treeCmd) run(w io.Writer) error {
	tree, templates, err := cmd.build()
	if err != nil {
		return err
	}

	pkScript, err := tree.PkScript()
	if err != nil {
		return err
	}
	addr, err := tree.Address(activeNetParams)
	if err != nil {
		return err
	}

	internalKey := ec.XOnly(tree.InternalKey())
	outputKey := ec.XOnly(tree.OutputKey())
	tweak := tree.Tweak()

	fmt.Fprintf(w, "internalkey: %x\n", internalKey[:])
	fmt.Fprintf(w, "outputkey:   %x\n", outputKey[:])
	fmt.Fprintf(w, "parity:      %v\n", oddOrEven(tree.OutputKeyYIsOdd()))
	fmt.Fprintf(w, "tweak:       %x\n", tweak[:])
	if tree.HasScripts() {
		fmt.Fprintf(w, "merkleroot:  %x\n", tree.MerkleRoot())
	}
	fmt.Fprintf(w, "pkscript:    %x\n", pkScript)
	fmt.Fprintf(w, "address:     %s\n", addr.EncodeAddress())

	leaves := tree.Leaves()
	for i, leaf := range leaves {
		cb, err := tree.ControlBlock(leaf)
		if err != nil {
			return err
		}
		leafHash := leaf.TapHash()

		fmt.Fprintf(w, "leaf %d: %v\n", i, templates[leafHash])
		fmt.Fprintf(w, "  script:       %x\n", leaf.Script())
		fmt.Fprintf(w, "  leafhash:     %x\n", leafHash[:])
		fmt.Fprintf(w, "  depth:        %d\n", cb.ProofNodes())
		fmt.Fprintf(w, "  controlblock: %x\n", cb.ToBytes())
	}

	log.TctlLog.Debugf("Derived output %x with %d %s", outputKey[:],
		len(leaves), log.PickNoun(uint64(len(leaves)), "leaf", "leaves"))

	return nil
}

func oddOrEven(odd bool) string {
	if odd {
		return "odd"
	}
	return "even"
}
