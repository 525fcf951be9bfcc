// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/taproot"
)

// controlBlockCmd defines the configuration options for the controlblock
// command.
type controlBlockCmd struct {
	ControlBlock string `long:"controlblock" description:"Serialized control block in hex"`
	Script       string `long:"script" description:"Revealed leaf script in hex"`
	OutputKey    string `long:"outputkey" description:"X-only output key to check the commitment against"`
}

var (
	// controlBlockCfg defines the configuration options for the command.
	controlBlockCfg = controlBlockCmd{}
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *controlBlockCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout)
}

func (cmd *controlBlockCmd) run(w io.Writer) error {
	rawCB, err := decodeHex("controlblock", cmd.ControlBlock)
	if err != nil {
		return err
	}
	cb, err := taproot.ParseControlBlock(rawCB)
	if err != nil {
		return err
	}

	internalKey := ec.XOnly(cb.InternalKey)
	fmt.Fprintf(w, "leafversion: 0x%02x\n", byte(cb.LeafVersion))
	fmt.Fprintf(w, "parity:      %v\n", oddOrEven(cb.OutputKeyYIsOdd))
	fmt.Fprintf(w, "internalkey: %x\n", internalKey[:])
	proof := cb.InclusionProof
	for i := 0; i < cb.ProofNodes(); i++ {
		node := proof[i*taproot.ControlBlockNodeSize : (i+1)*taproot.ControlBlockNodeSize]
		fmt.Fprintf(w, "node %d:      %x\n", i, node)
	}

	if cmd.Script == "" {
		return nil
	}
	script, err := decodeHex("script", cmd.Script)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "merkleroot:  %x\n", cb.RootHash(script))

	if cmd.OutputKey == "" {
		return nil
	}
	outputKey, err := decodeHex("outputkey", cmd.OutputKey)
	if err != nil {
		return err
	}
	err = taproot.VerifyLeafCommitment(ec.Default, cb, outputKey, script)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "commitment:  valid")

	return nil
}
