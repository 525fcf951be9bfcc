// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/sighash"
	"github.com/btcsuite/btctaproot/taproot"
	"github.com/btcsuite/btctaproot/tapscript"
)

// sighashCmd defines the configuration options for the sighash command.
type sighashCmd struct {
	Tx          string   `long:"tx" description:"Serialized spending transaction in hex"`
	PrevOuts    []string `long:"prevout" description:"Spent output of each input in order as <amount>:<pkscript hex>"`
	Index       uint32   `long:"index" description:"Index of the input being signed"`
	HashType    string   `long:"hashtype" description:"Signature hash type such as DEFAULT, ALL or SINGLE|ANYONECANPAY"`
	Leaf        string   `long:"leaf" description:"Leaf descriptor for a script path spend"`
	Script      string   `long:"script" description:"Leaf script in hex for a script path spend"`
	LeafVersion uint8    `long:"leafversion" description:"Leaf version used with --script"`
	Annex       string   `long:"annex" description:"Annex in hex, starting with 0x50"`
	CodeSepPos  uint32   `long:"codesep" description:"Position of the last executed OP_CODESEPARATOR"`
}

var (
	// sighashCfg defines the configuration options for the command.
	sighashCfg = sighashCmd{
		HashType:    "DEFAULT",
		LeafVersion: uint8(taproot.BaseLeafVersion),
		CodeSepPos:  sighash.DefaultCodeSepPos,
	}
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *sighashCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout)
}

// leaf returns the leaf given by --leaf or --script, if any.
func (cmd *sighashCmd) leaf() (*taproot.TapLeaf, error) {
	switch {
	case cmd.Leaf != "" && cmd.Script != "":
		return nil, errors.New("--leaf can't be used together with " +
			"--script")

	case cmd.Leaf != "":
		tmpl, err := tapscript.ParseLeafDescriptor(cmd.Leaf)
		if err != nil {
			return nil, err
		}
		leaf, err := tmpl.Leaf()
		return &leaf, err

	case cmd.Script != "":
		script, err := decodeHex("script", cmd.Script)
		if err != nil {
			return nil, err
		}
		leaf, err := taproot.NewTapLeaf(
			taproot.LeafVersion(cmd.LeafVersion), script,
		)
		return &leaf, err
	}

	return nil, nil
}

func (cmd *sighashCmd) run(w io.Writer) error {
	rawTx, err := decodeHex("tx", cmd.Tx)
	if err != nil {
		return err
	}
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return fmt.Errorf("unable to decode --tx: %w", err)
	}

	prevOuts := make([]*wire.TxOut, 0, len(cmd.PrevOuts))
	for _, s := range cmd.PrevOuts {
		prevOut, err := parsePrevOut(s)
		if err != nil {
			return err
		}
		prevOuts = append(prevOuts, prevOut)
	}

	hashType, err := sighash.ParseHashType(cmd.HashType)
	if err != nil {
		return err
	}

	leaf, err := cmd.leaf()
	if err != nil {
		return err
	}

	var opts []sighash.Option
	if cmd.Annex != "" {
		annex, err := decodeHex("annex", cmd.Annex)
		if err != nil {
			return err
		}
		opts = append(opts, sighash.WithAnnex(annex))
	}

	path := sighash.KeyPath
	if leaf != nil {
		path = sighash.ScriptPath
		opts = append(opts, sighash.WithLeaf(*leaf),
			sighash.WithCodeSepPos(cmd.CodeSepPos))
	}

	digest, err := sighash.CalcDigest(&tx, prevOuts, int(cmd.Index),
		hashType, path, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "path:     %v\n", path)
	fmt.Fprintf(w, "hashtype: %v\n", hashType)
	if leaf != nil {
		leafHash := leaf.TapHash()
		fmt.Fprintf(w, "leafhash: %x\n", leafHash[:])
	}
	fmt.Fprintf(w, "sighash:  %x\n", digest[:])

	return nil
}
