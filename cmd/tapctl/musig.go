// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/musig"
	"github.com/btcsuite/btctaproot/taproot"
)

// musigCmd defines the configuration options for the musig command.
type musigCmd struct {
	PubKeys []string `long:"pubkey" description:"Compressed public key of a participant in hex, may be repeated"`
	PrivKey string   `long:"privkey" description:"Private key of one participant to print its key share"`
}

var (
	// musigCfg defines the configuration options for the command.
	musigCfg = musigCmd{}
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *musigCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout)
}

func (cmd *musigCmd) run(w io.Writer) error {
	keys := make([]*btcec.PublicKey, 0, len(cmd.PubKeys))
	for _, s := range cmd.PubKeys {
		b, err := decodeHex("pubkey", s)
		if err != nil {
			return err
		}
		key, err := ec.ParsePubKey(b)
		if err != nil {
			return fmt.Errorf("invalid --pubkey: %w", err)
		}
		keys = append(keys, key)
	}

	agg, err := musig.AggregateKeys(keys)
	if err != nil {
		return err
	}

	// The aggregate key is used as the internal key of a key path only
	// output.
	tree, err := taproot.NewBuilder(ec.Default).Build(agg.FinalKey)
	if err != nil {
		return err
	}
	addr, err := tree.Address(activeNetParams)
	if err != nil {
		return err
	}

	xOnly := ec.XOnly(agg.FinalKey)
	fmt.Fprintf(w, "aggregatekey: %x\n", agg.FinalKey.SerializeCompressed())
	fmt.Fprintf(w, "xonly:        %x\n", xOnly[:])
	fmt.Fprintf(w, "keylisthash:  %x\n", agg.KeyListHash[:])
	for _, key := range agg.Keys() {
		c, err := agg.Coefficient(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "coefficient %x: %x\n", key.SerializeCompressed(),
			c.Bytes())
	}
	fmt.Fprintf(w, "address:      %s\n", addr.EncodeAddress())

	if cmd.PrivKey == "" {
		return nil
	}

	priv, err := parsePrivKey("privkey", cmd.PrivKey)
	if err != nil {
		return err
	}
	share, err := agg.TweakedPrivKeyShare(priv)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "keyshare:     %x\n", share.Bytes())

	return nil
}
