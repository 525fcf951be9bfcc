// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/internal/log"
	"github.com/btcsuite/btctaproot/taproot"
)

// keygenCmd defines the configuration options for the keygen command.
type keygenCmd struct {
	Count int `long:"count" description:"Number of keys to generate"`
}

var (
	// keygenCfg defines the configuration options for the command.
	keygenCfg = keygenCmd{Count: 1}
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *keygenCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout, ec.Default)
}

func (cmd *keygenCmd) run(w io.Writer, curve ec.Capability) error {
	if cmd.Count < 1 {
		return fmt.Errorf("--count must be positive, got %d", cmd.Count)
	}

	for i := 0; i < cmd.Count; i++ {
		priv, err := curve.GenerateKey()
		if err != nil {
			return err
		}

		tree, err := taproot.NewBuilder(curve).Build(priv.PubKey())
		if err != nil {
			return err
		}
		addr, err := tree.Address(activeNetParams)
		if err != nil {
			return err
		}

		xOnly := ec.XOnly(priv.PubKey())
		fmt.Fprintf(w, "privkey: %x\n", priv.Serialize())
		fmt.Fprintf(w, "xonly:   %x\n", xOnly[:])
		fmt.Fprintf(w, "address: %s\n", addr.EncodeAddress())
	}

	log.TctlLog.Debugf("Generated %d %s", cmd.Count,
		log.PickNoun(uint64(cmd.Count), "key", "keys"))

	return nil
}
