// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btctaproot/internal/log"
	"github.com/btcsuite/btctaproot/internal/version"
	flags "github.com/jessevdk/go-flags"
)

// newParser returns the parser for the global options and every command.
func newParser(appName string, options flags.Options) *flags.Parser {
	parser := flags.NewNamedParser(appName, options)
	parser.AddGroup("Global Options", "", cfg)
	parser.AddCommand("keygen",
		"Generate private keys and their key path only addresses", "",
		&keygenCfg)
	parser.AddCommand("tree",
		"Derive a taproot output from a tree descriptor or weighted leaves",
		"Derive a taproot output.  Either --desc gives a tree descriptor "+
			"with an explicit shape, or --internalkey and one or more "+
			"--leaf options build a Huffman tree from weighted leaves.",
		&treeCfg)
	parser.AddCommand("sighash",
		"Compute the taproot signature hash of a transaction input", "",
		&sighashCfg)
	parser.AddCommand("sign", "Create a BIP-340 signature over a digest",
		"", &signCfg)
	parser.AddCommand("verify", "Verify a BIP-340 signature over a digest",
		"", &verifyCfg)
	parser.AddCommand("musig",
		"Aggregate public keys into a single MuSig key", "", &musigCfg)
	parser.AddCommand("controlblock",
		"Decode a control block and check it against an output key", "",
		&controlBlockCfg)
	return parser
}

// loadConfig parses the command line and the config file, then invokes the
// selected command.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// Command line options always take precedence.
func loadConfig(appName string) error {
	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Command options are not
	// known to this parser and are skipped.
	preCfg := *cfg
	preParser := flags.NewNamedParser(appName, flags.IgnoreUnknown)
	preParser.AddGroup("Global Options", "", &preCfg)
	if _, err := preParser.Parse(); err != nil {
		return err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	// Load additional config from file.  A missing file is only an error
	// when it was asked for explicitly.
	parser := newParser(appName, flags.HelpFlag|flags.PassDoubleDash)
	err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		_, isPathErr := err.(*os.PathError)
		if !isPathErr || preCfg.ConfigFile != defaultConfigFile {
			return fmt.Errorf("unable to load config file %s: %w",
				preCfg.ConfigFile, err)
		}
	}

	// Parse command line options again to ensure they take precedence, and
	// invoke the Execute function for the specified command.
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	return nil
}

// realMain is the real main function for the utility.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func realMain() error {
	defer func() {
		if log.LogRotator != nil {
			log.LogRotator.Close()
		}
	}()

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	return loadConfig(appName)
}

func main() {
	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
