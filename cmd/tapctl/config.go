// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btctaproot/internal/log"
)

const (
	defaultConfigFilename = "tapctl.conf"
	defaultLogFilename    = "tapctl.log"
	defaultLogDirname     = "logs"
	defaultLogLevel       = "info"
	defaultNetwork        = "mainnet"
)

var (
	tapctlHomeDir     = btcutil.AppDataDir("tapctl", false)
	defaultConfigFile = filepath.Join(tapctlHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(tapctlHomeDir, defaultLogDirname)

	// knownNetworks maps the accepted --network values to their params.
	knownNetworks = map[string]*chaincfg.Params{
		"mainnet":  &chaincfg.MainNetParams,
		"testnet3": &chaincfg.TestNet3Params,
		"regtest":  &chaincfg.RegressionNetParams,
		"simnet":   &chaincfg.SimNetParams,
		"signet":   &chaincfg.SigNetParams,
	}

	activeNetParams = &chaincfg.MainNetParams

	// Default global config.
	cfg = &config{
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
		Network:    defaultNetwork,
		DebugLevel: defaultLogLevel,
	}
)

// config defines the global configuration options.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	NoFileLog   bool   `long:"nofilelogging" description:"Log to standard error only"`
	Network     string `short:"n" long:"network" description:"Network addresses are encoded for {mainnet, testnet3, regtest, simnet, signet}"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
}

// networkNames returns the sorted accepted --network values.
func networkNames() []string {
	names := make([]string, 0, len(knownNetworks))
	for name := range knownNetworks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(tapctlHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// setupGlobalConfig examines the global configuration options for any
// conditions which are invalid and performs any additional setup necessary
// after the initial parse, such as starting the log rotator.
func setupGlobalConfig() error {
	params, ok := knownNetworks[cfg.Network]
	if !ok {
		return fmt.Errorf("unknown network %q -- supported networks %v",
			cfg.Network, networkNames())
	}
	activeNetParams = params

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", log.SupportedSubsystems())
		os.Exit(0)
	}

	if err := log.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return err
	}

	if cfg.NoFileLog {
		return nil
	}

	// Append the network type to the log directory so it is "namespaced"
	// per network.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	logFile := filepath.Join(cfg.LogDir, activeNetParams.Name,
		defaultLogFilename)
	return log.InitLogRotator(logFile)
}
