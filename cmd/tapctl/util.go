// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/ec"
)

var errMissingArg = errors.New("missing required option")

// decodeHex decodes the hex value of the named option.
func decodeHex(name, s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w --%s", errMissingArg, name)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex for --%s: %w", name, err)
	}
	return b, nil
}

// decodeHash decodes a 32-byte hex value of the named option.
func decodeHash(name, s string) ([]byte, error) {
	b, err := decodeHex(name, s)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("--%s must be 32 bytes, got %d", name,
			len(b))
	}
	return b, nil
}

// parseXOnlyKey parses an x-only public key option.
func parseXOnlyKey(name, s string) (*btcec.PublicKey, error) {
	b, err := decodeHex(name, s)
	if err != nil {
		return nil, err
	}
	key, err := ec.ParseXOnly(b)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return key, nil
}

// parsePrivKey parses a 32-byte private key option.
func parsePrivKey(name, s string) (*btcec.PrivateKey, error) {
	b, err := decodeHex(name, s)
	if err != nil {
		return nil, err
	}
	priv, err := ec.ParsePrivKey(b)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return priv, nil
}

// parsePrevOut parses a spent output given as <amount in satoshi>:<pkscript>.
func parsePrevOut(s string) (*wire.TxOut, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("prevout %q is not <amount>:<pkscript>", s)
	}
	amount, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || amount < 0 {
		return nil, fmt.Errorf("invalid prevout amount %q", parts[0])
	}
	pkScript, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid prevout pkscript: %w", err)
	}
	return wire.NewTxOut(amount, pkScript), nil
}

// parseWeightedLeaf parses a leaf given as <weight>:<leaf descriptor>.
func parseWeightedLeaf(s string) (uint64, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("leaf %q is not <weight>:<descriptor>",
			s)
	}
	weight, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid leaf weight %q", parts[0])
	}
	return weight, parts[1], nil
}
