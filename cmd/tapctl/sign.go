// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/schnorr"
	"github.com/btcsuite/btctaproot/sighash"
	"github.com/btcsuite/btctaproot/taproot"
	"github.com/btcsuite/btctaproot/tapscript"
)

// signCmd defines the configuration options for the sign command.
type signCmd struct {
	PrivKey    string `long:"privkey" description:"Private key in hex"`
	Digest     string `long:"digest" description:"32-byte digest to sign in hex"`
	KeySpend   bool   `long:"keyspend" description:"Tweak the private key to sign for the taproot output key"`
	MerkleRoot string `long:"merkleroot" description:"Merkle root committed to by the output key, used with --keyspend"`
	HashType   string `long:"hashtype" description:"Hash type appended to the signature"`
}

// verifyCmd defines the configuration options for the verify command.
type verifyCmd struct {
	PubKey string `long:"pubkey" description:"X-only public key in hex"`
	Digest string `long:"digest" description:"32-byte signed digest in hex"`
	Sig    string `long:"sig" description:"64-byte signature, or 65 bytes with a hash type, in hex"`
}

var (
	// signCfg defines the configuration options for the sign command.
	signCfg = signCmd{HashType: "DEFAULT"}

	// verifyCfg defines the configuration options for the verify command.
	verifyCfg = verifyCmd{}

	errInvalidSignature = errors.New("signature is invalid")
)

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *signCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout)
}

func (cmd *signCmd) run(w io.Writer) error {
	priv, err := parsePrivKey("privkey", cmd.PrivKey)
	if err != nil {
		return err
	}
	digest, err := decodeHash("digest", cmd.Digest)
	if err != nil {
		return err
	}
	hashType, err := sighash.ParseHashType(cmd.HashType)
	if err != nil {
		return err
	}

	if cmd.MerkleRoot != "" && !cmd.KeySpend {
		return errors.New("--merkleroot requires --keyspend")
	}
	if cmd.KeySpend {
		var merkleRoot []byte
		if cmd.MerkleRoot != "" {
			merkleRoot, err = decodeHash("merkleroot", cmd.MerkleRoot)
			if err != nil {
				return err
			}
		}
		priv, err = taproot.TweakPrivKey(ec.Default, priv, merkleRoot)
		if err != nil {
			return err
		}
	}

	sig, err := schnorr.Sign(priv, digest)
	if err != nil {
		return err
	}

	xOnly := ec.XOnly(priv.PubKey())
	fmt.Fprintf(w, "pubkey:    %x\n", xOnly[:])
	fmt.Fprintf(w, "signature: %x\n", tapscript.SignatureWithHashType(
		sig.Serialize(), hashType,
	))

	return nil
}

// Execute is the main entry point for the command.  It's invoked by the parser.
func (cmd *verifyCmd) Execute(args []string) error {
	// Setup the global config options and ensure they are valid.
	if err := setupGlobalConfig(); err != nil {
		return err
	}
	return cmd.run(os.Stdout)
}

func (cmd *verifyCmd) run(w io.Writer) error {
	pub, err := parseXOnlyKey("pubkey", cmd.PubKey)
	if err != nil {
		return err
	}
	digest, err := decodeHash("digest", cmd.Digest)
	if err != nil {
		return err
	}
	sig, err := decodeHex("sig", cmd.Sig)
	if err != nil {
		return err
	}

	// A trailing hash type byte is reported and stripped.
	hashType := sighash.SigHashDefault
	switch len(sig) {
	case schnorr.SignatureSize:
	case schnorr.SignatureSize + 1:
		hashType = sighash.HashType(sig[schnorr.SignatureSize])
		if hashType == sighash.SigHashDefault || !hashType.IsValid() {
			return fmt.Errorf("invalid signature hash type %v", hashType)
		}
		sig = sig[:schnorr.SignatureSize]
	default:
		return fmt.Errorf("--sig must be %d or %d bytes, got %d",
			schnorr.SignatureSize, schnorr.SignatureSize+1, len(sig))
	}

	if !schnorr.Verify(pub, sig, digest) {
		return errInvalidSignature
	}

	fmt.Fprintf(w, "hashtype:  %v\n", hashType)
	fmt.Fprintln(w, "signature: valid")
	return nil
}
