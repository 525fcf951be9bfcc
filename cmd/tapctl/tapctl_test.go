// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/musig"
	"github.com/btcsuite/btctaproot/sighash"
	"github.com/btcsuite/btctaproot/taproot"
	"github.com/btcsuite/btctaproot/tapscript"
	"github.com/stretchr/testify/require"
)

// fields returns every "name: value" line of out in order.
func fields(out string) [][2]string {
	var kvs [][2]string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		i := strings.Index(line, ": ")
		if i == -1 {
			continue
		}
		kvs = append(kvs, [2]string{
			line[:i], strings.TrimSpace(line[i+2:]),
		})
	}
	return kvs
}

// field returns the value of the first line of out named name.
func field(t *testing.T, out, name string) string {
	for _, kv := range fields(out) {
		if kv[0] == name {
			return kv[1]
		}
	}
	t.Fatalf("no %q in output:\n%s", name, out)
	return ""
}

// allFields returns the values of every line of out named name.
func allFields(out, name string) []string {
	var values []string
	for _, kv := range fields(out) {
		if kv[0] == name {
			values = append(values, kv[1])
		}
	}
	return values
}

func testKey(i byte) (*btcec.PrivateKey, *btcec.PublicKey) {
	return btcec.PrivKeyFromBytes(bytes.Repeat([]byte{i + 1}, 32))
}

func xHex(key *btcec.PublicKey) string {
	x := ec.XOnly(key)
	return hex.EncodeToString(x[:])
}

func pkDesc(key *btcec.PublicKey) string {
	return "ts(pk(" + xHex(key) + "))"
}

// TestTreeAndControlBlock derives a tree from a descriptor and checks every
// printed control block with the controlblock command.
func TestTreeAndControlBlock(t *testing.T) {
	t.Parallel()

	_, internalKey := testKey(9)
	_, a := testKey(0)
	_, b := testKey(1)
	_, c := testKey(2)

	cmd := &treeCmd{
		Descriptor: "tp(" + xHex(internalKey) + ",[[" + pkDesc(a) + "," +
			pkDesc(b) + "]," + pkDesc(c) + "])",
	}
	var out bytes.Buffer
	require.NoError(t, cmd.run(&out))

	td, err := tapscript.ParseTreeDescriptor(cmd.Descriptor)
	require.NoError(t, err)
	tree, err := td.Tree(ec.Default)
	require.NoError(t, err)

	addr, err := tree.Address(&chaincfg.MainNetParams)
	require.NoError(t, err)
	outputKey := ec.XOnly(tree.OutputKey())

	require.Equal(t, addr.EncodeAddress(), field(t, out.String(), "address"))
	require.Equal(t, hex.EncodeToString(outputKey[:]),
		field(t, out.String(), "outputkey"))
	require.Equal(t, hex.EncodeToString(tree.MerkleRoot()),
		field(t, out.String(), "merkleroot"))
	require.Equal(t, []string{"2", "2", "1"},
		allFields(out.String(), "depth"))

	scripts := allFields(out.String(), "script")
	controlBlocks := allFields(out.String(), "controlblock")
	require.Len(t, scripts, 3)
	require.Len(t, controlBlocks, 3)

	for i := range scripts {
		cbCmd := &controlBlockCmd{
			ControlBlock: controlBlocks[i],
			Script:       scripts[i],
			OutputKey:    hex.EncodeToString(outputKey[:]),
		}
		var cbOut bytes.Buffer
		require.NoError(t, cbCmd.run(&cbOut))
		require.Equal(t, "valid", field(t, cbOut.String(), "commitment"))
		require.Equal(t, xHex(internalKey),
			field(t, cbOut.String(), "internalkey"))
	}

	// A control block checked against another output key is rejected.
	_, otherKey := testKey(10)
	cbCmd := &controlBlockCmd{
		ControlBlock: controlBlocks[0],
		Script:       scripts[0],
		OutputKey:    xHex(otherKey),
	}
	err = cbCmd.run(&bytes.Buffer{})
	require.True(t, taproot.IsErrorCode(err, taproot.ErrMerkleProofInvalid))
}

// TestTreeHuffman builds a tree from weighted leaves.
func TestTreeHuffman(t *testing.T) {
	t.Parallel()

	_, internalKey := testKey(9)
	_, a := testKey(0)
	_, b := testKey(1)

	cmd := &treeCmd{
		InternalKey: xHex(internalKey),
		Leaves:      []string{"5:" + pkDesc(a), "1:" + pkDesc(b)},
	}
	var out bytes.Buffer
	require.NoError(t, cmd.run(&out))
	require.Len(t, allFields(out.String(), "controlblock"), 2)

	// Key path only without leaves.
	cmd = &treeCmd{InternalKey: xHex(internalKey)}
	out.Reset()
	require.NoError(t, cmd.run(&out))
	require.Empty(t, allFields(out.String(), "merkleroot"))

	invalid := []*treeCmd{
		{},
		{Descriptor: "tp(" + xHex(internalKey) + ")",
			InternalKey: xHex(internalKey)},
		{InternalKey: xHex(internalKey), Leaves: []string{pkDesc(a)}},
		{InternalKey: xHex(internalKey), Leaves: []string{"x:" + pkDesc(a)}},
		{InternalKey: xHex(internalKey), Leaves: []string{"0:" + pkDesc(a)}},
		{InternalKey: xHex(internalKey),
			Leaves: []string{"1:" + pkDesc(a), "2:" + pkDesc(a)}},
		{InternalKey: "00"},
	}
	for _, cmd := range invalid {
		require.Error(t, cmd.run(&bytes.Buffer{}), "%+v", cmd)
	}
}

// TestSignAndVerify signs digests directly and through the key path and
// checks them with the verify command.
func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	priv, pub := testKey(3)
	digest := hex.EncodeToString(chainhash.HashB([]byte("tapctl")))
	merkleRoot := hex.EncodeToString(chainhash.HashB([]byte("root")))

	signAndVerify := func(cmd *signCmd, verifyKey string) {
		var out bytes.Buffer
		require.NoError(t, cmd.run(&out))
		require.Equal(t, verifyKey, field(t, out.String(), "pubkey"))

		verify := &verifyCmd{
			PubKey: verifyKey,
			Digest: cmd.Digest,
			Sig:    field(t, out.String(), "signature"),
		}
		var verifyOut bytes.Buffer
		require.NoError(t, verify.run(&verifyOut))
		require.Equal(t, "valid",
			field(t, verifyOut.String(), "signature"))
	}

	privHex := hex.EncodeToString(priv.Serialize())
	signAndVerify(&signCmd{
		PrivKey: privHex, Digest: digest, HashType: "DEFAULT",
	}, xHex(pub))
	signAndVerify(&signCmd{
		PrivKey: privHex, Digest: digest, HashType: "SINGLE|ANYONECANPAY",
	}, xHex(pub))

	// The tweaked key signs for the output key committing to the root.
	rootBytes, _ := hex.DecodeString(merkleRoot)
	outputKey, _, err := taproot.ComputeOutputKey(ec.Default, pub, rootBytes)
	require.NoError(t, err)
	signAndVerify(&signCmd{
		PrivKey: privHex, Digest: digest, HashType: "ALL",
		KeySpend: true, MerkleRoot: merkleRoot,
	}, xHex(outputKey))

	outputKey, _, err = taproot.ComputeKeyPathOutputKey(ec.Default, pub)
	require.NoError(t, err)
	signAndVerify(&signCmd{
		PrivKey: privHex, Digest: digest, HashType: "DEFAULT",
		KeySpend: true,
	}, xHex(outputKey))

	// A signature for one key does not verify under another.
	var out bytes.Buffer
	require.NoError(t, (&signCmd{
		PrivKey: privHex, Digest: digest, HashType: "DEFAULT",
	}).run(&out))
	_, other := testKey(4)
	err = (&verifyCmd{
		PubKey: xHex(other),
		Digest: digest,
		Sig:    field(t, out.String(), "signature"),
	}).run(&bytes.Buffer{})
	require.ErrorIs(t, err, errInvalidSignature)

	invalid := []*signCmd{
		{Digest: digest, HashType: "DEFAULT"},
		{PrivKey: privHex, Digest: "00", HashType: "DEFAULT"},
		{PrivKey: privHex, Digest: digest, HashType: "BOGUS"},
		{PrivKey: privHex, Digest: digest, HashType: "DEFAULT",
			MerkleRoot: merkleRoot},
	}
	for _, cmd := range invalid {
		require.Error(t, cmd.run(&bytes.Buffer{}), "%+v", cmd)
	}
}

// TestSighashCommand ensures the sighash command matches the library and
// btcd for key and script path spends.
func TestSighashCommand(t *testing.T) {
	t.Parallel()

	_, internalKey := testKey(5)
	_, leafKey := testKey(6)
	leafTmpl, err := tapscript.PayToPubKey(leafKey)
	require.NoError(t, err)
	leaf, err := leafTmpl.Leaf()
	require.NoError(t, err)

	tree, err := taproot.NewBuilder(ec.Default).AddLeaf(1, leaf).
		Build(internalKey)
	require.NoError(t, err)
	pkScript, err := tree.PkScript()
	require.NoError(t, err)
	prevOut := wire.NewTxOut(70000, pkScript)

	var prevHash chainhash.Hash
	prevHash[0] = 0x01
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(60000, pkScript))
	var rawTx bytes.Buffer
	require.NoError(t, tx.Serialize(&rawTx))

	prevOuts := []*wire.TxOut{prevOut}
	prevOutArg := "70000:" + hex.EncodeToString(pkScript)

	cmd := &sighashCmd{
		Tx:         hex.EncodeToString(rawTx.Bytes()),
		PrevOuts:   []string{prevOutArg},
		HashType:   "ALL",
		CodeSepPos: sighash.DefaultCodeSepPos,
	}
	var out bytes.Buffer
	require.NoError(t, cmd.run(&out))

	fetcher, err := sighash.NewPrevOutFetcher(tx, prevOuts)
	require.NoError(t, err)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	want, err := txscript.CalcTaprootSignatureHash(
		sigHashes, txscript.SigHashAll, tx, 0, fetcher,
	)
	require.NoError(t, err)
	require.Equal(t, hex.EncodeToString(want), field(t, out.String(), "sighash"))
	require.Equal(t, "key path", field(t, out.String(), "path"))

	// The leaf may be given as a descriptor or as a raw script.
	want, err = txscript.CalcTapscriptSignaturehash(
		sigHashes, txscript.SigHashDefault, tx, 0, fetcher,
		txscript.NewBaseTapLeaf(leaf.Script()),
	)
	require.NoError(t, err)

	for _, cmd := range []*sighashCmd{{
		Tx:         hex.EncodeToString(rawTx.Bytes()),
		PrevOuts:   []string{prevOutArg},
		HashType:   "DEFAULT",
		Leaf:       leafTmpl.String(),
		CodeSepPos: sighash.DefaultCodeSepPos,
	}, {
		Tx:          hex.EncodeToString(rawTx.Bytes()),
		PrevOuts:    []string{prevOutArg},
		HashType:    "0x00",
		Script:      hex.EncodeToString(leaf.Script()),
		LeafVersion: uint8(taproot.BaseLeafVersion),
		CodeSepPos:  sighash.DefaultCodeSepPos,
	}} {
		out.Reset()
		require.NoError(t, cmd.run(&out))
		require.Equal(t, hex.EncodeToString(want),
			field(t, out.String(), "sighash"))
	}

	invalid := []*sighashCmd{
		{PrevOuts: []string{prevOutArg}, HashType: "ALL"},
		{Tx: "00", PrevOuts: []string{prevOutArg}, HashType: "ALL"},
		{Tx: hex.EncodeToString(rawTx.Bytes()), HashType: "ALL"},
		{Tx: hex.EncodeToString(rawTx.Bytes()),
			PrevOuts: []string{"70000"}, HashType: "ALL"},
		{Tx: hex.EncodeToString(rawTx.Bytes()),
			PrevOuts: []string{prevOutArg}, HashType: "ALL", Index: 1},
		{Tx: hex.EncodeToString(rawTx.Bytes()),
			PrevOuts: []string{prevOutArg}, HashType: "ALL",
			Leaf: leafTmpl.String(), Script: "51"},
		{Tx: hex.EncodeToString(rawTx.Bytes()),
			PrevOuts: []string{prevOutArg}, HashType: "ALL",
			Annex: "00"},
	}
	for _, cmd := range invalid {
		require.Error(t, cmd.run(&bytes.Buffer{}), "%+v", cmd)
	}
}

// TestMusigCommand ensures the musig command prints the aggregate key and a
// key share matching the library.
func TestMusigCommand(t *testing.T) {
	t.Parallel()

	privs := make([]*btcec.PrivateKey, 3)
	pubs := make([]*btcec.PublicKey, 3)
	pubHex := make([]string, 3)
	for i := range privs {
		privs[i], pubs[i] = testKey(byte(20 + i))
		pubHex[i] = hex.EncodeToString(pubs[i].SerializeCompressed())
	}

	cmd := &musigCmd{
		PubKeys: pubHex,
		PrivKey: hex.EncodeToString(privs[1].Serialize()),
	}
	var out bytes.Buffer
	require.NoError(t, cmd.run(&out))

	agg, err := musig.AggregateKeys(pubs)
	require.NoError(t, err)
	share, err := agg.TweakedPrivKeyShare(privs[1])
	require.NoError(t, err)
	shareBytes := share.Bytes()

	require.Equal(t, xHex(agg.FinalKey), field(t, out.String(), "xonly"))
	require.Equal(t, hex.EncodeToString(shareBytes[:]),
		field(t, out.String(), "keyshare"))

	addr, err := btcutil.DecodeAddress(field(t, out.String(), "address"),
		&chaincfg.MainNetParams)
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressTaproot{}, addr)

	err = (&musigCmd{}).run(&bytes.Buffer{})
	require.True(t, musig.IsErrorCode(err, musig.ErrNoKeys))

	err = (&musigCmd{PubKeys: []string{pubHex[0], pubHex[0]}}).run(
		&bytes.Buffer{},
	)
	require.True(t, musig.IsErrorCode(err, musig.ErrDuplicateKey))
}

// TestKeygenCommand ensures generated keys match their printed public keys
// and addresses.
func TestKeygenCommand(t *testing.T) {
	t.Parallel()

	cmd := &keygenCmd{Count: 3}
	var out bytes.Buffer
	require.NoError(t, cmd.run(&out, ec.Default))

	privs := allFields(out.String(), "privkey")
	xOnlys := allFields(out.String(), "xonly")
	addrs := allFields(out.String(), "address")
	require.Len(t, privs, 3)

	for i := range privs {
		b, err := hex.DecodeString(privs[i])
		require.NoError(t, err)
		priv, err := ec.ParsePrivKey(b)
		require.NoError(t, err)
		require.Equal(t, xHex(priv.PubKey()), xOnlys[i])

		tree, err := taproot.NewBuilder(ec.Default).Build(priv.PubKey())
		require.NoError(t, err)
		addr, err := tree.Address(&chaincfg.MainNetParams)
		require.NoError(t, err)
		require.Equal(t, addr.EncodeAddress(), addrs[i])
	}

	require.Error(t, (&keygenCmd{}).run(&bytes.Buffer{}, ec.Default))
}

// TestSetupGlobalConfig ensures unknown networks and debug levels are
// rejected.
func TestSetupGlobalConfig(t *testing.T) {
	defer func(saved config) {
		*cfg = saved
		activeNetParams = &chaincfg.MainNetParams
	}(*cfg)

	cfg.NoFileLog = true

	cfg.Network = "regtest"
	cfg.DebugLevel = "info"
	require.NoError(t, setupGlobalConfig())
	require.Equal(t, &chaincfg.RegressionNetParams, activeNetParams)

	cfg.Network = "florin"
	require.Error(t, setupGlobalConfig())

	cfg.Network = "mainnet"
	cfg.DebugLevel = "TAPR=loud"
	require.Error(t, setupGlobalConfig())
}
