// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sighash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// MidState houses the per transaction hashes that every taproot signature of
// a transaction shares.  A midstate is only accepted for the transaction and
// spent outputs it was computed from.
type MidState struct {
	HashPrevOuts      chainhash.Hash
	HashAmounts       chainhash.Hash
	HashScriptPubKeys chainhash.Hash
	HashSequences     chainhash.Hash
	HashOutputs       chainhash.Hash

	// txHash and numInputs identify the transaction the midstate was
	// computed for.
	txHash    chainhash.Hash
	numInputs int
}

// NewMidState computes the shared hashes of tx given the outputs spent by each
// of its inputs.
func NewMidState(tx *wire.MsgTx, prevOuts []*wire.TxOut) (*MidState, error) {
	if err := checkPrevOuts(tx, prevOuts); err != nil {
		return nil, err
	}

	return &MidState{
		HashPrevOuts:      calcHashPrevOuts(tx),
		HashAmounts:       calcHashAmounts(prevOuts),
		HashScriptPubKeys: calcHashScriptPubKeys(prevOuts),
		HashSequences:     calcHashSequences(tx),
		HashOutputs:       calcHashOutputs(tx.TxOut),
		txHash:            tx.TxHash(),
		numInputs:         len(tx.TxIn),
	}, nil
}

// mismatch returns a description of how the midstate differs from the one
// of tx spending prevOuts, or the empty string when it was computed for them.
// The spent outputs are not part of the txid, so their hashes are recomputed.
func (m *MidState) mismatch(tx *wire.MsgTx, prevOuts []*wire.TxOut) string {
	switch {
	case m.numInputs != len(tx.TxIn) || m.txHash != tx.TxHash():
		return fmt.Sprintf("midstate was computed for tx %v, not %v",
			m.txHash, tx.TxHash())

	case m.HashAmounts != calcHashAmounts(prevOuts):
		return "midstate was computed for different spent amounts"

	case m.HashScriptPubKeys != calcHashScriptPubKeys(prevOuts):
		return "midstate was computed for different spent scripts"
	}
	return ""
}

// TxSigHashes returns the midstate in the form used by the btcd script
// engine, so a transaction signed here can be validated with one set of
// hashes.
func (m *MidState) TxSigHashes() *txscript.TxSigHashes {
	return &txscript.TxSigHashes{
		TaprootSigHashMidState: txscript.TaprootSigHashMidState{
			HashPrevOutsV1:     m.HashPrevOuts,
			HashSequenceV1:     m.HashSequences,
			HashOutputsV1:      m.HashOutputs,
			HashInputScriptsV1: m.HashScriptPubKeys,
			HashInputAmountsV1: m.HashAmounts,
		},
	}
}

// checkPrevOuts ensures there is exactly one non-nil spent output per input.
func checkPrevOuts(tx *wire.MsgTx, prevOuts []*wire.TxOut) error {
	if len(prevOuts) != len(tx.TxIn) {
		str := fmt.Sprintf("transaction has %d inputs but %d spent "+
			"outputs were given", len(tx.TxIn), len(prevOuts))
		return sighashError(ErrMismatchedPrevouts, str)
	}

	for i, prevOut := range prevOuts {
		if prevOut == nil {
			str := fmt.Sprintf("spent output for input %d is nil", i)
			return sighashError(ErrMismatchedPrevouts, str)
		}
	}
	return nil
}

// NewPrevOutFetcher maps the spent outputs to the outpoints of tx for use with
// the btcd script engine.
func NewPrevOutFetcher(tx *wire.MsgTx,
	prevOuts []*wire.TxOut) (*txscript.MultiPrevOutFetcher, error) {

	if err := checkPrevOuts(tx, prevOuts); err != nil {
		return nil, err
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range tx.TxIn {
		fetcher.AddPrevOut(txIn.PreviousOutPoint, prevOuts[i])
	}
	return fetcher, nil
}

// calcHashPrevOuts is the single sha256 of every outpoint spent by tx.
func calcHashPrevOuts(tx *wire.MsgTx) chainhash.Hash {
	var b bytes.Buffer
	for _, in := range tx.TxIn {
		b.Write(in.PreviousOutPoint.Hash[:])

		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], in.PreviousOutPoint.Index)
		b.Write(buf[:])
	}

	return chainhash.HashH(b.Bytes())
}

// calcHashSequences is the single sha256 of every input sequence of tx.
func calcHashSequences(tx *wire.MsgTx) chainhash.Hash {
	var b bytes.Buffer
	for _, in := range tx.TxIn {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], in.Sequence)
		b.Write(buf[:])
	}

	return chainhash.HashH(b.Bytes())
}

// calcHashOutputs is the single sha256 of the wire encoding of outputs.
func calcHashOutputs(outputs []*wire.TxOut) chainhash.Hash {
	var b bytes.Buffer
	for _, out := range outputs {
		_ = wire.WriteTxOut(&b, 0, 0, out)
	}

	return chainhash.HashH(b.Bytes())
}

// calcHashAmounts is the single sha256 of every spent amount.
func calcHashAmounts(prevOuts []*wire.TxOut) chainhash.Hash {
	var b bytes.Buffer
	for _, prevOut := range prevOuts {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(prevOut.Value))
		b.Write(buf[:])
	}

	return chainhash.HashH(b.Bytes())
}

// calcHashScriptPubKeys is the single sha256 of every spent script, each
// prefixed with its compact size length.
func calcHashScriptPubKeys(prevOuts []*wire.TxOut) chainhash.Hash {
	var b bytes.Buffer
	for _, prevOut := range prevOuts {
		_ = wire.WriteVarBytes(&b, 0, prevOut.PkScript)
	}

	return chainhash.HashH(b.Bytes())
}
