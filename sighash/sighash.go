// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sighash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/taghash"
	"github.com/btcsuite/btctaproot/taproot"
	"github.com/davecgh/go-spew/spew"
)

const (
	// AnnexTag is the first byte of a taproot annex.
	AnnexTag = 0x50

	// DefaultCodeSepPos is the code separator position committed to when
	// no OP_CODESEPARATOR has been executed.
	DefaultCodeSepPos = 0xffffffff

	// sigHashEpoch is the only defined taproot sighash epoch.
	sigHashEpoch = 0x00

	// keyVersion is the public key version of base tapscript.
	keyVersion = 0x00
)

// options houses the optional inputs to the digest.
type options struct {
	leaf       *taproot.TapLeaf
	annex      []byte
	codeSepPos uint32
	midState   *MidState
}

func defaultOptions() *options {
	return &options{codeSepPos: DefaultCodeSepPos}
}

// Option is a functional option that adds optional data to the digest.
type Option func(*options)

// WithLeaf sets the leaf being spent.  It is required for script path
// digests and ignored for key path digests.
func WithLeaf(leaf taproot.TapLeaf) Option {
	return func(o *options) {
		o.leaf = &leaf
	}
}

// WithAnnex commits the digest to the annex of the spending witness.  The
// annex includes its leading AnnexTag byte.
func WithAnnex(annex []byte) Option {
	return func(o *options) {
		o.annex = annex
	}
}

// WithCodeSepPos sets the opcode position of the last executed
// OP_CODESEPARATOR for script path digests.
func WithCodeSepPos(pos uint32) Option {
	return func(o *options) {
		o.codeSepPos = pos
	}
}

// WithMidState reuses hashes precomputed by NewMidState for the same
// transaction.
func WithMidState(m *MidState) Option {
	return func(o *options) {
		o.midState = m
	}
}

// CalcDigest returns the BIP 341 signature digest for input idx of tx.
// prevOuts holds the output spent by each input of tx, in input order.
func CalcDigest(tx *wire.MsgTx, prevOuts []*wire.TxOut, idx int,
	hashType HashType, path SpendPath, opts ...Option) (*chainhash.Hash, error) {

	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}

	switch {
	case idx < 0 || idx >= len(tx.TxIn):
		str := fmt.Sprintf("input index %d out of range for %d inputs",
			idx, len(tx.TxIn))
		return nil, sighashError(ErrIndexOutOfRange, str)

	case !hashType.IsValid():
		str := fmt.Sprintf("invalid taproot hash type 0x%02x",
			uint8(hashType))
		return nil, sighashError(ErrInvalidHashType, str)

	case hashType.outputMode() == SigHashSingle && idx >= len(tx.TxOut):
		str := fmt.Sprintf("SIGHASH_SINGLE for input %d but only %d "+
			"outputs", idx, len(tx.TxOut))
		return nil, sighashError(ErrSigHashSingleNoOutput, str)

	case path != KeyPath && path != ScriptPath:
		return nil, sighashError(ErrInvalidSpendPath, path.String())

	case path == ScriptPath && opt.leaf == nil:
		return nil, sighashError(ErrMissingLeaf, "script path digest "+
			"requires the leaf being spent")

	case opt.annex != nil && (len(opt.annex) == 0 || opt.annex[0] != AnnexTag):
		str := fmt.Sprintf("annex must start with 0x%02x", AnnexTag)
		return nil, sighashError(ErrInvalidAnnex, str)
	}

	if err := checkPrevOuts(tx, prevOuts); err != nil {
		return nil, err
	}

	midState := opt.midState
	if midState == nil {
		var err error
		midState, err = NewMidState(tx, prevOuts)
		if err != nil {
			return nil, err
		}
	} else if str := midState.mismatch(tx, prevOuts); str != "" {
		return nil, sighashError(ErrMidStateMismatch, str)
	}

	var sigMsg bytes.Buffer
	writeSigMsg(&sigMsg, tx, prevOuts, idx, hashType, path, opt, midState)

	log.Tracef("Signature message for input %d (%v, %v): %v", idx,
		hashType, path, newLogClosure(func() string {
			return spew.Sdump(sigMsg.Bytes())
		}))

	return taghash.TapSighash.Hash(sigMsg.Bytes()), nil
}

// writeSigMsg serializes the epoch and the signature message of BIP 341,
// extended by BIP 342 for script path spends.  All inputs have been
// validated.
func writeSigMsg(w *bytes.Buffer, tx *wire.MsgTx, prevOuts []*wire.TxOut,
	idx int, hashType HashType, path SpendPath, opt *options,
	midState *MidState) {

	var buf [8]byte
	putUint32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		w.Write(buf[:4])
	}
	putUint64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		w.Write(buf[:])
	}

	w.WriteByte(sigHashEpoch)

	// Control data.
	w.WriteByte(byte(hashType))
	putUint32(uint32(tx.Version))
	putUint32(tx.LockTime)

	// Transaction data, unless only this input is signed.
	if !hashType.anyoneCanPay() {
		w.Write(midState.HashPrevOuts[:])
		w.Write(midState.HashAmounts[:])
		w.Write(midState.HashScriptPubKeys[:])
		w.Write(midState.HashSequences[:])
	}
	if hashType.outputMode() == SigHashAll {
		w.Write(midState.HashOutputs[:])
	}

	// Bit 0 marks an annex and bit 1 a script path spend.
	var spendType byte
	if opt.annex != nil {
		spendType |= 1
	}
	if path == ScriptPath {
		spendType |= 2
	}
	w.WriteByte(spendType)

	// Data about this input.
	if hashType.anyoneCanPay() {
		txIn := tx.TxIn[idx]
		prevOut := prevOuts[idx]

		w.Write(txIn.PreviousOutPoint.Hash[:])
		putUint32(txIn.PreviousOutPoint.Index)
		putUint64(uint64(prevOut.Value))
		_ = wire.WriteVarBytes(w, 0, prevOut.PkScript)
		putUint32(txIn.Sequence)
	} else {
		putUint32(uint32(idx))
	}

	if opt.annex != nil {
		var annex bytes.Buffer
		_ = wire.WriteVarBytes(&annex, 0, opt.annex)
		annexHash := chainhash.HashH(annex.Bytes())
		w.Write(annexHash[:])
	}

	// Data about the output signed with SIGHASH_SINGLE.
	if hashType.outputMode() == SigHashSingle {
		outputHash := calcHashOutputs(tx.TxOut[idx : idx+1])
		w.Write(outputHash[:])
	}

	// Script path extension.
	if path == ScriptPath {
		leafHash := opt.leaf.TapHash()
		w.Write(leafHash[:])
		w.WriteByte(keyVersion)
		putUint32(opt.codeSepPos)
	}
}

// CalcKeyPathDigest returns the digest for a key path spend of input idx.
func CalcKeyPathDigest(tx *wire.MsgTx, prevOuts []*wire.TxOut, idx int,
	hashType HashType, opts ...Option) (*chainhash.Hash, error) {

	return CalcDigest(tx, prevOuts, idx, hashType, KeyPath, opts...)
}

// CalcScriptPathDigest returns the digest for spending input idx through
// leaf.
func CalcScriptPathDigest(tx *wire.MsgTx, prevOuts []*wire.TxOut, idx int,
	hashType HashType, leaf taproot.TapLeaf,
	opts ...Option) (*chainhash.Hash, error) {

	opts = append([]Option{WithLeaf(leaf)}, opts...)
	return CalcDigest(tx, prevOuts, idx, hashType, ScriptPath, opts...)
}
