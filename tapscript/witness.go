// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tapscript

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/sighash"
	"github.com/btcsuite/btctaproot/taproot"
)

// appendHashType appends a non-default hash type to a 64-byte signature.
// SIGHASH_DEFAULT signatures are left at 64 bytes as consensus requires.
func appendHashType(sig []byte, hashType sighash.HashType) []byte {
	out := make([]byte, len(sig), len(sig)+1)
	copy(out, sig)
	if hashType != sighash.SigHashDefault {
		out = append(out, byte(hashType))
	}
	return out
}

// KeySpendWitness returns the witness of a key path spend.
func KeySpendWitness(sig []byte, hashType sighash.HashType) wire.TxWitness {
	return wire.TxWitness{appendHashType(sig, hashType)}
}

// ScriptSpendWitness returns the witness of a script path spend: the stack
// satisfying the leaf, followed by the leaf script and its control block.
func ScriptSpendWitness(stack [][]byte, leaf taproot.TapLeaf,
	controlBlock *taproot.ControlBlock) wire.TxWitness {

	witness := make(wire.TxWitness, 0, len(stack)+2)
	witness = append(witness, stack...)
	witness = append(witness, leaf.Script(), controlBlock.ToBytes())
	return witness
}

// SignatureWithHashType prepares a signature for placement on a script path
// stack, appending the hash type when it is not the default.
func SignatureWithHashType(sig []byte, hashType sighash.HashType) []byte {
	if len(sig) == 0 {
		return nil
	}
	return appendHashType(sig, hashType)
}
