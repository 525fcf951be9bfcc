// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sighash

import (
	"fmt"
	"strings"
)

// HashType selects which parts of a transaction a signature commits to.
type HashType uint8

// Hash type bits from the last byte of a signature.
const (
	SigHashDefault      HashType = 0x00
	SigHashAll          HashType = 0x01
	SigHashNone         HashType = 0x02
	SigHashSingle       HashType = 0x03
	SigHashAnyOneCanPay HashType = 0x80

	// sigHashOutputMask selects the output mode of a hash type.
	sigHashOutputMask = 0x03
)

// String returns the hash type in the SIGHASH_X|ANYONECANPAY notation.
func (h HashType) String() string {
	var base string
	switch h &^ SigHashAnyOneCanPay {
	case SigHashDefault:
		base = "SIGHASH_DEFAULT"
	case SigHashAll:
		base = "SIGHASH_ALL"
	case SigHashNone:
		base = "SIGHASH_NONE"
	case SigHashSingle:
		base = "SIGHASH_SINGLE"
	default:
		return fmt.Sprintf("SIGHASH_UNKNOWN(0x%02x)", uint8(h))
	}

	if h&SigHashAnyOneCanPay == SigHashAnyOneCanPay {
		if h == SigHashAnyOneCanPay {
			return fmt.Sprintf("SIGHASH_UNKNOWN(0x%02x)", uint8(h))
		}
		return base + "|ANYONECANPAY"
	}
	return base
}

// IsValid reports whether the hash type is one of the seven defined for
// taproot signatures.
func (h HashType) IsValid() bool {
	switch h {
	case SigHashDefault, SigHashAll, SigHashNone, SigHashSingle,
		SigHashAll | SigHashAnyOneCanPay,
		SigHashNone | SigHashAnyOneCanPay,
		SigHashSingle | SigHashAnyOneCanPay:

		return true
	}
	return false
}

// anyoneCanPay reports whether only the input being signed is committed to.
func (h HashType) anyoneCanPay() bool {
	return h&SigHashAnyOneCanPay == SigHashAnyOneCanPay
}

// outputMode returns SigHashAll, SigHashNone or SigHashSingle.  The default
// hash type signs every output like SigHashAll.
func (h HashType) outputMode() HashType {
	mode := h & sigHashOutputMask
	if mode == SigHashDefault {
		return SigHashAll
	}
	return mode
}

// ParseHashType parses a hash type given either by name, as printed by
// String, or as a hex byte such as 0x81.
func ParseHashType(s string) (HashType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, h := range []HashType{
		SigHashDefault, SigHashAll, SigHashNone, SigHashSingle,
		SigHashAll | SigHashAnyOneCanPay,
		SigHashNone | SigHashAnyOneCanPay,
		SigHashSingle | SigHashAnyOneCanPay,
	} {
		short := strings.TrimPrefix(h.String(), "SIGHASH_")
		if name == h.String() || name == short {
			return h, nil
		}
	}

	var v uint8
	if _, err := fmt.Sscanf(strings.ToLower(name), "0x%x", &v); err == nil {
		if h := HashType(v); h.IsValid() {
			return h, nil
		}
	}

	str := fmt.Sprintf("unknown hash type %q", s)
	return 0, sighashError(ErrInvalidHashType, str)
}

// SpendPath selects between the key path and a script path spend.
type SpendPath uint8

const (
	// KeyPath spends with a signature for the output key.
	KeyPath SpendPath = iota

	// ScriptPath spends by revealing a leaf and satisfying its script.
	ScriptPath
)

// String returns a human readable spend path.
func (p SpendPath) String() string {
	switch p {
	case KeyPath:
		return "key path"
	case ScriptPath:
		return "script path"
	}
	return fmt.Sprintf("unknown spend path (%d)", uint8(p))
}
