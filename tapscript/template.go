// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tapscript

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/btcsuite/btctaproot/taproot"
)

// Kind identifies the script pattern of a template.
type Kind byte

// Recognized template kinds.
const (
	PubKeyTy Kind = iota
	PubKeyDelayTy
	PubKeyHashLockTy
	PubKeyHashLockDelayTy
	CheckSigAddTy
	CheckSigAddDelayTy
	CheckSigAddHashLockTy
	CheckSigAddHashLockDelayTy
	RawTy
)

// kindToName houses the descriptor tag of each kind.
var kindToName = []string{
	PubKeyTy:                   "pk",
	PubKeyDelayTy:              "pk_delay",
	PubKeyHashLockTy:           "pk_hashlock",
	PubKeyHashLockDelayTy:      "pk_hashlock_delay",
	CheckSigAddTy:              "csa",
	CheckSigAddDelayTy:         "csa_delay",
	CheckSigAddHashLockTy:      "csa_hashlock",
	CheckSigAddHashLockDelayTy: "csa_hashlock_delay",
	RawTy:                      "raw",
}

// String implements the Stringer interface by returning the descriptor tag of
// the kind.
func (k Kind) String() string {
	if int(k) >= len(kindToName) {
		return "invalid"
	}
	return kindToName[k]
}

// hasThreshold reports whether the kind starts with a k-of-n CHECKSIGADD.
func (k Kind) hasThreshold() bool {
	switch k {
	case CheckSigAddTy, CheckSigAddDelayTy, CheckSigAddHashLockTy,
		CheckSigAddHashLockDelayTy:

		return true
	}
	return false
}

// hasHashLock reports whether the kind requires a hash160 preimage.
func (k Kind) hasHashLock() bool {
	switch k {
	case PubKeyHashLockTy, PubKeyHashLockDelayTy, CheckSigAddHashLockTy,
		CheckSigAddHashLockDelayTy:

		return true
	}
	return false
}

// hasDelay reports whether the kind ends with a relative time lock.
func (k Kind) hasDelay() bool {
	switch k {
	case PubKeyDelayTy, PubKeyHashLockDelayTy, CheckSigAddDelayTy,
		CheckSigAddHashLockDelayTy:

		return true
	}
	return false
}

const (
	// PreimageSize is the size of the preimage a hash lock accepts.
	PreimageSize = 32

	// maxDelay is the largest relative lock time a template accepts.  The
	// sequence lock time disable flag may not be set.
	maxDelay = wire.SequenceLockTimeDisabled - 1
)

// Template is a tapscript leaf built from one of the recognized patterns.
// Templates are immutable once built.
type Template struct {
	kind      Kind
	threshold int
	keys      []*btcec.PublicKey
	hash      []byte
	delay     uint32
	script    []byte
}

// PayToPubKey returns the template <key> OP_CHECKSIG.
func PayToPubKey(key *btcec.PublicKey) (*Template, error) {
	return newTemplate(PubKeyTy, 1, []*btcec.PublicKey{key}, nil, 0)
}

// PubKeyDelay returns a template requiring a signature for key once the
// spending input has aged delay blocks.
func PubKeyDelay(key *btcec.PublicKey, delay uint32) (*Template, error) {
	return newTemplate(PubKeyDelayTy, 1, []*btcec.PublicKey{key}, nil,
		delay)
}

// PubKeyHashLock returns a template requiring a signature for key and the
// 32-byte preimage of hash160.
func PubKeyHashLock(key *btcec.PublicKey, hash160 []byte) (*Template, error) {
	return newTemplate(PubKeyHashLockTy, 1, []*btcec.PublicKey{key},
		hash160, 0)
}

// PubKeyHashLockDelay returns a template combining PubKeyHashLock with a
// relative delay.
func PubKeyHashLockDelay(key *btcec.PublicKey, hash160 []byte,
	delay uint32) (*Template, error) {

	return newTemplate(PubKeyHashLockDelayTy, 1, []*btcec.PublicKey{key},
		hash160, delay)
}

// CheckSigAdd returns the template
// <k1> OP_CHECKSIG <k2> OP_CHECKSIGADD ... <threshold> OP_NUMEQUAL.
// At least two keys are required, a single key is a PayToPubKey leaf.
func CheckSigAdd(threshold int, keys []*btcec.PublicKey) (*Template, error) {
	return newTemplate(CheckSigAddTy, threshold, keys, nil, 0)
}

// CheckSigAddDelay returns a CheckSigAdd template with a relative delay.
func CheckSigAddDelay(threshold int, keys []*btcec.PublicKey,
	delay uint32) (*Template, error) {

	return newTemplate(CheckSigAddDelayTy, threshold, keys, nil, delay)
}

// CheckSigAddHashLock returns a CheckSigAdd template that also requires the
// preimage of hash160.
func CheckSigAddHashLock(threshold int, keys []*btcec.PublicKey,
	hash160 []byte) (*Template, error) {

	return newTemplate(CheckSigAddHashLockTy, threshold, keys, hash160, 0)
}

// CheckSigAddHashLockDelay returns a CheckSigAdd template with both a hash
// lock and a relative delay.
func CheckSigAddHashLockDelay(threshold int, keys []*btcec.PublicKey,
	hash160 []byte, delay uint32) (*Template, error) {

	return newTemplate(CheckSigAddHashLockDelayTy, threshold, keys,
		hash160, delay)
}

// Raw wraps an arbitrary script.  Raw templates have no known witness
// requirements.
func Raw(script []byte) (*Template, error) {
	if len(script) == 0 {
		return nil, tapscriptError(ErrInvalidTemplate, "raw script "+
			"is empty")
	}

	scriptCopy := make([]byte, len(script))
	copy(scriptCopy, script)
	return &Template{kind: RawTy, script: scriptCopy}, nil
}

// newTemplate validates the parameters of kind and builds its script.
func newTemplate(kind Kind, threshold int, keys []*btcec.PublicKey,
	hash160 []byte, delay uint32) (*Template, error) {

	if len(keys) == 0 {
		return nil, tapscriptError(ErrInvalidTemplate, "no keys given")
	}
	normalized := make([]*btcec.PublicKey, len(keys))
	for i, key := range keys {
		if key == nil {
			str := fmt.Sprintf("key %d is nil", i)
			return nil, tapscriptError(ErrInvalidTemplate, str)
		}
		normalized[i] = ec.EvenY(key)
	}

	if kind.hasThreshold() && len(keys) < 2 {
		str := fmt.Sprintf("%v needs at least 2 keys, got %d", kind,
			len(keys))
		return nil, tapscriptError(ErrInvalidThreshold, str)
	}
	if kind.hasThreshold() && (threshold < 1 || threshold > len(keys)) {
		str := fmt.Sprintf("threshold %d is not within 1 and %d",
			threshold, len(keys))
		return nil, tapscriptError(ErrInvalidThreshold, str)
	}

	var hash []byte
	if kind.hasHashLock() {
		if len(hash160) != 20 {
			str := fmt.Sprintf("hash lock needs a 20-byte hash160, "+
				"got %d bytes", len(hash160))
			return nil, tapscriptError(ErrInvalidTemplate, str)
		}
		hash = make([]byte, len(hash160))
		copy(hash, hash160)
	}

	if kind.hasDelay() && (delay == 0 || delay > maxDelay) {
		str := fmt.Sprintf("delay %d is not within 1 and %d", delay,
			maxDelay)
		return nil, tapscriptError(ErrInvalidTemplate, str)
	}

	t := &Template{
		kind:      kind,
		threshold: threshold,
		keys:      normalized,
		hash:      hash,
		delay:     delay,
	}

	script, err := t.buildScript()
	if err != nil {
		return nil, err
	}
	t.script = script

	log.Tracef("Built %v template %x", kind, script)

	return t, nil
}

// buildScript assembles the script of a validated template.
func (t *Template) buildScript() ([]byte, error) {
	b := txscript.NewScriptBuilder()

	// The signature check leaves a boolean for single key templates and
	// the number of valid signatures for CHECKSIGADD templates.
	if t.kind.hasThreshold() {
		for i, key := range t.keys {
			xOnly := ec.XOnly(key)
			b.AddData(xOnly[:])
			if i == 0 {
				b.AddOp(txscript.OP_CHECKSIG)
			} else {
				b.AddOp(txscript.OP_CHECKSIGADD)
			}
		}
		b.AddInt64(int64(t.threshold))
		b.AddOp(txscript.OP_NUMEQUAL)
	} else {
		xOnly := ec.XOnly(t.keys[0])
		b.AddData(xOnly[:])
		b.AddOp(txscript.OP_CHECKSIG)
	}

	if t.kind.hasHashLock() {
		b.AddOp(txscript.OP_VERIFY)
		b.AddOp(txscript.OP_SIZE)
		b.AddInt64(PreimageSize)
		b.AddOp(txscript.OP_EQUALVERIFY)
		b.AddOp(txscript.OP_HASH160)
		b.AddData(t.hash)
		b.AddOp(txscript.OP_EQUAL)
	}

	if t.kind.hasDelay() {
		b.AddOp(txscript.OP_VERIFY)
		b.AddInt64(int64(t.delay))
		b.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	}

	script, err := b.Script()
	if err != nil {
		str := fmt.Sprintf("unable to build %v script: %v", t.kind, err)
		return nil, tapscriptError(ErrInvalidTemplate, str)
	}
	return script, nil
}

// Kind returns the pattern of the template.
func (t *Template) Kind() Kind {
	return t.kind
}

// Threshold returns the number of signatures required, zero for raw scripts.
func (t *Template) Threshold() int {
	return t.threshold
}

// Keys returns the keys of the template in script order.
func (t *Template) Keys() []*btcec.PublicKey {
	keys := make([]*btcec.PublicKey, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// Hash returns the hash160 of a hash lock, or nil.
func (t *Template) Hash() []byte {
	if t.hash == nil {
		return nil
	}
	hash := make([]byte, len(t.hash))
	copy(hash, t.hash)
	return hash
}

// Delay returns the relative lock time the spending input must have, or zero.
func (t *Template) Delay() uint32 {
	return t.delay
}

// Script returns a copy of the leaf script.
func (t *Template) Script() []byte {
	script := make([]byte, len(t.script))
	copy(script, t.script)
	return script
}

// Leaf returns the template as a base version tapscript leaf.
func (t *Template) Leaf() (taproot.TapLeaf, error) {
	return taproot.NewBaseTapLeaf(t.script)
}

// String returns the leaf descriptor of the template, for example
// ts(pk(<x-only key>)).
func (t *Template) String() string {
	args := make([]string, 0, len(t.keys)+3)
	if t.kind == RawTy {
		args = append(args, hex.EncodeToString(t.script))
	}
	if t.kind.hasThreshold() {
		args = append(args, strconv.Itoa(t.threshold))
	}
	for _, key := range t.keys {
		xOnly := ec.XOnly(key)
		args = append(args, hex.EncodeToString(xOnly[:]))
	}
	if t.kind.hasHashLock() {
		args = append(args, hex.EncodeToString(t.hash))
	}
	if t.kind.hasDelay() {
		args = append(args, strconv.FormatUint(uint64(t.delay), 10))
	}

	return fmt.Sprintf("ts(%s(%s))", t.kind, strings.Join(args, ","))
}

// RequirementKind identifies a witness element needed to satisfy a template.
type RequirementKind byte

const (
	// RequireSignature is a schnorr signature for Requirement.Key.
	RequireSignature RequirementKind = iota

	// RequirePreimage is the 32-byte preimage of Requirement.Hash.
	RequirePreimage
)

// Requirement is one witness element needed to satisfy a template.
type Requirement struct {
	Kind RequirementKind
	Key  *btcec.PublicKey
	Hash []byte
}

// Requirements returns the witness elements that satisfy the template in
// witness stack order, bottom first.  A raw template has no known
// requirements and returns nil.
func (t *Template) Requirements() []Requirement {
	if t.kind == RawTy {
		return nil
	}

	var reqs []Requirement

	// The hash lock runs after the signature checks, so its preimage
	// sits below the signatures.
	if t.kind.hasHashLock() {
		reqs = append(reqs, Requirement{
			Kind: RequirePreimage,
			Hash: t.Hash(),
		})
	}

	// The first key is checked first and its signature must be on top.
	for i := len(t.keys) - 1; i >= 0; i-- {
		reqs = append(reqs, Requirement{
			Kind: RequireSignature,
			Key:  t.keys[i],
		})
	}

	return reqs
}

// SignFunc returns a signature for key, or nil if key does not sign.
type SignFunc func(key *btcec.PublicKey) ([]byte, error)

// Satisfy builds the witness stack, without the leaf script and control
// block, that spends the template.  sign is called for every key and may
// return nil for keys that abstain, which is only allowed for CHECKSIGADD
// templates while the threshold is still met.
func (t *Template) Satisfy(sign SignFunc, preimage []byte) ([][]byte, error) {
	if t.kind == RawTy {
		return nil, tapscriptError(ErrUnsatisfiable, "raw scripts "+
			"have no known satisfaction")
	}

	var (
		stack  [][]byte
		signed int
	)
	for _, req := range t.Requirements() {
		switch req.Kind {
		case RequirePreimage:
			if len(preimage) != PreimageSize ||
				!bytes.Equal(btcutil.Hash160(preimage), req.Hash) {

				str := fmt.Sprintf("preimage does not match hash "+
					"lock %x", req.Hash)
				return nil, tapscriptError(ErrUnsatisfiable, str)
			}
			stack = append(stack, preimage)

		case RequireSignature:
			sig, err := sign(req.Key)
			if err != nil {
				return nil, err
			}
			if len(sig) == 0 && !t.kind.hasThreshold() {
				str := fmt.Sprintf("missing signature for key %x",
					ec.XOnly(req.Key))
				return nil, tapscriptError(ErrUnsatisfiable, str)
			}
			if len(sig) != 0 {
				signed++
			}

			// An empty element counts as a failed check for
			// CHECKSIGADD.
			stack = append(stack, sig)
		}
	}

	if t.kind.hasThreshold() && signed != t.threshold {
		str := fmt.Sprintf("%d signatures given for a %d-of-%d "+
			"template", signed, t.threshold, len(t.keys))
		return nil, tapscriptError(ErrUnsatisfiable, str)
	}

	return stack, nil
}
