// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tapscript

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btctaproot/ec"
	"github.com/stretchr/testify/require"
)

// testKey returns a deterministic key pair for index i.
func testKey(i byte) (*btcec.PrivateKey, *btcec.PublicKey) {
	return btcec.PrivKeyFromBytes(bytes.Repeat([]byte{i + 1}, 32))
}

func testPubKeys(n int) []*btcec.PublicKey {
	keys := make([]*btcec.PublicKey, n)
	for i := range keys {
		_, keys[i] = testKey(byte(i))
	}
	return keys
}

func xHex(key *btcec.PublicKey) string {
	x := ec.XOnly(key)
	return hex.EncodeToString(x[:])
}

var (
	testPreimage = bytes.Repeat([]byte{0x42}, PreimageSize)
	testHash     = btcutil.Hash160(testPreimage)
)

// TestErrorCodeStringer tests the stringized output for the ErrorCode type.
func TestErrorCodeStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   ErrorCode
		want string
	}{
		{ErrMalformedDescriptor, "ErrMalformedDescriptor"},
		{ErrInvalidThreshold, "ErrInvalidThreshold"},
		{ErrInvalidTemplate, "ErrInvalidTemplate"},
		{ErrUnsatisfiable, "ErrUnsatisfiable"},
		{0xffff, "Unknown ErrorCode (65535)"},
	}

	// Detect additional error codes that don't have the stringer added.
	if len(tests)-1 != int(numErrorCodes) {
		t.Errorf("It appears an error code was added without adding an " +
			"associated stringer test")
	}

	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
		}
	}
}

// TestTemplateScripts checks the script and descriptor of every template
// kind.
func TestTemplateScripts(t *testing.T) {
	t.Parallel()

	keys := testPubKeys(3)
	k0, k1, k2 := xHex(keys[0]), xHex(keys[1]), xHex(keys[2])
	h := hex.EncodeToString(testHash)
	hashLock := "OP_SIZE 20 OP_EQUALVERIFY OP_HASH160 " + h + " OP_EQUAL"
	csa := fmt.Sprintf("%s OP_CHECKSIG %s OP_CHECKSIGADD %s "+
		"OP_CHECKSIGADD 2 OP_NUMEQUAL", k0, k1, k2)

	mustTemplate := func(tmpl *Template, err error) *Template {
		require.NoError(t, err)
		return tmpl
	}

	tests := []struct {
		name   string
		tmpl   *Template
		disasm string
		desc   string
	}{{
		name:   "pk",
		tmpl:   mustTemplate(PayToPubKey(keys[0])),
		disasm: k0 + " OP_CHECKSIG",
		desc:   "ts(pk(" + k0 + "))",
	}, {
		name:   "pk_delay",
		tmpl:   mustTemplate(PubKeyDelay(keys[0], 10)),
		disasm: k0 + " OP_CHECKSIG OP_VERIFY 10 OP_CHECKSEQUENCEVERIFY",
		desc:   "ts(pk_delay(" + k0 + ",10))",
	}, {
		name:   "pk_hashlock",
		tmpl:   mustTemplate(PubKeyHashLock(keys[1], testHash)),
		disasm: k1 + " OP_CHECKSIG OP_VERIFY " + hashLock,
		desc:   "ts(pk_hashlock(" + k1 + "," + h + "))",
	}, {
		name: "pk_hashlock_delay",
		tmpl: mustTemplate(PubKeyHashLockDelay(keys[1], testHash, 10)),
		disasm: k1 + " OP_CHECKSIG OP_VERIFY " + hashLock +
			" OP_VERIFY 10 OP_CHECKSEQUENCEVERIFY",
		desc: "ts(pk_hashlock_delay(" + k1 + "," + h + ",10))",
	}, {
		name:   "csa",
		tmpl:   mustTemplate(CheckSigAdd(2, keys)),
		disasm: csa,
		desc:   "ts(csa(2," + k0 + "," + k1 + "," + k2 + "))",
	}, {
		name:   "csa_delay",
		tmpl:   mustTemplate(CheckSigAddDelay(2, keys, 10)),
		disasm: csa + " OP_VERIFY 10 OP_CHECKSEQUENCEVERIFY",
		desc:   "ts(csa_delay(2," + k0 + "," + k1 + "," + k2 + ",10))",
	}, {
		name:   "csa_hashlock",
		tmpl:   mustTemplate(CheckSigAddHashLock(2, keys, testHash)),
		disasm: csa + " OP_VERIFY " + hashLock,
		desc: "ts(csa_hashlock(2," + k0 + "," + k1 + "," + k2 + "," +
			h + "))",
	}, {
		name: "csa_hashlock_delay",
		tmpl: mustTemplate(CheckSigAddHashLockDelay(
			2, keys, testHash, 10,
		)),
		disasm: csa + " OP_VERIFY " + hashLock +
			" OP_VERIFY 10 OP_CHECKSEQUENCEVERIFY",
		desc: "ts(csa_hashlock_delay(2," + k0 + "," + k1 + "," + k2 +
			"," + h + ",10))",
	}, {
		name:   "raw",
		tmpl:   mustTemplate(Raw([]byte{txscript.OP_TRUE})),
		disasm: "1",
		desc:   "ts(raw(51))",
	}}

	for _, test := range tests {
		disasm, err := txscript.DisasmString(test.tmpl.Script())
		require.NoError(t, err, test.name)
		require.Equal(t, test.disasm, disasm, test.name)
		require.Equal(t, test.desc, test.tmpl.String(), test.name)
		require.Equal(t, test.name, test.tmpl.Kind().String())

		leaf, err := test.tmpl.Leaf()
		require.NoError(t, err, test.name)
		require.Equal(t, test.tmpl.Script(), leaf.Script(), test.name)
	}
}

// TestTemplateValidation ensures invalid template parameters are rejected.
func TestTemplateValidation(t *testing.T) {
	t.Parallel()

	keys := testPubKeys(2)

	tests := []struct {
		name string
		make func() (*Template, error)
		code ErrorCode
	}{{
		name: "nil key",
		make: func() (*Template, error) { return PayToPubKey(nil) },
		code: ErrInvalidTemplate,
	}, {
		name: "no keys",
		make: func() (*Template, error) { return CheckSigAdd(1, nil) },
		code: ErrInvalidTemplate,
	}, {
		name: "single key",
		make: func() (*Template, error) { return CheckSigAdd(1, keys[:1]) },
		code: ErrInvalidThreshold,
	}, {
		name: "single key with hash lock",
		make: func() (*Template, error) {
			return CheckSigAddHashLock(1, keys[:1], testHash)
		},
		code: ErrInvalidThreshold,
	}, {
		name: "zero threshold",
		make: func() (*Template, error) { return CheckSigAdd(0, keys) },
		code: ErrInvalidThreshold,
	}, {
		name: "threshold above keys",
		make: func() (*Template, error) { return CheckSigAdd(3, keys) },
		code: ErrInvalidThreshold,
	}, {
		name: "short hash",
		make: func() (*Template, error) {
			return PubKeyHashLock(keys[0], testHash[:19])
		},
		code: ErrInvalidTemplate,
	}, {
		name: "zero delay",
		make: func() (*Template, error) {
			return PubKeyDelay(keys[0], 0)
		},
		code: ErrInvalidTemplate,
	}, {
		name: "disabled delay",
		make: func() (*Template, error) {
			return CheckSigAddDelay(1, keys, 1<<31)
		},
		code: ErrInvalidTemplate,
	}, {
		name: "empty raw",
		make: func() (*Template, error) { return Raw(nil) },
		code: ErrInvalidTemplate,
	}}

	for _, test := range tests {
		tmpl, err := test.make()
		require.Nil(t, tmpl, test.name)
		require.True(t, IsErrorCode(err, test.code), "%s: got %v",
			test.name, err)
	}
}

// TestTemplateKeysNormalized ensures odd keys are committed to by their
// x coordinate and returned with even y.
func TestTemplateKeysNormalized(t *testing.T) {
	t.Parallel()

	var oddKey *btcec.PublicKey
	for i := byte(0); oddKey == nil; i++ {
		_, pub := testKey(i)
		if ec.HasOddY(pub) {
			oddKey = pub
		}
	}

	tmpl, err := PayToPubKey(oddKey)
	require.NoError(t, err)
	require.False(t, ec.HasOddY(tmpl.Keys()[0]))
	require.Equal(t, ec.XOnly(oddKey), ec.XOnly(tmpl.Keys()[0]))
}

// TestRequirements ensures witness requirements are listed bottom first.
func TestRequirements(t *testing.T) {
	t.Parallel()

	keys := testPubKeys(3)

	tmpl, err := CheckSigAddHashLock(3, keys, testHash)
	require.NoError(t, err)

	reqs := tmpl.Requirements()
	require.Len(t, reqs, 4)
	require.Equal(t, RequirePreimage, reqs[0].Kind)
	require.Equal(t, testHash, reqs[0].Hash)

	// The first key in the script signs on top of the stack.
	for i := 1; i < 4; i++ {
		require.Equal(t, RequireSignature, reqs[i].Kind)
		require.Equal(t, ec.XOnly(keys[3-i]), ec.XOnly(reqs[i].Key))
	}

	raw, err := Raw([]byte{txscript.OP_TRUE})
	require.NoError(t, err)
	require.Nil(t, raw.Requirements())
}

// TestSatisfyErrors ensures a witness is only produced when the template can
// actually be satisfied.
func TestSatisfyErrors(t *testing.T) {
	t.Parallel()

	keys := testPubKeys(3)
	sig := bytes.Repeat([]byte{0x01}, 64)

	signAll := func(*btcec.PublicKey) ([]byte, error) { return sig, nil }
	signNone := func(*btcec.PublicKey) ([]byte, error) { return nil, nil }
	signFirst := func(key *btcec.PublicKey) ([]byte, error) {
		if ec.XOnly(key) == ec.XOnly(keys[0]) {
			return sig, nil
		}
		return nil, nil
	}

	pk, err := PubKeyHashLock(keys[0], testHash)
	require.NoError(t, err)
	csa, err := CheckSigAdd(2, keys)
	require.NoError(t, err)
	raw, err := Raw([]byte{txscript.OP_TRUE})
	require.NoError(t, err)

	tests := []struct {
		name     string
		tmpl     *Template
		sign     SignFunc
		preimage []byte
	}{
		{"wrong preimage", pk, signAll, bytes.Repeat([]byte{1}, 32)},
		{"short preimage", pk, signAll, testPreimage[:31]},
		{"missing signature", pk, signNone, testPreimage},
		{"below threshold", csa, signFirst, nil},
		{"above threshold", csa, signAll, nil},
		{"raw script", raw, signAll, nil},
	}

	for _, test := range tests {
		_, err := test.tmpl.Satisfy(test.sign, test.preimage)
		require.True(t, IsErrorCode(err, ErrUnsatisfiable), "%s: got %v",
			test.name, err)
	}

	stack, err := pk.Satisfy(signAll, testPreimage)
	require.NoError(t, err)
	require.Equal(t, [][]byte{testPreimage, sig}, stack)

	signErr := fmt.Errorf("hardware wallet unplugged")
	_, err = pk.Satisfy(func(*btcec.PublicKey) ([]byte, error) {
		return nil, signErr
	}, testPreimage)
	require.ErrorIs(t, err, signErr)
}

// TestThresholdCheckSigAdd ensures every k-of-n combination is produced once
// over the sorted keys.
func TestThresholdCheckSigAdd(t *testing.T) {
	t.Parallel()

	keys := testPubKeys(5)

	// Reverse the input to show the output does not depend on its order.
	reversed := make([]*btcec.PublicKey, len(keys))
	for i, key := range keys {
		reversed[len(keys)-1-i] = key
	}

	tmpls, err := ThresholdCheckSigAdd(3, keys)
	require.NoError(t, err)
	require.Len(t, tmpls, 10)

	again, err := ThresholdCheckSigAdd(3, reversed)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	var prev string
	for i, tmpl := range tmpls {
		require.Equal(t, CheckSigAddTy, tmpl.Kind())
		require.Equal(t, 3, tmpl.Threshold())
		require.Equal(t, tmpl.String(), again[i].String())

		var combo []string
		for _, key := range tmpl.Keys() {
			combo = append(combo, xHex(key))
		}
		for j := 1; j < len(combo); j++ {
			require.Less(t, combo[j-1], combo[j])
		}

		joined := strings.Join(combo, ",")
		require.NotContains(t, seen, joined)
		seen[joined] = struct{}{}

		require.Less(t, prev, joined)
		prev = joined
	}

	for _, threshold := range []int{0, 1, 5, 6} {
		_, err := ThresholdCheckSigAdd(threshold, keys)
		require.True(t, IsErrorCode(err, ErrInvalidThreshold),
			"threshold %d", threshold)
	}

	_, err = ThresholdCheckSigAdd(2, []*btcec.PublicKey{keys[0], nil, keys[1]})
	require.True(t, IsErrorCode(err, ErrInvalidTemplate))
}
