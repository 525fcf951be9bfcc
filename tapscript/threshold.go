// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tapscript

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btctaproot/ec"
)

// ThresholdCheckSigAdd returns one k-of-k CHECKSIGADD template for every
// combination of threshold keys out of keys.  The keys are sorted by their
// x-only encoding first and the combinations are returned in lexicographic
// order.  threshold must be greater than one and less than the number of keys.
func ThresholdCheckSigAdd(threshold int,
	keys []*btcec.PublicKey) ([]*Template, error) {

	if threshold <= 1 || len(keys) <= threshold {
		str := fmt.Sprintf("threshold %d of %d keys needs 1 < k < n",
			threshold, len(keys))
		return nil, tapscriptError(ErrInvalidThreshold, str)
	}

	sorted := make([]*btcec.PublicKey, len(keys))
	for i, key := range keys {
		if key == nil {
			str := fmt.Sprintf("key %d is nil", i)
			return nil, tapscriptError(ErrInvalidTemplate, str)
		}
		sorted[i] = key
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := ec.XOnly(sorted[i]), ec.XOnly(sorted[j])
		return bytes.Compare(a[:], b[:]) < 0
	})

	var templates []*Template
	err := forEachCombination(len(sorted), threshold, func(idx []int) error {
		combo := make([]*btcec.PublicKey, len(idx))
		for i, j := range idx {
			combo[i] = sorted[j]
		}

		t, err := CheckSigAdd(threshold, combo)
		if err != nil {
			return err
		}
		templates = append(templates, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("Generated %d leaves for a %d-of-%d policy", len(templates),
		threshold, len(keys))

	return templates, nil
}

// forEachCombination calls fn with the indexes of every k element subset of
// n elements, in lexicographic order.
func forEachCombination(n, k int, fn func([]int) error) error {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		if err := fn(idx); err != nil {
			return err
		}

		// Find the rightmost index that can still move right.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return nil
		}

		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
