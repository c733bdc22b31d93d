// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

var ErrInvalidTestSize = errors.New("test size must be in the open interval (0, 1)")

// Split shuffles the table rows with a generator seeded by seed and returns
// the train and test partitions. The test partition holds ceil(testSize*n)
// rows. The same seed always produces the same partitions for the same input.
func Split(t *Table, testSize float64, seed uint64) (train, test *Table, err error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, nil, fmt.Errorf("%v: %w", testSize, ErrInvalidTestSize)
	}

	n := t.NumRows()
	nTest := int(math.Ceil(testSize * float64(n)))
	if n > 0 && nTest >= n {
		return nil, nil, fmt.Errorf("test size %v leaves no train rows out of %d: %w", testSize, n, ErrInvalidTestSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = t.Take(perm[:nTest])
	train = t.Take(perm[nTest:])
	return train, test, nil
}
