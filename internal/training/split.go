package training

import (
	"fmt"
	"math"
	"math/rand"
)

// StratifiedSplit partitions row indices into train and test sets, keeping
// the class ratio in both. The split is deterministic for a fixed seed.
func StratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int, err error) {
	if len(y) == 0 {
		return nil, nil, fmt.Errorf("stratified split: no rows")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("stratified split: test fraction %.2f out of (0,1)", testFraction)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	// Deterministic class order.
	for _, label := range []int{0, 1} {
		idx := byClass[label]
		if len(idx) == 0 {
			continue
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	if len(train) == 0 {
		return nil, nil, fmt.Errorf("stratified split: empty training partition")
	}
	return train, test, nil
}

// selectRows gathers rows of X by index.
func selectRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

// selectLabels gathers labels by index.
func selectLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
