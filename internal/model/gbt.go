package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// GBTParams configure the boosted ensemble.
type GBTParams struct {
	NEstimators  int     `json:"n_estimators"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	Subsample    float64 `json:"subsample"`
	Seed         int64   `json:"seed"`
}

// DefaultGBTParams are the production training settings.
func DefaultGBTParams() GBTParams {
	return GBTParams{
		NEstimators:  200,
		LearningRate: 0.05,
		MaxDepth:     3,
		Subsample:    0.8,
		Seed:         42,
	}
}

// treeNode is one node of a regression tree, stored as a flat JSON-friendly
// struct. Leaves have Feature == -1.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// tree is a regression tree over node indices; index 0 is the root.
type tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// GBT is a gradient-boosted tree classifier with logistic loss. Each stage
// fits a regression tree to the current residuals; leaf values are Newton
// steps, so a single leaf recovers plain logistic gradient boosting.
type GBT struct {
	Params    GBTParams `json:"params"`
	InitScore float64   `json:"init_score"`
	Trees     []tree    `json:"trees"`
	NFeatures int       `json:"n_features"`

	// accumulated squared-error gain per feature, normalized on read
	Gains []float64 `json:"gains"`
}

var _ Classifier = (*GBT)(nil)

// NewGBT creates an untrained classifier.
func NewGBT(params GBTParams) *GBT {
	if params.NEstimators <= 0 {
		params.NEstimators = DefaultGBTParams().NEstimators
	}
	if params.LearningRate <= 0 {
		params.LearningRate = DefaultGBTParams().LearningRate
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = DefaultGBTParams().MaxDepth
	}
	if params.Subsample <= 0 || params.Subsample > 1 {
		params.Subsample = DefaultGBTParams().Subsample
	}
	return &GBT{Params: params}
}

// Fit trains the ensemble. Training is deterministic for a fixed seed.
func (g *GBT) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrBadInput, len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return fmt.Errorf("%w: zero-width rows", ErrBadInput)
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadInput, i, len(row), width)
		}
	}

	n := len(X)
	pos := 0
	for _, v := range y {
		if v == 1 {
			pos++
		}
	}

	g.NFeatures = width
	g.Gains = make([]float64, width)
	g.Trees = g.Trees[:0]

	// Prior log-odds, clamped so single-class training still produces a
	// usable constant model.
	p0 := math.Min(math.Max(float64(pos)/float64(n), 1e-6), 1-1e-6)
	g.InitScore = math.Log(p0 / (1 - p0))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.InitScore
	}

	rng := rand.New(rand.NewSource(g.Params.Seed))
	grad := make([]float64, n)
	hess := make([]float64, n)

	sampleSize := int(math.Round(g.Params.Subsample * float64(n)))
	if sampleSize < 1 {
		sampleSize = 1
	}

	for iter := 0; iter < g.Params.NEstimators; iter++ {
		for i := range scores {
			p := sigmoid(scores[i])
			grad[i] = float64(y[i]) - p
			hess[i] = p * (1 - p)
		}

		sample := rng.Perm(n)[:sampleSize]
		sort.Ints(sample)

		tr := &tree{}
		buildTree(tr, X, grad, hess, sample, g.Params.MaxDepth, g.Gains)
		g.Trees = append(g.Trees, *tr)

		for i := range scores {
			scores[i] += g.Params.LearningRate * tr.predict(X[i])
		}
	}
	return nil
}

// PredictProba scores rows through the full ensemble.
func (g *GBT) PredictProba(X [][]float64) ([]float64, error) {
	if g.NFeatures == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != g.NFeatures {
			return nil, fmt.Errorf("%w: row %d has %d columns, model trained on %d", ErrBadInput, i, len(row), g.NFeatures)
		}
		score := g.InitScore
		for t := range g.Trees {
			score += g.Params.LearningRate * g.Trees[t].predict(row)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// FeatureImportances returns normalized accumulated split gains.
func (g *GBT) FeatureImportances() ([]float64, error) {
	if g.NFeatures == 0 {
		return nil, ErrNotFitted
	}
	total := 0.0
	for _, v := range g.Gains {
		total += v
	}
	out := make([]float64, g.NFeatures)
	if total == 0 {
		return out, nil
	}
	for i, v := range g.Gains {
		out[i] = v / total
	}
	return out, nil
}

// MarshalJSON / UnmarshalJSON use the default struct encoding; the alias
// avoids recursing into these methods.
type gbtJSON GBT

func (g *GBT) MarshalJSON() ([]byte, error) {
	return json.Marshal((*gbtJSON)(g))
}

func (g *GBT) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, (*gbtJSON)(g))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// buildTree grows one regression tree over the sampled rows, recording split
// gains into gains. Leaf values are sum(grad)/sum(hess) Newton steps.
func buildTree(t *tree, X [][]float64, grad, hess []float64, idx []int, depth int, gains []float64) int {
	var sumG, sumH float64
	for _, i := range idx {
		sumG += grad[i]
		sumH += hess[i]
	}

	leaf := func() int {
		v := 0.0
		if sumH > 1e-12 {
			v = sumG / sumH
		}
		t.Nodes = append(t.Nodes, treeNode{Feature: -1, Value: v})
		return len(t.Nodes) - 1
	}

	if depth == 0 || len(idx) < 2 {
		return leaf()
	}

	feat, thr, gain := bestSplit(X, grad, idx, sumG)
	if feat < 0 {
		return leaf()
	}
	gains[feat] += gain

	var left, right []int
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{Feature: feat, Threshold: thr})
	l := buildTree(t, X, grad, hess, left, depth-1, gains)
	r := buildTree(t, X, grad, hess, right, depth-1, gains)
	t.Nodes[node].Left = l
	t.Nodes[node].Right = r
	return node
}

// bestSplit finds the (feature, threshold) pair maximizing squared-error
// reduction of the residuals over the sampled rows. Returns feature -1 when
// no split improves on the parent.
func bestSplit(X [][]float64, grad []float64, idx []int, sumG float64) (int, float64, float64) {
	n := float64(len(idx))
	parent := sumG * sumG / n

	bestFeat := -1
	bestThr := 0.0
	bestGain := 1e-12

	width := len(X[idx[0]])
	order := make([]int, len(idx))

	for f := 0; f < width; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftG, leftN := 0.0, 0.0
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			leftG += grad[i]
			leftN++

			// Only split between distinct values.
			if X[i][f] == X[order[k+1]][f] {
				continue
			}
			rightG := sumG - leftG
			rightN := n - leftN
			gain := leftG*leftG/leftN + rightG*rightG/rightN - parent
			if gain > bestGain {
				bestGain = gain
				bestFeat = f
				bestThr = (X[i][f] + X[order[k+1]][f]) / 2
			}
		}
	}
	if bestFeat < 0 {
		return -1, 0, 0
	}
	return bestFeat, bestThr, bestGain
}
