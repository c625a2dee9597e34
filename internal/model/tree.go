package model

import (
	"errors"
	"fmt"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

const leaf = -1

// Tree is a binary regression tree in flat array form. Node i splits on
// Feature[i] and goes left when x[Feature[i]] <= Threshold[i].
type Tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	value       []float64
}

func newTree(spec bundle.TreeSpec, numFeatures int) (*Tree, error) {
	n := len(spec.Value)
	if n == 0 {
		return nil, errors.New("empty tree")
	}
	if len(spec.ChildrenLeft) != n || len(spec.ChildrenRight) != n || len(spec.Feature) != n || len(spec.Threshold) != n {
		return nil, errors.New("node arrays differ in length")
	}

	for i := 0; i < n; i++ {
		l, r := spec.ChildrenLeft[i], spec.ChildrenRight[i]
		if l == leaf {
			continue
		}
		if l <= i || l >= n || r <= i || r >= n {
			return nil, fmt.Errorf("node %d has invalid children %d, %d", i, l, r)
		}
		if f := spec.Feature[i]; f < 0 || f >= numFeatures {
			return nil, fmt.Errorf("node %d splits on feature %d of %d", i, f, numFeatures)
		}
		if !finite(spec.Threshold[i]) {
			return nil, fmt.Errorf("node %d has a non-finite threshold", i)
		}
	}

	return &Tree{
		left:      spec.ChildrenLeft,
		right:     spec.ChildrenRight,
		feature:   spec.Feature,
		threshold: spec.Threshold,
		value:     spec.Value,
	}, nil
}

// Eval walks from the root to a leaf. Children always follow their parent,
// so the walk terminates.
func (t *Tree) Eval(x []float64) float64 {
	node := 0
	for t.left[node] != leaf {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.value[node]
}

func buildTrees(p *bundle.EnsembleParams, named int) ([]*Tree, int, error) {
	if p == nil {
		return nil, 0, errors.New("missing ensemble parameters")
	}
	if len(p.Trees) == 0 {
		return nil, 0, errors.New("no trees")
	}

	numFeatures := p.NumFeatures
	if numFeatures == 0 {
		numFeatures = named
	}
	if numFeatures <= 0 {
		return nil, 0, errors.New("n_features is not set")
	}

	trees := make([]*Tree, len(p.Trees))
	for i, spec := range p.Trees {
		t, err := newTree(spec, numFeatures)
		if err != nil {
			return nil, 0, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = t
	}
	return trees, numFeatures, nil
}

// Forest averages its trees.
type Forest struct {
	Trees       []*Tree
	numFeatures int
}

func newForest(p *bundle.EnsembleParams, named int) (*Forest, error) {
	trees, n, err := buildTrees(p, named)
	if err != nil {
		return nil, err
	}
	return &Forest{Trees: trees, numFeatures: n}, nil
}

func (f *Forest) Predict(x []float64) (float64, error) {
	var sum float64
	for _, t := range f.Trees {
		sum += t.Eval(x)
	}
	return sum / float64(len(f.Trees)), nil
}

func (f *Forest) NumFeatures() int {
	return f.numFeatures
}

// Boosting adds learning-rate scaled trees to an initial estimate.
type Boosting struct {
	Init         float64
	LearningRate float64
	Trees        []*Tree
	numFeatures  int
}

func newBoosting(p *bundle.EnsembleParams, named int) (*Boosting, error) {
	trees, n, err := buildTrees(p, named)
	if err != nil {
		return nil, err
	}
	if p.LearningRate <= 0 || !finite(p.LearningRate, p.Init) {
		return nil, fmt.Errorf("invalid learning_rate %v", p.LearningRate)
	}
	return &Boosting{Init: p.Init, LearningRate: p.LearningRate, Trees: trees, numFeatures: n}, nil
}

func (b *Boosting) Predict(x []float64) (float64, error) {
	var sum float64
	for _, t := range b.Trees {
		sum += t.Eval(x)
	}
	return b.Init + b.LearningRate*sum, nil
}

func (b *Boosting) NumFeatures() int {
	return b.numFeatures
}
