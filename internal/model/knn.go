package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/carbonwise/carbonwise/internal/bundle"
)

const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// Neighbors predicts the mean target of the K nearest stored points under a
// Minkowski metric.
type Neighbors struct {
	K       int
	Weights string
	P       float64
	Points  [][]float64
	Targets []float64
}

func newNeighbors(p *bundle.NeighborParams) (*Neighbors, error) {
	if p == nil {
		return nil, errors.New("missing neighbor parameters")
	}
	if len(p.Points) == 0 {
		return nil, errors.New("no stored points")
	}
	if len(p.Targets) != len(p.Points) {
		return nil, fmt.Errorf("%d points but %d targets", len(p.Points), len(p.Targets))
	}
	if p.K <= 0 || p.K > len(p.Points) {
		return nil, fmt.Errorf("k must be in [1, %d], got %d", len(p.Points), p.K)
	}

	width := len(p.Points[0])
	if width == 0 {
		return nil, errors.New("stored points are empty")
	}
	for i, pt := range p.Points {
		if len(pt) != width {
			return nil, fmt.Errorf("point %d has %d values, expected %d", i, len(pt), width)
		}
	}

	n := &Neighbors{K: p.K, Weights: p.Weights, P: p.P, Points: p.Points, Targets: p.Targets}
	if n.Weights == "" {
		n.Weights = WeightsUniform
	}
	if n.Weights != WeightsUniform && n.Weights != WeightsDistance {
		return nil, fmt.Errorf("unknown weights %q", n.Weights)
	}
	if n.P == 0 {
		n.P = 2
	}
	if n.P < 1 {
		return nil, fmt.Errorf("minkowski p must be >= 1, got %v", n.P)
	}
	return n, nil
}

func (n *Neighbors) distance(a, b []float64) float64 {
	var sum float64
	switch n.P {
	case 1:
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	case 2:
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	default:
		for i := range a {
			sum += math.Pow(math.Abs(a[i]-b[i]), n.P)
		}
		return math.Pow(sum, 1/n.P)
	}
}

func (n *Neighbors) Predict(x []float64) (float64, error) {
	type neighbor struct {
		index int
		dist  float64
	}

	all := make([]neighbor, len(n.Points))
	for i, pt := range n.Points {
		all[i] = neighbor{index: i, dist: n.distance(x, pt)}
	}
	// Ties keep storage order.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].dist < all[j].dist
	})
	nearest := all[:n.K]

	if n.Weights == WeightsUniform {
		var sum float64
		for _, nb := range nearest {
			sum += n.Targets[nb.index]
		}
		return sum / float64(n.K), nil
	}

	// Exact matches take all the weight.
	var exact, exactSum float64
	for _, nb := range nearest {
		if nb.dist == 0 {
			exact++
			exactSum += n.Targets[nb.index]
		}
	}
	if exact > 0 {
		return exactSum / exact, nil
	}

	var num, den float64
	for _, nb := range nearest {
		w := 1 / nb.dist
		num += w * n.Targets[nb.index]
		den += w
	}
	return num / den, nil
}

func (n *Neighbors) NumFeatures() int {
	return len(n.Points[0])
}
