package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeaf_DepthTwo(t *testing.T) {
	tree := Tree{
		Nodes: []Node{
			{FeatureIndex: 0, Threshold: 2.5, LeftChild: 1, RightChild: 2},
			{FeatureIndex: 1, Threshold: 0., LeftChild: 0, LeftIsLeaf: true, RightChild: 1, RightIsLeaf: true},
			{FeatureIndex: 1, Threshold: 1., LeftChild: 2, LeftIsLeaf: true, RightChild: 3, RightIsLeaf: true},
		},
		Leaves: [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}, {0.25, 0.75}},
	}
	assert.Equal(t, 0, tree.Leaf([]float64{1., -1.}))
	assert.Equal(t, 1, tree.Leaf([]float64{1., 1.}))
	assert.Equal(t, 2, tree.Leaf([]float64{5., -2.}))
	assert.Equal(t, 3, tree.Leaf([]float64{5., 2.}))
	assert.Equal(t, []float64{0.25, 0.75}, tree.Proba([]float64{5., 2.}))
	assert.Equal(t, 2, tree.Depth())
}

func TestLeaf_SingleLeafTree(t *testing.T) {
	tree := Tree{Leaves: [][]float64{{0.2, 0.8}}}
	assert.Equal(t, 0, tree.Leaf([]float64{42}))
	assert.Equal(t, 0, tree.Depth())
}

func depthTwo() Tree {
	return Tree{
		Nodes: []Node{
			{FeatureIndex: 0, Threshold: 2.5, LeftChild: 1, RightChild: 2},
			{FeatureIndex: 1, Threshold: 0., LeftChild: 0, LeftIsLeaf: true, RightChild: 1, RightIsLeaf: true},
			{FeatureIndex: 1, Threshold: 1., LeftChild: 2, LeftIsLeaf: true, RightChild: 3, RightIsLeaf: true},
		},
		Leaves: [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}, {0.25, 0.75}},
	}
}

func TestTree_Validate(t *testing.T) {
	valid := depthTwo()
	assert.NoError(t, valid.Validate(2, 2))

	single := Tree{Leaves: [][]float64{{0.2, 0.8}}}
	assert.NoError(t, single.Validate(2, 1))

	tests := []struct {
		name   string
		mutate func(*Tree)
	}{
		{"no leaves", func(tr *Tree) { tr.Leaves = nil }},
		{"leaf out of range", func(tr *Tree) { tr.Nodes[1].RightChild = 99 }},
		{"negative leaf", func(tr *Tree) { tr.Nodes[2].LeftChild = -1 }},
		{"node out of range", func(tr *Tree) { tr.Nodes[0].RightChild = 7 }},
		{"node points back", func(tr *Tree) { tr.Nodes[2].LeftIsLeaf = false; tr.Nodes[2].LeftChild = 0 }},
		{"self loop", func(tr *Tree) { tr.Nodes[0].LeftChild = 0 }},
		{"short leaf", func(tr *Tree) { tr.Leaves[3] = []float64{1} }},
		{"feature too large", func(tr *Tree) { tr.Nodes[1].FeatureIndex = 2 }},
		{"negative feature", func(tr *Tree) { tr.Nodes[0].FeatureIndex = -1 }},
	}
	for _, tt := range tests {
		tr := depthTwo()
		tt.mutate(&tr)
		assert.Error(t, tr.Validate(2, 2), tt.name)
	}
}
