// Package forest implements an extremely randomized trees classifier.
//
// Trees are stored as flat node slices so that a trained forest serializes
// to plain JSON and evaluates without recursion.
package forest

import "github.com/pkg/errors"

// A Node represents a splitting decision of the form "x[FeatureIndex] < Threshold ?".
type Node struct {
	// FeatureIndex indicates which feature is used in this splitting decision
	FeatureIndex int `json:"feature_index"`
	// Threshold indicates the cutoff value between the left and right subtrees
	Threshold float64 `json:"threshold"`
	// LeftChild is the index of the node, or of the leaf, for the left subtree
	LeftChild int `json:"left_child"`
	// LeftIsLeaf indicates whether LeftChild indexes Leaves
	LeftIsLeaf bool `json:"left_is_leaf"`
	// RightChild is the index of the node, or of the leaf, for the right subtree
	RightChild int `json:"right_child"`
	// RightIsLeaf indicates whether RightChild indexes Leaves
	RightIsLeaf bool `json:"right_is_leaf"`
}

// A Tree maps a feature vector to a class probability vector.
type Tree struct {
	// Nodes is a flat list of all internal nodes; Nodes[0] is the root.
	// A tree without nodes is a single leaf, Leaves[0].
	Nodes []Node `json:"nodes"`
	// Leaves holds one class probability vector per leaf.
	Leaves [][]float64 `json:"leaves"`
}

// Leaf drops x down the tree and returns the index of the leaf it lands in.
func (t *Tree) Leaf(x []float64) int {
	if len(t.Nodes) == 0 {
		return 0
	}
	cur := t.Nodes[0]
	for {
		if x[cur.FeatureIndex] < cur.Threshold {
			if cur.LeftIsLeaf {
				return cur.LeftChild
			}
			cur = t.Nodes[cur.LeftChild]
		} else {
			if cur.RightIsLeaf {
				return cur.RightChild
			}
			cur = t.Nodes[cur.RightChild]
		}
	}
}

// Proba returns the class distribution of the leaf x lands in.
func (t *Tree) Proba(x []float64) []float64 {
	return t.Leaves[t.Leaf(x)]
}

// Depth returns the longest root-to-leaf path length.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		l, r := 1, 1
		if !n.LeftIsLeaf {
			l = 1 + walk(n.LeftChild)
		}
		if !n.RightIsLeaf {
			r = 1 + walk(n.RightChild)
		}
		if l > r {
			return l
		}
		return r
	}
	return walk(0)
}

// Validate checks that t is a well-formed tree over nFeatures features whose
// leaves hold nClasses probabilities. Internal children always have a larger
// index than their parent, so a valid tree cannot loop.
func (t *Tree) Validate(nClasses, nFeatures int) error {
	if len(t.Leaves) == 0 {
		return errors.New("tree has no leaves")
	}
	for i, leaf := range t.Leaves {
		if len(leaf) != nClasses {
			return errors.Errorf("leaf %d has %d classes, want %d", i, len(leaf), nClasses)
		}
	}
	child := func(i, c int, isLeaf bool) error {
		switch {
		case isLeaf && (c < 0 || c >= len(t.Leaves)):
			return errors.Errorf("node %d points to leaf %d of %d", i, c, len(t.Leaves))
		case !isLeaf && (c <= i || c >= len(t.Nodes)):
			return errors.Errorf("node %d points to node %d of %d", i, c, len(t.Nodes))
		}
		return nil
	}
	for i, n := range t.Nodes {
		if n.FeatureIndex < 0 || n.FeatureIndex >= nFeatures {
			return errors.Errorf("node %d splits on feature %d of %d", i, n.FeatureIndex, nFeatures)
		}
		if err := child(i, n.LeftChild, n.LeftIsLeaf); err != nil {
			return err
		}
		if err := child(i, n.RightChild, n.RightIsLeaf); err != nil {
			return err
		}
	}
	return nil
}
