// Package cv produces group-aware cross-validation folds.
//
// Samples that share a group identifier (typically the source image) always
// land on the same side of a fold, so a model is never scored on regions cut
// from an image it was trained on.
package cv

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/combin"
)

var (
	// ErrInsufficientGroups is returned when fewer unique groups exist than are left out.
	ErrInsufficientGroups = errors.New("insufficient groups")
	// ErrInvalidLeaveOut is returned for a leave-out count below one.
	ErrInvalidLeaveOut = errors.New("leave-out count must be at least 1")
)

// Fold is one train/test partition of the sample indices. Both index slices
// are sorted ascending.
type Fold struct {
	Train []int
	Test  []int
	// TestGroups lists the held-out groups in sorted order.
	TestGroups []string
}

// Splitter partitions n samples given their group identifiers.
type Splitter interface {
	Split(n int, groups []string) ([]Fold, error)
}

// LeavePGroupsOut holds out every combination of P distinct groups in turn.
type LeavePGroupsOut struct {
	P int
}

// NFolds returns the number of folds Split would produce for groups.
func (s LeavePGroupsOut) NFolds(groups []string) (int, error) {
	unique := uniqueSorted(groups)
	if err := s.check(len(unique)); err != nil {
		return 0, err
	}
	return combin.Binomial(len(unique), s.P), nil
}

// Split returns C(uniqueGroups, P) folds. Folds are enumerated in
// lexicographic order over the sorted unique group identifiers, so identical
// input always yields identical folds.
func (s LeavePGroupsOut) Split(n int, groups []string) ([]Fold, error) {
	if len(groups) != n {
		return nil, errors.Errorf("got %d group ids for %d samples", len(groups), n)
	}
	unique := uniqueSorted(groups)
	if err := s.check(len(unique)); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(unique))
	for i, g := range unique {
		index[g] = i
	}

	combos := combin.Combinations(len(unique), s.P)
	folds := make([]Fold, 0, len(combos))
	for _, combo := range combos {
		held := make([]bool, len(unique))
		testGroups := make([]string, len(combo))
		for i, gi := range combo {
			held[gi] = true
			testGroups[i] = unique[gi]
		}

		f := Fold{TestGroups: testGroups}
		for i, g := range groups {
			if held[index[g]] {
				f.Test = append(f.Test, i)
			} else {
				f.Train = append(f.Train, i)
			}
		}
		folds = append(folds, f)
	}
	return folds, nil
}

func (s LeavePGroupsOut) check(uniqueCount int) error {
	if s.P < 1 {
		return errors.Wrapf(ErrInvalidLeaveOut, "got %d", s.P)
	}
	if uniqueCount < s.P {
		return errors.Wrapf(ErrInsufficientGroups, "%d unique groups, %d to leave out", uniqueCount, s.P)
	}
	return nil
}

func uniqueSorted(groups []string) []string {
	seen := make(map[string]struct{}, len(groups))
	var out []string
	for _, g := range groups {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
