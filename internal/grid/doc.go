// Package grid builds hyperparameter search spaces.
//
// A ParameterGrid is an ordered list of named axes, each holding an ordered
// sequence of candidate values. Grid points are the cartesian product of the
// axes, enumerated in axis insertion order with the last axis varying fastest.
// The enumeration order is stable so that ties between equally scored points
// always resolve to the same point.
//
// # Window Sizes
//
// BuildRanges turns two unordered lists of size proportions into the ordered
// (min, max) pairs used by the subwindow extractor. Pairs where min >= max are
// skipped silently; that is a filtering rule, not an error.
package grid
