// Package search runs exhaustive grid search with group-aware cross-validation.
//
// Every grid point is evaluated on every fold produced by the splitter: a
// fresh estimator is configured from the point, fitted on the fold's training
// samples and scored on its test samples. A point's score is the mean of its
// fold scores and the best point is the one with the highest mean, ties going
// to the first point in enumeration order.
//
// # Concurrency
//
// Options.Jobs bounds how many grid points are in flight and
// Options.FoldJobs bounds how many folds of one point run together. All fits
// additionally share Options.Budget slots, so nested parallelism never runs
// more than Budget fits at once. Results are collected by index, which keeps
// the selected point independent of scheduling.
//
// # Failures
//
// The first failing configure, fit or score call aborts the search. No new
// work is started after a failure and no partial report is returned. The
// error is an *EstimatorFailure naming the grid point and fold.
package search
