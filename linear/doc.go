// Package linear implements the multi-class linear scorer over a hashed
// sparse weight table.
//
// For every feature the scorer looks up the feature's class-weight list and
// adds weight*value into the caller's score buffer:
//
//	scores := make([]float32, numClasses)
//	linear.Score(scores, features, store)
//
// The buffer is an accumulator: the scorer never clears it, so callers zero
// it between examples. Features whose key is absent contribute nothing.
//
// The hashed lookup dominates the cost of scoring; each weight list is then
// walked sequentially in one cache-friendly pass.
package linear
