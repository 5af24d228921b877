// Package network implements the feed-forward scorer: a dense embedding
// lookup followed by a stack of fully connected layers and a softmax.
//
// # Forward
//
// Every feature whose key has an embedding adds embedding·value into the
// embedded input at the embedding's offset. The embedded input then flows
// through the layers, each computing activation(x·W + b), and the last
// layer's output is normalized with a softmax into the score buffer.
//
// # Backward
//
// Backward propagates the softmax cross-entropy error (scores − target)
// from the last layer down to the embedded input, accumulating weight, bias
// and embedding gradients into a Gradients value. Gradients.Apply performs a
// plain SGD step.
//
// # Buffers
//
// A Network is read-only during Forward and Backward. All per-example state
// lives in a Workspace and a Gradients value; concurrent callers need one
// of each. Mutating the network (Apply, EmbeddingTable.Set) must be
// serialized by the caller.
package network
