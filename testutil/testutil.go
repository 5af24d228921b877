package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/hashmodel/feature"
	"github.com/hupe1980/hashmodel/network"
	"github.com/hupe1980/hashmodel/weights"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// Vector returns a sorted sparse vector with length distinct classes drawn
// from [0, classes) and weights in [-1, 1).
func (r *RNG) Vector(classes, length int) *weights.SparseVector {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vectorLocked(classes, length)
}

func (r *RNG) vectorLocked(classes, length int) *weights.SparseVector {
	length = min(length, classes)
	perm := r.rand.Perm(classes)[:length]
	entries := make([]weights.Entry, length)
	for i, c := range perm {
		entries[i] = weights.Entry{Class: int32(c), Weight: r.rand.Float32()*2 - 1} //nolint:gosec // c < classes
	}
	return weights.NewSortedSparseVector(entries...)
}

// Store returns a store with keys random feature keys, each holding a
// vector of 1 to classes entries.
func (r *RNG) Store(keys, classes int, optFns ...weights.StoreOption) *weights.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := weights.NewStore(append([]weights.StoreOption{weights.WithCapacity(keys)}, optFns...)...)
	for s.Len() < keys {
		key := r.rand.Uint64()
		if _, ok := s.Get(key); ok {
			continue
		}
		if err := s.Set(key, r.vectorLocked(classes, 1+r.rand.Intn(classes))); err != nil {
			panic(err)
		}
	}
	return s
}

// Features returns n features whose keys are drawn from store with a
// Zipfian skew s (s <= 0 draws uniformly). Values are in [0, 1).
func (r *RNG) Features(store *weights.Store, n int, s float64) []feature.Feature {
	keys := store.Keys().ToArray()

	r.mu.Lock()
	defer r.mu.Unlock()

	feats := make([]feature.Feature, n)
	for i := range feats {
		var idx int
		if s > 0 {
			idx = r.zipfLocked(len(keys), s)
		} else {
			idx = r.rand.Intn(len(keys))
		}
		feats[i] = feature.Feature{Key: keys[idx], Value: r.rand.Float32()}
	}
	return feats
}

// Network builds a randomly initialized network with the given layer
// widths and embeddings random embeddings keyed 1..embeddings. Each
// embedding covers a random window of the input.
func (r *RNG) Network(sizes []int, embeddings int) *network.Network {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := network.Build(sizes, network.ReLU, r.rand.Int63())
	if err != nil {
		panic(err)
	}
	dim := n.InputDim()
	for key := 1; key <= embeddings; key++ {
		length := 1 + r.rand.Intn(dim)
		offset := r.rand.Intn(dim - length + 1)
		vec := make([]float32, length)
		for i := range vec {
			vec[i] = r.rand.Float32()*2 - 1
		}
		if err := n.Embeddings.Set(uint64(key), network.Embedding{Offset: offset, Length: length, Vector: vec}); err != nil {
			panic(err)
		}
	}
	return n
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
// Feature frequencies in text follow this law.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Harmonic number with exponent s.
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform over the cumulative mass.
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// ClassScore is one class and its score.
type ClassScore struct {
	Class int
	Score float32
}

// TopK returns the k best classes by score, ties broken by lower class id.
func TopK(scores []float32, k int) []ClassScore {
	all := make([]ClassScore, len(scores))
	for i, s := range scores {
		all[i] = ClassScore{Class: i, Score: s}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	return all[:min(k, len(all))]
}

// BruteForceScore computes class scores the slow way: it looks every
// feature up and sums weight*value per class. It is the ground truth for
// optimized scorers.
func BruteForceScore(store *weights.Store, feats []feature.Feature, classes int) []float32 {
	scores := make([]float32, classes)
	for _, f := range feats {
		v := store.Lookup(f.Key)
		if v == nil {
			continue
		}
		for _, e := range v.Entries() {
			if int(e.Class) < classes {
				scores[e.Class] += e.Weight * f.Value
			}
		}
	}
	return scores
}
