package hashmodel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/hashmodel/feature"
	"github.com/hupe1980/hashmodel/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddedModel(t *testing.T, optFns ...Option) (*NetworkModel, []*Example, []int) {
	t.Helper()
	m, err := NewNetworkModel([]int{4, 8, 3}, 7, optFns...)
	require.NoError(t, err)

	red := feature.Indicator("word", "red")
	green := feature.Indicator("word", "green")
	blue := feature.Indicator("word", "blue")
	require.NoError(t, m.SetEmbedding(red.Key, network.Embedding{Offset: 0, Length: 2, Vector: []float32{1, 0}}))
	require.NoError(t, m.SetEmbedding(green.Key, network.Embedding{Offset: 0, Length: 2, Vector: []float32{0, 1}}))
	require.NoError(t, m.SetEmbedding(blue.Key, network.Embedding{Offset: 2, Length: 2, Vector: []float32{1, 1}}))

	examples := []*Example{
		{Features: []feature.Feature{red}},
		{Features: []feature.Feature{green}},
		{Features: []feature.Feature{blue}},
	}
	return m, examples, []int{0, 1, 2}
}

func TestNetworkModel_ScoreIsDistribution(t *testing.T) {
	ctx := context.Background()
	m, examples, _ := newEmbeddedModel(t)

	require.NoError(t, m.Score(ctx, examples[0]))
	var sum float32
	for _, s := range examples[0].Scores {
		assert.GreaterOrEqual(t, s, float32(0))
		sum += s
	}
	assert.InDelta(t, 1, sum, 1e-5)
}

func TestNetworkModel_TrainStepLearns(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	m, examples, gold := newEmbeddedModel(t, WithLearningRate(0.2), WithMetricsCollector(metrics))

	first, err := m.TrainStep(ctx, examples[0], gold[0])
	require.NoError(t, err)

	var last float64
	for epoch := 0; epoch < 300; epoch++ {
		for i, ex := range examples {
			loss, err := m.TrainStep(ctx, ex, gold[i])
			require.NoError(t, err)
			if i == 0 {
				last = loss
			}
		}
	}
	assert.Less(t, last, first)

	for i, ex := range examples {
		pred, err := m.Predict(ctx, ex)
		require.NoError(t, err)
		assert.Equal(t, gold[i], pred, "example %d", i)
	}
	assert.Equal(t, int64(901), metrics.GetStats().TrainSteps)
}

func TestNetworkModel_Errors(t *testing.T) {
	ctx := context.Background()
	m, examples, _ := newEmbeddedModel(t)

	_, err := m.TrainStep(ctx, examples[0], 3)
	assert.ErrorIs(t, err, ErrInvalidClass)

	var dm *ErrDimensionMismatch
	err = m.Score(ctx, &Example{Scores: make([]float32, 5)})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)

	err = m.SetEmbedding(1, network.Embedding{Offset: 3, Length: 2, Vector: []float32{1, 1}})
	assert.ErrorIs(t, err, network.ErrEmbeddingBounds)

	_, err = NewNetworkModel([]int{4}, 1)
	assert.ErrorIs(t, err, network.ErrNoLayers)
}

func TestNetworkModel_SaveLoad(t *testing.T) {
	ctx := context.Background()
	m, examples, gold := newEmbeddedModel(t, WithActivation(network.Tanh))
	for epoch := 0; epoch < 50; epoch++ {
		for i, ex := range examples {
			_, err := m.TrainStep(ctx, ex, gold[i])
			require.NoError(t, err)
		}
	}

	path := filepath.Join(t.TempDir(), "net.bin")
	require.NoError(t, m.Save(ctx, path))

	loaded, err := LoadNetworkModel(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NumClasses())
	assert.Equal(t, network.Tanh, loaded.Network().Layers[0].Activation)
	assert.Equal(t, 3, loaded.Network().Embeddings.Len())

	for _, ex := range examples {
		want := &Example{Features: ex.Features}
		got := &Example{Features: ex.Features}
		require.NoError(t, m.Score(ctx, want))
		require.NoError(t, loaded.Score(ctx, got))
		assert.InDeltaSlice(t, want.Scores, got.Scores, 1e-6)
	}
}

func TestWrapNetwork(t *testing.T) {
	n, err := network.Build([]int{2, 2}, network.ReLU, 1)
	require.NoError(t, err)

	m := WrapNetwork(n)
	assert.Same(t, n, m.Network())
	assert.Equal(t, 2, m.NumClasses())
}
