package hashmodel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/hashmodel/network"
	"github.com/hupe1980/hashmodel/persistence"
)

// NetworkModel is a feed-forward classifier: features are embedded into a
// dense input vector and passed through the network's layers. Scores are
// softmax probabilities.
//
// A NetworkModel owns one workspace; calls are serialized.
type NetworkModel struct {
	mu     sync.Mutex
	net    *network.Network
	ws     *network.Workspace
	grads  *network.Gradients
	target []float32
	opts   options
}

// NewNetworkModel builds a randomly initialized network with the given
// layer widths. sizes[0] is the embedding dimension and the last entry the
// class count.
func NewNetworkModel(sizes []int, seed int64, optFns ...Option) (*NetworkModel, error) {
	o := applyOptions(optFns)
	n, err := network.Build(sizes, o.activation, seed)
	if err != nil {
		return nil, err
	}
	return newNetworkModel(n, o), nil
}

// WrapNetwork returns a model around an existing network.
func WrapNetwork(n *network.Network, optFns ...Option) *NetworkModel {
	return newNetworkModel(n, applyOptions(optFns))
}

func newNetworkModel(n *network.Network, o options) *NetworkModel {
	if o.learningRate == 0 {
		o.learningRate = 0.1
	}
	return &NetworkModel{
		net:    n,
		ws:     network.NewWorkspace(n),
		grads:  network.NewGradients(n),
		target: make([]float32, n.NumClasses()),
		opts:   o,
	}
}

// Network returns the underlying network.
func (m *NetworkModel) Network() *network.Network {
	return m.net
}

// NumClasses returns the number of classes.
func (m *NetworkModel) NumClasses() int {
	return m.net.NumClasses()
}

// SetEmbedding assigns an embedding to a feature key.
func (m *NetworkModel) SetEmbedding(key uint64, e network.Embedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Embeddings.Set(key, e)
}

// Score fills ex.Scores with class probabilities.
func (m *NetworkModel) Score(_ context.Context, ex *Example) error {
	start := time.Now()
	m.mu.Lock()
	err := m.score(ex)
	m.mu.Unlock()
	m.opts.metricsCollector.RecordScore(1, time.Since(start), err)
	return err
}

func (m *NetworkModel) score(ex *Example) error {
	if err := ex.prepare(m.net.NumClasses()); err != nil {
		return err
	}
	return translateError(network.Forward(m.net, m.ws, ex.Features, ex.Scores))
}

// Predict scores ex and returns the best valid class, or -1.
func (m *NetworkModel) Predict(ctx context.Context, ex *Example) (int, error) {
	if err := m.Score(ctx, ex); err != nil {
		return -1, err
	}
	return Argmax(ex.Scores, ex.Valid), nil
}

// TrainStep runs forward and backward passes for one example and applies
// one SGD step towards gold. It returns the cross-entropy loss before the
// update.
func (m *NetworkModel) TrainStep(ctx context.Context, ex *Example, gold int) (float64, error) {
	start := time.Now()
	m.mu.Lock()
	loss, predicted, err := m.trainStep(ex, gold)
	m.mu.Unlock()

	m.opts.metricsCollector.RecordTrain(err == nil, time.Since(start), err)
	m.opts.logger.LogTrain(ctx, gold, predicted, loss, err)
	return loss, err
}

func (m *NetworkModel) trainStep(ex *Example, gold int) (float64, int, error) {
	if gold < 0 || gold >= m.net.NumClasses() {
		return 0, -1, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidClass, gold, m.net.NumClasses())
	}
	if err := m.score(ex); err != nil {
		return 0, -1, err
	}
	predicted := Argmax(ex.Scores, ex.Valid)

	network.OneHot(m.target, gold)
	loss := network.Loss(ex.Scores, m.target)

	m.grads.Reset()
	if err := network.Backward(m.net, m.ws, ex.Features, ex.Scores, m.target, m.grads); err != nil {
		return 0, predicted, translateError(err)
	}
	m.grads.Apply(m.net, m.opts.learningRate)
	return loss, predicted, nil
}

// Save atomically writes the network to path.
func (m *NetworkModel) Save(ctx context.Context, path string) error {
	start := time.Now()
	m.mu.Lock()
	err := persistence.SaveNetwork(path, m.net, m.opts.persistenceOptions(persistence.WithContext(ctx))...)
	m.mu.Unlock()
	elapsed := time.Since(start)

	m.opts.metricsCollector.RecordSave(0, elapsed, err)
	m.opts.logger.WithModel("network").LogSave(ctx, path, m.net.Embeddings.Len(), elapsed, err)
	return err
}

// LoadNetworkModel reads a network saved with NetworkModel.Save.
func LoadNetworkModel(ctx context.Context, path string, optFns ...Option) (*NetworkModel, error) {
	o := applyOptions(optFns)

	start := time.Now()
	n, err := persistence.LoadNetwork(path, o.persistenceOptions(persistence.WithContext(ctx))...)
	elapsed := time.Since(start)

	features := 0
	if err == nil {
		features = n.Embeddings.Len()
	}
	o.metricsCollector.RecordLoad(features, elapsed, err)
	o.logger.WithModel("network").LogLoad(ctx, path, features, elapsed, err)
	if err != nil {
		return nil, err
	}
	return newNetworkModel(n, o), nil
}
