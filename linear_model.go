package hashmodel

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/hashmodel/blobstore"
	"github.com/hupe1980/hashmodel/internal/conv"
	"github.com/hupe1980/hashmodel/linear"
	"github.com/hupe1980/hashmodel/persistence"
	"github.com/hupe1980/hashmodel/weights"
)

// LinearModel is a sparse multi-class linear classifier over hashed features.
//
// Scoring only reads the weight store and is safe for concurrent use.
// Train, Save and Publish mutate it (saving sorts every weight list in
// place) and must not run concurrently with Score, ScoreBatch, Predict or
// each other.
type LinearModel struct {
	store      *weights.Store
	numClasses int
	opts       options
}

// New creates an empty linear model with numClasses classes.
func New(numClasses int, optFns ...Option) (*LinearModel, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidClassCount, numClasses)
	}
	if _, err := conv.IntToInt32(numClasses); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidClassCount, err)
	}

	o := applyOptions(optFns)
	if o.learningRate == 0 {
		o.learningRate = 1
	}
	return &LinearModel{
		store:      o.newStore(),
		numClasses: numClasses,
		opts:       o,
	}, nil
}

// NumClasses returns the number of classes.
func (m *LinearModel) NumClasses() int {
	return m.numClasses
}

// Store returns the underlying weight store.
func (m *LinearModel) Store() *weights.Store {
	return m.store
}

// Score resets ex.Scores and fills it with the model's class scores.
func (m *LinearModel) Score(_ context.Context, ex *Example) error {
	start := time.Now()
	err := ex.prepare(m.numClasses)
	if err == nil {
		linear.Score(ex.Scores, ex.Features, m.store)
	}
	m.opts.metricsCollector.RecordScore(1, time.Since(start), err)
	return err
}

// ScoreBatch scores every example concurrently.
func (m *LinearModel) ScoreBatch(ctx context.Context, examples []*Example) error {
	start := time.Now()
	items := make([]linear.Item, len(examples))
	for i, ex := range examples {
		if err := ex.prepare(m.numClasses); err != nil {
			m.opts.metricsCollector.RecordScore(len(examples), time.Since(start), err)
			return err
		}
		items[i] = linear.Item{Features: ex.Features, Scores: ex.Scores}
	}

	err := linear.ScoreBatch(ctx, items, m.store, m.opts.controller)
	m.opts.metricsCollector.RecordScore(len(examples), time.Since(start), err)
	return err
}

// Predict scores ex and returns the best valid class, or -1.
func (m *LinearModel) Predict(ctx context.Context, ex *Example) (int, error) {
	if err := m.Score(ctx, ex); err != nil {
		return -1, err
	}
	return Argmax(ex.Scores, ex.Valid), nil
}

// Train applies one perceptron step towards gold and reports whether any
// weight changed.
func (m *LinearModel) Train(ctx context.Context, ex *Example, gold int) (bool, error) {
	start := time.Now()
	updated, predicted, err := m.train(ctx, ex, gold)
	m.opts.metricsCollector.RecordTrain(updated, time.Since(start), err)
	m.opts.logger.LogTrain(ctx, gold, predicted, 0, err)
	return updated, err
}

func (m *LinearModel) train(ctx context.Context, ex *Example, gold int) (bool, int, error) {
	if gold < 0 || gold >= m.numClasses {
		return false, -1, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidClass, gold, m.numClasses)
	}
	predicted, err := m.Predict(ctx, ex)
	if err != nil {
		return false, -1, err
	}
	//nolint:gosec // both bounded by numClasses, which fits int32
	updated, err := linear.Perceptron(m.store, ex.Features, int32(gold), int32(predicted), m.opts.learningRate)
	return updated, predicted, err
}

// Save atomically writes the model to path. It sorts the weight lists in
// place, so it must not overlap with scoring.
func (m *LinearModel) Save(ctx context.Context, path string) error {
	start := time.Now()
	err := persistence.SaveStore(path, m.numClasses, m.store, m.opts.persistenceOptions(persistence.WithContext(ctx))...)
	elapsed := time.Since(start)

	m.opts.metricsCollector.RecordSave(m.store.Bytes(), elapsed, err)
	m.opts.logger.WithModel("linear").LogSave(ctx, path, m.store.Len(), elapsed, err)
	return err
}

// Load reads a model saved with Save.
func Load(ctx context.Context, path string, optFns ...Option) (*LinearModel, error) {
	o := applyOptions(optFns)
	if o.learningRate == 0 {
		o.learningRate = 1
	}

	start := time.Now()
	load := persistence.LoadStore
	if o.mapped {
		load = persistence.LoadStoreMapped
	}
	store, classCount, err := load(path, o.persistenceOptions(persistence.WithContext(ctx))...)
	if err == nil && classCount <= 0 {
		store.RemoveAll()
		err = fmt.Errorf("%w: file declares %d classes", ErrClassCountMismatch, classCount)
	}
	elapsed := time.Since(start)

	features := 0
	if err == nil {
		features = store.Len()
	}
	o.metricsCollector.RecordLoad(features, elapsed, err)
	o.logger.WithModel("linear").LogLoad(ctx, path, features, elapsed, err)
	if err != nil {
		return nil, err
	}
	return &LinearModel{store: store, numClasses: classCount, opts: o}, nil
}

// Publish writes the model as a checksummed archive to a blob store.
// The blob is only visible once it is complete. Like Save, it sorts the
// weight lists in place.
func (m *LinearModel) Publish(ctx context.Context, bs blobstore.BlobStore, name string) (err error) {
	start := time.Now()
	size := 0
	defer func() {
		m.opts.metricsCollector.RecordSave(int64(size), time.Since(start), err)
		m.opts.logger.WithModel("linear").LogPublish(ctx, "publish", name, size, err)
	}()

	raw, err := persistence.EncodeStore(m.numClasses, m.store)
	if err != nil {
		return err
	}

	w, err := bs.Create(ctx, name)
	if err != nil {
		return err
	}
	if err = persistence.WriteArchive(w, raw, m.opts.compression); err != nil {
		_ = blobstore.Abort(ctx, w)
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	size = len(raw)
	return nil
}

// Fetch reads a model published with Publish.
func Fetch(ctx context.Context, bs blobstore.BlobStore, name string, optFns ...Option) (_ *LinearModel, err error) {
	o := applyOptions(optFns)
	if o.learningRate == 0 {
		o.learningRate = 1
	}

	start := time.Now()
	features := 0
	size := 0
	defer func() {
		o.metricsCollector.RecordLoad(features, time.Since(start), err)
		o.logger.WithModel("linear").LogPublish(ctx, "fetch", name, size, err)
	}()

	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	size = len(data)

	_, raw, err := persistence.ReadArchive(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	store, classCount, err := persistence.DecodeStore(raw, o.persistenceOptions(persistence.WithContext(ctx))...)
	if err != nil {
		return nil, err
	}
	if classCount <= 0 {
		store.RemoveAll()
		return nil, fmt.Errorf("%w: archive declares %d classes", ErrClassCountMismatch, classCount)
	}

	features = store.Len()
	return &LinearModel{store: store, numClasses: classCount, opts: o}, nil
}

// Close releases the weight memory charged to the resource controller.
func (m *LinearModel) Close() error {
	m.store.RemoveAll()
	return nil
}
