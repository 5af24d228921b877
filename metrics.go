package hashmodel

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    scoreCounter   prometheus.Counter
//	    saveHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordScore(n int, duration time.Duration, err error) {
//	    p.scoreCounter.Add(float64(n))
//	}
type MetricsCollector interface {
	// RecordScore is called after scoring. n is the number of examples.
	RecordScore(n int, duration time.Duration, err error)

	// RecordSave is called after a model is saved or published.
	// bytes is the encoded size, 0 on error.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordLoad is called after a model is loaded or fetched.
	RecordLoad(features int, duration time.Duration, err error)

	// RecordTrain is called after each training step. updated reports
	// whether any weight changed.
	RecordTrain(updated bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScore(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordTrain(bool, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ScoreCalls      atomic.Int64
	ScoredExamples  atomic.Int64
	ScoreErrors     atomic.Int64
	ScoreTotalNanos atomic.Int64
	SaveCount       atomic.Int64
	SaveErrors      atomic.Int64
	SavedBytes      atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadedFeatures  atomic.Int64
	TrainSteps      atomic.Int64
	TrainUpdates    atomic.Int64
	TrainErrors     atomic.Int64
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(n int, duration time.Duration, err error) {
	b.ScoreCalls.Add(1)
	b.ScoreTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScoreErrors.Add(1)
		return
	}
	b.ScoredExamples.Add(int64(n))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SavedBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(features int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedFeatures.Add(int64(features))
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(updated bool, _ time.Duration, err error) {
	b.TrainSteps.Add(1)
	if err != nil {
		b.TrainErrors.Add(1)
		return
	}
	if updated {
		b.TrainUpdates.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ScoreCalls:     b.ScoreCalls.Load(),
		ScoredExamples: b.ScoredExamples.Load(),
		ScoreErrors:    b.ScoreErrors.Load(),
		ScoreAvgNanos:  b.getAvgScoreNanos(),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		SavedBytes:     b.SavedBytes.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadedFeatures: b.LoadedFeatures.Load(),
		TrainSteps:     b.TrainSteps.Load(),
		TrainUpdates:   b.TrainUpdates.Load(),
		TrainErrors:    b.TrainErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgScoreNanos() int64 {
	count := b.ScoreCalls.Load()
	if count == 0 {
		return 0
	}
	return b.ScoreTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScoreCalls     int64
	ScoredExamples int64
	ScoreErrors    int64
	ScoreAvgNanos  int64
	SaveCount      int64
	SaveErrors     int64
	SavedBytes     int64
	LoadCount      int64
	LoadErrors     int64
	LoadedFeatures int64
	TrainSteps     int64
	TrainUpdates   int64
	TrainErrors    int64
}
