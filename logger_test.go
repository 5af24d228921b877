package hashmodel

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	logger.WithModel("linear").LogSave(ctx, "m.bin", 12, time.Millisecond, nil)
	assert.Contains(t, buf.String(), "model saved")
	assert.Contains(t, buf.String(), "model=linear")
	assert.Contains(t, buf.String(), "features=12")

	buf.Reset()
	logger.LogLoad(ctx, "m.bin", 0, 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "load failed")
	assert.Contains(t, buf.String(), "error=boom")

	buf.Reset()
	logger.LogPublish(ctx, "publish", "v1.hwa", 99, nil)
	assert.Contains(t, buf.String(), "publish completed")

	buf.Reset()
	logger.WithPath("x").WithClasses(3).LogTrain(ctx, 1, 2, 0.5, nil)
	assert.Contains(t, buf.String(), "train step completed")
	assert.Contains(t, buf.String(), "classes=3")
}

func TestNoopLogger(t *testing.T) {
	// Must not panic and must not be enabled at any level.
	l := NoopLogger()
	l.LogSave(context.Background(), "m.bin", 1, 0, nil)
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}

func TestBasicMetricsCollector(t *testing.T) {
	b := &BasicMetricsCollector{}
	b.RecordScore(4, 10*time.Nanosecond, nil)
	b.RecordScore(1, 30*time.Nanosecond, errors.New("x"))
	b.RecordSave(100, 0, nil)
	b.RecordSave(0, 0, errors.New("x"))
	b.RecordLoad(7, 0, nil)
	b.RecordTrain(true, 0, nil)
	b.RecordTrain(false, 0, nil)

	s := b.GetStats()
	assert.Equal(t, int64(2), s.ScoreCalls)
	assert.Equal(t, int64(4), s.ScoredExamples)
	assert.Equal(t, int64(1), s.ScoreErrors)
	assert.Equal(t, int64(20), s.ScoreAvgNanos)
	assert.Equal(t, int64(100), s.SavedBytes)
	assert.Equal(t, int64(1), s.SaveErrors)
	assert.Equal(t, int64(7), s.LoadedFeatures)
	assert.Equal(t, int64(2), s.TrainSteps)
	assert.Equal(t, int64(1), s.TrainUpdates)
}
