package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToInt32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToInt32(0)
		assert.NoError(t, err)
		assert.Equal(t, int32(0), got)
	})

	t.Run("valid negative", func(t *testing.T) {
		got, err := IntToInt32(-2)
		assert.NoError(t, err)
		assert.Equal(t, int32(-2), got)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := IntToInt32(math.MaxInt32 + 1)
		assert.Error(t, err)
	})

	t.Run("invalid too small", func(t *testing.T) {
		_, err := IntToInt32(math.MinInt32 - 1)
		assert.Error(t, err)
	})
}

func TestNonNegativeInt32(t *testing.T) {
	got, err := NonNegativeInt32(7)
	assert.NoError(t, err)
	assert.Equal(t, int32(7), got)

	_, err = NonNegativeInt32(-1)
	assert.Error(t, err)
}

func TestInt32ToLen(t *testing.T) {
	got, err := Int32ToLen(12)
	assert.NoError(t, err)
	assert.Equal(t, 12, got)

	_, err = Int32ToLen(-1)
	assert.Error(t, err)
}

func TestIntToUint32(t *testing.T) {
	t.Run("valid positive", func(t *testing.T) {
		got, err := IntToUint32(123)
		assert.NoError(t, err)
		assert.Equal(t, uint32(123), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.Error(t, err)
	})
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(42)
	assert.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.Error(t, err)
}
