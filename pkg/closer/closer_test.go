package closer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloser_LIFOOrder(t *testing.T) {
	c := NewCloser(time.Second)

	var order []int
	for i := 1; i <= 3; i++ {
		c.Add(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	err := c.Close(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestCloser_CollectsErrors(t *testing.T) {
	c := NewCloser(time.Second)

	c.Add(func(ctx context.Context) error { return nil })
	c.Add(func(ctx context.Context) error { return errors.New("redis close failed") })

	err := c.Close(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis close failed")
}

func TestCloser_CloseIsIdempotent(t *testing.T) {
	c := NewCloser(time.Second)

	calls := 0
	c.Add(func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestCloser_ForcedCloseOnExpiredContext(t *testing.T) {
	c := NewCloser(100 * time.Millisecond)

	var calls atomic.Int32
	c.Add(func(ctx context.Context) error {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted")
	// Функция вызывалась дважды: штатно и принудительно
	assert.Equal(t, int32(2), calls.Load())
}
