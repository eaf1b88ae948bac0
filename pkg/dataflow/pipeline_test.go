package dataflow_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/locvowork/hrms/pkg/dataflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *testing.T, ctx context.Context, s dataflow.Stream[T]) []T {
	t.Helper()
	var out []T
	require.NoError(t, dataflow.ForEach(ctx, s, func(v T) error {
		out = append(out, v)
		return nil
	}))
	return out
}

func TestMapWithWorkersAndRetry(t *testing.T) {
	ctx := context.Background()

	var attempts int32
	parsed := dataflow.Map(ctx, dataflow.From(ctx, "1", "2", "x", "3"), func(s string) (int, error) {
		if s == "2" && atomic.AddInt32(&attempts, 1) < 3 {
			return 0, errors.New("transient")
		}
		return strconv.Atoi(s)
	}, dataflow.WithWorkers(2), dataflow.WithRetry(3, func(int) time.Duration { return time.Millisecond }))

	got := collect(t, ctx, parsed)
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3}, got, "unparseable items are dropped")
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	even := dataflow.Filter(ctx, dataflow.From(ctx, 1, 2, 3, 4, 5, 6), func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, collect(t, ctx, even))
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	batches := collect(t, ctx, dataflow.Batch(ctx, dataflow.From(ctx, 1, 2, 3, 4, 5), 2))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, batches)

	empty := collect(t, ctx, dataflow.Batch(ctx, dataflow.From[int](ctx), 3))
	assert.Empty(t, empty)
}

func TestForEachReturnsFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2, 3), func(n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	handled := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2), func(int) error { return boom },
		dataflow.WithErrorHandler(func(error) bool { return true }))
	assert.NoError(t, handled)
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	never := make(chan int)
	err := dataflow.ForEach(ctx, dataflow.Stream[int](never), func(int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
