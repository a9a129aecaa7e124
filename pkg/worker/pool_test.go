package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPool_GoRespectsLimit(t *testing.T) {
	p := NewPool(context.Background(), Config{Size: 2, LaneBuffer: 8}, zaptest.NewLogger(t))
	defer p.Close()

	var running, peak int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Go("task", func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}))
	}
	p.Wait()
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPool_SerialKeepsOrder(t *testing.T) {
	p := NewPool(context.Background(), Config{Size: 4, LaneBuffer: 4}, zaptest.NewLogger(t))
	defer p.Close()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, p.Serial("history", "append", func(ctx context.Context) error {
			if i%7 == 0 {
				time.Sleep(time.Millisecond)
			}
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	p.Wait()

	require.Len(t, got, 50)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestPool_PanicAndErrorDoNotEscape(t *testing.T) {
	p := NewPool(context.Background(), Config{Size: 1, LaneBuffer: 1}, zaptest.NewLogger(t))
	defer p.Close()

	var after atomic.Bool
	require.NoError(t, p.Go("boom", func(ctx context.Context) error { panic("boom") }))
	require.NoError(t, p.Serial("lane", "err", func(ctx context.Context) error { return errors.New("failed") }))
	require.NoError(t, p.Serial("lane", "after", func(ctx context.Context) error {
		after.Store(true)
		return nil
	}))
	p.Wait()
	require.True(t, after.Load())
}

func TestPool_CloseCancelsAndRejects(t *testing.T) {
	p := NewPool(context.Background(), Config{Size: 1, LaneBuffer: 1}, zaptest.NewLogger(t))

	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, p.Go("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))
	<-started

	p.Close()
	require.True(t, cancelled.Load())
	require.ErrorIs(t, p.Context().Err(), context.Canceled)
	require.ErrorIs(t, p.Go("late", func(ctx context.Context) error { return nil }), ErrClosed)
	require.ErrorIs(t, p.Serial("lane", "late", func(ctx context.Context) error { return nil }), ErrClosed)

	// closing twice is harmless
	p.Close()
}
