package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteQueueSerializesSameKey(t *testing.T) {
	q := NewWriteQueue()

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Do(context.Background(), "rating:1", func(context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight),
		"writes to one key must never overlap")
}

func TestWriteQueueIndependentKeysOverlap(t *testing.T) {
	q := NewWriteQueue()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = q.Do(context.Background(), "dish:1", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// A write to a different key must not wait for dish:1.
	done := make(chan struct{})
	go func() {
		_ = q.Do(context.Background(), "dish:2", func(context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write to an independent key was blocked")
	}
	close(release)
}

func TestWriteQueueReturnsOpError(t *testing.T) {
	q := NewWriteQueue()
	wantErr := context.DeadlineExceeded
	err := q.Do(context.Background(), "k", func(context.Context) error { return wantErr })
	require.ErrorIs(t, err, wantErr)
}

func TestWriteQueueHonorsContext(t *testing.T) {
	q := NewWriteQueue()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = q.Do(context.Background(), "k", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := false
	err := q.Do(ctx, "k", func(context.Context) error { ran = true; return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, ran, "op must not run after the context ended")
}
