package sequencer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	ID    int64
	Value int64
}

func newTestRing(t testing.TB, capacity int64, fn func(seq int64, e *testEvent)) *RingBuffer[testEvent] {
	rb, err := New[testEvent](capacity, HandlerFunc[testEvent](fn))
	require.NoError(t, err)
	return rb
}

// startRing runs the consumer and waits until it owns the ring, so a later
// Shutdown waits for the drain.
func startRing(t testing.TB, rb *RingBuffer[testEvent]) <-chan error {
	done := make(chan error, 1)
	go func() { done <- rb.Run() }()
	require.Eventually(t, rb.running.Load, time.Second, time.Millisecond)
	return done
}

func TestRingBuffer_BasicOperations(t *testing.T) {
	var processed []int64
	var mu sync.Mutex

	rb := newTestRing(t, 16, func(_ int64, e *testEvent) {
		mu.Lock()
		processed = append(processed, e.ID)
		mu.Unlock()
	})
	startRing(t, rb)

	// Publish more events than the ring holds
	for i := int64(1); i <= 40; i++ {
		_, err := rb.Publish(testEvent{ID: i})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	// Verify all events were processed in order
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processed, 40)
	for i := int64(1); i <= 40; i++ {
		assert.Equal(t, i, processed[i-1])
	}
}

func TestRingBuffer_ClaimCommit(t *testing.T) {
	var processed []testEvent
	var seqs []int64
	var mu sync.Mutex

	rb := newTestRing(t, 16, func(seq int64, e *testEvent) {
		mu.Lock()
		processed = append(processed, *e)
		seqs = append(seqs, seq)
		mu.Unlock()
	})
	startRing(t, rb)

	seq, slot, err := rb.Claim()
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
	slot.ID = 42
	slot.Value = 100
	rb.Commit(seq)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processed, 1)
	assert.Equal(t, int64(42), processed[0].ID)
	assert.Equal(t, int64(100), processed[0].Value)
	assert.Equal(t, []int64{0}, seqs)
}

func TestRingBuffer_ClaimAfterShutdown(t *testing.T) {
	rb := newTestRing(t, 16, func(int64, *testEvent) {})
	startRing(t, rb)

	require.NoError(t, rb.Shutdown(context.Background()))

	seq, slot, err := rb.Claim()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, int64(-1), seq)
	assert.Nil(t, slot)

	_, err = rb.Publish(testEvent{ID: 1})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRingBuffer_ShutdownDuringPublish(t *testing.T) {
	var handled atomic.Int64
	rb := newTestRing(t, 64, func(int64, *testEvent) { handled.Add(1) })
	done := startRing(t, rb)

	var published atomic.Int64
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := rb.Publish(testEvent{ID: int64(p)}); err != nil {
					return
				}
				published.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool { return published.Load() > 1000 }, time.Second, time.Millisecond)
	require.NoError(t, rb.Shutdown(context.Background()))
	require.NoError(t, <-done)
	wg.Wait()

	// every publish that succeeded was handled
	assert.Equal(t, published.Load(), handled.Load())
	assert.Equal(t, rb.ProducerSequence(), rb.ConsumerSequence())
	assert.Equal(t, int64(0), rb.Pending())
}

func TestRingBuffer_SingleConsumer(t *testing.T) {
	rb := newTestRing(t, 16, func(int64, *testEvent) {})
	done := startRing(t, rb)

	assert.ErrorIs(t, rb.Run(), ErrConsumerNotReady)

	require.NoError(t, rb.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}

func TestRingBuffer_Pending(t *testing.T) {
	// Create a handler that blocks until signaled
	blockCh := make(chan struct{})
	rb := newTestRing(t, 16, func(int64, *testEvent) {
		<-blockCh
	})
	startRing(t, rb)

	for i := 0; i < 5; i++ {
		_, err := rb.Publish(testEvent{ID: int64(i)})
		require.NoError(t, err)
	}

	// The first event is being handled, the rest wait
	assert.GreaterOrEqual(t, rb.Pending(), int64(4))

	close(blockCh)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	assert.Equal(t, int64(0), rb.Pending())
}

func TestRingBuffer_SequenceMonitoring(t *testing.T) {
	rb := newTestRing(t, 16, func(int64, *testEvent) {})

	// Initial sequences should be -1
	assert.Equal(t, int64(-1), rb.ProducerSequence())
	assert.Equal(t, int64(-1), rb.ConsumerSequence())

	startRing(t, rb)

	for i := 0; i < 3; i++ {
		_, err := rb.Publish(testEvent{ID: int64(i)})
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	// After processing, both sequences should be at 2 (0-indexed)
	assert.Equal(t, int64(2), rb.ProducerSequence())
	assert.Equal(t, int64(2), rb.ConsumerSequence())
}

func TestRingBuffer_ShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	rb := newTestRing(t, 16, func(int64, *testEvent) {
		<-release
	})
	startRing(t, rb)

	_, err := rb.Publish(testEvent{ID: 1})
	require.NoError(t, err)

	// Shutdown with very short timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = rb.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRingBuffer_ConcurrentPublish(t *testing.T) {
	var count atomic.Int64
	var last int64 = -1
	ordered := true

	rb := newTestRing(t, 1024, func(seq int64, _ *testEvent) {
		count.Add(1)
		if seq != last+1 {
			ordered = false
		}
		last = seq
	})
	done := startRing(t, rb)

	// Concurrent publishers
	const numPublishers = 10
	const eventsPerPublisher = 500

	var wg sync.WaitGroup
	wg.Add(numPublishers)
	for i := 0; i < numPublishers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerPublisher; j++ {
				_, _ = rb.Publish(testEvent{ID: int64(id*eventsPerPublisher + j)})
			}
		}(i)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))
	require.NoError(t, <-done)

	assert.Equal(t, int64(numPublishers*eventsPerPublisher), count.Load())
	assert.True(t, ordered)
}

func TestRingBuffer_PowerOf2Validation(t *testing.T) {
	handler := HandlerFunc[testEvent](func(int64, *testEvent) {})

	for _, capacity := range []int64{15, 0, -1, 1000} {
		_, err := New[testEvent](capacity, handler)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", capacity)
	}

	for _, capacity := range []int64{1, 2, 16, 1024} {
		_, err := New[testEvent](capacity, handler)
		assert.NoError(t, err, "capacity %d", capacity)
	}
}

// --- Benchmarks ---

func BenchmarkRingBuffer(b *testing.B) {
	var count atomic.Int64
	rb := newTestRing(b, 1024*64, func(int64, *testEvent) {
		count.Add(1)
	})
	startRing(b, rb)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			i++
			_, _ = rb.Publish(testEvent{ID: i})
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = rb.Shutdown(ctx)
}

func BenchmarkChannel(b *testing.B) {
	ch := make(chan testEvent, 1024*64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			i++
			ch <- testEvent{ID: i}
		}
	})
	close(ch)
	<-done
}
