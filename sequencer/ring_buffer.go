// Package sequencer serializes commands from many producers onto the single
// goroutine that owns an order book.
package sequencer

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

var (
	ErrClosed           = errors.New("sequencer: ring buffer is closed")
	ErrInvalidCapacity  = errors.New("sequencer: capacity must be a power of 2")
	ErrConsumerNotReady = errors.New("sequencer: consumer already running")
)

// closedBit is set in the producer cursor by Shutdown. Claims and Shutdown
// both CAS the cursor, so once it is set no claim can succeed and the last
// claimed sequence is final.
const closedBit int64 = 1 << 62

// Handler consumes events in sequence order on the consumer goroutine.
// The event pointer refers to a ring slot and is only valid during the call.
type Handler[T any] interface {
	OnEvent(seq int64, event *T)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(seq int64, event *T)

func (f HandlerFunc[T]) OnEvent(seq int64, event *T) {
	f(seq, event)
}

// RingBuffer is a bounded multi-producer single-consumer queue.
// Producers claim a sequence with CAS, fill the slot and commit it; the
// consumer hands slots to the handler strictly in sequence order.
//
// producerCursor counts claimed slots and carries closedBit after shutdown.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerCursor   atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer   []T
	mask     int64
	capacity int64

	// committed[i] holds the sequence last committed into slot i
	committed []atomic.Int64

	handler  Handler[T]
	running  atomic.Bool
	finished chan struct{}
}

// New creates a ring buffer of capacity slots. capacity must be a power of 2.
func New[T any](capacity int64, handler Handler[T]) (*RingBuffer[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}

	rb := &RingBuffer[T]{
		buffer:    make([]T, capacity),
		committed: make([]atomic.Int64, capacity),
		capacity:  capacity,
		mask:      capacity - 1,
		handler:   handler,
		finished:  make(chan struct{}),
	}
	rb.consumerSequence.Store(-1)
	for i := range rb.committed {
		rb.committed[i].Store(-1)
	}
	return rb, nil
}

// Claim reserves the next slot, waiting while the ring is full.
// The caller fills the slot and must Commit the sequence.
func (rb *RingBuffer[T]) Claim() (int64, *T, error) {
	for {
		cursor := rb.producerCursor.Load()
		if cursor&closedBit != 0 {
			return -1, nil, ErrClosed
		}
		next := cursor

		// the producer may not lap the consumer
		if next-rb.capacity > rb.consumerSequence.Load() {
			runtime.Gosched()
			continue
		}

		if rb.producerCursor.CompareAndSwap(cursor, cursor+1) {
			return next, &rb.buffer[next&rb.mask], nil
		}
		runtime.Gosched()
	}
}

// Commit makes a claimed slot visible to the consumer.
func (rb *RingBuffer[T]) Commit(seq int64) {
	rb.committed[seq&rb.mask].Store(seq)
}

// Publish copies event into the next slot.
func (rb *RingBuffer[T]) Publish(event T) (int64, error) {
	seq, slot, err := rb.Claim()
	if err != nil {
		return -1, err
	}
	*slot = event
	rb.Commit(seq)
	return seq, nil
}

// Run consumes events on the calling goroutine until the ring is shut down
// and every claimed event has been handled.
func (rb *RingBuffer[T]) Run() error {
	if !rb.running.CompareAndSwap(false, true) {
		return ErrConsumerNotReady
	}
	defer close(rb.finished)

	next := rb.consumerSequence.Load() + 1
	for {
		// one load gives both the flag and the final claimed sequence
		cursor := rb.producerCursor.Load()
		closing := cursor&closedBit != 0
		available := cursor&^closedBit - 1

		for ; next <= available; next++ {
			idx := next & rb.mask
			for rb.committed[idx].Load() != next {
				runtime.Gosched()
			}

			rb.handler.OnEvent(next, &rb.buffer[idx])

			var zero T
			rb.buffer[idx] = zero
			rb.consumerSequence.Store(next)
		}

		if closing {
			return nil
		}
		runtime.Gosched()
	}
}

// Shutdown stops accepting new events and waits for the consumer to drain
// the ring. Every claim that succeeded before it is handled; later claims
// fail with ErrClosed. It returns ctx.Err() if ctx ends first, and returns at
// once when no consumer is running.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.producerCursor.Or(closedBit)

	if !rb.running.Load() {
		return nil
	}
	select {
	case <-rb.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumerSequence returns the last handled sequence (for monitoring).
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the last claimed sequence (for monitoring).
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerCursor.Load()&^closedBit - 1
}

// Pending returns the number of claimed but not yet handled events.
func (rb *RingBuffer[T]) Pending() int64 {
	return rb.ProducerSequence() - rb.consumerSequence.Load()
}
