package structure

import (
	"errors"
	"math/bits"
)

// Pool is a chunked arena of skiplist nodes.
// This provides O(1) allocate/free with zero allocations on the hot path.
//
// Design:
// - Nodes live in fixed-size chunks; a chunk is never copied or released
//   individually, so a node address stays valid for the lifetime of the pool
// - Free nodes are threaded into a free list through Forward[0]
// - When the free list is empty a new chunk is appended (the pool never shrinks)
// - Release drops every chunk at once

const (
	DefaultChunkSize int32  = 1024
	NullHandle       Handle = -1
)

var (
	ErrMaxCapacityReached = errors.New("structure: max capacity reached")
)

// Handle identifies a node inside a Pool. It is only meaningful while the
// node is allocated.
type Handle int32

// Node is a pooled skiplist node carrying a caller-defined value.
type Node[T any] struct {
	Forward [SkiplistMaxLevel]Handle
	Height  int32
	Key     uint64
	Value   T
}

// PoolOptions configures the pool behavior.
type PoolOptions struct {
	// MaxCapacity sets the maximum number of nodes allowed.
	// If 0 (default), there is no limit and the pool will grow indefinitely.
	MaxCapacity int32

	// OnGrow is called when the pool appends a chunk.
	// Can be used for logging or metrics.
	OnGrow func(oldCap, newCap int32)
}

// Pool is an instance-scoped node arena. It is not safe for concurrent use.
type Pool[T any] struct {
	chunks      [][]Node[T]
	shift       uint32
	mask        int32
	chunkSize   int32
	capacity    int32
	live        int32
	freeHead    Handle
	maxCapacity int32
	onGrow      func(int32, int32)
}

// NewPool creates an empty pool. chunkSize is rounded up to a power of two;
// the first chunk is allocated lazily on the first Alloc.
func NewPool[T any](chunkSize int32, opts PoolOptions) *Pool[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	shift := uint32(bits.Len32(uint32(chunkSize - 1)))
	size := int32(1) << shift

	return &Pool[T]{
		shift:       shift,
		mask:        size - 1,
		chunkSize:   size,
		freeHead:    NullHandle,
		maxCapacity: opts.MaxCapacity,
		onGrow:      opts.OnGrow,
	}
}

// grow appends one chunk and threads it into the free list.
// Returns error if max capacity would be exceeded.
func (p *Pool[T]) grow() error {
	size := p.chunkSize
	if p.maxCapacity > 0 {
		if p.capacity >= p.maxCapacity {
			return ErrMaxCapacityReached
		}
		if p.capacity+size > p.maxCapacity {
			size = p.maxCapacity - p.capacity
		}
	}

	oldCap := p.capacity
	chunk := make([]Node[T], size)
	base := Handle(int32(len(p.chunks)) << p.shift)

	for i := int32(0); i < size-1; i++ {
		chunk[i].Forward[0] = base + Handle(i+1)
	}
	chunk[size-1].Forward[0] = p.freeHead
	p.freeHead = base

	p.chunks = append(p.chunks, chunk)
	p.capacity += size

	if p.onGrow != nil {
		p.onGrow(oldCap, p.capacity)
	}
	return nil
}

// Alloc takes a node from the free list, growing the arena if necessary.
// The returned node has every link reset to NullHandle and a zero Value.
func (p *Pool[T]) Alloc() (Handle, error) {
	if p.freeHead == NullHandle {
		if err := p.grow(); err != nil {
			return NullHandle, err
		}
	}

	h := p.freeHead
	n := p.Get(h)
	p.freeHead = n.Forward[0]

	for i := 0; i < SkiplistMaxLevel; i++ {
		n.Forward[i] = NullHandle
	}
	n.Height = 0
	n.Key = 0

	p.live++
	return h, nil
}

// Free returns a node to the free list. The value is zeroed so the arena
// does not keep references alive.
func (p *Pool[T]) Free(h Handle) {
	n := p.Get(h)
	var zero T
	n.Value = zero
	n.Key = 0
	n.Height = 0
	n.Forward[0] = p.freeHead
	p.freeHead = h
	p.live--
}

// Get returns the node for a handle. The pointer stays valid until the node is freed.
func (p *Pool[T]) Get(h Handle) *Node[T] {
	return &p.chunks[int32(h)>>p.shift][int32(h)&p.mask]
}

// Len returns the number of allocated nodes.
func (p *Pool[T]) Len() int32 {
	return p.live
}

// Cap returns the number of nodes the arena currently holds.
func (p *Pool[T]) Cap() int32 {
	return p.capacity
}

// Release drops the whole arena. Every handle issued so far becomes invalid.
func (p *Pool[T]) Release() {
	p.chunks = nil
	p.capacity = 0
	p.live = 0
	p.freeHead = NullHandle
}
