package structure

import (
	"math/rand"
)

// Skiplist is a pool-backed skiplist keyed by uint64 and ordered by an
// injected comparator. This provides O(log N) insert/delete/search and
// O(1) access to the first (best) element with zero allocations on the hot path.
//
// Design:
// - All nodes come from a shared Pool, several skiplists may use the same pool
// - Nodes are never moved or re-keyed, so a Handle stays valid until Remove
// - Uses random level generation for probabilistic balancing

const (
	SkiplistMaxLevel = 16 // Maximum level height
	SkiplistP        = 4  // 1/P probability of level increase
)

// Better reports whether key a sorts before key b.
type Better func(a, b uint64) bool

// Ascending orders keys from the lowest to the highest.
func Ascending(a, b uint64) bool { return a < b }

// Descending orders keys from the highest to the lowest.
func Descending(a, b uint64) bool { return a > b }

// Skiplist is not safe for concurrent use.
type Skiplist[T any] struct {
	pool   *Pool[T]
	better Better
	head   Handle // Head sentinel
	level  int32  // Current max level in use
	count  int32  // Number of elements
	rng    *rand.Rand
}

// NewSkiplist creates an empty skiplist whose nodes (including the head
// sentinel) are taken from pool.
func NewSkiplist[T any](pool *Pool[T], better Better, seed int64) (*Skiplist[T], error) {
	head, err := pool.Alloc()
	if err != nil {
		return nil, err
	}
	pool.Get(head).Height = SkiplistMaxLevel

	return &Skiplist[T]{
		pool:   pool,
		better: better,
		head:   head,
		level:  1,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// randomLevel generates a random level for a new node.
func (sl *Skiplist[T]) randomLevel() int32 {
	level := int32(1)
	for level < SkiplistMaxLevel && sl.rng.Intn(SkiplistP) == 0 {
		level++
	}
	return level
}

// search walks towards key and records the last node visited per level.
func (sl *Skiplist[T]) search(key uint64, update *[SkiplistMaxLevel]Handle) Handle {
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for {
			next := sl.pool.Get(x).Forward[i]
			if next == NullHandle || !sl.better(sl.pool.Get(next).Key, key) {
				break
			}
			x = next
		}
		if update != nil {
			update[i] = x
		}
	}
	return sl.pool.Get(x).Forward[0]
}

// Find returns the node holding key, or NullHandle.
func (sl *Skiplist[T]) Find(key uint64) Handle {
	x := sl.search(key, nil)
	if x != NullHandle && sl.pool.Get(x).Key == key {
		return x
	}
	return NullHandle
}

// Insert returns the node holding key, creating it if needed.
// The bool result is true when a node was created.
// Returns error if the pool cannot grow.
func (sl *Skiplist[T]) Insert(key uint64) (Handle, bool, error) {
	var update [SkiplistMaxLevel]Handle
	x := sl.search(key, &update)

	// Check if already exists
	if x != NullHandle && sl.pool.Get(x).Key == key {
		return x, false, nil
	}

	// Allocate new node (may trigger grow)
	h, err := sl.pool.Alloc()
	if err != nil {
		return NullHandle, false, err
	}

	newLevel := sl.randomLevel()
	if newLevel > sl.level {
		for i := sl.level; i < newLevel; i++ {
			update[i] = sl.head
		}
		sl.level = newLevel
	}

	n := sl.pool.Get(h)
	n.Key = key
	n.Height = newLevel
	for i := int32(0); i < newLevel; i++ {
		prev := sl.pool.Get(update[i])
		n.Forward[i] = prev.Forward[i]
		prev.Forward[i] = h
	}

	sl.count++
	return h, true, nil
}

// Remove unlinks the node and returns it to the pool.
// Returns false if the handle is not an element of this skiplist.
func (sl *Skiplist[T]) Remove(h Handle) bool {
	if h == NullHandle || h == sl.head {
		return false
	}

	var update [SkiplistMaxLevel]Handle
	n := sl.pool.Get(h)
	if sl.search(n.Key, &update) != h {
		return false
	}

	// Update forward pointers
	for i := int32(0); i < sl.level; i++ {
		prev := sl.pool.Get(update[i])
		if prev.Forward[i] != h {
			break
		}
		prev.Forward[i] = n.Forward[i]
	}

	sl.pool.Free(h)

	// Update list level
	for sl.level > 1 && sl.pool.Get(sl.head).Forward[sl.level-1] == NullHandle {
		sl.level--
	}

	sl.count--
	return true
}

// Front returns the first element in comparator order, or NullHandle.
func (sl *Skiplist[T]) Front() Handle {
	return sl.pool.Get(sl.head).Forward[0]
}

// Next returns the element after h, or NullHandle.
func (sl *Skiplist[T]) Next(h Handle) Handle {
	return sl.pool.Get(h).Forward[0]
}

// Key returns the key stored at h.
func (sl *Skiplist[T]) Key(h Handle) uint64 {
	return sl.pool.Get(h).Key
}

// Value returns a pointer to the value stored at h.
func (sl *Skiplist[T]) Value(h Handle) *T {
	return &sl.pool.Get(h).Value
}

// Better reports whether key a sorts before key b in this skiplist.
func (sl *Skiplist[T]) Better(a, b uint64) bool {
	return sl.better(a, b)
}

// Len returns the number of elements.
func (sl *Skiplist[T]) Len() int32 {
	return sl.count
}
