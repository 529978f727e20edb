package match

import (
	"github.com/0x5487/matching-core/structure"
)

// levelIndex is one ordered index of price levels with a cached best level.
// The same type serves bids, asks and the four stop indices; only the
// comparator differs. Iteration always goes from the best level to the worst.
type levelIndex struct {
	kind IndexKind
	list *structure.Skiplist[Level]
	best structure.Handle
}

func newLevelIndex(kind IndexKind, pool *structure.Pool[Level], seed int64) (*levelIndex, error) {
	better := structure.Ascending
	if kind.bidStyle() {
		better = structure.Descending
	}
	list, err := structure.NewSkiplist[Level](pool, better, seed)
	if err != nil {
		return nil, err
	}
	return &levelIndex{
		kind: kind,
		list: list,
		best: structure.NullHandle,
	}, nil
}

// addOrder appends the order to the level at its key, creating the level when
// needed. created reports whether a new level was inserted.
func (idx *levelIndex) addOrder(o *Order) (h structure.Handle, created bool, err error) {
	key := o.key()
	h, created, err = idx.list.Insert(key)
	if err != nil {
		return structure.NullHandle, false, err
	}

	lvl := idx.list.Value(h)
	if created {
		lvl.Price = key
	}
	lvl.pushBack(o)
	o.index = idx.kind
	o.level = h

	if idx.best == structure.NullHandle || idx.list.Better(key, idx.list.Key(idx.best)) {
		idx.best = h
	}
	return h, created, nil
}

// deleteOrder unlinks the order from its level. When the level becomes empty
// it is removed and freed. snap describes the level after the order left it.
func (idx *levelIndex) deleteOrder(o *Order) (snap LevelSnapshot, deleted bool) {
	h := o.level
	lvl := idx.list.Value(h)
	lvl.unlink(o)
	o.level = structure.NullHandle

	snap = idx.snapshot(h)
	if !lvl.empty() {
		return snap, false
	}

	if h == idx.best {
		idx.best = idx.list.Next(h)
	}
	idx.list.Remove(h)
	return snap, true
}

// reduceOrder lowers the level volume after the order's leaves shrank by qty.
func (idx *levelIndex) reduceOrder(o *Order, qty uint64) {
	idx.list.Value(o.level).Volume -= qty
}

func (idx *levelIndex) find(price uint64) structure.Handle {
	return idx.list.Find(price)
}

// nextLevel returns the next worse level, or NullHandle.
func (idx *levelIndex) nextLevel(h structure.Handle) structure.Handle {
	return idx.list.Next(h)
}

func (idx *levelIndex) level(h structure.Handle) *Level {
	return idx.list.Value(h)
}

// bestLevel returns the best level or nil when the index is empty.
func (idx *levelIndex) bestLevel() *Level {
	if idx.best == structure.NullHandle {
		return nil
	}
	return idx.list.Value(idx.best)
}

func (idx *levelIndex) isBest(h structure.Handle) bool {
	return h != structure.NullHandle && h == idx.best
}

func (idx *levelIndex) snapshot(h structure.Handle) LevelSnapshot {
	lvl := idx.list.Value(h)
	return LevelSnapshot{
		Kind:   idx.kind,
		Price:  lvl.Price,
		Volume: lvl.Volume,
		Orders: lvl.Orders,
	}
}

func (idx *levelIndex) len() int {
	return int(idx.list.Len())
}
