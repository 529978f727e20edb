package match

import (
	"testing"

	"github.com/0x5487/matching-core/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, kind IndexKind) *levelIndex {
	pool := structure.NewPool[Level](8, structure.PoolOptions{})
	idx, err := newLevelIndex(kind, pool, 1)
	require.NoError(t, err)
	return idx
}

func restingOrder(id uint64, side Side, price uint64) *Order {
	return newOrder(OrderRequest{ID: id, Side: side, Type: Limit, Price: price, Quantity: 1})
}

func addToIndex(t *testing.T, idx *levelIndex, o *Order) bool {
	_, created, err := idx.addOrder(o)
	require.NoError(t, err)
	return created
}

func bestPrice(idx *levelIndex) uint64 {
	if lvl := idx.bestLevel(); lvl != nil {
		return lvl.Price
	}
	return 0
}

func TestLevelIndex_BestIsExtreme(t *testing.T) {
	tests := []struct {
		kind   IndexKind
		prices []uint64
		best   []uint64 // best after each insert
	}{
		{BidIndex, []uint64{100, 105, 95, 110}, []uint64{100, 105, 105, 110}},
		{AskIndex, []uint64{100, 105, 95, 90}, []uint64{100, 100, 95, 90}},
		{BuyStopIndex, []uint64{100, 105, 95}, []uint64{100, 100, 95}},
		{SellStopIndex, []uint64{100, 105, 95}, []uint64{100, 105, 105}},
		{TrailingBuyStopIndex, []uint64{100, 90}, []uint64{100, 90}},
		{TrailingSellStopIndex, []uint64{100, 90}, []uint64{100, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			idx := newTestIndex(t, tt.kind)
			assert.Nil(t, idx.bestLevel())

			for i, price := range tt.prices {
				addToIndex(t, idx, restingOrder(uint64(i+1), Buy, price))
				assert.Equal(t, tt.best[i], bestPrice(idx))
				assert.Equal(t, idx.list.Front(), idx.best)
			}
		})
	}
}

func TestLevelIndex_DeleteBestRecomputes(t *testing.T) {
	idx := newTestIndex(t, BidIndex)

	orders := map[uint64]*Order{}
	for i, price := range []uint64{100, 105, 95, 110} {
		o := restingOrder(uint64(i+1), Buy, price)
		orders[price] = o
		addToIndex(t, idx, o)
	}

	// removing a non-best level leaves best alone
	_, deleted := idx.deleteOrder(orders[100])
	assert.True(t, deleted)
	assert.Equal(t, uint64(110), bestPrice(idx))

	for _, want := range []uint64{105, 95, 0} {
		top := idx.bestLevel()
		require.NotNil(t, top)
		_, deleted := idx.deleteOrder(orders[top.Price])
		assert.True(t, deleted)
		assert.Equal(t, want, bestPrice(idx))
		assert.Equal(t, idx.list.Front(), idx.best)
	}
	assert.Equal(t, structure.NullHandle, idx.best)
	assert.Equal(t, 0, idx.len())
}

func TestLevelIndex_LevelExistsWhileNotEmpty(t *testing.T) {
	idx := newTestIndex(t, AskIndex)

	o1 := restingOrder(1, Sell, 100)
	o2 := restingOrder(2, Sell, 100)
	o2.LeavesQuantity = 4

	assert.True(t, addToIndex(t, idx, o1))
	assert.False(t, addToIndex(t, idx, o2))
	assert.Equal(t, o1.level, o2.level)

	lvl := idx.level(o1.level)
	assert.Equal(t, uint64(5), lvl.Volume)
	assert.Equal(t, 2, lvl.Orders)
	assert.Same(t, o1, lvl.Head())

	snap, deleted := idx.deleteOrder(o1)
	assert.False(t, deleted)
	assert.Equal(t, LevelSnapshot{Kind: AskIndex, Price: 100, Volume: 4, Orders: 1}, snap)
	assert.False(t, o1.Resting())
	assert.Same(t, o2, idx.bestLevel().Head())

	idx.reduceOrder(o2, 1)
	assert.Equal(t, uint64(3), idx.bestLevel().Volume)

	snap, deleted = idx.deleteOrder(o2)
	assert.True(t, deleted)
	assert.Equal(t, 0, snap.Orders)
	assert.Equal(t, structure.NullHandle, idx.find(100))
	assert.Nil(t, idx.bestLevel())
}

func TestLevelIndex_NextLevelGoesWorse(t *testing.T) {
	collect := func(idx *levelIndex) []uint64 {
		var out []uint64
		for h := idx.best; h != structure.NullHandle; h = idx.nextLevel(h) {
			out = append(out, idx.level(h).Price)
		}
		return out
	}

	bids := newTestIndex(t, BidIndex)
	asks := newTestIndex(t, AskIndex)
	for i, price := range []uint64{101, 99, 103, 100} {
		addToIndex(t, bids, restingOrder(uint64(i+1), Buy, price))
		addToIndex(t, asks, restingOrder(uint64(i+10), Sell, price))
	}

	assert.Equal(t, []uint64{103, 101, 100, 99}, collect(bids))
	assert.Equal(t, []uint64{99, 100, 101, 103}, collect(asks))
}
