package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers(t *testing.T) {
	t.Run("single handler is returned as is", func(t *testing.T) {
		events := NewEventLog()
		assert.Same(t, events, Handlers(nil, events))
	})

	t.Run("fan out keeps order", func(t *testing.T) {
		first, second := NewEventLog(), NewEventLog()
		book := NewOrderBook(testSymbol, Handlers(first, second))
		defer book.Close()

		require.NoError(t, book.AddOrder(limitOrder(1, Sell, 100, 1)))
		require.NoError(t, book.AddOrder(marketOrder(2, Buy, 1)))

		require.Equal(t, first.Count(), second.Count())
		for i := 0; i < first.Count(); i++ {
			a, b := first.Get(i), second.Get(i)
			assert.Equal(t, a.Type, b.Type)
			assert.Equal(t, a.OrderID, b.OrderID)
		}
		assert.Len(t, first.Trades(), 1)
	})

	t.Run("nop handler", func(t *testing.T) {
		book := NewOrderBook(testSymbol, Handlers(NopHandler{}))
		defer book.Close()
		require.NoError(t, book.AddOrder(limitOrder(1, Sell, 100, 1)))
		require.NoError(t, book.AddOrder(marketOrder(2, Buy, 1)))
		assert.Equal(t, uint64(1), book.Stats().Trades)
	})
}

func TestEventLog(t *testing.T) {
	events := NewEventLog()
	book := NewOrderBook(testSymbol, events)
	defer book.Close()

	require.NoError(t, book.AddOrder(limitOrder(1, Sell, 100, 4)))
	require.NoError(t, book.AddOrder(limitOrder(2, Buy, 100, 1)))

	all := events.Events()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].SequenceID+1, all[i].SequenceID)
	}

	execs := events.Filter(EventExecute)
	require.Len(t, execs, 2)
	assert.Equal(t, uint64(1), execs[0].OrderID)
	assert.Equal(t, StatusPartiallyFilled, execs[0].Status)
	assert.Equal(t, uint64(2), execs[1].OrderID)
	assert.Equal(t, StatusFilled, execs[1].Status)

	trades := events.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(1), trades[0].TradeID)

	last := all[len(all)-1].SequenceID
	events.Reset()
	assert.Equal(t, 0, events.Count())

	require.NoError(t, book.CancelOrder(1))
	assert.Equal(t, last+1, events.Get(0).SequenceID)
}
