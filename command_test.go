package match

import (
	"testing"

	"github.com/0x5487/matching-core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T, typ protocol.CommandType, payload any) *protocol.Command {
	cmd, err := protocol.NewCommand(&protocol.DefaultJSONSerializer{}, testSymbol.Name, typ, payload)
	require.NoError(t, err)
	return cmd
}

func placeCommand(t *testing.T, id uint64, side Side, typ OrderType, price, size string) *protocol.Command {
	return newTestCommand(t, protocol.CmdPlaceOrder, &protocol.PlaceOrderCommand{
		OrderID:   id,
		Side:      side,
		OrderType: typ,
		Price:     price,
		Size:      size,
	})
}

func TestOrderBook_Execute(t *testing.T) {
	book, events := createTestOrderBook(t)

	t.Run("place", func(t *testing.T) {
		require.NoError(t, book.Execute(placeCommand(t, 1, Sell, Limit, "100.50", "1.5")))
		require.NoError(t, book.Execute(placeCommand(t, 2, Sell, Limit, "101", "2")))

		lvl, ok := book.Ask(10050)
		require.True(t, ok)
		assert.Equal(t, uint64(15000), lvl.Volume)
	})

	t.Run("place stop", func(t *testing.T) {
		cmd := newTestCommand(t, protocol.CmdPlaceOrder, &protocol.PlaceOrderCommand{
			OrderID:   3,
			Side:      Buy,
			OrderType: StopLimit,
			StopPrice: "120",
			Price:     "121",
			Size:      "1",
		})
		require.NoError(t, book.Execute(cmd))

		o, ok := book.Order(3)
		require.True(t, ok)
		assert.Equal(t, uint64(12000), o.StopPrice)
		assert.Equal(t, uint64(12100), o.Price)
	})

	t.Run("amend", func(t *testing.T) {
		cmd := newTestCommand(t, protocol.CmdAmendOrder, &protocol.AmendOrderCommand{
			OrderID:  2,
			NewPrice: "101.25",
			NewSize:  "1",
		})
		require.NoError(t, book.Execute(cmd))

		o, ok := book.Order(2)
		require.True(t, ok)
		assert.Equal(t, uint64(10125), o.Price)
		assert.Equal(t, uint64(10000), o.LeavesQuantity)
	})

	t.Run("reduce", func(t *testing.T) {
		cmd := newTestCommand(t, protocol.CmdReduceOrder, &protocol.ReduceOrderCommand{OrderID: 1, Size: "0.5"})
		require.NoError(t, book.Execute(cmd))

		o, ok := book.Order(1)
		require.True(t, ok)
		assert.Equal(t, uint64(10000), o.LeavesQuantity)
	})

	t.Run("replace", func(t *testing.T) {
		cmd := newTestCommand(t, protocol.CmdReplaceOrder, &protocol.ReplaceOrderCommand{
			OrderID:    1,
			NewOrderID: 4,
			NewPrice:   "100.75",
			NewSize:    "2",
		})
		require.NoError(t, book.Execute(cmd))

		_, ok := book.Order(1)
		assert.False(t, ok)
		o, ok := book.Order(4)
		require.True(t, ok)
		assert.Equal(t, uint64(10075), o.Price)
	})

	t.Run("market order trades", func(t *testing.T) {
		require.NoError(t, book.Execute(placeCommand(t, 5, Buy, Market, "", "0.5")))

		trades := events.Trades()
		require.Len(t, trades, 1)
		assertTrade(t, trades[0], 4, 5, 10075, 5000)
	})

	t.Run("cancel", func(t *testing.T) {
		cmd := newTestCommand(t, protocol.CmdCancelOrder, &protocol.CancelOrderCommand{OrderID: 4})
		require.NoError(t, book.Execute(cmd))
		_, ok := book.Order(4)
		assert.False(t, ok)

		err := book.Execute(cmd)
		require.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestOrderBook_ExecuteRejections(t *testing.T) {
	book, _ := createTestOrderBook(t)

	t.Run("nil command", func(t *testing.T) {
		require.ErrorIs(t, book.Execute(nil), ErrUnknownCommand)
	})

	t.Run("unknown type", func(t *testing.T) {
		cmd := newTestCommand(t, protocol.CmdUnknown, struct{}{})
		require.ErrorIs(t, book.Execute(cmd), ErrUnknownCommand)
	})

	t.Run("other symbol", func(t *testing.T) {
		cmd := placeCommand(t, 1, Buy, Limit, "100", "1")
		cmd.Symbol = "ETH-USDT"
		require.ErrorIs(t, book.Execute(cmd), ErrSymbolMismatch)
	})

	t.Run("malformed payload", func(t *testing.T) {
		cmd := placeCommand(t, 1, Buy, Limit, "100", "1")
		cmd.Payload = []byte("{")

		err := book.Execute(cmd)
		require.Error(t, err)
		var orderErr *OrderError
		assert.NotErrorAs(t, err, &orderErr)
	})

	tests := []struct {
		name        string
		price, size string
		err         error
	}{
		{"bad price", "abc", "1", ErrInvalidPrice},
		{"too many price decimals", "100.123", "1", ErrInvalidPrice},
		{"negative price", "-1", "1", ErrInvalidPrice},
		{"bad size", "100", "1.00001", ErrInvalidQuantity},
		{"zero size", "100", "0", ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := book.Execute(placeCommand(t, 9, Buy, Limit, tt.price, tt.size))
			require.ErrorIs(t, err, tt.err)

			var orderErr *OrderError
			require.ErrorAs(t, err, &orderErr)
			assert.Equal(t, uint64(9), orderErr.OrderID)
		})
	}

	assert.Equal(t, 0, book.Stats().Orders)
}
