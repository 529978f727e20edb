package match

import (
	"math"

	"github.com/0x5487/matching-core/structure"
)

// AddOrder submits a new order. Market and limit orders match immediately;
// stop variants wait in their conditional index until triggered. Every trade
// and stop activation caused by the order happens before AddOrder returns.
func (book *OrderBook) AddOrder(req OrderRequest) error {
	if book.closed {
		return newOrderError("add", req.ID, ErrBookClosed)
	}
	if err := validateRequest(req, book.symbol); err != nil {
		return newOrderError("add", req.ID, err)
	}
	if _, ok := book.orders[req.ID]; ok {
		return newOrderError("add", req.ID, ErrDuplicateOrder)
	}
	if req.Type != Market && !book.admits(req.Quantity, 0) {
		return newOrderError("add", req.ID, ErrInvalidQuantity)
	}

	book.submit(newOrder(req))
	book.afterMutation()
	return nil
}

// admits reports whether qty more can rest in the book once released leaves
// the book, without the open quantity overflowing.
func (book *OrderBook) admits(qty, released uint64) bool {
	return book.openQuantity-released <= math.MaxUint64-qty
}

// submit enters a validated order into the book.
func (book *OrderBook) submit(o *Order) {
	o.Sequence = book.nextSequence()
	if o.IsStop() {
		o.Status = StatusUntriggered
		book.handler.OnAddOrder(o)
		book.addStopOrder(o)
		return
	}

	o.Status = StatusPending
	book.handler.OnAddOrder(o)
	book.execute(o)
}

// execute runs the live submission path for a market or limit order: match
// against the opposite side, then rest or cancel what is left.
func (book *OrderBook) execute(o *Order) {
	if o.TimeInForce == FOK && !book.canFill(o) {
		book.finish(o, StatusCancelled)
		return
	}

	book.matchTaker(o)

	if o.Filled() {
		book.finish(o, StatusFilled)
		return
	}
	if o.Type == Market || o.TimeInForce != GTC {
		book.finish(o, StatusCancelled)
		return
	}

	book.insertOrder(o)
	book.match()
}

// finish ends the life of an order that is not (or no longer) in any index.
func (book *OrderBook) finish(o *Order, status OrderStatus) {
	o.Status = status
	book.handler.OnDeleteOrder(o)
}

// canFill reports whether the opposite side holds enough volume at acceptable
// prices to fill the order completely.
func (book *OrderBook) canFill(o *Order) bool {
	opposite := book.asks
	if !o.IsBuy() {
		opposite = book.bids
	}

	var available uint64
	for h := opposite.best; h != structure.NullHandle; h = opposite.nextLevel(h) {
		lvl := opposite.level(h)
		if !o.crosses(lvl.Price) {
			return false
		}
		available += lvl.Volume
		if available >= o.LeavesQuantity {
			return true
		}
	}
	return false
}

// matchTaker walks the opposite side from the best level while the taker's
// price accepts it. Makers keep their price.
func (book *OrderBook) matchTaker(taker *Order) {
	opposite := book.asks
	if !taker.IsBuy() {
		opposite = book.bids
	}

	for !taker.Filled() {
		lvl := opposite.bestLevel()
		if lvl == nil || !taker.crosses(lvl.Price) {
			return
		}
		book.executeMatch(lvl.head, taker, lvl.Price)
	}
}

// match pairs the heads of the best bid and best ask while they cross.
// The order with the lower sequence is the maker and sets the price.
func (book *OrderBook) match() {
	for {
		bid, ask := book.bids.bestLevel(), book.asks.bestLevel()
		if bid == nil || ask == nil || bid.Price < ask.Price {
			return
		}

		maker, taker := bid.head, ask.head
		if taker.Sequence < maker.Sequence {
			maker, taker = taker, maker
		}
		book.executeMatch(maker, taker, maker.Price)
	}
}

// executeMatch trades min(leaves) between maker and taker at price.
func (book *OrderBook) executeMatch(maker, taker *Order, price uint64) {
	qty := min(maker.LeavesQuantity, taker.LeavesQuantity)

	book.fill(maker, price, qty)
	book.fill(taker, price, qty)

	book.tradeID++
	book.handler.OnTrade(Trade{
		ID:           book.tradeID,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Side:         taker.Side,
		Price:        price,
		Quantity:     qty,
	})
	book.updateLastPrice(taker.Side, price)

	book.settle(maker)
	book.settle(taker)
}

// fill executes qty of the order at price.
func (book *OrderBook) fill(o *Order, price, qty uint64) {
	if o.Resting() {
		book.indices[o.index].reduceOrder(o, qty)
		book.openQuantity -= qty
	}
	o.LeavesQuantity -= qty
	o.ExecutedQuantity += qty
	if o.Filled() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	book.handler.OnExecuteOrder(o, price, qty)
}

// settle removes a filled resting order or reports its shrunken level.
// Orders outside the indices are finished by their caller.
func (book *OrderBook) settle(o *Order) {
	if !o.Resting() {
		return
	}
	if o.Filled() {
		book.removeOrder(o)
		book.handler.OnDeleteOrder(o)
		return
	}
	idx := book.indices[o.index]
	if idx.kind.live() {
		book.handler.OnUpdateLevel(idx.snapshot(o.level), idx.isBest(o.level))
	}
}

func (book *OrderBook) updateLastPrice(side Side, price uint64) {
	if side == Buy {
		book.lastBidPrice = price
	} else {
		book.lastAskPrice = price
	}
}

// insertOrder puts the order into the index matching its type and side.
// Running out of arena here is fatal: the caller has already changed state.
func (book *OrderBook) insertOrder(o *Order) {
	idx := book.indices[o.indexKind()]
	h, created, err := idx.addOrder(o)
	if err != nil {
		logger.Error("level arena exhausted", "symbol", book.symbol.Name, "order_id", o.ID, "error", err)
		panic(ErrArenaExhausted)
	}
	book.checkBest(idx)
	book.orders[o.ID] = o
	book.openQuantity += o.LeavesQuantity

	if !idx.kind.live() {
		return
	}
	snap := idx.snapshot(h)
	if created {
		book.handler.OnAddLevel(snap, idx.isBest(h))
	} else {
		book.handler.OnUpdateLevel(snap, idx.isBest(h))
	}
}

// removeOrder takes the order out of its index. The order itself is left
// untouched apart from its index membership.
func (book *OrderBook) removeOrder(o *Order) {
	idx := book.indices[o.index]
	wasBest := idx.isBest(o.level)
	h := o.level

	snap, deleted := idx.deleteOrder(o)
	book.checkBest(idx)
	delete(book.orders, o.ID)
	book.openQuantity -= o.LeavesQuantity

	if !idx.kind.live() {
		return
	}
	if deleted {
		book.handler.OnDeleteLevel(snap, wasBest)
	} else {
		book.handler.OnUpdateLevel(snap, idx.isBest(h))
	}
}
