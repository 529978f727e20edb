package match

import (
	"math"

	"github.com/0x5487/matching-core/structure"
)

// addStopOrder parks an untriggered order in its conditional index. Trailing
// orders start anchored at the current market price of the side they follow.
func (book *OrderBook) addStopOrder(o *Order) {
	if o.IsTrailing() {
		if o.IsBuy() {
			o.Anchor = book.MarketPriceAsk()
		} else {
			o.Anchor = book.MarketPriceBid()
		}
		if trigger, ok := book.trailingTrigger(o, o.Anchor); ok {
			book.setTrigger(o, trigger)
		}
	}
	book.insertOrder(o)
}

// triggered reports whether a stop of the given side with this trigger
// activates at the current market price. The empty-side sentinels take part
// as plain prices, so a stop facing an empty side activates at once.
func (book *OrderBook) triggered(side Side, trigger uint64) bool {
	if side == Buy {
		return book.MarketPriceAsk() >= trigger
	}
	return book.MarketPriceBid() <= trigger
}

// activateStopOrders runs the stop cascade until no conditional order is
// triggered by the current market prices.
func (book *OrderBook) activateStopOrders() {
	for {
		activated := book.activateLevels(book.buyStop, Buy)
		activated = book.activateLevels(book.trailingBuyStop, Buy) || activated
		book.recalculateTrailingBuyStops()

		activated = book.activateLevels(book.sellStop, Sell) || activated
		activated = book.activateLevels(book.trailingSellStop, Sell) || activated
		book.recalculateTrailingSellStops()

		if !activated {
			return
		}
	}
}

// activateLevels activates orders from the best level of idx, one at a time
// in FIFO order, as long as the best trigger is reached.
func (book *OrderBook) activateLevels(idx *levelIndex, side Side) bool {
	activated := false
	for {
		lvl := idx.bestLevel()
		if lvl == nil || !book.triggered(side, lvl.Price) {
			return activated
		}
		book.activate(lvl.head)
		activated = true
	}
}

// activate converts an untriggered order into a live one and runs it through
// the live submission path. It does not start a nested cascade.
func (book *OrderBook) activate(o *Order) {
	book.removeOrder(o)

	switch o.Type {
	case Stop, TrailingStop:
		o.Type = Market
	case StopLimit, TrailingStopLimit:
		o.Type = Limit
	}
	o.Status = StatusPending
	o.Sequence = book.nextSequence()
	book.activations++

	logger.Debug("stop order activated",
		"symbol", book.symbol.Name,
		"order_id", o.ID,
		"side", o.Side.String(),
		"stop_price", o.StopPrice,
		"market_bid", book.MarketPriceBid(),
		"market_ask", book.MarketPriceAsk(),
	)
	book.handler.OnActivateStopOrder(o)
	book.execute(o)
}

// trailingTrigger computes the trigger a trailing order would move to when
// the market it follows is at mp. ok is false when the trigger must stay.
// Triggers only ever tighten.
func (book *OrderBook) trailingTrigger(o *Order, mp uint64) (uint64, bool) {
	if o.TrailingDistance == 0 {
		return 0, false
	}
	if o.IsBuy() {
		if mp == NoAskPrice {
			return 0, false
		}
		trigger := mp + o.TrailingDistance
		if trigger < mp || trigger == NoAskPrice {
			trigger = NoAskPrice - 1
		}
		return trigger, trigger < o.StopPrice
	}

	if mp == NoBidPrice {
		return 0, false
	}
	var trigger uint64
	if mp > o.TrailingDistance {
		trigger = mp - o.TrailingDistance
	}
	return trigger, trigger != 0 && trigger > o.StopPrice
}

// setTrigger moves the trigger of an order outside any index. Limit prices of
// trailing stop-limit orders follow the trigger by the same amount.
func (book *OrderBook) setTrigger(o *Order, trigger uint64) {
	if o.hasLimitPrice() {
		o.Price = shiftPrice(o.Price, o.StopPrice, trigger)
	}
	o.StopPrice = trigger
}

// shiftPrice moves price by (to - from) keeping it a valid positive price.
func shiftPrice(price, from, to uint64) uint64 {
	if to >= from {
		delta := to - from
		if price > math.MaxUint64-1-delta {
			return math.MaxUint64 - 1
		}
		return price + delta
	}
	delta := from - to
	if price <= delta {
		return 1
	}
	return price - delta
}

// recalculateTrailingSellStops follows a rising bid. trailingBidPrice holds the
// market price of the previous pass; nothing can qualify unless the market is
// above it now.
func (book *OrderBook) recalculateTrailingSellStops() {
	mp := book.MarketPriceBid()
	prev := book.trailingBidPrice
	book.trailingBidPrice = mp
	if mp == NoBidPrice || mp <= prev || book.trailingSellStop.len() == 0 {
		return
	}

	book.recalculateTrailing(book.trailingSellStop, mp, func(o *Order) bool {
		return mp > o.Anchor && mp-o.Anchor >= o.TrailingStep
	})
}

// recalculateTrailingBuyStops follows a falling ask.
func (book *OrderBook) recalculateTrailingBuyStops() {
	mp := book.MarketPriceAsk()
	prev := book.trailingAskPrice
	book.trailingAskPrice = mp
	if mp == NoAskPrice || mp >= prev || book.trailingBuyStop.len() == 0 {
		return
	}

	book.recalculateTrailing(book.trailingBuyStop, mp, func(o *Order) bool {
		return mp < o.Anchor && o.Anchor-mp >= o.TrailingStep
	})
}

// recalculateTrailing re-anchors every qualifying order of idx at mp and
// re-keys those whose trigger tightens. Orders are collected first since
// re-keying changes the index being walked.
func (book *OrderBook) recalculateTrailing(idx *levelIndex, mp uint64, qualifies func(*Order) bool) {
	updates := book.trailingScratch[:0]
	for h := idx.best; h != structure.NullHandle; h = idx.nextLevel(h) {
		for o := idx.level(h).head; o != nil; o = o.next {
			if o.TrailingDistance == 0 || !qualifies(o) {
				continue
			}
			o.Anchor = mp
			if trigger, ok := book.trailingTrigger(o, mp); ok {
				updates = append(updates, trailingUpdate{order: o, trigger: trigger})
			}
		}
	}

	for i := range updates {
		o := updates[i].order
		book.removeOrder(o)
		book.setTrigger(o, updates[i].trigger)
		book.insertOrder(o)
		book.trailingUpdates++

		logger.Debug("trailing stop moved",
			"symbol", book.symbol.Name,
			"order_id", o.ID,
			"stop_price", o.StopPrice,
			"anchor", o.Anchor,
		)
		book.handler.OnUpdateOrder(o)
		updates[i] = trailingUpdate{}
	}
	book.trailingScratch = updates[:0]
}
