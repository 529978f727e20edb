package match

// CancelOrder removes a resting or untriggered order.
func (book *OrderBook) CancelOrder(id uint64) error {
	if book.closed {
		return newOrderError("cancel", id, ErrBookClosed)
	}
	o, ok := book.orders[id]
	if !ok {
		return newOrderError("cancel", id, ErrOrderNotFound)
	}

	book.removeOrder(o)
	book.finish(o, StatusCancelled)
	book.afterMutation()
	return nil
}

// ModifyOrder changes the price and the remaining quantity of an order.
//
// An order keeps its time priority only when the price is unchanged and the
// quantity does not grow. Otherwise a resting order leaves the book and enters
// matching again with a new sequence. For an untriggered order price is the
// trigger, and a stop-limit price moves by the same amount when it changes.
func (book *OrderBook) ModifyOrder(id uint64, price, quantity uint64) error {
	if book.closed {
		return newOrderError("modify", id, ErrBookClosed)
	}
	o, ok := book.orders[id]
	if !ok {
		return newOrderError("modify", id, ErrOrderNotFound)
	}
	if quantity == 0 {
		return newOrderError("modify", id, ErrInvalidQuantity)
	}
	if !validPrice(price) {
		return newOrderError("modify", id, ErrInvalidPrice)
	}
	if !book.admits(quantity, o.LeavesQuantity) {
		return newOrderError("modify", id, ErrInvalidQuantity)
	}

	switch {
	case price == o.key() && quantity <= o.LeavesQuantity:
		if quantity < o.LeavesQuantity {
			book.reduceResting(o, o.LeavesQuantity-quantity)
		}

	case o.IsStop():
		book.removeOrder(o)
		book.setTrigger(o, price)
		book.resize(o, quantity)
		o.Sequence = book.nextSequence()
		book.insertOrder(o)
		book.handler.OnUpdateOrder(o)

	default:
		book.removeOrder(o)
		o.Price = price
		book.resize(o, quantity)
		if o.ExecutedQuantity > 0 {
			o.Status = StatusPartiallyFilled
		} else {
			o.Status = StatusPending
		}
		o.Sequence = book.nextSequence()
		book.handler.OnUpdateOrder(o)
		book.execute(o)
	}

	book.afterMutation()
	return nil
}

// ReduceOrder lowers the remaining quantity of an order by quantity keeping
// its priority. Reducing by the whole remainder or more cancels the order.
func (book *OrderBook) ReduceOrder(id uint64, quantity uint64) error {
	if book.closed {
		return newOrderError("reduce", id, ErrBookClosed)
	}
	o, ok := book.orders[id]
	if !ok {
		return newOrderError("reduce", id, ErrOrderNotFound)
	}
	if quantity == 0 {
		return newOrderError("reduce", id, ErrInvalidQuantity)
	}

	if quantity >= o.LeavesQuantity {
		book.removeOrder(o)
		o.Quantity -= o.LeavesQuantity
		o.LeavesQuantity = 0
		book.finish(o, StatusCancelled)
	} else {
		book.reduceResting(o, quantity)
	}

	book.afterMutation()
	return nil
}

// ReplaceOrder cancels order id and submits a new order newID of the same
// side and type at price for quantity. For stop variants price is the trigger.
// Nothing changes when the replacement would be rejected.
func (book *OrderBook) ReplaceOrder(id, newID uint64, price, quantity uint64) error {
	if book.closed {
		return newOrderError("replace", id, ErrBookClosed)
	}
	o, ok := book.orders[id]
	if !ok {
		return newOrderError("replace", id, ErrOrderNotFound)
	}
	if _, exists := book.orders[newID]; exists && newID != id {
		return newOrderError("replace", newID, ErrDuplicateOrder)
	}

	req := OrderRequest{
		ID:               newID,
		Symbol:           o.Symbol,
		Side:             o.Side,
		Type:             o.Type,
		TimeInForce:      o.TimeInForce,
		Price:            price,
		TrailingDistance: o.TrailingDistance,
		TrailingStep:     o.TrailingStep,
		Quantity:         quantity,
	}
	if o.IsStop() {
		req.StopPrice = price
		req.Price = 0
		if o.hasLimitPrice() {
			req.Price = shiftPrice(o.Price, o.StopPrice, price)
		}
	}
	if err := validateRequest(req, book.symbol); err != nil {
		return newOrderError("replace", id, err)
	}
	if !book.admits(quantity, o.LeavesQuantity) {
		return newOrderError("replace", id, ErrInvalidQuantity)
	}

	book.removeOrder(o)
	book.finish(o, StatusCancelled)
	book.submit(newOrder(req))
	book.afterMutation()
	return nil
}

// resize sets the remaining quantity of an order outside any index.
func (book *OrderBook) resize(o *Order, leaves uint64) {
	o.LeavesQuantity = leaves
	o.Quantity = o.ExecutedQuantity + leaves
}

// reduceResting shrinks an indexed order in place, keeping its priority.
func (book *OrderBook) reduceResting(o *Order, qty uint64) {
	idx := book.indices[o.index]
	idx.reduceOrder(o, qty)
	book.openQuantity -= qty
	o.LeavesQuantity -= qty
	o.Quantity -= qty
	book.handler.OnUpdateOrder(o)
	if idx.kind.live() {
		book.handler.OnUpdateLevel(idx.snapshot(o.level), idx.isBest(o.level))
	}
}
