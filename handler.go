package match

// Trade is one pairing of a maker and a taker.
type Trade struct {
	ID           uint64 `json:"id"`
	MakerOrderID uint64 `json:"maker_order_id"`
	TakerOrderID uint64 `json:"taker_order_id"`
	Side         Side   `json:"side"` // taker side
	Price        uint64 `json:"price"`
	Quantity     uint64 `json:"quantity"`
}

// Handler receives book notifications synchronously, in the order the book
// changes. Implementations must not call back into the book and must copy any
// *Order they want to keep past the callback.
//
// Level callbacks are only raised for bid and ask levels; top reports whether
// the level is (or was, for deletes) the best of its side.
type Handler interface {
	OnAddLevel(level LevelSnapshot, top bool)
	OnUpdateLevel(level LevelSnapshot, top bool)
	OnDeleteLevel(level LevelSnapshot, top bool)

	OnAddOrder(order *Order)
	OnUpdateOrder(order *Order)
	OnDeleteOrder(order *Order)

	OnExecuteOrder(order *Order, price uint64, quantity uint64)
	OnTrade(trade Trade)
	OnActivateStopOrder(order *Order)
}

// NopHandler discards every notification, useful for benchmarking and as an
// embeddable base for handlers interested in a few callbacks only.
type NopHandler struct{}

func (NopHandler) OnAddLevel(LevelSnapshot, bool)        {}
func (NopHandler) OnUpdateLevel(LevelSnapshot, bool)     {}
func (NopHandler) OnDeleteLevel(LevelSnapshot, bool)     {}
func (NopHandler) OnAddOrder(*Order)                     {}
func (NopHandler) OnUpdateOrder(*Order)                  {}
func (NopHandler) OnDeleteOrder(*Order)                  {}
func (NopHandler) OnExecuteOrder(*Order, uint64, uint64) {}
func (NopHandler) OnTrade(Trade)                         {}
func (NopHandler) OnActivateStopOrder(*Order)            {}

// Handlers fans every notification out to hs in order.
func Handlers(hs ...Handler) Handler {
	list := make(multiHandler, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			list = append(list, h)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

type multiHandler []Handler

func (m multiHandler) OnAddLevel(level LevelSnapshot, top bool) {
	for _, h := range m {
		h.OnAddLevel(level, top)
	}
}

func (m multiHandler) OnUpdateLevel(level LevelSnapshot, top bool) {
	for _, h := range m {
		h.OnUpdateLevel(level, top)
	}
}

func (m multiHandler) OnDeleteLevel(level LevelSnapshot, top bool) {
	for _, h := range m {
		h.OnDeleteLevel(level, top)
	}
}

func (m multiHandler) OnAddOrder(order *Order) {
	for _, h := range m {
		h.OnAddOrder(order)
	}
}

func (m multiHandler) OnUpdateOrder(order *Order) {
	for _, h := range m {
		h.OnUpdateOrder(order)
	}
}

func (m multiHandler) OnDeleteOrder(order *Order) {
	for _, h := range m {
		h.OnDeleteOrder(order)
	}
}

func (m multiHandler) OnExecuteOrder(order *Order, price uint64, quantity uint64) {
	for _, h := range m {
		h.OnExecuteOrder(order, price, quantity)
	}
}

func (m multiHandler) OnTrade(trade Trade) {
	for _, h := range m {
		h.OnTrade(trade)
	}
}

func (m multiHandler) OnActivateStopOrder(order *Order) {
	for _, h := range m {
		h.OnActivateStopOrder(order)
	}
}
