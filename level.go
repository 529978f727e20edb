package match

// IndexKind identifies one of the six ordered indices of a book.
type IndexKind uint8

const (
	BidIndex IndexKind = iota
	AskIndex
	BuyStopIndex
	SellStopIndex
	TrailingBuyStopIndex
	TrailingSellStopIndex
)

func (k IndexKind) String() string {
	switch k {
	case BidIndex:
		return "bid"
	case AskIndex:
		return "ask"
	case BuyStopIndex:
		return "buy_stop"
	case SellStopIndex:
		return "sell_stop"
	case TrailingBuyStopIndex:
		return "trailing_buy_stop"
	case TrailingSellStopIndex:
		return "trailing_sell_stop"
	default:
		return "unknown"
	}
}

// bidStyle reports whether higher prices are better in the index.
// Sell stops activate as the market falls, so they are ordered like bids.
func (k IndexKind) bidStyle() bool {
	return k == BidIndex || k == SellStopIndex || k == TrailingSellStopIndex
}

// live reports whether the index holds matchable orders.
func (k IndexKind) live() bool {
	return k == BidIndex || k == AskIndex
}

// Level is one price point of one index. It is stored inside the book's pool
// and exists only while it holds at least one order.
type Level struct {
	Price  uint64
	Volume uint64 // sum of LeavesQuantity of the queued orders
	Orders int

	head *Order
	tail *Order
}

// LevelSnapshot is a read-only copy of a level handed to callers and handlers.
type LevelSnapshot struct {
	Kind   IndexKind `json:"kind"`
	Price  uint64    `json:"price"`
	Volume uint64    `json:"volume"`
	Orders int       `json:"orders"`
}

func (l *Level) pushBack(o *Order) {
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	}
	l.tail = o
	if l.head == nil {
		l.head = o
	}
	l.Volume += o.LeavesQuantity
	l.Orders++
}

func (l *Level) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	l.Volume -= o.LeavesQuantity
	l.Orders--
}

// Head returns the order with time priority.
func (l *Level) Head() *Order {
	return l.head
}

func (l *Level) empty() bool {
	return l.head == nil
}
