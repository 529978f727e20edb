package match

import (
	"math"

	"github.com/0x5487/matching-core/protocol"
	"github.com/0x5487/matching-core/structure"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderType = protocol.OrderType

const (
	Market            OrderType = protocol.OrderTypeMarket
	Limit             OrderType = protocol.OrderTypeLimit
	Stop              OrderType = protocol.OrderTypeStop
	StopLimit         OrderType = protocol.OrderTypeStopLimit
	TrailingStop      OrderType = protocol.OrderTypeTrailingStop
	TrailingStopLimit OrderType = protocol.OrderTypeTrailingStopLimit
)

type TimeInForce = protocol.TimeInForce

const (
	GTC TimeInForce = protocol.TimeInForceGTC
	IOC TimeInForce = protocol.TimeInForceIOC
	FOK TimeInForce = protocol.TimeInForceFOK
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus uint8

const (
	StatusUntriggered OrderStatus = iota + 1
	StatusPending
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusUntriggered:
		return "untriggered"
	case StatusPending:
		return "pending"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OrderRequest is the submission record accepted by OrderBook.AddOrder.
// Prices are integer ticks and quantities integer lots of the book's Symbol.
type OrderRequest struct {
	ID               uint64
	Symbol           uint32
	Side             Side
	Type             OrderType
	TimeInForce      TimeInForce // empty means GTC
	Price            uint64      // limit price, ignored for market and stop orders
	StopPrice        uint64      // trigger price for stop variants
	TrailingDistance uint64
	TrailingStep     uint64
	Quantity         uint64
}

// Order represents the state of an order in the order book.
type Order struct {
	ID               uint64      `json:"id"`
	Symbol           uint32      `json:"symbol"`
	Side             Side        `json:"side"`
	Type             OrderType   `json:"type"`
	TimeInForce      TimeInForce `json:"time_in_force"`
	Price            uint64      `json:"price"`
	StopPrice        uint64      `json:"stop_price,omitempty"`
	TrailingDistance uint64      `json:"trailing_distance,omitempty"`
	TrailingStep     uint64      `json:"trailing_step,omitempty"`
	Anchor           uint64      `json:"anchor,omitempty"` // market price the trailing trigger was last derived from
	Quantity         uint64      `json:"quantity"`
	LeavesQuantity   uint64      `json:"leaves_quantity"`
	ExecutedQuantity uint64      `json:"executed_quantity"`
	Sequence         uint64      `json:"sequence"`
	Status           OrderStatus `json:"status"`

	// Index membership, valid only while level != NullHandle
	index IndexKind
	level structure.Handle

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

func newOrder(req OrderRequest) *Order {
	o := &Order{
		ID:               req.ID,
		Symbol:           req.Symbol,
		Side:             req.Side,
		Type:             req.Type,
		TimeInForce:      req.TimeInForce,
		Price:            req.Price,
		StopPrice:        req.StopPrice,
		TrailingDistance: req.TrailingDistance,
		TrailingStep:     req.TrailingStep,
		Quantity:         req.Quantity,
		LeavesQuantity:   req.Quantity,
		level:            structure.NullHandle,
	}
	if o.TimeInForce == "" {
		o.TimeInForce = GTC
	}
	switch o.Type {
	case Market:
		o.Price = 0
		o.StopPrice = 0
	case Limit:
		o.StopPrice = 0
	case Stop, TrailingStop:
		o.Price = 0
	}
	return o
}

func (o *Order) IsBuy() bool {
	return o.Side == Buy
}

// IsStop reports whether the order waits for a trigger before entering the book.
func (o *Order) IsStop() bool {
	switch o.Type {
	case Stop, StopLimit, TrailingStop, TrailingStopLimit:
		return true
	}
	return false
}

func (o *Order) IsTrailing() bool {
	return o.Type == TrailingStop || o.Type == TrailingStopLimit
}

// hasLimitPrice reports whether Price bounds the execution of the order.
func (o *Order) hasLimitPrice() bool {
	return o.Type == Limit || o.Type == StopLimit || o.Type == TrailingStopLimit
}

// Resting reports whether the order currently sits in one of the book indices.
func (o *Order) Resting() bool {
	return o.level != structure.NullHandle
}

// Filled reports whether nothing is left to execute.
func (o *Order) Filled() bool {
	return o.LeavesQuantity == 0
}

// key is the price the order is indexed by.
func (o *Order) key() uint64 {
	if o.IsStop() {
		return o.StopPrice
	}
	return o.Price
}

// limitPrice is the worst price the order accepts while matching.
func (o *Order) limitPrice() uint64 {
	if o.hasLimitPrice() {
		return o.Price
	}
	if o.IsBuy() {
		return math.MaxUint64
	}
	return 0
}

// crosses reports whether the order accepts a trade at price.
func (o *Order) crosses(price uint64) bool {
	if o.IsBuy() {
		return price <= o.limitPrice()
	}
	return price >= o.limitPrice()
}

// indexKind returns the index an order of this side and type rests in.
func (o *Order) indexKind() IndexKind {
	switch o.Type {
	case Stop, StopLimit:
		if o.IsBuy() {
			return BuyStopIndex
		}
		return SellStopIndex
	case TrailingStop, TrailingStopLimit:
		if o.IsBuy() {
			return TrailingBuyStopIndex
		}
		return TrailingSellStopIndex
	default:
		if o.IsBuy() {
			return BidIndex
		}
		return AskIndex
	}
}

// validateRequest checks a submission record without touching the book.
func validateRequest(req OrderRequest, symbol Symbol) error {
	if req.Symbol != symbol.ID {
		return ErrSymbolMismatch
	}
	if req.Side != Buy && req.Side != Sell {
		return ErrInvalidSide
	}
	if req.Quantity == 0 {
		return ErrInvalidQuantity
	}

	switch req.TimeInForce {
	case "", GTC, IOC, FOK:
	default:
		return ErrInvalidTimeInForce
	}

	needPrice, needStop, trailing := false, false, false
	switch req.Type {
	case Market:
	case Limit:
		needPrice = true
	case Stop:
		needStop = true
	case StopLimit:
		needPrice, needStop = true, true
	case TrailingStop:
		needStop, trailing = true, true
	case TrailingStopLimit:
		needPrice, needStop, trailing = true, true, true
	default:
		return ErrInvalidOrderType
	}

	if needPrice && !validPrice(req.Price) {
		return ErrInvalidPrice
	}
	if needStop && !validPrice(req.StopPrice) {
		return ErrInvalidPrice
	}
	if !trailing && (req.TrailingDistance != 0 || req.TrailingStep != 0) {
		return ErrInvalidTrailing
	}
	if trailing && req.TrailingDistance >= math.MaxUint64/2 {
		return ErrInvalidTrailing
	}
	return nil
}

// validPrice rejects zero and the ask side sentinel.
func validPrice(p uint64) bool {
	return p != 0 && p != NoAskPrice
}
