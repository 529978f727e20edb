package match

import (
	"fmt"
	"time"

	"github.com/0x5487/matching-core/protocol"
	"github.com/0x5487/matching-core/structure"
)

// Option configures an OrderBook.
type Option func(*options)

type options struct {
	chunkSize       int32
	maxLevels       int32
	checkInvariants bool
	seed            int64
	serializer      protocol.Serializer
}

// WithLevelChunkSize sets how many level records the pool adds when it grows.
func WithLevelChunkSize(size int32) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// WithMaxLevels bounds the number of levels across all six indices.
// Exceeding it during a mutation is treated as a fatal misconfiguration.
func WithMaxLevels(n int32) Option {
	return func(o *options) {
		o.maxLevels = n
	}
}

// WithInvariantChecks verifies the full book structure after every public
// mutation and panics on the first violation. Meant for tests and fuzzing.
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) {
		o.checkInvariants = enabled
	}
}

// WithSeed seeds the level height generator of every index.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithSerializer sets the payload codec used by Execute.
func WithSerializer(s protocol.Serializer) Option {
	return func(o *options) {
		o.serializer = s
	}
}

// BookStats contains statistics about the order book indices.
type BookStats struct {
	BidLevels              int
	AskLevels              int
	BuyStopLevels          int
	SellStopLevels         int
	TrailingBuyStopLevels  int
	TrailingSellStopLevels int
	Orders                 int
	OpenQuantity           uint64
	Trades                 uint64
	Activations            uint64
	TrailingUpdates        uint64
	PoolLen                int32
	PoolCap                int32
}

type trailingUpdate struct {
	order   *Order
	trigger uint64
}

// OrderBook is the limit order book of one symbol. It is not safe for
// concurrent use: every call runs to completion, including all trades and stop
// activations it causes, before it returns.
type OrderBook struct {
	symbol  Symbol
	handler Handler
	opts    options

	pool    *structure.Pool[Level]
	indices [indexCount]*levelIndex

	bids             *levelIndex
	asks             *levelIndex
	buyStop          *levelIndex
	sellStop         *levelIndex
	trailingBuyStop  *levelIndex
	trailingSellStop *levelIndex

	orders map[uint64]*Order
	// openQuantity is the remaining quantity of every indexed order. It
	// bounds the volume of any single level.
	openQuantity uint64

	lastBidPrice     uint64
	lastAskPrice     uint64
	trailingBidPrice uint64
	trailingAskPrice uint64

	sequence        uint64
	tradeID         uint64
	activations     uint64
	trailingUpdates uint64

	trailingScratch []trailingUpdate
	closed          bool
}

// NewOrderBook creates an empty book for symbol. A nil handler discards all
// notifications.
func NewOrderBook(symbol Symbol, handler Handler, opts ...Option) *OrderBook {
	o := options{
		chunkSize:  DefaultLevelChunkSize,
		seed:       time.Now().UnixNano(),
		serializer: &protocol.DefaultJSONSerializer{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if handler == nil {
		handler = NopHandler{}
	}

	poolOpts := structure.PoolOptions{
		OnGrow: func(oldCap, newCap int32) {
			logger.Info("level pool grew", "symbol", symbol.Name, "old_cap", oldCap, "new_cap", newCap)
		},
	}
	if o.maxLevels > 0 {
		poolOpts.MaxCapacity = o.maxLevels + indexCount
	}

	book := &OrderBook{
		symbol:           symbol,
		handler:          handler,
		opts:             o,
		pool:             structure.NewPool[Level](o.chunkSize, poolOpts),
		orders:           make(map[uint64]*Order),
		lastBidPrice:     NoBidPrice,
		lastAskPrice:     NoAskPrice,
		trailingBidPrice: NoBidPrice,
		trailingAskPrice: NoAskPrice,
	}

	for kind := IndexKind(0); kind < indexCount; kind++ {
		idx, err := newLevelIndex(kind, book.pool, o.seed+int64(kind))
		if err != nil {
			// MaxCapacity always leaves room for the sentinels
			panic(err)
		}
		book.indices[kind] = idx
	}
	book.bids = book.indices[BidIndex]
	book.asks = book.indices[AskIndex]
	book.buyStop = book.indices[BuyStopIndex]
	book.sellStop = book.indices[SellStopIndex]
	book.trailingBuyStop = book.indices[TrailingBuyStopIndex]
	book.trailingSellStop = book.indices[TrailingSellStopIndex]

	return book
}

// Symbol returns the instrument of the book.
func (book *OrderBook) Symbol() Symbol {
	return book.symbol
}

// Close releases the level arena. Every later mutation returns ErrBookClosed
// and every query reports an empty book.
func (book *OrderBook) Close() {
	if book.closed {
		return
	}
	book.closed = true
	book.pool.Release()
	book.orders = make(map[uint64]*Order)
	book.openQuantity = 0
	for i := range book.indices {
		book.indices[i].best = structure.NullHandle
	}
}

// MarketPriceBid is the larger of the last bid side trade price and the best bid.
// It is NoBidPrice when there has been neither.
func (book *OrderBook) MarketPriceBid() uint64 {
	best := NoBidPrice
	if lvl := book.bids.bestLevel(); lvl != nil {
		best = lvl.Price
	}
	return max(book.lastBidPrice, best)
}

// MarketPriceAsk is the smaller of the last ask side trade price and the best ask.
// It is NoAskPrice when there has been neither.
func (book *OrderBook) MarketPriceAsk() uint64 {
	best := NoAskPrice
	if lvl := book.asks.bestLevel(); lvl != nil {
		best = lvl.Price
	}
	return min(book.lastAskPrice, best)
}

func (book *OrderBook) lookup(kind IndexKind, price uint64) (LevelSnapshot, bool) {
	if book.closed {
		return LevelSnapshot{}, false
	}
	idx := book.indices[kind]
	h := idx.find(price)
	if h == structure.NullHandle {
		return LevelSnapshot{}, false
	}
	return idx.snapshot(h), true
}

func (book *OrderBook) best(kind IndexKind) (LevelSnapshot, bool) {
	if book.closed {
		return LevelSnapshot{}, false
	}
	idx := book.indices[kind]
	if idx.best == structure.NullHandle {
		return LevelSnapshot{}, false
	}
	return idx.snapshot(idx.best), true
}

func (book *OrderBook) Bid(price uint64) (LevelSnapshot, bool) {
	return book.lookup(BidIndex, price)
}

func (book *OrderBook) Ask(price uint64) (LevelSnapshot, bool) {
	return book.lookup(AskIndex, price)
}

func (book *OrderBook) BuyStop(price uint64) (LevelSnapshot, bool) {
	return book.lookup(BuyStopIndex, price)
}

func (book *OrderBook) SellStop(price uint64) (LevelSnapshot, bool) {
	return book.lookup(SellStopIndex, price)
}

func (book *OrderBook) TrailingBuyStop(price uint64) (LevelSnapshot, bool) {
	return book.lookup(TrailingBuyStopIndex, price)
}

func (book *OrderBook) TrailingSellStop(price uint64) (LevelSnapshot, bool) {
	return book.lookup(TrailingSellStopIndex, price)
}

func (book *OrderBook) BestBid() (LevelSnapshot, bool) {
	return book.best(BidIndex)
}

func (book *OrderBook) BestAsk() (LevelSnapshot, bool) {
	return book.best(AskIndex)
}

func (book *OrderBook) BestBuyStop() (LevelSnapshot, bool) {
	return book.best(BuyStopIndex)
}

func (book *OrderBook) BestSellStop() (LevelSnapshot, bool) {
	return book.best(SellStopIndex)
}

func (book *OrderBook) BestTrailingBuyStop() (LevelSnapshot, bool) {
	return book.best(TrailingBuyStopIndex)
}

func (book *OrderBook) BestTrailingSellStop() (LevelSnapshot, bool) {
	return book.best(TrailingSellStopIndex)
}

// Level returns the level of an arbitrary index at price.
func (book *OrderBook) Level(kind IndexKind, price uint64) (LevelSnapshot, bool) {
	if kind >= indexCount {
		return LevelSnapshot{}, false
	}
	return book.lookup(kind, price)
}

// Levels calls fn for every level of the index from the best to the worst
// until fn returns false.
func (book *OrderBook) Levels(kind IndexKind, fn func(LevelSnapshot) bool) {
	if book.closed || kind >= indexCount {
		return
	}
	idx := book.indices[kind]
	for h := idx.best; h != structure.NullHandle; h = idx.nextLevel(h) {
		if !fn(idx.snapshot(h)) {
			return
		}
	}
}

// Order returns a copy of a resting or untriggered order.
func (book *OrderBook) Order(id uint64) (Order, bool) {
	o, ok := book.orders[id]
	if !ok {
		return Order{}, false
	}
	cpy := *o
	cpy.next, cpy.prev = nil, nil
	return cpy, true
}

// Stats returns counters describing the book.
func (book *OrderBook) Stats() BookStats {
	if book.closed {
		return BookStats{}
	}
	return BookStats{
		BidLevels:              book.bids.len(),
		AskLevels:              book.asks.len(),
		BuyStopLevels:          book.buyStop.len(),
		SellStopLevels:         book.sellStop.len(),
		TrailingBuyStopLevels:  book.trailingBuyStop.len(),
		TrailingSellStopLevels: book.trailingSellStop.len(),
		Orders:                 len(book.orders),
		OpenQuantity:           book.openQuantity,
		Trades:                 book.tradeID,
		Activations:            book.activations,
		TrailingUpdates:        book.trailingUpdates,
		PoolLen:                book.pool.Len(),
		PoolCap:                book.pool.Cap(),
	}
}

func (book *OrderBook) String() string {
	if book.closed {
		return fmt.Sprintf("OrderBook(Symbol=%s; Closed)", book.symbol.Name)
	}
	return fmt.Sprintf("OrderBook(Symbol=%s; Bids=%d; Asks=%d; BuyStop=%d; SellStop=%d; TrailingBuyStop=%d; TrailingSellStop=%d)",
		book.symbol.Name,
		book.bids.len(),
		book.asks.len(),
		book.buyStop.len(),
		book.sellStop.len(),
		book.trailingBuyStop.len(),
		book.trailingSellStop.len(),
	)
}

func (book *OrderBook) nextSequence() uint64 {
	book.sequence++
	return book.sequence
}

// afterMutation finishes every public mutation: the stop cascade runs to a
// fixed point, the spread is checked and, when enabled, the whole structure
// is verified.
func (book *OrderBook) afterMutation() {
	book.activateStopOrders()
	book.checkSpread()
	if book.opts.checkInvariants {
		if err := book.CheckInvariants(); err != nil {
			book.corrupted(err)
		}
	}
}
