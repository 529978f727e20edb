package match

// OrderBookSnapshot contains the level view of a single OrderBook.
// Every slice is ordered from the best level to the worst.
type OrderBookSnapshot struct {
	SchemaVersion    int             `json:"schema_version"`
	Symbol           Symbol          `json:"symbol"`
	Sequence         uint64          `json:"sequence"` // Last assigned order sequence
	TradeID          uint64          `json:"trade_id"` // Last assigned trade ID
	MarketPriceBid   uint64          `json:"market_price_bid"`
	MarketPriceAsk   uint64          `json:"market_price_ask"`
	Bids             []LevelSnapshot `json:"bids"`
	Asks             []LevelSnapshot `json:"asks"`
	BuyStop          []LevelSnapshot `json:"buy_stop"`
	SellStop         []LevelSnapshot `json:"sell_stop"`
	TrailingBuyStop  []LevelSnapshot `json:"trailing_buy_stop"`
	TrailingSellStop []LevelSnapshot `json:"trailing_sell_stop"`
}

// Snapshot captures all levels of the book.
func (book *OrderBook) Snapshot() *OrderBookSnapshot {
	return &OrderBookSnapshot{
		SchemaVersion:    SnapshotSchemaVersion,
		Symbol:           book.symbol,
		Sequence:         book.sequence,
		TradeID:          book.tradeID,
		MarketPriceBid:   book.MarketPriceBid(),
		MarketPriceAsk:   book.MarketPriceAsk(),
		Bids:             book.levels(BidIndex),
		Asks:             book.levels(AskIndex),
		BuyStop:          book.levels(BuyStopIndex),
		SellStop:         book.levels(SellStopIndex),
		TrailingBuyStop:  book.levels(TrailingBuyStopIndex),
		TrailingSellStop: book.levels(TrailingSellStopIndex),
	}
}

func (book *OrderBook) levels(kind IndexKind) []LevelSnapshot {
	out := make([]LevelSnapshot, 0)
	book.Levels(kind, func(l LevelSnapshot) bool {
		out = append(out, l)
		return true
	})
	return out
}
