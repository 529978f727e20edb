package match

import (
	"fmt"

	"github.com/0x5487/matching-core/protocol"
	"github.com/0x5487/matching-core/structure"
)

// Query answers a read-only request. It accepts *protocol.GetDepthRequest
// and *protocol.GetStatsRequest and never changes the book.
func (book *OrderBook) Query(query any) (any, error) {
	if book.closed {
		return nil, ErrBookClosed
	}

	switch q := query.(type) {
	case *protocol.GetDepthRequest:
		if err := book.checkSymbolName(q.Symbol); err != nil {
			return nil, err
		}
		return book.Depth(q.Limit), nil
	case *protocol.GetStatsRequest:
		if err := book.checkSymbolName(q.Symbol); err != nil {
			return nil, err
		}
		return book.statsResponse(), nil
	default:
		return nil, fmt.Errorf("%w: query %T", ErrUnknownCommand, query)
	}
}

func (book *OrderBook) checkSymbolName(name string) error {
	if name != "" && name != book.symbol.Name {
		return fmt.Errorf("%w: query for %q", ErrSymbolMismatch, name)
	}
	return nil
}

// Depth returns up to limit bid and ask levels, best first. UpdateID is the
// last sequence the book assigned.
func (book *OrderBook) Depth(limit uint32) *protocol.GetDepthResponse {
	if book.closed {
		return &protocol.GetDepthResponse{}
	}
	return &protocol.GetDepthResponse{
		UpdateID: book.sequence,
		Asks:     book.depth(book.asks, limit),
		Bids:     book.depth(book.bids, limit),
	}
}

func (book *OrderBook) depth(idx *levelIndex, limit uint32) []*protocol.DepthItem {
	items := make([]*protocol.DepthItem, 0, min(int(limit), idx.len()))
	for h := idx.best; h != structure.NullHandle && uint32(len(items)) < limit; h = idx.nextLevel(h) {
		lvl := idx.level(h)
		items = append(items, book.symbol.depthItem(lvl.Price, lvl.Volume, lvl.Orders))
	}
	return items
}

func (book *OrderBook) statsResponse() *protocol.GetStatsResponse {
	resp := &protocol.GetStatsResponse{
		AskDepthCount: int64(book.asks.len()),
		BidDepthCount: int64(book.bids.len()),
		TradeCount:    int64(book.tradeID),
	}
	for _, idx := range book.indices {
		var orders int64
		for h := idx.best; h != structure.NullHandle; h = idx.nextLevel(h) {
			orders += int64(idx.level(h).Orders)
		}
		switch idx.kind {
		case BidIndex:
			resp.BidOrderCount = orders
		case AskIndex:
			resp.AskOrderCount = orders
		default:
			resp.StopOrderCount += orders
		}
	}
	return resp
}
