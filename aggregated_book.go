package match

import (
	"sync"

	"github.com/0x5487/matching-core/protocol"
	"github.com/huandu/skiplist"
)

type aggregatedLevel struct {
	volume uint64
	orders int
}

// AggregatedBook maintains a simplified view of the order book,
// tracking only bid and ask price levels and their aggregated sizes (depth).
// It is a Handler: attach it to a book (usually through Handlers) and it
// follows the level notifications. Reads are safe from other goroutines.
type AggregatedBook struct {
	mu       sync.RWMutex
	symbol   Symbol
	updateID uint64 // number of level notifications applied
	ask      *skiplist.SkipList
	bid      *skiplist.SkipList
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook(symbol Symbol) *AggregatedBook {
	return &AggregatedBook{
		symbol: symbol,
		// bids: highest price first
		bid: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}
			return 0
		})),
		// asks: lowest price first
		ask: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(uint64)
			p2, _ := rhs.(uint64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}
			return 0
		})),
	}
}

func (ab *AggregatedBook) side(kind IndexKind) *skiplist.SkipList {
	switch kind {
	case BidIndex:
		return ab.bid
	case AskIndex:
		return ab.ask
	}
	return nil
}

func (ab *AggregatedBook) set(level LevelSnapshot) {
	list := ab.side(level.Kind)
	if list == nil {
		return
	}
	ab.mu.Lock()
	defer ab.mu.Unlock()
	list.Set(level.Price, aggregatedLevel{volume: level.Volume, orders: level.Orders})
	ab.updateID++
}

func (ab *AggregatedBook) OnAddLevel(level LevelSnapshot, _ bool) {
	ab.set(level)
}

func (ab *AggregatedBook) OnUpdateLevel(level LevelSnapshot, _ bool) {
	ab.set(level)
}

func (ab *AggregatedBook) OnDeleteLevel(level LevelSnapshot, _ bool) {
	list := ab.side(level.Kind)
	if list == nil {
		return
	}
	ab.mu.Lock()
	defer ab.mu.Unlock()
	list.Remove(level.Price)
	ab.updateID++
}

func (ab *AggregatedBook) OnAddOrder(*Order)                     {}
func (ab *AggregatedBook) OnUpdateOrder(*Order)                  {}
func (ab *AggregatedBook) OnDeleteOrder(*Order)                  {}
func (ab *AggregatedBook) OnExecuteOrder(*Order, uint64, uint64) {}
func (ab *AggregatedBook) OnTrade(Trade)                         {}
func (ab *AggregatedBook) OnActivateStopOrder(*Order)            {}

// UpdateID returns the number of level changes applied so far.
func (ab *AggregatedBook) UpdateID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.updateID
}

// Volume returns the aggregated volume and order count at price.
// Returns false if the price level does not exist.
func (ab *AggregatedBook) Volume(side Side, price uint64) (uint64, int, bool) {
	list := ab.ask
	if side == Buy {
		list = ab.bid
	}

	ab.mu.RLock()
	defer ab.mu.RUnlock()
	el := list.Get(price)
	if el == nil {
		return 0, 0, false
	}
	lvl, _ := el.Value.(aggregatedLevel)
	return lvl.volume, lvl.orders, true
}

// Depth returns up to limit levels per side, best first, rendered with the
// symbol's decimal scales.
func (ab *AggregatedBook) Depth(limit uint32) *protocol.GetDepthResponse {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	return &protocol.GetDepthResponse{
		UpdateID: ab.updateID,
		Asks:     ab.depth(ab.ask, limit),
		Bids:     ab.depth(ab.bid, limit),
	}
}

func (ab *AggregatedBook) depth(list *skiplist.SkipList, limit uint32) []*protocol.DepthItem {
	items := make([]*protocol.DepthItem, 0, min(int(limit), list.Len()))
	for el := list.Front(); el != nil && uint32(len(items)) < limit; el = el.Next() {
		price, _ := el.Key().(uint64)
		lvl, _ := el.Value.(aggregatedLevel)
		items = append(items, ab.symbol.depthItem(price, lvl.volume, lvl.orders))
	}
	return items
}
