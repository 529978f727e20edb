package match

import (
	"fmt"
	"math"

	"github.com/0x5487/matching-core/structure"
)

// CheckInvariants verifies the whole book structure:
//   - the cached best level of every index is the index extreme
//   - every level holds at least one order, and its volume and order count
//     match its queue
//   - every queued order points back at its level and is known by id
//   - the open quantity equals the volume of all levels
//   - the best bid is below the best ask
func (book *OrderBook) CheckInvariants() error {
	if book.closed {
		return nil
	}

	indexed := 0
	var open uint64
	for _, idx := range book.indices {
		n, volume, err := book.checkIndex(idx)
		if err != nil {
			return err
		}
		if open > math.MaxUint64-volume {
			return fmt.Errorf("%w: open quantity overflows", ErrInvariantViolation)
		}
		indexed += n
		open += volume
	}
	if indexed != len(book.orders) {
		return fmt.Errorf("%w: %d orders indexed, %d known by id", ErrInvariantViolation, indexed, len(book.orders))
	}
	if open != book.openQuantity {
		return fmt.Errorf("%w: open quantity %d, levels hold %d", ErrInvariantViolation, book.openQuantity, open)
	}

	bid, ask := book.bids.bestLevel(), book.asks.bestLevel()
	if bid != nil && ask != nil && bid.Price >= ask.Price {
		return fmt.Errorf("%w: crossed book bid %d >= ask %d", ErrInvariantViolation, bid.Price, ask.Price)
	}
	return nil
}

func (book *OrderBook) checkIndex(idx *levelIndex) (int, uint64, error) {
	if front := idx.list.Front(); front != idx.best {
		return 0, 0, fmt.Errorf("%w: %s best handle %d, front %d", ErrInvariantViolation, idx.kind, idx.best, front)
	}

	count := 0
	var total uint64
	var prevPrice uint64
	for h := idx.best; h != structure.NullHandle; h = idx.nextLevel(h) {
		lvl := idx.level(h)
		if lvl.empty() {
			return 0, 0, fmt.Errorf("%w: %s empty level at %d", ErrInvariantViolation, idx.kind, lvl.Price)
		}
		if h != idx.best && !idx.list.Better(prevPrice, lvl.Price) {
			return 0, 0, fmt.Errorf("%w: %s level %d out of order after %d", ErrInvariantViolation, idx.kind, lvl.Price, prevPrice)
		}
		prevPrice = lvl.Price

		var volume uint64
		orders := 0
		var prevSeq uint64
		for o := lvl.head; o != nil; o = o.next {
			if o.level != h || o.index != idx.kind {
				return 0, 0, fmt.Errorf("%w: order %d lost its level back-reference", ErrInvariantViolation, o.ID)
			}
			if o.key() != lvl.Price {
				return 0, 0, fmt.Errorf("%w: order %d keyed %d sits at %d", ErrInvariantViolation, o.ID, o.key(), lvl.Price)
			}
			if o.LeavesQuantity == 0 {
				return 0, 0, fmt.Errorf("%w: order %d rests with nothing left", ErrInvariantViolation, o.ID)
			}
			if book.orders[o.ID] != o {
				return 0, 0, fmt.Errorf("%w: order %d not registered", ErrInvariantViolation, o.ID)
			}
			if idx.kind.live() && o.Sequence <= prevSeq {
				return 0, 0, fmt.Errorf("%w: order %d breaks time priority at %d", ErrInvariantViolation, o.ID, lvl.Price)
			}
			prevSeq = o.Sequence
			if volume > math.MaxUint64-o.LeavesQuantity {
				return 0, 0, fmt.Errorf("%w: %s level %d volume overflows", ErrInvariantViolation, idx.kind, lvl.Price)
			}
			volume += o.LeavesQuantity
			orders++
		}
		if volume != lvl.Volume || orders != lvl.Orders {
			return 0, 0, fmt.Errorf("%w: %s level %d reports volume %d/%d orders, queue holds %d/%d",
				ErrInvariantViolation, idx.kind, lvl.Price, lvl.Volume, lvl.Orders, volume, orders)
		}
		count += orders
		if total > math.MaxUint64-volume {
			return 0, 0, fmt.Errorf("%w: %s volume overflows", ErrInvariantViolation, idx.kind)
		}
		total += volume
	}
	return count, total, nil
}

// checkBest is the structural check that always runs: the cached best level of
// idx must be the index front and must hold orders.
func (book *OrderBook) checkBest(idx *levelIndex) {
	front := idx.list.Front()
	if front != idx.best {
		book.corrupted(fmt.Errorf("%w: %s best handle %d, front %d", ErrInvariantViolation, idx.kind, idx.best, front))
	}
	if front != structure.NullHandle && idx.level(front).empty() {
		book.corrupted(fmt.Errorf("%w: %s best level %d is empty", ErrInvariantViolation, idx.kind, idx.level(front).Price))
	}
}

// checkSpread panics when the best bid reaches the best ask.
func (book *OrderBook) checkSpread() {
	bid, ask := book.bids.bestLevel(), book.asks.bestLevel()
	if bid != nil && ask != nil && bid.Price >= ask.Price {
		book.corrupted(fmt.Errorf("%w: crossed book bid %d >= ask %d", ErrInvariantViolation, bid.Price, ask.Price))
	}
}

func (book *OrderBook) corrupted(err error) {
	logger.Error("order book corrupted", "symbol", book.symbol.Name, "error", err)
	panic(err)
}
