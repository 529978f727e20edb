package match

import (
	"sync"
	"time"
)

// EventType represents the type of a recorded book event.
type EventType string

const (
	EventAddLevel    EventType = "add_level"
	EventUpdateLevel EventType = "update_level"
	EventDeleteLevel EventType = "delete_level"
	EventOpen        EventType = "open"
	EventAmend       EventType = "amend"
	EventDelete      EventType = "delete"
	EventExecute     EventType = "execute"
	EventMatch       EventType = "match"
	EventActivate    EventType = "activate"
)

// Event is a flattened copy of one notification.
// SequenceID is increasing per EventLog and orders events across types.
type Event struct {
	SequenceID   uint64      `json:"seq_id"`
	TradeID      uint64      `json:"trade_id,omitempty"` // only set for match events
	Type         EventType   `json:"type"`
	Kind         IndexKind   `json:"kind,omitempty"` // level events only
	Top          bool        `json:"top,omitempty"`
	OrderID      uint64      `json:"order_id,omitempty"`
	MakerOrderID uint64      `json:"maker_order_id,omitempty"`
	Side         Side        `json:"side,omitempty"`
	OrderType    OrderType   `json:"order_type,omitempty"`
	Status       OrderStatus `json:"status,omitempty"`
	Price        uint64      `json:"price"`
	Quantity     uint64      `json:"quantity"` // level volume, executed or leaves quantity depending on Type
	Orders       int         `json:"orders,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// EventLog is a Handler that stores every notification in memory, useful
// for testing and for reading the flow of a book from another goroutine.
type EventLog struct {
	mu     sync.RWMutex
	seqID  uint64
	events []Event
}

// NewEventLog creates an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{
		events: make([]Event, 0, 64),
	}
}

func (l *EventLog) append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seqID++
	ev.SequenceID = l.seqID
	ev.CreatedAt = time.Now().UTC()
	l.events = append(l.events, ev)
}

func levelEvent(typ EventType, level LevelSnapshot, top bool) Event {
	return Event{
		Type:     typ,
		Kind:     level.Kind,
		Top:      top,
		Price:    level.Price,
		Quantity: level.Volume,
		Orders:   level.Orders,
	}
}

func orderEvent(typ EventType, order *Order) Event {
	price := order.Price
	if order.Status == StatusUntriggered {
		price = order.StopPrice
	}
	return Event{
		Type:      typ,
		OrderID:   order.ID,
		Side:      order.Side,
		OrderType: order.Type,
		Status:    order.Status,
		Price:     price,
		Quantity:  order.LeavesQuantity,
	}
}

func (l *EventLog) OnAddLevel(level LevelSnapshot, top bool) {
	l.append(levelEvent(EventAddLevel, level, top))
}

func (l *EventLog) OnUpdateLevel(level LevelSnapshot, top bool) {
	l.append(levelEvent(EventUpdateLevel, level, top))
}

func (l *EventLog) OnDeleteLevel(level LevelSnapshot, top bool) {
	l.append(levelEvent(EventDeleteLevel, level, top))
}

func (l *EventLog) OnAddOrder(order *Order) {
	l.append(orderEvent(EventOpen, order))
}

func (l *EventLog) OnUpdateOrder(order *Order) {
	l.append(orderEvent(EventAmend, order))
}

func (l *EventLog) OnDeleteOrder(order *Order) {
	l.append(orderEvent(EventDelete, order))
}

func (l *EventLog) OnExecuteOrder(order *Order, price uint64, quantity uint64) {
	ev := orderEvent(EventExecute, order)
	ev.Price = price
	ev.Quantity = quantity
	l.append(ev)
}

func (l *EventLog) OnTrade(trade Trade) {
	l.append(Event{
		Type:         EventMatch,
		TradeID:      trade.ID,
		OrderID:      trade.TakerOrderID,
		MakerOrderID: trade.MakerOrderID,
		Side:         trade.Side,
		Price:        trade.Price,
		Quantity:     trade.Quantity,
	})
}

func (l *EventLog) OnActivateStopOrder(order *Order) {
	l.append(orderEvent(EventActivate, order))
}

// Count returns the number of events stored.
func (l *EventLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Get returns the event at the specified index.
func (l *EventLog) Get(index int) Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events[index]
}

// Events returns a copy of all events stored.
func (l *EventLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := make([]Event, len(l.events))
	copy(events, l.events)
	return events
}

// Filter returns the stored events of the given types, in order.
func (l *EventLog) Filter(types ...EventType) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Event
	for _, ev := range l.events {
		for _, t := range types {
			if ev.Type == t {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// Trades returns the match events.
func (l *EventLog) Trades() []Event {
	return l.Filter(EventMatch)
}

// Reset drops all stored events but keeps the sequence counter.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = l.events[:0]
}
