package protocol

// CommandType defines the type of the command (using uint8 for memory alignment and performance)
type CommandType uint8

// Command Type Numbering Strategy:
// - 0-50:  reserved for book administration
// - 51+:   Trading Commands (external, high-frequency hot path)
const (
	CmdUnknown CommandType = 0

	// Trading Commands (51+, external use)
	CmdPlaceOrder   CommandType = 51
	CmdCancelOrder  CommandType = 52
	CmdAmendOrder   CommandType = 53
	CmdReduceOrder  CommandType = 54
	CmdReplaceOrder CommandType = 55
)

// String returns a short name for logs.
func (t CommandType) String() string {
	switch t {
	case CmdPlaceOrder:
		return "place"
	case CmdCancelOrder:
		return "cancel"
	case CmdAmendOrder:
		return "amend"
	case CmdReduceOrder:
		return "reduce"
	case CmdReplaceOrder:
		return "replace"
	default:
		return "unknown"
	}
}

// Command is the standard carrier for commands entering an order book.
// It is designed to be efficient for serialization and compatible with Event Sourcing.
type Command struct {
	// Version is the protocol version for backward compatibility.
	Version uint8 `json:"version"`

	// Symbol is the target instrument for this command (Routing Header).
	Symbol string `json:"symbol"`

	// SeqID is used for global ordering and deduplication.
	SeqID uint64 `json:"seq_id"`

	// Type identifies the payload type for fast routing.
	Type CommandType `json:"type"`

	// Payload contains the serialized business data (e.g., JSON bytes of PlaceOrderCommand).
	// We use lazy deserialization to optimize routing performance.
	Payload []byte `json:"payload"`

	// Metadata stores non-business context (e.g., request ID, source).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PlaceOrderCommand is the payload for placing a new order.
// Prices and sizes are decimal strings to prevent precision loss in JSON.
type PlaceOrderCommand struct {
	OrderID          uint64      `json:"order_id"`
	Side             Side        `json:"side"`
	OrderType        OrderType   `json:"order_type"`
	TimeInForce      TimeInForce `json:"time_in_force,omitempty"`
	Price            string      `json:"price,omitempty"`
	StopPrice        string      `json:"stop_price,omitempty"`
	TrailingDistance string      `json:"trailing_distance,omitempty"`
	TrailingStep     string      `json:"trailing_step,omitempty"`
	Size             string      `json:"size"`
	Timestamp        int64       `json:"timestamp"`
}

// CancelOrderCommand is the payload for cancelling an existing order.
type CancelOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	Timestamp int64  `json:"timestamp"`
}

// AmendOrderCommand is the payload for modifying an existing order.
// For an untriggered stop order NewPrice is the new trigger price.
type AmendOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	NewPrice  string `json:"new_price"`
	NewSize   string `json:"new_size"`
	Timestamp int64  `json:"timestamp"`
}

// ReduceOrderCommand is the payload for reducing the remaining size of an order.
type ReduceOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	Size      string `json:"size"`
	Timestamp int64  `json:"timestamp"`
}

// ReplaceOrderCommand is the payload for atomically replacing an order with a new ID.
type ReplaceOrderCommand struct {
	OrderID    uint64 `json:"order_id"`
	NewOrderID uint64 `json:"new_order_id"`
	NewPrice   string `json:"new_price"`
	NewSize    string `json:"new_size"`
	Timestamp  int64  `json:"timestamp"`
}

// GetDepthRequest is the payload for querying order book depth.
type GetDepthRequest struct {
	Symbol string `json:"symbol"`
	Limit  uint32 `json:"limit"`
}

// GetStatsRequest is the payload for querying order book statistics.
type GetStatsRequest struct {
	Symbol string `json:"symbol"`
}
