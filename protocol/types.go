package protocol

type DepthItem struct {
	Price string `json:"price"`
	Size  string `json:"size"`
	Count int64  `json:"count"`
}

// GetDepthResponse represents the state of the order book depth.
type GetDepthResponse struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// GetStatsResponse contains statistics about the order book indices.
type GetStatsResponse struct {
	AskDepthCount  int64 `json:"ask_depth_count"`
	AskOrderCount  int64 `json:"ask_order_count"`
	BidDepthCount  int64 `json:"bid_depth_count"`
	BidOrderCount  int64 `json:"bid_order_count"`
	StopOrderCount int64 `json:"stop_order_count"`
	TradeCount     int64 `json:"trade_count"`
}

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderType represents the type of order.
type OrderType string

const (
	OrderTypeMarket            OrderType = "market"
	OrderTypeLimit             OrderType = "limit"
	OrderTypeStop              OrderType = "stop"
	OrderTypeStopLimit         OrderType = "stop_limit"
	OrderTypeTrailingStop      OrderType = "trailing_stop"
	OrderTypeTrailingStopLimit OrderType = "trailing_stop_limit"
)

// TimeInForce controls what happens to the part of an order that does not
// match immediately.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "gtc" // Good Till Cancel
	TimeInForceIOC TimeInForce = "ioc" // Immediate Or Cancel
	TimeInForceFOK TimeInForce = "fok" // Fill Or Kill
)
