package match

import (
	"fmt"
	"math/big"

	"github.com/0x5487/matching-core/protocol"
	"github.com/shopspring/decimal"
)

// Symbol describes the instrument a book trades. The book only references it.
// PriceScale and QuantityScale are the number of decimal places one tick and
// one lot represent, e.g. PriceScale 2 maps "101.25" to 10125 ticks.
type Symbol struct {
	ID            uint32 `json:"id" mapstructure:"id"`
	Name          string `json:"name" mapstructure:"name"`
	PriceScale    int32  `json:"price_scale" mapstructure:"price_scale"`
	QuantityScale int32  `json:"quantity_scale" mapstructure:"quantity_scale"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("Symbol(ID=%d; Name=%s)", s.ID, s.Name)
}

// PriceTicks converts a decimal price into integer ticks.
func (s Symbol) PriceTicks(price decimal.Decimal) (uint64, error) {
	v, err := toUnits(price, s.PriceScale)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPrice, err)
	}
	return v, nil
}

// QuantityLots converts a decimal quantity into integer lots.
func (s Symbol) QuantityLots(qty decimal.Decimal) (uint64, error) {
	v, err := toUnits(qty, s.QuantityScale)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidQuantity, err)
	}
	return v, nil
}

// PriceDecimal converts ticks back into a decimal price.
func (s Symbol) PriceDecimal(ticks uint64) decimal.Decimal {
	return fromUnits(ticks, s.PriceScale)
}

// QuantityDecimal converts lots back into a decimal quantity.
func (s Symbol) QuantityDecimal(lots uint64) decimal.Decimal {
	return fromUnits(lots, s.QuantityScale)
}

func (s Symbol) depthItem(price, volume uint64, orders int) *protocol.DepthItem {
	return &protocol.DepthItem{
		Price: s.PriceDecimal(price).String(),
		Size:  s.QuantityDecimal(volume).String(),
		Count: int64(orders),
	}
}

// parsePrice accepts an empty string as "no price".
func (s Symbol) parsePrice(v string) (uint64, error) {
	if v == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPrice, err)
	}
	return s.PriceTicks(d)
}

func (s Symbol) parseQuantity(v string) (uint64, error) {
	if v == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidQuantity, err)
	}
	return s.QuantityLots(d)
}

func toUnits(d decimal.Decimal, scale int32) (uint64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("negative value %s", d)
	}
	shifted := d.Shift(scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%s has more than %d decimal places", d, scale)
	}
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%s is out of range", d)
	}
	return bi.Uint64(), nil
}

func fromUnits(v uint64, scale int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -scale)
}
