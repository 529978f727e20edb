package main

import (
	"math/rand"

	match "github.com/0x5487/matching-core"
	"github.com/0x5487/matching-core/protocol"
)

// flowGenerator produces a random but reproducible order flow around a mid price.
type flowGenerator struct {
	rng        *rand.Rand
	serializer protocol.Serializer
	symbol     match.Symbol
	mid        int64
	nextID     uint64
	placed     []uint64
}

func newFlowGenerator(symbol match.Symbol, mid int64, seed int64) *flowGenerator {
	return &flowGenerator{
		rng:        rand.New(rand.NewSource(seed)),
		serializer: &protocol.DefaultJSONSerializer{},
		symbol:     symbol,
		mid:        mid,
	}
}

func (g *flowGenerator) price(offset int64) string {
	p := g.mid + offset
	if p < 1 {
		p = 1
	}
	return g.symbol.PriceDecimal(uint64(p)).String()
}

func (g *flowGenerator) size() string {
	return g.symbol.QuantityDecimal(uint64(1 + g.rng.Intn(10))).String()
}

func (g *flowGenerator) side() protocol.Side {
	if g.rng.Intn(2) == 0 {
		return protocol.SideBuy
	}
	return protocol.SideSell
}

// pick returns a previously placed order id, which may already be gone.
func (g *flowGenerator) pick() (uint64, bool) {
	if len(g.placed) == 0 {
		return 0, false
	}
	return g.placed[g.rng.Intn(len(g.placed))], true
}

// Next returns the next command of the flow.
// Distribution: 60% limit, 10% market, 10% stop variants, 10% cancel, 10% amend.
func (g *flowGenerator) Next() (*protocol.Command, error) {
	roll := g.rng.Intn(100)
	switch {
	case roll < 80:
		return g.place(roll)
	case roll < 90:
		if id, ok := g.pick(); ok {
			return protocol.NewCommand(g.serializer, g.symbol.Name, protocol.CmdCancelOrder, &protocol.CancelOrderCommand{OrderID: id})
		}
	default:
		if id, ok := g.pick(); ok {
			return protocol.NewCommand(g.serializer, g.symbol.Name, protocol.CmdAmendOrder, &protocol.AmendOrderCommand{
				OrderID:  id,
				NewPrice: g.price(int64(g.rng.Intn(40)) - 20),
				NewSize:  g.size(),
			})
		}
	}
	return g.place(0)
}

func (g *flowGenerator) place(roll int) (*protocol.Command, error) {
	g.nextID++
	side := g.side()
	// buyers sit below the mid, sellers above, with some overlap to cross
	offset := int64(g.rng.Intn(50))
	if side == protocol.SideBuy {
		offset = 5 - offset
	} else {
		offset = offset - 5
	}

	cmd := &protocol.PlaceOrderCommand{
		OrderID:   g.nextID,
		Side:      side,
		OrderType: protocol.OrderTypeLimit,
		Price:     g.price(offset),
		Size:      g.size(),
	}

	switch {
	case roll >= 60 && roll < 70:
		cmd.OrderType = protocol.OrderTypeMarket
		cmd.Price = ""
	case roll >= 70 && roll < 75:
		cmd.OrderType = protocol.OrderTypeStop
		cmd.Price = ""
		cmd.StopPrice = g.stopPrice(side)
	case roll >= 75 && roll < 78:
		cmd.OrderType = protocol.OrderTypeStopLimit
		cmd.StopPrice = g.stopPrice(side)
		cmd.Price = cmd.StopPrice
	case roll >= 78 && roll < 80:
		cmd.OrderType = protocol.OrderTypeTrailingStop
		cmd.Price = ""
		cmd.StopPrice = g.stopPrice(side)
		cmd.TrailingDistance = g.symbol.PriceDecimal(uint64(10 + g.rng.Intn(10))).String()
		cmd.TrailingStep = g.symbol.PriceDecimal(uint64(1 + g.rng.Intn(3))).String()
	}
	if cmd.OrderType == protocol.OrderTypeLimit && g.rng.Intn(10) == 0 {
		cmd.TimeInForce = protocol.TimeInForceIOC
	}

	if cmd.OrderType != protocol.OrderTypeMarket {
		g.placed = append(g.placed, g.nextID)
	}
	return protocol.NewCommand(g.serializer, g.symbol.Name, protocol.CmdPlaceOrder, cmd)
}

// stopPrice places a trigger on the far side of the mid for the order side.
func (g *flowGenerator) stopPrice(side protocol.Side) string {
	offset := int64(10 + g.rng.Intn(40))
	if side == protocol.SideSell {
		offset = -offset
	}
	return g.price(offset)
}
