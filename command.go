package match

import (
	"fmt"

	"github.com/0x5487/matching-core/protocol"
)

// Execute decodes a serialized command and applies it to the book.
// Decimal prices and sizes are converted with the book's Symbol scales.
func (book *OrderBook) Execute(cmd *protocol.Command) error {
	if cmd == nil {
		return ErrUnknownCommand
	}
	if cmd.Symbol != "" && cmd.Symbol != book.symbol.Name {
		return fmt.Errorf("%w: command for %q", ErrSymbolMismatch, cmd.Symbol)
	}

	switch cmd.Type {
	case protocol.CmdPlaceOrder:
		payload := &protocol.PlaceOrderCommand{}
		if err := book.decode(cmd, payload); err != nil {
			return err
		}
		req, err := book.placeRequest(payload)
		if err != nil {
			return newOrderError("add", payload.OrderID, err)
		}
		return book.AddOrder(req)

	case protocol.CmdCancelOrder:
		payload := &protocol.CancelOrderCommand{}
		if err := book.decode(cmd, payload); err != nil {
			return err
		}
		return book.CancelOrder(payload.OrderID)

	case protocol.CmdAmendOrder:
		payload := &protocol.AmendOrderCommand{}
		if err := book.decode(cmd, payload); err != nil {
			return err
		}
		price, qty, err := book.priceAndSize(payload.NewPrice, payload.NewSize)
		if err != nil {
			return newOrderError("modify", payload.OrderID, err)
		}
		return book.ModifyOrder(payload.OrderID, price, qty)

	case protocol.CmdReduceOrder:
		payload := &protocol.ReduceOrderCommand{}
		if err := book.decode(cmd, payload); err != nil {
			return err
		}
		qty, err := book.symbol.parseQuantity(payload.Size)
		if err != nil {
			return newOrderError("reduce", payload.OrderID, err)
		}
		return book.ReduceOrder(payload.OrderID, qty)

	case protocol.CmdReplaceOrder:
		payload := &protocol.ReplaceOrderCommand{}
		if err := book.decode(cmd, payload); err != nil {
			return err
		}
		price, qty, err := book.priceAndSize(payload.NewPrice, payload.NewSize)
		if err != nil {
			return newOrderError("replace", payload.OrderID, err)
		}
		return book.ReplaceOrder(payload.OrderID, payload.NewOrderID, price, qty)
	}

	return fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Type)
}

func (book *OrderBook) decode(cmd *protocol.Command, payload any) error {
	if err := book.opts.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		return fmt.Errorf("decode %s command: %w", cmd.Type, err)
	}
	return nil
}

func (book *OrderBook) priceAndSize(price, size string) (uint64, uint64, error) {
	p, err := book.symbol.parsePrice(price)
	if err != nil {
		return 0, 0, err
	}
	q, err := book.symbol.parseQuantity(size)
	if err != nil {
		return 0, 0, err
	}
	return p, q, nil
}

func (book *OrderBook) placeRequest(cmd *protocol.PlaceOrderCommand) (OrderRequest, error) {
	req := OrderRequest{
		ID:          cmd.OrderID,
		Symbol:      book.symbol.ID,
		Side:        cmd.Side,
		Type:        cmd.OrderType,
		TimeInForce: cmd.TimeInForce,
	}

	var err error
	if req.Price, err = book.symbol.parsePrice(cmd.Price); err != nil {
		return req, err
	}
	if req.StopPrice, err = book.symbol.parsePrice(cmd.StopPrice); err != nil {
		return req, err
	}
	if req.TrailingDistance, err = book.symbol.parsePrice(cmd.TrailingDistance); err != nil {
		return req, err
	}
	if req.TrailingStep, err = book.symbol.parsePrice(cmd.TrailingStep); err != nil {
		return req, err
	}
	if req.Quantity, err = book.symbol.parseQuantity(cmd.Size); err != nil {
		return req, err
	}
	return req, nil
}
