// Package trader submits orders produced by the strategy.
package trader

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// quantityPrecision is the number of decimals Binance accepts for spot quantities of the supported pairs.
const quantityPrecision = 4

// BinanceTrader places spot market orders on Binance.
type BinanceTrader struct {
	client *binance.Client
}

func NewBinanceTrader(client *binance.Client) *BinanceTrader {
	return &BinanceTrader{client: client}
}

// ExecuteOrder sends the order. The exchange response is not interpreted.
func (t *BinanceTrader) ExecuteOrder(ctx context.Context, order domain.Order) error {
	side, err := binanceSide(order.Side)
	if err != nil {
		return err
	}
	if order.Type != domain.OrderTypeMarket {
		return errors.Errorf("unsupported order type %q", order.Type)
	}

	quantity := order.Quantity.RoundFloor(quantityPrecision)
	if !quantity.IsPositive() {
		return errors.Errorf("order quantity %s rounds to zero", order.Quantity)
	}

	_, err = t.client.NewCreateOrderService().Symbol(order.Symbol).
		Side(side).Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		NewClientOrderID(order.ClientOrderID).
		Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to place %s order for %s", order.Side, order.Symbol)
	}
	return nil
}

func binanceSide(side domain.Side) (binance.SideType, error) {
	switch side {
	case domain.SideBuy:
		return binance.SideTypeBuy, nil
	case domain.SideSell:
		return binance.SideTypeSell, nil
	default:
		return "", errors.Errorf("side %s is not tradable", side)
	}
}
