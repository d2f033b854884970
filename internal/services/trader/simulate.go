package trader

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// ErrInsufficientBalance the simulated wallet cannot cover the order.
var ErrInsufficientBalance = errors.New("insufficient balance")

var initialQuoteBalance = decimal.NewFromInt(10000)

// Pricer defines an interface for getting the price of a trading pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Fill executed simulated order.
type Fill struct {
	ClientOrderID string
	Side          domain.Side
	Quantity      decimal.Decimal
	Price         decimal.Decimal
}

// SimulateTrader paper-trades a single pair against an in-memory wallet.
type SimulateTrader struct {
	mu     sync.RWMutex
	pair   domain.Pair
	logger *zap.Logger
	pricer Pricer
	wallet map[string]decimal.Decimal
	fills  []Fill
}

// NewSimulateTrader creates a new SimulateTrader with an empty base and 10000 quote balance.
func NewSimulateTrader(pair domain.Pair, logger *zap.Logger, pricer Pricer) (*SimulateTrader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pricer == nil {
		return nil, errors.New("pricer is required for SimulateTrader")
	}

	t := &SimulateTrader{
		pair:   pair,
		logger: logger,
		pricer: pricer,
		wallet: map[string]decimal.Decimal{pair.From: decimal.Zero, pair.To: initialQuoteBalance},
	}

	logger.Info("simulate init",
		zap.String("pair", pair.String()),
		zap.String("base", t.wallet[pair.From].String()),
		zap.String("quote", t.wallet[pair.To].String()))

	return t, nil
}

// ExecuteOrder fills the order at the current price.
func (t *SimulateTrader) ExecuteOrder(ctx context.Context, order domain.Order) error {
	if order.Symbol != t.pair.Symbol() {
		return errors.Errorf("simulator trades %s, got order for %s", t.pair.Symbol(), order.Symbol)
	}
	if !order.Quantity.IsPositive() {
		return errors.Errorf("order quantity must be positive, got %s", order.Quantity)
	}

	price, err := t.pricer.GetPrice(ctx, t.pair)
	if err != nil {
		return errors.Wrap(err, "failed to get price")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cost := order.Quantity.Mul(price)
	base, quote := t.wallet[t.pair.From], t.wallet[t.pair.To]

	switch order.Side {
	case domain.SideBuy:
		if quote.LessThan(cost) {
			return errors.Wrapf(ErrInsufficientBalance, "need %s %s, have %s", cost, t.pair.To, quote)
		}
		t.wallet[t.pair.To] = quote.Sub(cost)
		t.wallet[t.pair.From] = base.Add(order.Quantity)
	case domain.SideSell:
		if base.LessThan(order.Quantity) {
			return errors.Wrapf(ErrInsufficientBalance, "need %s %s, have %s", order.Quantity, t.pair.From, base)
		}
		t.wallet[t.pair.From] = base.Sub(order.Quantity)
		t.wallet[t.pair.To] = quote.Add(cost)
	default:
		return errors.Errorf("side %s is not tradable", order.Side)
	}

	t.fills = append(t.fills, Fill{
		ClientOrderID: order.ClientOrderID,
		Side:          order.Side,
		Quantity:      order.Quantity,
		Price:         price,
	})

	t.logger.Info("simulated order filled",
		zap.String("id", order.ClientOrderID),
		zap.Stringer("side", order.Side),
		zap.String("quantity", order.Quantity.String()),
		zap.String("price", price.String()),
		zap.String("base", t.wallet[t.pair.From].String()),
		zap.String("quote", t.wallet[t.pair.To].String()))

	return nil
}

// GetBalance returns the simulated balance of a currency.
func (t *SimulateTrader) GetBalance(_ context.Context, currency string) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.wallet[currency], nil
}

// Fills returns executed orders, oldest first.
func (t *SimulateTrader) Fills() []Fill {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Fill, len(t.fills))
	copy(out, t.fills)
	return out
}
