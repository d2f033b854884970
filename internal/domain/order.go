package domain

import "github.com/shopspring/decimal"

// OrderType type of an exchange order. Only market orders are placed.
type OrderType string

const OrderTypeMarket OrderType = "MARKET"

// Order request handed to an execution gateway.
type Order struct {
	Symbol        string
	Side          Side
	Type          OrderType
	Quantity      decimal.Decimal
	ClientOrderID string
}
