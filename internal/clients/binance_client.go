// Package clients builds exchange API clients.
package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient creates an authenticated client. testnet switches every
// go-binance client in the process to the spot testnet.
func NewBinanceClient(apiKey, apiSecret string, testnet bool) *binance.Client {
	binance.UseTestnet = testnet
	return binance.NewClient(apiKey, apiSecret)
}
