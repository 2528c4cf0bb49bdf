package core

import (
	"math"
	"strings"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketUS     Market = "US"
	MarketHK     Market = "HK"
	MarketCNA    Market = "CN_A"
	MarketEU     Market = "EU"
	MarketCrypto Market = "CRYPTO"
)

// DetectMarket infers the market from a ticker suffix.
func DetectMarket(symbol string) Market {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, ".HK"):
		return MarketHK
	case strings.HasSuffix(s, ".SH"), strings.HasSuffix(s, ".SS"), strings.HasSuffix(s, ".SZ"):
		return MarketCNA
	case strings.HasSuffix(s, "-USD"), strings.HasSuffix(s, "-USDT"):
		return MarketCrypto
	default:
		return MarketUS
	}
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"` // "1d"
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	Time     time.Time `json:"time"`
}

// IsValid checks that the bar carries a usable close and timestamp
func (b OHLCV) IsValid() bool {
	return !b.Time.IsZero() && b.Close > 0 && !math.IsInf(b.Close, 0) && !math.IsNaN(b.Close)
}
