// Package models defines the core data structures used throughout news2alpha.
package models

import "time"

// Kline represents a single exchange candlestick bar.
type Kline struct {
	OpenTime                 time.Time `json:"open_time"`
	Open                     float64   `json:"open"`
	High                     float64   `json:"high"`
	Low                      float64   `json:"low"`
	Close                    float64   `json:"close"`
	Volume                   float64   `json:"volume"`
	CloseTime                time.Time `json:"close_time"`
	QuoteAssetVolume         float64   `json:"quote_asset_volume"`
	NumberOfTrades           int64     `json:"number_of_trades"`
	TakerBuyBaseAssetVolume  float64   `json:"taker_buy_base_asset_volume"`
	TakerBuyQuoteAssetVolume float64   `json:"taker_buy_quote_asset_volume"`
}

// Interval represents a kline interval as understood by the exchange.
type Interval string

const (
	Interval1Min   Interval = "1m"
	Interval5Min   Interval = "5m"
	Interval15Min  Interval = "15m"
	Interval1Hour  Interval = "1h"
	Interval4Hour  Interval = "4h"
	Interval1Day   Interval = "1d"
	Interval1Week  Interval = "1w"
	Interval1Month Interval = "1M"
)

// Duration returns the nominal length of one bar. Months are approximated
// as 30 days; zero is returned for unknown intervals.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1Min:
		return time.Minute
	case Interval5Min:
		return 5 * time.Minute
	case Interval15Min:
		return 15 * time.Minute
	case Interval1Hour:
		return time.Hour
	case Interval4Hour:
		return 4 * time.Hour
	case Interval1Day:
		return 24 * time.Hour
	case Interval1Week:
		return 7 * 24 * time.Hour
	case Interval1Month:
		return 30 * 24 * time.Hour
	}
	return 0
}

// MarketColumns is the header written for market data tables. The first
// column is the bar open time in RFC3339 UTC.
var MarketColumns = []string{
	"Date", "Open", "High", "Low", "Close", "Volume",
	"Close_time", "Quote_asset_volume", "Number_of_trades",
	"Taker_buy_base_asset_volume", "Taker_buy_quote_asset_volume",
}
