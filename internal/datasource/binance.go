package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// DefaultBinanceBaseURL is the production Binance spot API endpoint.
const DefaultBinanceBaseURL = "https://api.binance.com"

// binanceMaxLimit is the largest page the klines endpoint serves.
const binanceMaxLimit = 1000

// Binance fetches klines from the Binance spot REST API.
type Binance struct {
	client  *Client
	baseURL string
	limit   int
}

// NewBinance creates a Binance fetcher. An empty baseURL selects the
// production endpoint.
func NewBinance(client *Client, baseURL string) *Binance {
	if baseURL == "" {
		baseURL = DefaultBinanceBaseURL
	}
	return &Binance{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   binanceMaxLimit,
	}
}

// Name returns the source name.
func (b *Binance) Name() string { return "binance" }

// FetchBars pages through /api/v3/klines from q.From to the end of q.To,
// advancing startTime past the last bar of each page.
func (b *Binance) FetchBars(ctx context.Context, q MarketQuery) ([]models.Kline, error) {
	if q.Symbol == "" {
		return nil, fmt.Errorf("binance: symbol is required")
	}
	start := utils.StartOfDayUTC(q.From).UnixMilli()
	end := utils.EndOfDayUTC(q.To).UnixMilli()

	var klines []models.Kline
	for start <= end {
		var rows [][]json.RawMessage
		if err := b.client.getJSON(ctx, b.pageURL(q, start, end), nil, &rows); err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", q.Symbol, err)
		}
		if len(rows) == 0 {
			break
		}
		for i, row := range rows {
			k, err := parseKline(row)
			if err != nil {
				return nil, fmt.Errorf("binance klines %s row %d: %w", q.Symbol, len(klines)+i+1, err)
			}
			klines = append(klines, k)
		}

		next := klines[len(klines)-1].OpenTime.UnixMilli() + 1
		if len(rows) < b.limit || next <= start {
			break
		}
		start = next
	}
	return klines, nil
}

func (b *Binance) pageURL(q MarketQuery, start, end int64) string {
	v := url.Values{}
	v.Set("symbol", strings.ToUpper(q.Symbol))
	v.Set("interval", string(q.Interval))
	v.Set("startTime", strconv.FormatInt(start, 10))
	v.Set("endTime", strconv.FormatInt(end, 10))
	v.Set("limit", strconv.Itoa(b.limit))
	return b.baseURL + "/api/v3/klines?" + v.Encode()
}

// parseKline decodes one kline array:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume,
// trades, takerBase, takerQuote, ignore].
func parseKline(row []json.RawMessage) (models.Kline, error) {
	var k models.Kline
	if len(row) < 11 {
		return k, fmt.Errorf("expected at least 11 fields, got %d", len(row))
	}

	var openMs, closeMs, trades int64
	ints := []struct {
		name string
		dst  *int64
		raw  json.RawMessage
	}{
		{"open_time", &openMs, row[0]},
		{"close_time", &closeMs, row[6]},
		{"number_of_trades", &trades, row[8]},
	}
	for _, f := range ints {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return k, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	floats := []struct {
		name string
		dst  *float64
		raw  json.RawMessage
	}{
		{"open", &k.Open, row[1]},
		{"high", &k.High, row[2]},
		{"low", &k.Low, row[3]},
		{"close", &k.Close, row[4]},
		{"volume", &k.Volume, row[5]},
		{"quote_asset_volume", &k.QuoteAssetVolume, row[7]},
		{"taker_buy_base_asset_volume", &k.TakerBuyBaseAssetVolume, row[9]},
		{"taker_buy_quote_asset_volume", &k.TakerBuyQuoteAssetVolume, row[10]},
	}
	for _, f := range floats {
		var s string
		if err := json.Unmarshal(f.raw, &s); err != nil {
			return k, fmt.Errorf("%s: %w", f.name, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return k, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	k.OpenTime = time.UnixMilli(openMs).UTC()
	k.CloseTime = time.UnixMilli(closeMs).UTC()
	k.NumberOfTrades = trades
	return k, nil
}
