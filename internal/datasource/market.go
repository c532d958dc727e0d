package datasource

import (
	"context"
	"strconv"
	"time"

	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/pkg/models"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

// MarketQuery selects the bars a MarketFetcher returns. To is an inclusive
// calendar day in UTC.
type MarketQuery struct {
	Symbol   string
	Interval models.Interval
	From     time.Time
	To       time.Time
}

// MarketFetcher retrieves OHLCV bars for one symbol.
type MarketFetcher interface {
	Name() string
	FetchBars(ctx context.Context, q MarketQuery) ([]models.Kline, error)
}

// KlinesTable converts bars into the market CSV layout.
func KlinesTable(name string, klines []models.Kline) *tabular.Table {
	t := tabular.New(name, models.MarketColumns...)
	for _, k := range klines {
		t.Append(
			utils.FormatTimestamp(k.OpenTime),
			formatFloat(k.Open),
			formatFloat(k.High),
			formatFloat(k.Low),
			formatFloat(k.Close),
			formatFloat(k.Volume),
			k.CloseTime.UTC().Format(time.RFC3339Nano),
			formatFloat(k.QuoteAssetVolume),
			strconv.FormatInt(k.NumberOfTrades, 10),
			formatFloat(k.TakerBuyBaseAssetVolume),
			formatFloat(k.TakerBuyQuoteAssetVolume),
		)
	}
	return t
}

// WriteKlinesCSV writes bars to path atomically.
func WriteKlinesCSV(path string, klines []models.Kline) error {
	return KlinesTable(path, klines).WriteFile(path)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
